// Package domain provides the core types of the rate forecasting pipeline.
package domain

import (
	"fmt"
	"time"
)

// Currency represents a currency code
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyINR Currency = "INR"
)

// DefaultCurrencies is the fixed processing order of the tracked currencies.
var DefaultCurrencies = []Currency{CurrencyEUR, CurrencyGBP, CurrencyINR}

// DateLayout is the calendar-day format used in storage, the rate API and the web view.
const DateLayout = "2006-01-02"

// ModelConfig holds the (P, D, Q) orders of an ARIMA model.
type ModelConfig struct {
	P int `json:"p" yaml:"p" validate:"gte=0,lte=5"`
	D int `json:"d" yaml:"d" validate:"gte=0,lte=2"`
	Q int `json:"q" yaml:"q" validate:"gte=0,lte=5"`
}

// String formats the orders the way they are usually written, e.g. (2,1,0).
func (c ModelConfig) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.P, c.D, c.Q)
}

// DefaultGrid is the sparse evaluation grid. Orders beyond 2 rarely help on daily FX data.
var DefaultGrid = []ModelConfig{
	{P: 1, D: 1, Q: 0},
	{P: 0, D: 1, Q: 0},
	{P: 0, D: 1, Q: 1},
	{P: 2, D: 1, Q: 0},
	{P: 0, D: 1, Q: 2},
}

// Settings is the explicit configuration passed to the evaluator and the predictor.
type Settings struct {
	Horizon       int           `validate:"gt=0"`
	LookbackYears int           `validate:"gt=0"`
	Currencies    []Currency    `validate:"min=1,dive,len=3"`
	Grid          []ModelConfig `validate:"dive"`
}

// DefaultSettings returns the reference configuration: a 7 business day horizon,
// three years of history, EUR/GBP/INR and the default grid.
func DefaultSettings() Settings {
	currencies := make([]Currency, len(DefaultCurrencies))
	copy(currencies, DefaultCurrencies)
	grid := make([]ModelConfig, len(DefaultGrid))
	copy(grid, DefaultGrid)

	return Settings{
		Horizon:       7,
		LookbackYears: 3,
		Currencies:    currencies,
		Grid:          grid,
	}
}

// EvaluationRow is the backtest error of one grid entry for every tracked currency.
type EvaluationRow struct {
	Config ModelConfig
	MAPE   map[Currency]float64
}

// EvaluationTable holds one row per grid entry in grid order.
type EvaluationTable struct {
	Currencies []Currency
	Rows       []EvaluationRow
}

// SelectedParams is the winning configuration for one currency.
type SelectedParams struct {
	Currency  Currency    `json:"currency"`
	Config    ModelConfig `json:"config"`
	MAPE      float64     `json:"mape"`
	RunID     string      `json:"run_id,omitempty"`
	TrainedAt time.Time   `json:"trained_at"`
}

// PredictionRow is one forecast step for one currency.
type PredictionRow struct {
	Currency      Currency  `json:"currency"`
	TargetDate    time.Time `json:"target_date"`
	PredictedRate float64   `json:"predicted_rate"`
}

// DailyRates is the rate-source shape: every quoted currency for one calendar day.
type DailyRates struct {
	Date  time.Time
	Rates map[Currency]float64
}
