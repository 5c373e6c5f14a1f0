// Package evaluation backtests a grid of ARIMA configurations against a
// holdout window at the end of each currency's rate history.
package evaluation

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/ratecast/internal/domain"
)

// Evaluator scores every grid configuration for every tracked currency.
type Evaluator struct {
	forecaster domain.Forecaster
	log        zerolog.Logger
}

// NewEvaluator creates a new evaluator
func NewEvaluator(forecaster domain.Forecaster, log zerolog.Logger) *Evaluator {
	return &Evaluator{
		forecaster: forecaster,
		log:        log.With().Str("component", "evaluator").Logger(),
	}
}

// Evaluate holds out the last settings.Horizon observations of each series,
// forecasts them from the rest with every grid configuration and records the
// MAPE. Rows keep the grid order.
//
// Any fit failure aborts the whole evaluation: a partially evaluated grid is
// never returned.
func (e *Evaluator) Evaluate(rates domain.RateSet, settings domain.Settings) (*domain.EvaluationTable, error) {
	if len(settings.Grid) == 0 {
		return nil, &domain.EmptyGridError{}
	}
	if settings.Horizon <= 0 {
		return nil, fmt.Errorf("horizon must be positive, got %d", settings.Horizon)
	}
	if len(settings.Currencies) == 0 {
		return nil, fmt.Errorf("no currencies to evaluate")
	}
	if err := e.validate(rates, settings); err != nil {
		return nil, err
	}

	horizon := settings.Horizon
	table := &domain.EvaluationTable{
		Currencies: append([]domain.Currency(nil), settings.Currencies...),
		Rows:       make([]domain.EvaluationRow, 0, len(settings.Grid)),
	}

	for _, cfg := range settings.Grid {
		row := domain.EvaluationRow{
			Config: cfg,
			MAPE:   make(map[domain.Currency]float64, len(settings.Currencies)),
		}

		for _, currency := range settings.Currencies {
			values := rates[currency].Values()
			split := len(values) - horizon
			train, holdout := values[:split], values[split:]

			predicted, err := e.forecaster.Forecast(train, horizon, cfg)
			if err != nil {
				return nil, fmt.Errorf("evaluate %s ARIMA%s: %w", currency, cfg, err)
			}
			if len(predicted) != horizon {
				return nil, fmt.Errorf("evaluate %s ARIMA%s: forecaster returned %d values, want %d", currency, cfg, len(predicted), horizon)
			}

			mape, err := MAPE(predicted, holdout)
			if err != nil {
				return nil, fmt.Errorf("evaluate %s ARIMA%s: %w", currency, cfg, err)
			}
			row.MAPE[currency] = mape

			e.log.Debug().
				Str("currency", string(currency)).
				Str("config", cfg.String()).
				Int("train", len(train)).
				Float64("mape", mape).
				Msg("Evaluated configuration")
		}

		table.Rows = append(table.Rows, row)
	}

	e.log.Info().
		Int("configs", len(table.Rows)).
		Int("currencies", len(table.Currencies)).
		Int("horizon", horizon).
		Msg("Evaluation complete")

	return table, nil
}

// validate checks every (config, currency) cell before the first fit so a
// short series fails fast with a DataGapError.
func (e *Evaluator) validate(rates domain.RateSet, settings domain.Settings) error {
	for _, currency := range settings.Currencies {
		have := rates[currency].Len() - settings.Horizon
		if have < 0 {
			have = 0
		}
		for _, cfg := range settings.Grid {
			need := e.forecaster.MinObservations(cfg)
			if have < need {
				return &domain.DataGapError{
					Currency: currency,
					Config:   cfg,
					Horizon:  settings.Horizon,
					Have:     have,
					Need:     need,
				}
			}
		}
	}
	return nil
}
