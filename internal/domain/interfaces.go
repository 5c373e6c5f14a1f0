package domain

import (
	"context"
	"time"
)

// Forecaster fits a model to a series and returns horizon forward point forecasts.
// It must not retain state between calls.
type Forecaster interface {
	Forecast(series []float64, horizon int, config ModelConfig) ([]float64, error)
	// MinObservations is the shortest series the orders can be estimated from.
	MinObservations(config ModelConfig) int
}

// RateSource fetches daily rates for a date range (inclusive).
type RateSource interface {
	FetchRates(ctx context.Context, start, end time.Time) ([]DailyRates, error)
}

// ParamsStore persists the selected configuration per currency.
// Save upserts by currency and applies the whole batch or nothing.
type ParamsStore interface {
	LoadParams(ctx context.Context) (map[Currency]SelectedParams, error)
	SaveParams(ctx context.Context, params []SelectedParams) error
}

// PredictionStore persists predictions. SavePredictions replaces every stored row.
type PredictionStore interface {
	SavePredictions(ctx context.Context, rows []PredictionRow) error
}
