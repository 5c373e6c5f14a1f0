package metrics

import (
	"time"

	"github.com/aristath/ratecast/internal/domain"
)

// Forecaster wraps a domain.Forecaster and records every call.
type Forecaster struct {
	next     domain.Forecaster
	recorder *Recorder
}

// InstrumentForecaster returns next wrapped with fit metrics
func InstrumentForecaster(next domain.Forecaster, recorder *Recorder) *Forecaster {
	return &Forecaster{next: next, recorder: recorder}
}

// Forecast delegates to the wrapped forecaster
func (f *Forecaster) Forecast(series []float64, horizon int, config domain.ModelConfig) ([]float64, error) {
	start := time.Now()
	out, err := f.next.Forecast(series, horizon, config)
	f.recorder.RecordFit(config.String(), err == nil, time.Since(start).Seconds())
	return out, err
}

// MinObservations delegates to the wrapped forecaster
func (f *Forecaster) MinObservations(config domain.ModelConfig) int {
	return f.next.MinObservations(config)
}
