package arima

import (
	"github.com/rs/zerolog"

	"github.com/aristath/ratecast/internal/domain"
)

// Forecaster fits a fresh model on every call.
type Forecaster struct {
	log zerolog.Logger
}

// NewForecaster creates a new ARIMA forecaster
func NewForecaster(log zerolog.Logger) *Forecaster {
	return &Forecaster{
		log: log.With().Str("component", "arima").Logger(),
	}
}

// Forecast fits ARIMA(config) to series and returns horizon forecasts.
func (f *Forecaster) Forecast(series []float64, horizon int, config domain.ModelConfig) ([]float64, error) {
	model, err := Fit(series, config)
	if err != nil {
		return nil, err
	}

	f.log.Debug().
		Str("config", config.String()).
		Int("observations", len(series)).
		Float64("intercept", model.Intercept).
		Floats64("ar", model.AR).
		Floats64("ma", model.MA).
		Float64("sigma2", model.Sigma2).
		Msg("Fitted model")

	return model.Forecast(horizon)
}

// MinObservations returns the shortest admissible series for config.
func (f *Forecaster) MinObservations(config domain.ModelConfig) int {
	return MinObservations(config)
}
