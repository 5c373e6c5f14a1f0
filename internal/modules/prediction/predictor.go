package prediction

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/ratecast/internal/domain"
)

// Predictor forecasts every tracked currency with its selected orders.
type Predictor struct {
	forecaster domain.Forecaster
	log        zerolog.Logger
}

// NewPredictor creates a new predictor
func NewPredictor(forecaster domain.Forecaster, log zerolog.Logger) *Predictor {
	return &Predictor{
		forecaster: forecaster,
		log:        log.With().Str("component", "predictor").Logger(),
	}
}

// Generate forecasts settings.Horizon business days after the latest date in rates.
func (p *Predictor) Generate(rates domain.RateSet, params map[domain.Currency]domain.SelectedParams, settings domain.Settings) ([]domain.PredictionRow, error) {
	anchor, ok := rates.LastDate()
	if !ok {
		return nil, fmt.Errorf("no rate observations to anchor predictions on")
	}
	return p.GenerateFrom(anchor, rates, params, settings)
}

// GenerateFrom forecasts settings.Horizon business days after anchor. Live runs
// pass today's date. Rows are currency-major in settings.Currencies order, then
// by ascending target date.
//
// Every currency is checked before the first fit, so a missing or short series
// never leaves a partial batch.
func (p *Predictor) GenerateFrom(anchor time.Time, rates domain.RateSet, params map[domain.Currency]domain.SelectedParams, settings domain.Settings) ([]domain.PredictionRow, error) {
	horizon := settings.Horizon
	if horizon <= 0 {
		return nil, fmt.Errorf("horizon must be positive, got %d", horizon)
	}
	if len(settings.Currencies) == 0 {
		return nil, fmt.Errorf("no currencies to predict")
	}

	for _, currency := range settings.Currencies {
		selected, ok := params[currency]
		if !ok {
			return nil, &domain.MissingParamsError{Currency: currency}
		}
		have := rates[currency].Len()
		if need := p.forecaster.MinObservations(selected.Config); have < need {
			return nil, &domain.DataGapError{
				Currency: currency,
				Config:   selected.Config,
				Horizon:  horizon,
				Have:     have,
				Need:     need,
			}
		}
	}

	targets := BusinessDays(anchor, horizon)
	rows := make([]domain.PredictionRow, 0, horizon*len(settings.Currencies))

	for _, currency := range settings.Currencies {
		cfg := params[currency].Config
		forecast, err := p.forecaster.Forecast(rates[currency].Values(), horizon, cfg)
		if err != nil {
			return nil, fmt.Errorf("predict %s ARIMA%s: %w", currency, cfg, err)
		}
		if len(forecast) != horizon {
			return nil, fmt.Errorf("predict %s ARIMA%s: forecaster returned %d values, want %d", currency, cfg, len(forecast), horizon)
		}

		for i, value := range forecast {
			rows = append(rows, domain.PredictionRow{
				Currency:      currency,
				TargetDate:    targets[i],
				PredictedRate: value,
			})
		}

		p.log.Debug().
			Str("currency", string(currency)).
			Str("config", cfg.String()).
			Float64("first", forecast[0]).
			Float64("last", forecast[horizon-1]).
			Msg("Generated forecast")
	}

	p.log.Info().
		Str("anchor", anchor.Format(domain.DateLayout)).
		Int("rows", len(rows)).
		Msg("Predictions generated")

	return rows, nil
}
