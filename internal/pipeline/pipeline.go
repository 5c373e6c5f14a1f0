// Package pipeline runs the acquire, load, train and score stages.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/ratecast/internal/clients/exchangerate"
	"github.com/aristath/ratecast/internal/config"
	"github.com/aristath/ratecast/internal/domain"
	"github.com/aristath/ratecast/internal/metrics"
	"github.com/aristath/ratecast/internal/modules/evaluation"
	"github.com/aristath/ratecast/internal/modules/prediction"
	"github.com/aristath/ratecast/internal/modules/selection"
	"github.com/aristath/ratecast/internal/utils"
)

// Stage names used in logs and metrics.
const (
	StageAcquire = "acquire"
	StageLoad    = "load"
	StageTrain   = "train"
	StageScore   = "score"
)

// RawFetcher downloads an undecoded rate history document
type RawFetcher interface {
	FetchRaw(ctx context.Context, start, end time.Time) ([]byte, error)
}

// Archive stores and reads back raw history documents
type Archive interface {
	Save(ctx context.Context, body []byte) error
	Load(ctx context.Context) ([]domain.DailyRates, error)
}

// RateStore persists the rate history
type RateStore interface {
	Upsert(ctx context.Context, history []domain.DailyRates) (int, error)
	Load(ctx context.Context, from, to time.Time, currencies []domain.Currency) (domain.RateSet, error)
}

// BatchStore replaces the stored prediction batch
type BatchStore interface {
	ReplaceAll(ctx context.Context, runID string, rows []domain.PredictionRow) error
}

// Deps holds the collaborators of a Pipeline
type Deps struct {
	Config      *config.ModelConfig
	Fetcher     RawFetcher
	Archive     Archive
	Rates       RateStore
	Params      domain.ParamsStore
	Predictions BatchStore
	Forecaster  domain.Forecaster
	Recorder    *metrics.Recorder
	Now         func() time.Time
}

// Result summarises one stage run
type Result struct {
	Stage    string        `json:"stage"`
	RunID    string        `json:"run_id"`
	Rows     int           `json:"rows"`
	Duration time.Duration `json:"duration"`
}

// Pipeline wires the stages together.
type Pipeline struct {
	cfg         *config.ModelConfig
	fetcher     RawFetcher
	archive     Archive
	rates       RateStore
	params      domain.ParamsStore
	predictions BatchStore
	evaluator   *evaluation.Evaluator
	predictor   *prediction.Predictor
	recorder    *metrics.Recorder
	now         func() time.Time
	log         zerolog.Logger
}

// New creates a pipeline. The forecaster is instrumented when a recorder is given.
func New(deps Deps, log zerolog.Logger) *Pipeline {
	forecaster := deps.Forecaster
	if deps.Recorder != nil {
		forecaster = metrics.InstrumentForecaster(forecaster, deps.Recorder)
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	return &Pipeline{
		cfg:         deps.Config,
		fetcher:     deps.Fetcher,
		archive:     deps.Archive,
		rates:       deps.Rates,
		params:      deps.Params,
		predictions: deps.Predictions,
		evaluator:   evaluation.NewEvaluator(forecaster, log),
		predictor:   prediction.NewPredictor(forecaster, log),
		recorder:    deps.Recorder,
		now:         now,
		log:         log.With().Str("component", "pipeline").Logger(),
	}
}

// Acquire downloads the configured window and archives the raw document.
func (p *Pipeline) Acquire(ctx context.Context) (*Result, error) {
	return p.run(StageAcquire, func(log zerolog.Logger, runID string) (int, error) {
		start, end, err := p.cfg.AcquireWindow(p.now())
		if err != nil {
			return 0, err
		}

		body, err := p.fetcher.FetchRaw(ctx, start, end)
		if err != nil {
			return 0, fmt.Errorf("fetch rates: %w", err)
		}
		// Reject undecodable documents before they replace a good snapshot
		history, err := exchangerate.ParseHistory(body)
		if err != nil {
			return 0, err
		}
		if err := p.archive.Save(ctx, body); err != nil {
			return 0, fmt.Errorf("archive rates: %w", err)
		}

		log.Info().
			Str("start", start.Format(domain.DateLayout)).
			Str("end", end.Format(domain.DateLayout)).
			Int("days", len(history)).
			Msg("Acquired rate history")
		return len(history), nil
	})
}

// Load reads the archived snapshot into the rates table.
func (p *Pipeline) Load(ctx context.Context) (*Result, error) {
	return p.run(StageLoad, func(log zerolog.Logger, runID string) (int, error) {
		history, err := p.archive.Load(ctx)
		if err != nil {
			return 0, fmt.Errorf("read snapshot: %w", err)
		}

		written, err := p.rates.Upsert(ctx, history)
		if err != nil {
			return 0, fmt.Errorf("store rates: %w", err)
		}
		return written, nil
	})
}

// Train backtests the grid on rates up to the model end date and stores the
// best configuration per currency. Stored params are untouched on failure.
func (p *Pipeline) Train(ctx context.Context) (*Result, error) {
	return p.run(StageTrain, func(log zerolog.Logger, runID string) (int, error) {
		settings := p.cfg.Settings()
		end, err := p.cfg.ModelEndDate(p.now())
		if err != nil {
			return 0, err
		}

		set, err := p.rates.Load(ctx, time.Time{}, end, settings.Currencies)
		if err != nil {
			return 0, fmt.Errorf("load rates: %w", err)
		}

		table, err := p.evaluator.Evaluate(set, settings)
		if err != nil {
			return 0, err
		}
		selected, err := selection.SelectBest(table)
		if err != nil {
			return 0, err
		}

		trainedAt := p.now().UTC().Truncate(time.Second)
		for i := range selected {
			selected[i].RunID = runID
			selected[i].TrainedAt = trainedAt
		}
		if err := p.params.SaveParams(ctx, selected); err != nil {
			return 0, fmt.Errorf("save params: %w", err)
		}

		for _, s := range selected {
			if p.recorder != nil {
				p.recorder.RecordSelectedMAPE(string(s.Currency), s.MAPE)
			}
			log.Info().
				Str("currency", string(s.Currency)).
				Str("config", s.Config.String()).
				Float64("mape", s.MAPE).
				Msg("Selected model")
		}
		return len(selected), nil
	})
}

// Score forecasts from the lookback window ending at the model end date and
// replaces the stored predictions. Live configs anchor on today.
func (p *Pipeline) Score(ctx context.Context) (*Result, error) {
	return p.run(StageScore, func(log zerolog.Logger, runID string) (int, error) {
		settings := p.cfg.Settings()
		end, err := p.cfg.ModelEndDate(p.now())
		if err != nil {
			return 0, err
		}
		from := end.AddDate(0, 0, -settings.LookbackYears*365)

		set, err := p.rates.Load(ctx, from, end, settings.Currencies)
		if err != nil {
			return 0, fmt.Errorf("load rates: %w", err)
		}
		params, err := p.params.LoadParams(ctx)
		if err != nil {
			return 0, fmt.Errorf("load params: %w", err)
		}

		var rows []domain.PredictionRow
		if p.cfg.Model.Live {
			rows, err = p.predictor.GenerateFrom(end, set, params, settings)
		} else {
			rows, err = p.predictor.Generate(set, params, settings)
		}
		if err != nil {
			return 0, err
		}

		if err := p.predictions.ReplaceAll(ctx, runID, rows); err != nil {
			return 0, fmt.Errorf("save predictions: %w", err)
		}
		if p.recorder != nil {
			p.recorder.RecordPredictions(len(rows))
		}
		return len(rows), nil
	})
}

// RunAll runs every stage in order, stopping at the first failure.
func (p *Pipeline) RunAll(ctx context.Context) ([]*Result, error) {
	stages := []func(context.Context) (*Result, error){p.Acquire, p.Load, p.Train, p.Score}
	results := make([]*Result, 0, len(stages))
	for _, stage := range stages {
		res, err := stage(ctx)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (p *Pipeline) run(stage string, fn func(log zerolog.Logger, runID string) (int, error)) (*Result, error) {
	runID := uuid.New().String()
	log := p.log.With().Str("stage", stage).Str("run_id", runID).Logger()
	timer := utils.NewTimer(stage, log)

	log.Info().Msg("Stage started")
	rows, err := fn(log, runID)
	duration := timer.StopWithFields(map[string]interface{}{"rows": rows})

	if p.recorder != nil {
		p.recorder.RecordRun(stage, err == nil, duration.Seconds(), float64(p.now().Unix()))
	}
	if err != nil {
		log.Error().Err(err).Dur("duration", duration).Msg("Stage failed")
		return nil, fmt.Errorf("%s: %w", stage, err)
	}

	log.Info().Int("rows", rows).Dur("duration", duration).Msg("Stage complete")
	return &Result{Stage: stage, RunID: runID, Rows: rows, Duration: duration}, nil
}
