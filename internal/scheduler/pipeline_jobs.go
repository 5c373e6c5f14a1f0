package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/ratecast/internal/config"
	"github.com/aristath/ratecast/internal/pipeline"
)

// ErrJobRunning is returned when a job is triggered while a previous run is in flight
var ErrJobRunning = errors.New("job already running")

// StageFunc runs one or more pipeline stages
type StageFunc func(ctx context.Context) error

// PipelineJob runs pipeline stages, one run at a time
type PipelineJob struct {
	name    string
	fn      StageFunc
	timeout time.Duration
	log     zerolog.Logger
	running sync.Mutex
}

// NewPipelineJob creates a job named name that calls fn with a bounded context
func NewPipelineJob(name string, timeout time.Duration, fn StageFunc, log zerolog.Logger) *PipelineJob {
	return &PipelineJob{
		name:    name,
		fn:      fn,
		timeout: timeout,
		log:     log.With().Str("job", name).Logger(),
	}
}

// Name returns the job name
func (j *PipelineJob) Name() string {
	return j.name
}

// Run executes the stages
func (j *PipelineJob) Run() error {
	if !j.running.TryLock() {
		j.log.Warn().Msg("Previous run still in progress, skipping")
		return ErrJobRunning
	}
	defer j.running.Unlock()

	ctx := context.Background()
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	start := time.Now()
	if err := j.fn(ctx); err != nil {
		return fmt.Errorf("%s: %w", j.name, err)
	}

	j.log.Info().Dur("duration", time.Since(start)).Msg("Pipeline job finished")
	return nil
}

// Runner is the part of the pipeline the jobs drive
type Runner interface {
	Acquire(ctx context.Context) (*pipeline.Result, error)
	Load(ctx context.Context) (*pipeline.Result, error)
	Train(ctx context.Context) (*pipeline.Result, error)
	Score(ctx context.Context) (*pipeline.Result, error)
}

// Job names
const (
	JobRefreshRates = "refresh_rates"
	JobTrainModels  = "train_models"
	JobScore        = "score_predictions"
	JobCheckDB      = "check_database"
)

// PipelineJobs builds the refresh, train and score jobs for p
func PipelineJobs(p Runner, timeout time.Duration, log zerolog.Logger) map[string]*PipelineJob {
	return map[string]*PipelineJob{
		JobRefreshRates: NewPipelineJob(JobRefreshRates, timeout, func(ctx context.Context) error {
			if _, err := p.Acquire(ctx); err != nil {
				return err
			}
			_, err := p.Load(ctx)
			return err
		}, log),
		JobTrainModels: NewPipelineJob(JobTrainModels, timeout, func(ctx context.Context) error {
			_, err := p.Train(ctx)
			return err
		}, log),
		JobScore: NewPipelineJob(JobScore, timeout, func(ctx context.Context) error {
			_, err := p.Score(ctx)
			return err
		}, log),
	}
}

// RegisterPipeline schedules the pipeline jobs from cfg. A job with an empty
// expression is registered for manual runs only.
func RegisterPipeline(s *Scheduler, p Runner, cfg config.ScheduleConfig, timeout time.Duration, log zerolog.Logger) error {
	jobs := PipelineJobs(p, timeout, log)
	schedules := map[string]string{
		JobRefreshRates: cfg.Acquire,
		JobTrainModels:  cfg.Train,
		JobScore:        cfg.Score,
	}

	for _, name := range []string{JobRefreshRates, JobTrainModels, JobScore} {
		if err := s.Schedule(cfg.Enabled, schedules[name], jobs[name]); err != nil {
			return err
		}
	}
	return nil
}
