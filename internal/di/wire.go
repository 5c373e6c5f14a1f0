// Package di provides dependency injection wiring and initialization.
package di

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/ratecast/internal/clients/exchangerate"
	"github.com/aristath/ratecast/internal/clients/snapshot"
	"github.com/aristath/ratecast/internal/config"
	"github.com/aristath/ratecast/internal/metrics"
	"github.com/aristath/ratecast/internal/modules/arima"
	"github.com/aristath/ratecast/internal/modules/prediction"
	"github.com/aristath/ratecast/internal/modules/rates"
	"github.com/aristath/ratecast/internal/modules/selection"
	"github.com/aristath/ratecast/internal/pipeline"
	"github.com/aristath/ratecast/internal/reliability"
	"github.com/aristath/ratecast/internal/scheduler"
)

// JobTimeout bounds a single scheduled pipeline run
const JobTimeout = 2 * time.Hour

// Wire initializes all dependencies and returns a fully configured container
// Order of operations:
// 1. Initialize the database
// 2. Initialize repositories
// 3. Initialize clients
// 4. Build the pipeline and register its jobs
func Wire(ctx context.Context, cfg *config.Config, modelCfg *config.ModelConfig, log zerolog.Logger) (*Container, error) {
	container := &Container{
		Config:      cfg,
		ModelConfig: modelCfg,
		Recorder:    metrics.New(),
	}

	// Step 1: Initialize the database
	db, err := InitializeDatabase(cfg, log)
	if err != nil {
		return nil, err
	}
	container.DB = db

	// Step 2: Initialize repositories
	container.RatesRepo = rates.NewRepository(db.Conn(), log)
	container.ParamsRepo = selection.NewRepository(db.Conn(), log)
	container.PredictionRepo = prediction.NewRepository(db.Conn(), log)

	// Step 3: Initialize clients
	if err := InitializeClients(ctx, container, log); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize clients: %w", err)
	}

	// Step 4: Pipeline and jobs
	container.Forecaster = arima.NewForecaster(log)
	container.Pipeline = pipeline.New(pipeline.Deps{
		Config:      modelCfg,
		Fetcher:     container.HistoryClient,
		Archive:     container.Archive,
		Rates:       container.RatesRepo,
		Params:      container.ParamsRepo,
		Predictions: container.PredictionRepo,
		Forecaster:  container.Forecaster,
		Recorder:    container.Recorder,
	}, log)

	container.Scheduler = scheduler.New(log)
	if err := scheduler.RegisterPipeline(container.Scheduler, container.Pipeline, modelCfg.Schedule, JobTimeout, log); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to register jobs: %w", err)
	}
	container.Scheduler.Register(scheduler.NewCheckDatabaseJob(db, log))
	if err := RegisterDatabaseJobs(container, log); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to register jobs: %w", err)
	}

	log.Info().Msg("Dependency injection wiring completed successfully")

	return container, nil
}

// RegisterDatabaseJobs schedules maintenance and, with a remote store, backups
func RegisterDatabaseJobs(container *Container, log zerolog.Logger) error {
	schedule := container.ModelConfig.Schedule

	maintenance := reliability.NewMaintenanceJob(container.DB, log)
	if err := container.Scheduler.Schedule(schedule.Enabled, schedule.Maintenance, maintenance); err != nil {
		return err
	}

	if container.Remote == nil {
		return nil
	}
	container.Backup = reliability.NewBackupService(container.DB, container.Remote, container.Config.DataDir, log)
	return container.Scheduler.Schedule(schedule.Enabled, schedule.Backup, reliability.NewBackupJob(container.Backup, JobTimeout))
}

// InitializeClients builds the history client and the snapshot archive
func InitializeClients(ctx context.Context, container *Container, log zerolog.Logger) error {
	acquire := container.ModelConfig.Acquire

	container.HistoryClient = exchangerate.NewClient(exchangerate.Config{
		BaseURL:        acquire.BaseURL,
		BaseCurrency:   acquire.BaseCurrency,
		Symbols:        acquire.Symbols,
		Timeout:        acquire.Timeout,
		RequestsPerSec: acquire.RequestsPerSecond,
	}, log)

	var remote *snapshot.S3Store
	if acquire.S3Bucket != "" {
		s3cfg := container.Config.S3
		store, err := snapshot.NewS3Store(ctx, snapshot.S3Config{
			Region:          s3cfg.Region,
			Bucket:          acquire.S3Bucket,
			Endpoint:        s3cfg.Endpoint,
			AccessKeyID:     s3cfg.AccessKeyID,
			SecretAccessKey: s3cfg.SecretAccessKey,
			PathStyle:       s3cfg.PathStyle,
		}, log)
		if err != nil {
			return err
		}
		remote = store
		container.Remote = store
	}

	file := snapshot.NewFileStore(container.Config.ResolvePath(acquire.RawDataLocation))
	container.Archive = snapshot.NewArchive(file, remote, acquire.S3FileName, log)
	return nil
}
