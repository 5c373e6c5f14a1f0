/**
 * Package di provides dependency injection type definitions.
 *
 * This package defines the Container type which holds all application dependencies.
 * Commands build one Container and pull the pieces they need from it.
 */
package di

import (
	"github.com/aristath/ratecast/internal/clients/exchangerate"
	"github.com/aristath/ratecast/internal/clients/snapshot"
	"github.com/aristath/ratecast/internal/config"
	"github.com/aristath/ratecast/internal/database"
	"github.com/aristath/ratecast/internal/metrics"
	"github.com/aristath/ratecast/internal/modules/arima"
	"github.com/aristath/ratecast/internal/modules/prediction"
	"github.com/aristath/ratecast/internal/modules/rates"
	"github.com/aristath/ratecast/internal/modules/selection"
	"github.com/aristath/ratecast/internal/pipeline"
	"github.com/aristath/ratecast/internal/reliability"
	"github.com/aristath/ratecast/internal/scheduler"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	ModelConfig *config.ModelConfig

	// Database
	DB *database.DB

	// Repositories
	RatesRepo      *rates.Repository
	ParamsRepo     *selection.Repository
	PredictionRepo *prediction.Repository

	// Clients
	HistoryClient *exchangerate.Client
	Archive       *snapshot.Archive
	Remote        *snapshot.S3Store // nil without an S3 bucket

	// Services
	Forecaster *arima.Forecaster
	Recorder   *metrics.Recorder
	Pipeline   *pipeline.Pipeline
	Scheduler  *scheduler.Scheduler
	Backup     *reliability.BackupService // nil without an S3 bucket
}

// Close releases the database
func (c *Container) Close() error {
	if c == nil || c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
