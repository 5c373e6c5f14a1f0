package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/aristath/ratecast/internal/di"
	"github.com/aristath/ratecast/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the forecasts over HTTP and run the scheduled jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(serve)
	},
}

func serve(ctx context.Context, c *di.Container) error {
	srv := server.New(server.Config{
		Log:          log,
		DB:           c.DB,
		Predictions:  c.PredictionRepo,
		Params:       c.ParamsRepo,
		Recorder:     c.Recorder,
		Jobs:         c.Scheduler,
		BaseCurrency: c.ModelConfig.Acquire.BaseCurrency,
		Host:         c.Config.Host,
		Port:         c.Config.Port,
		DevMode:      c.Config.DevMode,
	})

	c.Scheduler.Start()
	defer c.Scheduler.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")

	// The HTTP server is given up to 10 seconds to finish in-flight requests
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
	return nil
}
