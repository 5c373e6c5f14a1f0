package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aristath/ratecast/internal/di"
	"github.com/aristath/ratecast/internal/pipeline"
)

var createDBCmd = &cobra.Command{
	Use:   "create-db",
	Short: "Create the database and apply the schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := di.InitializeDatabase(cfg, log)
		if err != nil {
			return err
		}
		return db.Close()
	},
}

var acquireCmd = &cobra.Command{
	Use:   "acquire",
	Short: "Download the rate history and archive the raw document",
	RunE:  stageCommand((*pipeline.Pipeline).Acquire),
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load the archived rate history into the database",
	RunE:  stageCommand((*pipeline.Pipeline).Load),
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Backtest the order grid and store the best order per currency",
	RunE:  stageCommand((*pipeline.Pipeline).Train),
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Forecast the next business days with the stored orders",
	RunE:  stageCommand((*pipeline.Pipeline).Score),
}

var runAllCmd = &cobra.Command{
	Use:   "run-all",
	Short: "Run acquire, load, train and score in order",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(func(ctx context.Context, c *di.Container) error {
			_, err := c.Pipeline.RunAll(ctx)
			return err
		})
	},
}

func stageCommand(stage func(*pipeline.Pipeline, context.Context) (*pipeline.Result, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return withContainer(func(ctx context.Context, c *di.Container) error {
			_, err := stage(c.Pipeline, ctx)
			return err
		})
	}
}

// withContainer wires the dependencies and runs fn until it returns or the
// process receives SIGINT or SIGTERM.
func withContainer(fn func(ctx context.Context, c *di.Container) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := di.Wire(ctx, cfg, modelCfg, log)
	if err != nil {
		return err
	}
	defer container.Close()

	return fn(ctx, container)
}
