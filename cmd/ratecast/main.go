// Package main is the entry point for Ratecast, the exchange rate forecasting
// pipeline. Each stage runs as its own subcommand; serve runs the web view and
// the scheduler.
package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aristath/ratecast/internal/config"
	"github.com/aristath/ratecast/internal/domain"
	"github.com/aristath/ratecast/internal/utils"
	"github.com/aristath/ratecast/pkg/logger"
)

var (
	modelConfigPath string
	currencyFilter  string

	cfg      *config.Config
	modelCfg *config.ModelConfig
	log      zerolog.Logger
)

// rootCmd is the base command for the Ratecast CLI
var rootCmd = &cobra.Command{
	Use:   "ratecast",
	Short: "Ratecast exchange rate forecasting",
	Long: `Ratecast downloads daily exchange rate history, picks the best ARIMA
order per currency by backtesting a grid of candidates, and publishes
business-day forecasts through a small web view.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		log = logger.New(logger.Config{
			Level:  cfg.LogLevel,
			Pretty: cfg.LogPretty,
		})
		logger.SetGlobalLogger(log)

		path := cfg.ModelConfigPath
		if modelConfigPath != "" {
			path = modelConfigPath
		}
		modelCfg, err = config.LoadModelConfig(path)
		if err != nil {
			return err
		}

		if codes := utils.ParseCodes(currencyFilter); len(codes) > 0 {
			modelCfg.Model.Currencies = make([]domain.Currency, 0, len(codes))
			for _, code := range codes {
				modelCfg.Model.Currencies = append(modelCfg.Model.Currencies, domain.Currency(code))
			}
			if err := modelCfg.Validate(); err != nil {
				return err
			}
		}

		log.Debug().Str("command", cmd.Name()).Str("model_config", path).Msg("Configuration loaded")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&currencyFilter, "currencies", "", "Comma-separated currencies to model instead of the configured list, e.g. EUR,GBP")
	rootCmd.PersistentFlags().StringVar(&modelConfigPath, "config", "", "Path to the model configuration YAML (overrides RATECAST_MODEL_CONFIG)")

	rootCmd.AddCommand(createDBCmd)
	rootCmd.AddCommand(acquireCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(runAllCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Config may have failed before the logger was built
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true, Output: os.Stderr})
		fallbackLog.Error().Err(err).Msg("ratecast failed")
		os.Exit(1)
	}
}
