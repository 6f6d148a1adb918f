package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/copyleftdev/localopt/internal/config"
	"github.com/copyleftdev/localopt/internal/logging"
	"github.com/copyleftdev/localopt/internal/runner"
)

var (
	logLevel  string
	logFormat string

	logger       *logging.Logger
	driverLogger *zap.Logger
	defaults     runner.Defaults
)

var rootCmd = &cobra.Command{
	Use:   "localopt",
	Short: "Local search and descent optimizers for continuous objectives",
	Long: `localopt runs random search, coordinate search, coordinate descent and
gradient descent on named benchmark objectives, prints run summaries and plots
objective value per step.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.NewWithFormat(logging.ParseLevel(logLevel), logFormat, cmd.ErrOrStderr())
		driverLogger = logging.NewZapLogger(logger)

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		defaults = cfg.RunDefaults()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", logging.FormatText, "Log format (text, json)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
