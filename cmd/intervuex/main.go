// Package main provides the entry point for the InterVueX backend and its CLI tools.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/techieRahul17/intervuex/internal/config"
	"github.com/techieRahul17/intervuex/internal/logging"
)

var (
	configPath string

	appConfig *config.Config
	appLogger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "intervuex",
	Short: "InterVueX interview platform backend",
	Long: "InterVueX serves the interview platform API: coding-challenge evaluation, the session stub, " +
		"question generation, transcription, the confidence stream and video meeting tokens.",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if appLogger != nil {
			_ = appLogger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Path to a YAML config file (defaults to $"+config.FileEnv+")")
}

// setup loads configuration and builds the logger for every subcommand.
func setup(_ *cobra.Command, _ []string) error {
	path := configPath
	if path == "" {
		path = os.Getenv(config.FileEnv)
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	appConfig = cfg
	appLogger = logger
	return nil
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
