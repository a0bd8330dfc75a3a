package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"secconfdb/config"
	"secconfdb/logger"
)

var (
	envFile   string
	logLevel  string
	logFormat string

	rootCmd = &cobra.Command{
		Use:   "secconfdb",
		Short: "Security conference database",
		Long: `secconfdb lists security and privacy conferences, their deadlines and
locations, exports them as iCalendar files and lets editors maintain the
catalog through HTML forms.`,
		SilenceUsage: true,
		// serve is the default command
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveCmd.RunE(cmd, args)
		},
	}
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", config.ENV_FILE, "optional .env file with configuration")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (json, console)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(userCmd)
}

// setup loads the configuration, applies flag overrides and builds the logger.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadFile(envFile)
	if err != nil {
		return nil, nil, fmt.Errorf("config error: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("logger error: %w", err)
	}
	return cfg, log, nil
}
