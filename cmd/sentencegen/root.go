package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"sentence-generator/internal/app"
	"sentence-generator/internal/config"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "sentencegen",
		Short:         "Generate Chinese example sentences for a vocabulary list",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", os.Getenv("SENTENCEGEN_CONFIG"), "path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log_level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newRunCommand(opts),
		newCoverageCommand(opts),
		newLedgerCommand(opts),
	)
	return rootCmd
}

// loadConfig reads the config file and applies the global flag overrides.
func (o *rootOptions) loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	logger := app.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func (o *rootOptions) buildApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, mock bool) (*app.App, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, app.Options{Mock: mock, Logger: logger})
}
