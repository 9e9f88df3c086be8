package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"sentence-generator/handler"
	"sentence-generator/internal/app"
	"sentence-generator/internal/config"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	// SENTENCEGEN_CONFIG optionally points at a YAML file bundled with the
	// function; SENTENCEGEN_* variables override it.
	cfg, err := config.Load(os.Getenv("SENTENCEGEN_CONFIG"))
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	logger := app.NewLogger(os.Stdout, cfg.LogLevel, "json")
	slog.SetDefault(logger)

	// ---- Wiring ----
	a, err := app.New(ctx, cfg, app.Options{Logger: logger})
	if err != nil {
		slog.Error("failed to build generator", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	h, err := handler.NewHandler(a, logger)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}
