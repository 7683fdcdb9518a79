package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"bioguard/internal/app"
	"bioguard/internal/config"
	loginfra "bioguard/internal/infra/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger, logCloser, err := loginfra.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.File)
	if err != nil {
		slog.Error("create logger", "error", err)
		os.Exit(1)
	}
	defer func() { _ = logCloser.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("create app", "error", err)
		os.Exit(1)
	}

	logger.Info("bot starting", "dry_run", cfg.IsDryRun())
	if err := application.Run(ctx); err != nil {
		logger.Error("bot stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("bot stopped")
}
