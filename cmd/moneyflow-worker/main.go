package main

import (
	"context"
	"os"
	"time"

	"moneyflow/internal/backend"
	"moneyflow/internal/cli"
	"moneyflow/internal/ledger"
	applog "moneyflow/internal/log"
	"moneyflow/internal/services"
	"moneyflow/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	logger.Info("Starting moneyflow-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	backendCfg.RequireEvents = true

	result, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to create backend", "error", err)
		os.Exit(1)
	}

	svc := services.NewLedgerService(ledger.NewRepository(result.Store, ledger.DefaultConfig()), nil, services.Config{
		CacheSize: cfg.CacheSize,
		CacheTTL:  cfg.CacheTTL,
	}, logger)
	summaries := worker.NewSummaryWorker(svc, logger)

	ctx, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, func(context.Context) {
		if err := result.Close(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	if _, err := summaries.Summarize(ctx, time.Now().Format("2006-01")); err != nil {
		logger.Error("Startup summary failed", "error", err)
	}

	if err := result.Events.Consume(ctx, summaries.HandleEvent); err != nil && ctx.Err() == nil {
		logger.Error("Event consumption failed", "error", err)
		_ = result.Close()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
