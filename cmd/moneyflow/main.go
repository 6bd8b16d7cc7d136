package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"moneyflow/internal/backend"
	"moneyflow/internal/cache"
	"moneyflow/internal/cli"
	apphttp "moneyflow/internal/http"
	"moneyflow/internal/ledger"
	applog "moneyflow/internal/log"
	"moneyflow/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to create backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	repoCfg := ledger.DefaultConfig()
	repoCfg.AutoInit = cfg.AutoInit
	repo := ledger.NewRepository(result.Store, repoCfg)
	svc := services.NewLedgerService(repo, result.Publisher(), services.Config{
		CacheSize: cfg.CacheSize,
		CacheTTL:  cfg.CacheTTL,
	}, logger)

	// Surface a broken store at startup rather than on the first request.
	if cfg.AutoInit {
		if err := svc.Init(context.Background()); err != nil {
			logger.Error("Failed to initialize ledger", "error", err)
			_ = result.Close()
			os.Exit(1)
		}
	}

	caches := cache.NewManager(logger.Logger)
	for _, c := range svc.Caches() {
		caches.Register(c)
	}
	caches.StartCleanup(cfg.CacheTTL)

	srv := apphttp.NewServer(":"+cfg.Port, svc, logger, apphttp.Options{ManualInit: !cfg.AutoInit})
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		caches.Stop()
		if err := result.Close(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	logger.Info("Starting moneyflow server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"auto_init", cfg.AutoInit,
		"events", result.Events != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
