package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"campbook/internal/infra/config"
	"campbook/internal/infra/fixtures"
	ginserver "campbook/internal/infra/http/gin"
	"campbook/internal/infra/obs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		obs.NewLogger(os.Getenv("APP_ENV")).Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application wiring failed", "error", err, "storage", cfg.StorageMode)
		os.Exit(1)
	}

	if cfg.SeedFixtures {
		loader := fixtures.Loader{UoW: app.factory, DefaultCurrency: cfg.DefaultCurrency, Logger: logger}
		n, err := loader.LoadFile(ctx, cfg.FixturesPath)
		if err != nil {
			logger.Warn("campsite fixtures load failed", "error", err, "path", cfg.FixturesPath)
		} else {
			logger.Info("campsite fixtures loaded", "imported", n, "path", cfg.FixturesPath)
		}
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Checks: app.checks,
	}, app.handlers)

	var wg sync.WaitGroup
	for name, run := range app.background {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("background worker stopped", "worker", name, "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
	}
	stop()
	wg.Wait()

	closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	app.close(closeCtx, logger)
	logger.Info("HTTP server stopped")
}
