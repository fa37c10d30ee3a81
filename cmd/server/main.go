package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"riskwatch/internal/platform/config"
	"riskwatch/internal/platform/httpserver"
	"riskwatch/internal/platform/logger"
)

// main loads configuration, wires the engine and serves HTTP until signalled.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, v, err := config.Load(os.Getenv("RISK_CONFIG_FILE"))
	if err != nil {
		return err
	}
	log, flush, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer func() { _ = flush() }()
	slog.SetDefault(log)

	watcher := config.NewWatcher(v, cfg, log)
	watcher.Start()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := buildApp(ctx, watcher, log)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := httpserver.New(cfg.Server.Addr, newRouter(app, cfg, log))
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting riskwatch", "addr", cfg.Server.Addr, "vendor", cfg.Screening.Vendor)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
