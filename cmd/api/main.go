package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vendor-management-api/internal"
	"vendor-management-api/internal/config"
	"vendor-management-api/internal/performance"
	"vendor-management-api/internal/store"
	"vendor-management-api/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	// Load and validate configuration
	cfg, err := config.LoadAndValidate()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	zl, err := logger.InitLogger(&logger.LogConfig{
		Level:       cfg.LogLevel,
		Environment: cfg.Environment,
		ServiceName: "vendor-management-api",
	})
	if err != nil {
		log.Fatalf("Logger error: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		zl.Fatal("database unavailable", zap.Error(err))
	}

	metrics := internal.NewMetrics()
	recalc := performance.NewRecalculator(zl.Named("performance"), performance.WithObserver(metrics))
	st := store.New(db, recalc)
	defer st.Close()

	srv, err := internal.NewServer(st, cfg, zl, metrics)
	if err != nil {
		zl.Fatal("server setup failed", zap.Error(err))
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			zl.Error("shutdown failed", zap.Error(err))
		}
	}()

	zl.Info("starting vendor management api",
		zap.String("addr", cfg.Addr),
		zap.String("environment", cfg.Environment),
		zap.Bool("auth_enabled", cfg.AuthEnabled),
		zap.Bool("metrics_enabled", cfg.EnableMetrics))

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		zl.Fatal("server stopped", zap.Error(err))
	}
	zl.Info("server stopped")
}
