package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	brokeramqp "budgetview/internal/amqp"
	"budgetview/internal/config"
	"budgetview/internal/httpapi"
	"budgetview/internal/kv"
	"budgetview/internal/settings"
	"budgetview/internal/snapshot"
	syncsvc "budgetview/internal/sync"
	"budgetview/internal/ynab"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	var store kv.Store
	switch cfg.DataBackend {
	case "sqlite":
		sqliteStore, err := kv.NewSQLiteStore(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to open SQLite store", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer sqliteStore.Close()
		store = sqliteStore
		logger.Info("Initialized SQLite snapshot backend", "path", cfg.SQLiteDBPath)
	default:
		store = kv.NewMemory()
		logger.Info("Initialized memory snapshot backend")
	}

	remote := ynab.NewClient(cfg.ServiceBaseURL, cfg.ServiceToken, cfg.ServiceTimeout)
	svc := syncsvc.New(remote, snapshot.New(store))
	settingsStore := settings.New(store)

	var publisher httpapi.RefreshPublisher
	if cfg.AMQPURL != "" {
		broker, err := brokeramqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRequestQueue, cfg.AMQPSyncedQueue)
		if err != nil {
			logger.Error("Failed to connect to AMQP", "error", err)
			os.Exit(1)
		}
		defer broker.Close()
		publisher = broker
		logger.Info("Async refresh enabled", "exchange", cfg.AMQPExchange)
	}

	srv := httpapi.NewServer(":"+cfg.Port, svc, settingsStore, publisher)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting budgetview server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
