// budgetview-worker refreshes cached budget snapshots in the background.
// With AMQP configured it consumes refresh requests and publishes synced
// events; without it, it polls every cached budget on a fixed interval.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	brokeramqp "budgetview/internal/amqp"
	"budgetview/internal/config"
	"budgetview/internal/kv"
	"budgetview/internal/snapshot"
	syncsvc "budgetview/internal/sync"
	"budgetview/internal/ynab"
)

func main() {
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
	default:
		store = kv.NewMemory()
	}

	remote := ynab.NewClient(cfg.ServiceBaseURL, cfg.ServiceToken, cfg.ServiceTimeout)
	snapshots := snapshot.New(store)
	svc := syncsvc.New(remote, snapshots)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	if cfg.AMQPURL != "" {
		runBrokerWorker(ctx, cfg, svc, logger)
		return
	}
	runPollingWorker(ctx, cfg, svc, snapshots, logger)
}

func runBrokerWorker(ctx context.Context, cfg *config.Config, svc *syncsvc.Service, logger *slog.Logger) {
	client, err := brokeramqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRequestQueue, cfg.AMQPSyncedQueue)
	if err != nil {
		logger.Error("Failed to connect to AMQP", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	logger.Info("Starting broker refresh worker",
		"exchange", cfg.AMQPExchange,
		"request_queue", cfg.AMQPRequestQueue)

	err = client.ConsumeRefreshRequests(ctx, func(msg *brokeramqp.RefreshRequest) error {
		detail, err := svc.RefreshBudget(ctx, msg.BudgetID)
		if err != nil {
			if errors.Is(err, syncsvc.ErrNoSnapshot) {
				// No baseline yet: fetch the full snapshot instead of requeueing forever.
				detail, err = svc.GetBudget(ctx, msg.BudgetID)
			}
			if err != nil {
				return err
			}
		}
		return client.PublishBudgetSynced(ctx, detail.ID, detail.ServerKnowledge)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Refresh consumer stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

func runPollingWorker(ctx context.Context, cfg *config.Config, svc *syncsvc.Service, snapshots *snapshot.Store, logger *slog.Logger) {
	logger.Info("Starting polling refresh worker", "interval", cfg.SyncInterval)

	ticker := time.NewTicker(cfg.SyncInterval)
	defer ticker.Stop()

	refreshAll := func() {
		list, ok, err := snapshots.BudgetList(ctx)
		if err != nil || !ok {
			if err != nil {
				logger.Error("Failed to read cached budget list", "error", err)
			}
			return
		}
		for _, b := range list {
			if _, err := svc.RefreshBudget(ctx, b.ID); err != nil {
				if errors.Is(err, syncsvc.ErrNoSnapshot) {
					continue
				}
				logger.Warn("Budget refresh failed", "budget_id", b.ID, "error", err)
			}
		}
	}

	refreshAll()
	for {
		select {
		case <-ctx.Done():
			logger.Info("Worker stopped gracefully")
			return
		case <-ticker.C:
			refreshAll()
		}
	}
}
