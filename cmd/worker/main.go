// Package main is the background worker daemon: it runs the River job queue
// with the periodic audit retention purge.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"github.com/laporkota/laporkota/internal/config"
	"github.com/laporkota/laporkota/internal/governance/audit"
	"github.com/laporkota/laporkota/internal/infrastructure"
	"github.com/laporkota/laporkota/internal/jobs"
	"github.com/laporkota/laporkota/internal/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("Starting LaporKota worker",
		zap.String("log_level", cfg.Log.Level),
		zap.Int("retention_days", cfg.Retention.Days),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := infrastructure.NewDatabaseClients(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(ctx); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}

	recorder := audit.NewRecorder(db.Gorm)

	workers := river.NewWorkers()
	river.AddWorker(workers, jobs.NewAuditRetentionWorker(
		recorder, cfg.Retention.Horizon(), cfg.Retention.CriticalHorizon()))

	if err := db.InitRiverClient(workers, cfg.River); err != nil {
		return fmt.Errorf("init river: %w", err)
	}

	// Enqueue the retention purge daily; uniqueness keeps reruns harmless.
	db.RiverClient.PeriodicJobs().Add(river.NewPeriodicJob(
		river.PeriodicInterval(24*time.Hour),
		func() (river.JobArgs, *river.InsertOpts) {
			return jobs.AuditRetentionArgs{}, nil
		},
		&river.PeriodicJobOpts{RunOnStart: true},
	))

	if err := db.RiverClient.Start(ctx); err != nil {
		return fmt.Errorf("start river: %w", err)
	}
	logger.Info("Worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := db.RiverClient.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("stop river: %w", err)
	}

	logger.Info("Worker stopped gracefully")
	return nil
}
