package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/stationware/medsync/internal/config"
	"github.com/stationware/medsync/internal/db"
	"github.com/stationware/medsync/internal/seed"
	"github.com/stationware/medsync/pkg/infra"
)

func main() {
	cfg := config.Load()
	logger := infra.SetupLogger(cfg)
	slog.SetDefault(logger)

	logger.Info("🔧 Seeding MedSync store...",
		"station_id", cfg.StationID,
		"driver", cfg.DBDriver,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("FATAL: Failed to open store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		logger.Error("FATAL: Schema migration failed", "error", err)
		os.Exit(1)
	}

	if err := seed.Run(ctx, store, cfg, logger); err != nil {
		logger.Error("FATAL: Seeding failed", "error", err)
		os.Exit(1)
	}

	logger.Info("✅ Seed complete")
}
