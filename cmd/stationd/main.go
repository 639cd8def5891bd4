package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stationware/medsync/internal/api"
	"github.com/stationware/medsync/internal/config"
	"github.com/stationware/medsync/internal/db"
	"github.com/stationware/medsync/internal/models"
	"github.com/stationware/medsync/internal/processor"
	"github.com/stationware/medsync/internal/service"
	"github.com/stationware/medsync/pkg/infra"
	"github.com/stationware/medsync/pkg/metrics"
)

func main() {
	cfg := config.Load()
	logger := infra.SetupLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("🚀 MedSync station daemon starting",
		"station_id", cfg.StationID,
		"hospital_id", cfg.HospitalID,
		"driver", cfg.DBDriver,
	)

	go startObservabilityServer(cfg.MetricsAddr, logger)

	store := connectStore(ctx, cfg, logger)
	if store == nil {
		slog.Info("🛑 Shutdown requested before the store came up")
		return
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		slog.Error("CRITICAL: schema migration failed", "error", err)
		os.Exit(1)
	}

	if err := registerStation(ctx, store, cfg); err != nil {
		slog.Error("CRITICAL: station self-registration failed", "error", err)
		os.Exit(1)
	}

	packages := db.NewPackageRepository(store.DB, store.Dialect())
	stations := db.NewStationRepository(store.DB, store.Dialect())
	hospitals := db.NewHospitalRepository(store.DB, store.Dialect())
	snapshots := db.NewSnapshotRepository(store.DB, store.Dialect())

	extractor := service.NewChangeExtractor(snapshots, logger)
	applier := processor.NewPackageApplier(store, cfg.HospitalID, logger)
	orchestrator := service.NewSyncOrchestrator(extractor, applier, packages, stations, cfg.StationID, cfg.HospitalID, logger)

	inventory := service.NewInventoryService(store, cfg.StationID, logger)
	blood := service.NewBloodService(store, cfg.StationID, logger)
	equipment := service.NewEquipmentService(store, cfg.StationID, logger)
	surgery := service.NewSurgeryService(store, cfg.StationID, logger)
	dispense := service.NewDispenseService(store, cfg.StationID, logger)

	router := api.NewRouter(api.Deps{
		Sync:      orchestrator,
		Inventory: inventory,
		Blood:     blood,
		Equipment: equipment,
		Surgery:   surgery,
		Dispense:  dispense,
		Packages:  packages,
		Stations:  stations,
		Hospitals: hospitals,
		Logger:    logger,
	})

	resetDone := make(chan struct{})
	go runEquipmentReset(ctx, equipment, cfg.EquipmentResetInterval, resetDone)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		slog.Info("✅ API server online", "addr", cfg.HTTPAddr)
		metrics.HealthStatus.Set(1)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("CRITICAL: API server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("🛑 Shutdown signal received")
	metrics.HealthStatus.Set(0)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("API server shutdown error", "error", err)
	}

	<-resetDone
	slog.Info("✅ Shutdown complete")
}

// connectStore retries until the store is reachable or the context is
// canceled. Stations boot on flaky generator power; giving up at startup
// just trades one manual restart for another.
func connectStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) *db.Store {
	connBackoff := infra.NewBackoff(1*time.Second, 60*time.Second, 2.0)

	for {
		store, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL, logger)
		if err == nil {
			connBackoff.Reset()
			return store
		}

		wait := connBackoff.Next()
		slog.Error("Store connection failure, retrying", "wait", wait, "error", err)

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil
		}
	}
}

// registerStation seeds the daemon's own hospital and station rows so a
// fresh database is usable without running the seeder first. Both inserts
// are no-ops when the rows already exist.
func registerStation(ctx context.Context, store *db.Store, cfg *config.Config) error {
	hospitals := db.NewHospitalRepository(store.DB, store.Dialect())
	stations := db.NewStationRepository(store.DB, store.Dialect())

	hospital := &models.Hospital{
		HospitalID:        cfg.HospitalID,
		HospitalName:      "Field Hospital " + cfg.HospitalID,
		HospitalType:      "FIELD_HOSPITAL",
		CommandLevel:      "REGIONAL",
		NetworkAccess:     "NONE",
		OperationalStatus: "ACTIVE",
	}
	if err := hospitals.Upsert(ctx, hospital); err != nil {
		return err
	}

	station := &models.Station{
		StationID:         cfg.StationID,
		StationName:       "Station " + cfg.StationID,
		HospitalID:        cfg.HospitalID,
		StationType:       "SMALL",
		NetworkAccess:     "NONE",
		OperationalStatus: "ACTIVE",
	}
	return stations.Upsert(ctx, station)
}

// runEquipmentReset clears the daily equipment check sheet on a fixed
// interval so each shift starts from UNCHECKED.
func runEquipmentReset(ctx context.Context, equipment *service.EquipmentService, interval time.Duration, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			slog.Info("🧹 Resetting equipment check sheet")
			if _, err := equipment.ResetDaily(ctx); err != nil {
				slog.Error("Equipment reset failed", "error", err)
			}
		case <-ctx.Done():
			slog.Info("🛑 Stopping equipment reset goroutine")
			return
		}
	}
}

func startObservabilityServer(addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("STATION ALIVE"))
	})

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	logger.Info("📊 Observability server online", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Observability server failed", "error", err)
	}
}
