// Package api exposes the station HTTP surface: the sync package flows, the
// registry views, and the day-to-day medical collaborators that feed the
// synced tables.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/stationware/medsync/internal/db"
	"github.com/stationware/medsync/internal/processor"
	"github.com/stationware/medsync/internal/service"
)

// Routes bundles every handler dependency. Handlers stay thin; anything
// worth testing lives in the services.
type Routes struct {
	sync      *service.SyncOrchestrator
	inventory *service.InventoryService
	blood     *service.BloodService
	equipment *service.EquipmentService
	surgery   *service.SurgeryService
	dispense  *service.DispenseService
	packages  *db.PackageRepository
	stations  *db.StationRepository
	hospitals *db.HospitalRepository
	logger    *slog.Logger
}

// Deps carries the wiring from main into the router.
type Deps struct {
	Sync      *service.SyncOrchestrator
	Inventory *service.InventoryService
	Blood     *service.BloodService
	Equipment *service.EquipmentService
	Surgery   *service.SurgeryService
	Dispense  *service.DispenseService
	Packages  *db.PackageRepository
	Stations  *db.StationRepository
	Hospitals *db.HospitalRepository
	Logger    *slog.Logger
}

// NewRouter builds the API router.
func NewRouter(d Deps) *chi.Mux {
	rt := &Routes{
		sync:      d.Sync,
		inventory: d.Inventory,
		blood:     d.Blood,
		equipment: d.Equipment,
		surgery:   d.Surgery,
		dispense:  d.Dispense,
		packages:  d.Packages,
		stations:  d.Stations,
		hospitals: d.Hospitals,
		logger:    d.Logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(rt.requestLogger)

	r.Get("/health", rt.health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/station/sync/generate", rt.syncGenerate)
		r.Post("/station/sync/import", rt.syncImport)
		r.Post("/hospital/sync/upload", rt.syncUpload)
		r.Get("/sync/packages", rt.listPackages)

		r.Get("/stations", rt.listStations)
		r.Get("/hospitals", rt.listHospitals)

		r.Post("/items", rt.createItem)
		r.Get("/inventory", rt.listInventory)
		r.Get("/inventory/summary", rt.inventorySummary)
		r.Post("/inventory/receive", rt.inventoryReceive)
		r.Post("/inventory/consume", rt.inventoryConsume)
		r.Get("/inventory/events", rt.listInventoryEvents)

		r.Get("/blood", rt.listBloodInventory)
		r.Post("/blood/receive", rt.bloodReceive)
		r.Post("/blood/use", rt.bloodUse)
		r.Get("/blood/bags", rt.listBloodBags)
		r.Post("/blood/bags", rt.registerBloodBag)
		r.Post("/blood/bags/use", rt.useBloodBag)

		r.Get("/equipment", rt.listEquipment)
		r.Post("/equipment/check", rt.equipmentCheck)

		r.Get("/surgeries", rt.listSurgeries)
		r.Post("/surgeries", rt.createSurgery)
		r.Post("/surgeries/archive", rt.archiveSurgery)

		r.Post("/dispense", rt.createDispense)
		r.Post("/dispense/approve", rt.approveDispense)
		r.Get("/dispense/pending", rt.listPendingDispenses)
	})

	return r
}

// requestLogger logs one line per request at debug level.
func (rt *Routes) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		rt.logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// decodeJSON decodes a request body with UseNumber so change payloads keep
// full integer precision instead of collapsing into float64.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %v", err)
	}
	return nil
}

func (rt *Routes) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		rt.logger.Error("Failed to encode response", "error", err)
	}
}

func (rt *Routes) writeError(w http.ResponseWriter, status int, message string) {
	rt.writeJSON(w, status, map[string]any{
		"success": false,
		"error":   message,
	})
}

// writeServiceError maps service failures onto transport answers. Integrity
// failures are the deliberate special case: the HTTP exchange worked, the
// package content did not, so the caller gets 200 with success=false and
// both checksums to compare.
func (rt *Routes) writeServiceError(w http.ResponseWriter, err error) {
	var (
		integrityErr  *processor.IntegrityError
		validationErr *service.ValidationError
	)

	switch {
	case errors.As(err, &integrityErr):
		rt.writeJSON(w, http.StatusOK, map[string]any{
			"success":  false,
			"error":    integrityErr.Error(),
			"expected": integrityErr.Expected,
			"actual":   integrityErr.Actual,
		})
	case errors.As(err, &validationErr):
		rt.writeError(w, http.StatusBadRequest, validationErr.Msg)
	case errors.Is(err, db.ErrNotFound):
		rt.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, db.ErrDuplicatePackage):
		rt.writeError(w, http.StatusConflict, err.Error())
	default:
		rt.logger.Error("Request failed", "error", err)
		rt.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (rt *Routes) health(w http.ResponseWriter, _ *http.Request) {
	rt.writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
