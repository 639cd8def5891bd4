package service

import (
	"context"
	"log/slog"

	"github.com/stationware/medsync/internal/db"
	"github.com/stationware/medsync/internal/models"
)

// Check outcomes an operator can report.
var equipmentStatuses = map[string]bool{
	"NORMAL":      true,
	"BROKEN":      true,
	"MAINTENANCE": true,
	"MISSING":     true,
}

// EquipmentService maintains the equipment roster and its daily check
// routine. The roster row mirrors the latest check; the check log is what
// sync packages carry.
type EquipmentService struct {
	store     *db.Store
	stationID string
	logger    *slog.Logger
}

func NewEquipmentService(store *db.Store, stationID string, logger *slog.Logger) *EquipmentService {
	return &EquipmentService{
		store:     store,
		stationID: stationID,
		logger:    logger,
	}
}

// CheckRequest reports one equipment inspection.
type CheckRequest struct {
	EquipmentID string  `json:"equipment_id"`
	Status      string  `json:"status"`
	PowerLevel  *int    `json:"power_level,omitempty"`
	Remarks     *string `json:"remarks,omitempty"`
	Operator    string  `json:"operator"`
}

// Check stamps the roster row and appends to the check log.
func (s *EquipmentService) Check(ctx context.Context, req CheckRequest) error {
	if req.EquipmentID == "" {
		return validationf("equipment_id is required")
	}
	if !equipmentStatuses[req.Status] {
		return validationf("unknown equipment status %q", req.Status)
	}
	if req.PowerLevel != nil && (*req.PowerLevel < 0 || *req.PowerLevel > 100) {
		return validationf("power_level must be 0-100, got %d", *req.PowerLevel)
	}

	equipment := db.NewEquipmentRepository(s.store.DB, s.store.Dialect())
	eq, err := equipment.Get(ctx, req.EquipmentID)
	if err != nil {
		return err
	}

	if err := equipment.ApplyCheck(ctx, eq.ID, req.Status, req.PowerLevel, req.Remarks); err != nil {
		return err
	}
	err = equipment.InsertCheck(ctx, &models.EquipmentCheck{
		EquipmentID: eq.ID,
		Status:      req.Status,
		PowerLevel:  req.PowerLevel,
		Remarks:     req.Remarks,
		StationID:   s.stationID,
		Operator:    operatorOrDefault(req.Operator),
	})
	if err != nil {
		return err
	}

	s.logger.Info("Equipment checked",
		"equipment_id", eq.ID,
		"status", req.Status,
		"operator", operatorOrDefault(req.Operator),
	)
	return nil
}

// List returns the roster with its latest check state.
func (s *EquipmentService) List(ctx context.Context) ([]models.Equipment, error) {
	equipment := db.NewEquipmentRepository(s.store.DB, s.store.Dialect())
	return equipment.List(ctx)
}

// ResetDaily returns every checked roster row to UNCHECKED. The daemon runs
// this on a timer so each day starts with a blank check sheet; the check log
// itself is never touched.
func (s *EquipmentService) ResetDaily(ctx context.Context) (int64, error) {
	equipment := db.NewEquipmentRepository(s.store.DB, s.store.Dialect())
	reset, err := equipment.ResetDaily(ctx)
	if err != nil {
		return 0, err
	}
	if reset > 0 {
		s.logger.Info("Equipment check sheet reset", "count", reset)
	}
	return reset, nil
}
