package service

import (
	"context"
	"log/slog"

	"github.com/stationware/medsync/internal/db"
	"github.com/stationware/medsync/internal/models"
)

// DispenseService hands out medicines from the catalog. A normal dispense
// waits as PENDING until a pharmacist approves it and only then draws stock.
// An emergency dispense draws stock immediately and is approved after the
// fact.
type DispenseService struct {
	store     *db.Store
	stationID string
	logger    *slog.Logger
}

func NewDispenseService(store *db.Store, stationID string, logger *slog.Logger) *DispenseService {
	return &DispenseService{
		store:     store,
		stationID: stationID,
		logger:    logger,
	}
}

// DispenseRequest asks for a medicine hand-out.
type DispenseRequest struct {
	MedicineCode    string  `json:"medicine_code"`
	Quantity        int     `json:"quantity"`
	DispensedBy     string  `json:"dispensed_by"`
	PatientRefID    *string `json:"patient_ref_id,omitempty"`
	PatientName     *string `json:"patient_name,omitempty"`
	Emergency       bool    `json:"emergency,omitempty"`
	EmergencyReason string  `json:"emergency_reason,omitempty"`
}

// ApproveRequest is the pharmacist side of the flow.
type ApproveRequest struct {
	DispenseID      int64   `json:"dispense_id"`
	ApprovedBy      string  `json:"approved_by"`
	PharmacistNotes *string `json:"pharmacist_notes,omitempty"`
}

// DispenseResult reports the created record and where stock stands.
type DispenseResult struct {
	DispenseID     int64  `json:"dispense_id"`
	Status         string `json:"status"`
	RemainingStock int    `json:"remaining_stock"`
}

// Dispense books a hand-out request. Emergencies deduct stock in the same
// transaction that creates the record; normal requests only verify stock and
// leave the deduction to the approval.
func (s *DispenseService) Dispense(ctx context.Context, req DispenseRequest) (*DispenseResult, error) {
	if req.MedicineCode == "" {
		return nil, validationf("medicine_code is required")
	}
	if req.Quantity <= 0 {
		return nil, validationf("quantity must be positive, got %d", req.Quantity)
	}
	if req.DispensedBy == "" {
		return nil, validationf("dispensed_by is required")
	}
	if req.Emergency && len(req.EmergencyReason) < 5 {
		return nil, validationf("emergency_reason must be at least 5 characters")
	}

	items := db.NewItemRepository(s.store.DB, s.store.Dialect())
	item, err := items.Get(ctx, req.MedicineCode)
	if err != nil {
		return nil, err
	}
	stock, err := items.Stock(ctx, item.ItemCode)
	if err != nil {
		return nil, err
	}
	if stock < req.Quantity {
		return nil, validationf("insufficient stock for %s: have %d, need %d", item.ItemCode, stock, req.Quantity)
	}

	rec := &models.DispenseRecord{
		MedicineCode: item.ItemCode,
		MedicineName: item.ItemName,
		Quantity:     req.Quantity,
		Unit:         &item.Unit,
		DispensedBy:  req.DispensedBy,
		Status:       models.DispensePending,
		PatientRefID: req.PatientRefID,
		PatientName:  req.PatientName,
		StationCode:  s.stationID,
	}

	if !req.Emergency {
		dispenses := db.NewDispenseRepository(s.store.DB, s.store.Dialect())
		id, err := dispenses.Insert(ctx, rec)
		if err != nil {
			return nil, err
		}

		s.logger.Info("Dispense pending approval",
			"dispense_id", id,
			"medicine_code", item.ItemCode,
			"quantity", req.Quantity,
		)
		return &DispenseResult{DispenseID: id, Status: models.DispensePending, RemainingStock: stock}, nil
	}

	rec.Status = models.DispenseEmergency
	rec.EmergencyReason = &req.EmergencyReason

	var id int64
	err = db.WithTx(ctx, s.store.DB, nil, func(ctx context.Context, tx db.DBTX) error {
		dispenses := db.NewDispenseRepository(tx, s.store.Dialect())
		events := db.NewInventoryRepository(tx, s.store.Dialect())

		id, err = dispenses.Insert(ctx, rec)
		if err != nil {
			return err
		}

		remarks := "emergency dispense: " + req.EmergencyReason
		return events.InsertEvent(ctx, &models.InventoryEvent{
			EventType: models.EventConsume,
			ItemCode:  item.ItemCode,
			Quantity:  req.Quantity,
			Remarks:   &remarks,
			StationID: s.stationID,
			Operator:  req.DispensedBy,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Warn("Emergency dispense",
		"dispense_id", id,
		"medicine_code", item.ItemCode,
		"quantity", req.Quantity,
		"reason", req.EmergencyReason,
	)
	return &DispenseResult{DispenseID: id, Status: models.DispenseEmergency, RemainingStock: stock - req.Quantity}, nil
}

// Approve settles a record. A PENDING record draws its stock now, inside one
// transaction with the approval stamp; an EMERGENCY record already drew it
// and just gets the stamp.
func (s *DispenseService) Approve(ctx context.Context, req ApproveRequest) error {
	if req.DispenseID <= 0 {
		return validationf("dispense_id is required")
	}
	if req.ApprovedBy == "" {
		return validationf("approved_by is required")
	}

	dispenses := db.NewDispenseRepository(s.store.DB, s.store.Dialect())
	rec, err := dispenses.Get(ctx, req.DispenseID)
	if err != nil {
		return err
	}
	if rec.Status == models.DispenseApproved {
		return validationf("dispense record %d is already approved", req.DispenseID)
	}

	if rec.Status == models.DispenseEmergency {
		if err := dispenses.Approve(ctx, req.DispenseID, req.ApprovedBy, req.PharmacistNotes); err != nil {
			return err
		}
		s.logger.Info("Emergency dispense approved after the fact",
			"dispense_id", req.DispenseID,
			"approved_by", req.ApprovedBy,
		)
		return nil
	}

	// PENDING: the stock check happens again at approval time. The shelf
	// may have moved since the request was booked.
	items := db.NewItemRepository(s.store.DB, s.store.Dialect())
	stock, err := items.Stock(ctx, rec.MedicineCode)
	if err != nil {
		return err
	}
	if stock < rec.Quantity {
		return validationf("insufficient stock for %s: have %d, need %d", rec.MedicineCode, stock, rec.Quantity)
	}

	err = db.WithTx(ctx, s.store.DB, nil, func(ctx context.Context, tx db.DBTX) error {
		txDispenses := db.NewDispenseRepository(tx, s.store.Dialect())
		events := db.NewInventoryRepository(tx, s.store.Dialect())

		remarks := "normal dispense (pharmacist approved)"
		err := events.InsertEvent(ctx, &models.InventoryEvent{
			EventType: models.EventConsume,
			ItemCode:  rec.MedicineCode,
			Quantity:  rec.Quantity,
			Remarks:   &remarks,
			StationID: s.stationID,
			Operator:  req.ApprovedBy,
		})
		if err != nil {
			return err
		}
		return txDispenses.Approve(ctx, req.DispenseID, req.ApprovedBy, req.PharmacistNotes)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Dispense approved",
		"dispense_id", req.DispenseID,
		"approved_by", req.ApprovedBy,
	)
	return nil
}

// Pending lists the open approval queue, oldest first.
func (s *DispenseService) Pending(ctx context.Context, status string, limit int) ([]models.DispenseRecord, error) {
	dispenses := db.NewDispenseRepository(s.store.DB, s.store.Dialect())
	return dispenses.ListByStatus(ctx, status, limit)
}
