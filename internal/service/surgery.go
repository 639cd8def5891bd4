package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/stationware/medsync/internal/db"
	"github.com/stationware/medsync/internal/models"
)

// Patient outcomes accepted when archiving a record.
var patientOutcomes = map[string]bool{
	"DISCHARGED":  true,
	"TRANSFERRED": true,
	"DECEASED":    true,
}

// SurgeryService keeps the operation log. Creating a record, its item
// consumptions and the matching stock draws is one transaction; a surgery
// either exists with its full material trail or not at all.
type SurgeryService struct {
	store     *db.Store
	stationID string
	logger    *slog.Logger
}

func NewSurgeryService(store *db.Store, stationID string, logger *slog.Logger) *SurgeryService {
	return &SurgeryService{
		store:     store,
		stationID: stationID,
		logger:    logger,
	}
}

// ConsumptionRequest is one item draw attributed to a surgery.
type ConsumptionRequest struct {
	ItemCode string `json:"item_code"`
	Quantity int    `json:"quantity"`
}

// CreateSurgeryRequest opens a new operation log record.
type CreateSurgeryRequest struct {
	PatientName     string               `json:"patient_name"`
	SurgeryType     *string              `json:"surgery_type,omitempty"`
	SurgeonName     *string              `json:"surgeon_name,omitempty"`
	AnesthesiaType  *string              `json:"anesthesia_type,omitempty"`
	DurationMinutes *int                 `json:"duration_minutes,omitempty"`
	Remarks         *string              `json:"remarks,omitempty"`
	Operator        string               `json:"operator"`
	Consumptions    []ConsumptionRequest `json:"consumptions,omitempty"`
}

// ArchiveSurgeryRequest closes a record with a patient outcome.
type ArchiveSurgeryRequest struct {
	RecordNumber   string `json:"record_number"`
	PatientOutcome string `json:"patient_outcome"`
	ArchivedBy     string `json:"archived_by"`
	Notes          string `json:"notes,omitempty"`
}

// Create writes the record, its consumptions and their CONSUME events in one
// transaction. The record number is date, patient and a per-day sequence, so
// it stays unique across stations without coordination.
func (s *SurgeryService) Create(ctx context.Context, req CreateSurgeryRequest) (*models.SurgeryRecord, error) {
	if req.PatientName == "" {
		return nil, validationf("patient_name is required")
	}
	for i, c := range req.Consumptions {
		if c.ItemCode == "" {
			return nil, validationf("consumption %d has no item_code", i)
		}
		if c.Quantity <= 0 {
			return nil, validationf("consumption %d quantity must be positive, got %d", i, c.Quantity)
		}
	}

	now := time.Now()
	rec := &models.SurgeryRecord{
		RecordDate:      now,
		PatientName:     req.PatientName,
		SurgeryType:     req.SurgeryType,
		SurgeonName:     req.SurgeonName,
		AnesthesiaType:  req.AnesthesiaType,
		DurationMinutes: req.DurationMinutes,
		Remarks:         req.Remarks,
		StationID:       s.stationID,
		Status:          models.SurgeryOngoing,
	}

	err := db.WithTx(ctx, s.store.DB, nil, func(ctx context.Context, tx db.DBTX) error {
		surgeries := db.NewSurgeryRepository(tx, s.store.Dialect())
		items := db.NewItemRepository(tx, s.store.Dialect())
		events := db.NewInventoryRepository(tx, s.store.Dialect())

		dateStr := now.Format(dateLayout)
		seq, err := surgeries.NextSequence(ctx, dateStr, s.stationID)
		if err != nil {
			return err
		}
		rec.SurgerySequence = seq
		rec.RecordNumber = fmt.Sprintf("%s-%s-%d",
			strings.ReplaceAll(dateStr, "-", ""), req.PatientName, seq)

		id, err := surgeries.Insert(ctx, rec)
		if err != nil {
			return err
		}
		rec.ID = id

		for _, c := range req.Consumptions {
			item, err := items.Get(ctx, c.ItemCode)
			if err != nil {
				return err
			}
			err = surgeries.InsertConsumption(ctx, &models.SurgeryConsumption{
				SurgeryID: id,
				ItemCode:  item.ItemCode,
				ItemName:  item.ItemName,
				Quantity:  c.Quantity,
				Unit:      item.Unit,
			})
			if err != nil {
				return err
			}

			remarks := "surgery use - " + rec.RecordNumber
			err = events.InsertEvent(ctx, &models.InventoryEvent{
				EventType: models.EventConsume,
				ItemCode:  item.ItemCode,
				Quantity:  c.Quantity,
				Remarks:   &remarks,
				StationID: s.stationID,
				Operator:  operatorOrDefault(req.Operator),
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Surgery record created",
		"record_number", rec.RecordNumber,
		"patient", rec.PatientName,
		"consumptions", len(req.Consumptions),
	)
	return rec, nil
}

// SurgeryWithConsumptions pairs a record with its material trail.
type SurgeryWithConsumptions struct {
	models.SurgeryRecord
	Consumptions []models.SurgeryConsumption `json:"consumptions"`
}

// List returns surgery records with their consumptions attached.
func (s *SurgeryService) List(ctx context.Context, f db.SurgeryFilter) ([]SurgeryWithConsumptions, error) {
	surgeries := db.NewSurgeryRepository(s.store.DB, s.store.Dialect())
	records, err := surgeries.List(ctx, f)
	if err != nil {
		return nil, err
	}

	out := make([]SurgeryWithConsumptions, len(records))
	for i, rec := range records {
		cons, err := surgeries.ConsumptionsFor(ctx, rec.ID)
		if err != nil {
			return nil, err
		}
		out[i] = SurgeryWithConsumptions{SurgeryRecord: rec, Consumptions: cons}
	}
	return out, nil
}

// Archive closes a record with its patient outcome. Already archived records
// are refused; the archive trail is written once.
func (s *SurgeryService) Archive(ctx context.Context, req ArchiveSurgeryRequest) error {
	if req.RecordNumber == "" {
		return validationf("record_number is required")
	}
	if !patientOutcomes[req.PatientOutcome] {
		return validationf("patient_outcome must be DISCHARGED, TRANSFERRED or DECEASED, got %q", req.PatientOutcome)
	}
	if req.ArchivedBy == "" {
		return validationf("archived_by is required")
	}

	surgeries := db.NewSurgeryRepository(s.store.DB, s.store.Dialect())
	rec, err := surgeries.GetByRecordNumber(ctx, req.RecordNumber)
	if err != nil {
		return err
	}
	if rec.Status == models.SurgeryArchived {
		return validationf("surgery record %s is already archived", req.RecordNumber)
	}

	if err := surgeries.Archive(ctx, req.RecordNumber, req.PatientOutcome, req.ArchivedBy, req.Notes); err != nil {
		return err
	}

	s.logger.Info("Surgery record archived",
		"record_number", req.RecordNumber,
		"outcome", req.PatientOutcome,
		"archived_by", req.ArchivedBy,
	)
	return nil
}
