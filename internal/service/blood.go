package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stationware/medsync/internal/db"
	"github.com/stationware/medsync/internal/models"
)

const dateLayout = "2006-01-02"

// Blood product shelf lives in days, counted from collection.
var productShelfLife = map[string]int{
	"WHOLE_BLOOD":     35,
	"PLATELET":        5,
	"FROZEN_PLASMA":   365,
	"RBC_CONCENTRATE": 42,
}

// bagTypeCodes are the blood type tokens embedded in bag codes.
var bagTypeCodes = map[string]string{
	"A+": "AP", "A-": "AN",
	"B+": "BP", "B-": "BN",
	"O+": "OP", "O-": "ON",
	"AB+": "ABP", "AB-": "ABN",
}

func validBloodType(bt string) bool {
	_, ok := bagTypeCodes[bt]
	return ok
}

// BloodService keeps the pooled blood ledger and the individually tracked
// emergency bags. The pool is quantity arithmetic; bags are whole units that
// go to exactly one patient.
type BloodService struct {
	store     *db.Store
	stationID string
	logger    *slog.Logger
}

func NewBloodService(store *db.Store, stationID string, logger *slog.Logger) *BloodService {
	return &BloodService{
		store:     store,
		stationID: stationID,
		logger:    logger,
	}
}

// BloodRequest moves pooled blood in or out.
type BloodRequest struct {
	BloodType string `json:"blood_type"`
	Quantity  int    `json:"quantity"`
	Operator  string `json:"operator"`
}

// Receive adds pooled blood and returns the new quantity.
func (s *BloodService) Receive(ctx context.Context, req BloodRequest) (int, error) {
	if !validBloodType(req.BloodType) {
		return 0, validationf("unknown blood type %q", req.BloodType)
	}
	if req.Quantity <= 0 {
		return 0, validationf("quantity must be positive, got %d", req.Quantity)
	}

	blood := db.NewBloodRepository(s.store.DB, s.store.Dialect())
	current, exists, err := blood.Quantity(ctx, req.BloodType, s.stationID)
	if err != nil {
		return 0, err
	}

	next := current + req.Quantity
	if exists {
		err = blood.SetQuantity(ctx, req.BloodType, s.stationID, next)
	} else {
		err = blood.InsertQuantity(ctx, req.BloodType, s.stationID, next)
	}
	if err != nil {
		return 0, err
	}

	err = blood.InsertEvent(ctx, &models.BloodEvent{
		EventType: models.EventReceive,
		BloodType: req.BloodType,
		Quantity:  req.Quantity,
		StationID: s.stationID,
		Operator:  operatorOrDefault(req.Operator),
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("Blood received",
		"blood_type", req.BloodType,
		"quantity", req.Quantity,
		"new_total", next,
	)
	return next, nil
}

// Use draws pooled blood down and returns the remaining quantity.
func (s *BloodService) Use(ctx context.Context, req BloodRequest) (int, error) {
	if !validBloodType(req.BloodType) {
		return 0, validationf("unknown blood type %q", req.BloodType)
	}
	if req.Quantity <= 0 {
		return 0, validationf("quantity must be positive, got %d", req.Quantity)
	}

	blood := db.NewBloodRepository(s.store.DB, s.store.Dialect())
	current, exists, err := blood.Quantity(ctx, req.BloodType, s.stationID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, fmt.Errorf("blood inventory for %s: %w", req.BloodType, db.ErrNotFound)
	}
	if current < req.Quantity {
		return 0, validationf("insufficient blood for %s: have %d, need %d", req.BloodType, current, req.Quantity)
	}

	next := current - req.Quantity
	if err := blood.SetQuantity(ctx, req.BloodType, s.stationID, next); err != nil {
		return 0, err
	}

	err = blood.InsertEvent(ctx, &models.BloodEvent{
		EventType: models.EventConsume,
		BloodType: req.BloodType,
		Quantity:  req.Quantity,
		StationID: s.stationID,
		Operator:  operatorOrDefault(req.Operator),
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("Blood used",
		"blood_type", req.BloodType,
		"quantity", req.Quantity,
		"remaining", next,
	)
	return next, nil
}

// Inventory lists pooled quantities, all stations when stationID is empty.
func (s *BloodService) Inventory(ctx context.Context, stationID string) ([]models.BloodInventory, error) {
	blood := db.NewBloodRepository(s.store.DB, s.store.Dialect())
	return blood.ListInventory(ctx, stationID)
}

// RegisterBagRequest books one collected emergency bag.
type RegisterBagRequest struct {
	BloodType      string  `json:"blood_type"`
	ProductType    string  `json:"product_type"`
	CollectionDate string  `json:"collection_date,omitempty"`
	VolumeML       int     `json:"volume_ml,omitempty"`
	OrgCode        string  `json:"org_code,omitempty"`
	Operator       string  `json:"operator"`
	Remarks        *string `json:"remarks,omitempty"`
}

// RegisterBag mints a bag code, derives the expiry from the product shelf
// life, and stores the bag as AVAILABLE. Codes look like
// DNO-260314-OP-001: org, collection date, blood type token, per-day serial.
func (s *BloodService) RegisterBag(ctx context.Context, req RegisterBagRequest) (*models.BloodBag, error) {
	typeCode, ok := bagTypeCodes[req.BloodType]
	if !ok {
		return nil, validationf("unknown blood type %q", req.BloodType)
	}
	shelfDays, ok := productShelfLife[req.ProductType]
	if !ok {
		return nil, validationf("unknown product type %q", req.ProductType)
	}
	if req.Operator == "" {
		return nil, validationf("operator is required")
	}

	collected := time.Now()
	if req.CollectionDate != "" {
		parsed, err := time.Parse(dateLayout, req.CollectionDate)
		if err != nil {
			return nil, validationf("collection_date must be YYYY-MM-DD, got %q", req.CollectionDate)
		}
		collected = parsed
	}

	org := req.OrgCode
	if org == "" {
		org = "DNO"
	}
	volume := req.VolumeML
	if volume <= 0 {
		volume = 250
	}

	blood := db.NewBloodRepository(s.store.DB, s.store.Dialect())
	count, err := blood.CountBags(ctx, req.BloodType, collected.Format(dateLayout))
	if err != nil {
		return nil, err
	}

	bag := &models.BloodBag{
		BloodBagCode:   fmt.Sprintf("%s-%s-%s-%03d", org, collected.Format("060102"), typeCode, count+1),
		BloodType:      req.BloodType,
		ProductType:    req.ProductType,
		CollectionDate: collected,
		ExpiryDate:     collected.AddDate(0, 0, shelfDays),
		VolumeML:       volume,
		Status:         models.BagAvailable,
		StationID:      s.stationID,
		Operator:       req.Operator,
		Remarks:        req.Remarks,
	}
	if err := blood.InsertBag(ctx, bag); err != nil {
		return nil, err
	}

	s.logger.Info("Blood bag registered",
		"bag_code", bag.BloodBagCode,
		"blood_type", bag.BloodType,
		"product_type", bag.ProductType,
		"expires", bag.ExpiryDate.Format(dateLayout),
	)
	return bag, nil
}

// UseBag transfuses one bag to one patient.
func (s *BloodService) UseBag(ctx context.Context, bagCode, patientName, operator string) error {
	if bagCode == "" {
		return validationf("blood_bag_code is required")
	}
	if patientName == "" {
		return validationf("patient_name is required")
	}

	blood := db.NewBloodRepository(s.store.DB, s.store.Dialect())
	bag, err := blood.GetBagByCode(ctx, bagCode)
	if err != nil {
		return err
	}
	if bag.Status != models.BagAvailable {
		return validationf("blood bag %s is %s, not available", bagCode, bag.Status)
	}

	if err := blood.MarkBagUsed(ctx, bagCode, patientName); err != nil {
		return err
	}

	s.logger.Info("Blood bag used",
		"bag_code", bagCode,
		"operator", operatorOrDefault(operator),
	)
	return nil
}

// ListBags lists emergency bags, optionally narrowed to one status.
func (s *BloodService) ListBags(ctx context.Context, status string) ([]models.BloodBag, error) {
	blood := db.NewBloodRepository(s.store.DB, s.store.Dialect())
	return blood.ListBags(ctx, status)
}
