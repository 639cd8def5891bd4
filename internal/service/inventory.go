package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/stationware/medsync/internal/db"
	"github.com/stationware/medsync/internal/models"
)

const defaultOperator = "SYSTEM"

// InventoryService records stock movements against the item catalog. Stock
// itself is never stored; every answer is the running sum of the event log,
// so locally recorded and sync-applied events are indistinguishable.
type InventoryService struct {
	store     *db.Store
	stationID string
	logger    *slog.Logger
}

func NewInventoryService(store *db.Store, stationID string, logger *slog.Logger) *InventoryService {
	return &InventoryService{
		store:     store,
		stationID: stationID,
		logger:    logger,
	}
}

// ReceiveItemRequest books incoming stock.
type ReceiveItemRequest struct {
	ItemCode    string  `json:"item_code"`
	Quantity    int     `json:"quantity"`
	BatchNumber *string `json:"batch_number,omitempty"`
	ExpiryDate  *string `json:"expiry_date,omitempty"`
	Remarks     *string `json:"remarks,omitempty"`
	Operator    string  `json:"operator"`
}

// ConsumeItemRequest books outgoing stock.
type ConsumeItemRequest struct {
	ItemCode string  `json:"item_code"`
	Quantity int     `json:"quantity"`
	Purpose  *string `json:"purpose,omitempty"`
	Operator string  `json:"operator"`
}

// CreateItemRequest registers a new catalog entry.
type CreateItemRequest struct {
	ItemCode     string  `json:"item_code"`
	ItemName     string  `json:"item_name"`
	ItemCategory *string `json:"item_category,omitempty"`
	Category     *string `json:"category,omitempty"`
	Unit         string  `json:"unit"`
	MinStock     int     `json:"min_stock"`
}

// InventorySummary reports the catalog size and the items currently sitting
// below their minimum stock.
type InventorySummary struct {
	TotalItems    int                `json:"total_items"`
	LowStockItems int                `json:"low_stock_items"`
	LowStock      []models.ItemStock `json:"low_stock"`
}

// Receive appends a RECEIVE event for a known catalog item.
func (s *InventoryService) Receive(ctx context.Context, req ReceiveItemRequest) error {
	if req.ItemCode == "" {
		return validationf("item_code is required")
	}
	if req.Quantity <= 0 {
		return validationf("quantity must be positive, got %d", req.Quantity)
	}

	items := db.NewItemRepository(s.store.DB, s.store.Dialect())
	item, err := items.Get(ctx, req.ItemCode)
	if err != nil {
		return err
	}

	events := db.NewInventoryRepository(s.store.DB, s.store.Dialect())
	err = events.InsertEvent(ctx, &models.InventoryEvent{
		EventType:   models.EventReceive,
		ItemCode:    item.ItemCode,
		Quantity:    req.Quantity,
		BatchNumber: req.BatchNumber,
		ExpiryDate:  req.ExpiryDate,
		Remarks:     req.Remarks,
		StationID:   s.stationID,
		Operator:    operatorOrDefault(req.Operator),
	})
	if err != nil {
		return err
	}

	s.logger.Info("Stock received",
		"item_code", item.ItemCode,
		"quantity", req.Quantity,
		"operator", operatorOrDefault(req.Operator),
	)
	return nil
}

// Consume appends a CONSUME event, refusing to let stock go negative. It
// returns the remaining stock after the draw.
func (s *InventoryService) Consume(ctx context.Context, req ConsumeItemRequest) (int, error) {
	if req.ItemCode == "" {
		return 0, validationf("item_code is required")
	}
	if req.Quantity <= 0 {
		return 0, validationf("quantity must be positive, got %d", req.Quantity)
	}

	items := db.NewItemRepository(s.store.DB, s.store.Dialect())
	item, err := items.Get(ctx, req.ItemCode)
	if err != nil {
		return 0, err
	}

	stock, err := items.Stock(ctx, item.ItemCode)
	if err != nil {
		return 0, err
	}
	if stock < req.Quantity {
		return 0, validationf("insufficient stock for %s: have %d, need %d", item.ItemCode, stock, req.Quantity)
	}

	events := db.NewInventoryRepository(s.store.DB, s.store.Dialect())
	err = events.InsertEvent(ctx, &models.InventoryEvent{
		EventType: models.EventConsume,
		ItemCode:  item.ItemCode,
		Quantity:  req.Quantity,
		Remarks:   req.Purpose,
		StationID: s.stationID,
		Operator:  operatorOrDefault(req.Operator),
	})
	if err != nil {
		return 0, err
	}

	remaining := stock - req.Quantity
	s.logger.Info("Stock consumed",
		"item_code", item.ItemCode,
		"quantity", req.Quantity,
		"remaining", remaining,
	)
	return remaining, nil
}

// CreateItem adds a catalog entry. Codes are caller-assigned and must be new;
// the item starts at zero stock until its first RECEIVE event.
func (s *InventoryService) CreateItem(ctx context.Context, req CreateItemRequest) (*models.Item, error) {
	if req.ItemCode == "" {
		return nil, validationf("item_code is required")
	}
	if req.ItemName == "" {
		return nil, validationf("item_name is required")
	}
	if req.Unit == "" {
		return nil, validationf("unit is required")
	}
	if req.MinStock < 0 {
		return nil, validationf("min_stock must not be negative, got %d", req.MinStock)
	}

	items := db.NewItemRepository(s.store.DB, s.store.Dialect())
	if _, err := items.Get(ctx, req.ItemCode); err == nil {
		return nil, validationf("item %s already exists", req.ItemCode)
	} else if !errors.Is(err, db.ErrNotFound) {
		return nil, err
	}

	itemCategory := req.ItemCategory
	if itemCategory == nil {
		v := "CONSUMABLE"
		itemCategory = &v
	}

	err := items.Upsert(ctx, &models.Item{
		ItemCode:     req.ItemCode,
		ItemName:     req.ItemName,
		ItemCategory: itemCategory,
		Category:     req.Category,
		Unit:         req.Unit,
		MinStock:     req.MinStock,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Catalog item created",
		"item_code", req.ItemCode,
		"item_name", req.ItemName,
	)
	return items.Get(ctx, req.ItemCode)
}

// ListStock returns the whole catalog with computed stock levels.
func (s *InventoryService) ListStock(ctx context.Context) ([]models.ItemStock, error) {
	items := db.NewItemRepository(s.store.DB, s.store.Dialect())
	return items.ListWithStock(ctx)
}

// Summary condenses the catalog into alert numbers: total items and the
// entries whose computed stock has fallen below min_stock.
func (s *InventoryService) Summary(ctx context.Context) (*InventorySummary, error) {
	stock, err := s.ListStock(ctx)
	if err != nil {
		return nil, err
	}

	summary := &InventorySummary{TotalItems: len(stock)}
	for _, entry := range stock {
		if entry.CurrentStock < entry.MinStock {
			summary.LowStock = append(summary.LowStock, entry)
		}
	}
	summary.LowStockItems = len(summary.LowStock)
	return summary, nil
}

// ListEvents returns recent stock movements.
func (s *InventoryService) ListEvents(ctx context.Context, f db.EventFilter) ([]models.InventoryEvent, error) {
	events := db.NewInventoryRepository(s.store.DB, s.store.Dialect())
	return events.ListEvents(ctx, f)
}

func operatorOrDefault(operator string) string {
	if operator == "" {
		return defaultOperator
	}
	return operator
}
