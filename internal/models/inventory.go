package models

import "time"

// Inventory event types. Stock is never stored for items; it is the running
// sum of RECEIVE minus CONSUME events, which makes the event log the single
// source of truth that sync packages carry between stores.
const (
	EventReceive = "RECEIVE"
	EventConsume = "CONSUME"
)

// Item is a catalog entry: medicines and consumables share the table,
// distinguished by their code prefix and category.
type Item struct {
	ItemCode     string    `json:"item_code"`
	ItemName     string    `json:"item_name"`
	ItemCategory *string   `json:"item_category,omitempty"`
	Category     *string   `json:"category,omitempty"`
	Unit         string    `json:"unit"`
	MinStock     int       `json:"min_stock"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ItemStock is an Item with its computed stock level.
type ItemStock struct {
	Item
	CurrentStock int `json:"current_stock"`
}

// InventoryEvent is one stock movement at a station.
type InventoryEvent struct {
	ID          int64     `json:"id"`
	EventType   string    `json:"event_type"`
	ItemCode    string    `json:"item_code"`
	Quantity    int       `json:"quantity"`
	BatchNumber *string   `json:"batch_number,omitempty"`
	ExpiryDate  *string   `json:"expiry_date,omitempty"`
	Remarks     *string   `json:"remarks,omitempty"`
	StationID   string    `json:"station_id"`
	Operator    string    `json:"operator"`
	Timestamp   time.Time `json:"timestamp"`
}
