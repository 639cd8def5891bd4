package models

import "time"

// Emergency blood bag states.
const (
	BagAvailable = "AVAILABLE"
	BagUsed      = "USED"
	BagExpired   = "EXPIRED"
	BagDiscarded = "DISCARDED"
)

// BloodInventory is the running quantity of one blood type at one station.
// Unlike items, blood keeps a materialized quantity because field workflows
// need the number without replaying the event log.
type BloodInventory struct {
	BloodType   string    `json:"blood_type"`
	Quantity    int       `json:"quantity"`
	StationID   string    `json:"station_id"`
	LastUpdated time.Time `json:"last_updated"`
}

// BloodEvent is one movement in the blood ledger.
type BloodEvent struct {
	ID        int64     `json:"id"`
	EventType string    `json:"event_type"`
	BloodType string    `json:"blood_type"`
	Quantity  int       `json:"quantity"`
	StationID string    `json:"station_id"`
	Operator  string    `json:"operator"`
	Timestamp time.Time `json:"timestamp"`
}

// BloodBag is an individually tracked emergency unit. Bags are never pooled
// into BloodInventory; they are dispensed whole, one bag to one patient.
type BloodBag struct {
	ID             int64      `json:"id"`
	BloodBagCode   string     `json:"blood_bag_code"`
	BloodType      string     `json:"blood_type"`
	ProductType    string     `json:"product_type"`
	CollectionDate time.Time  `json:"collection_date"`
	ExpiryDate     time.Time  `json:"expiry_date"`
	VolumeML       int        `json:"volume_ml"`
	Status         string     `json:"status"`
	StationID      string     `json:"station_id"`
	Operator       string     `json:"operator"`
	PatientName    *string    `json:"patient_name,omitempty"`
	UsageTimestamp *time.Time `json:"usage_timestamp,omitempty"`
	Remarks        *string    `json:"remarks,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
