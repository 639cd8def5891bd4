package models

import "time"

// Equipment is a checkable asset. Status reflects the latest check and is
// reset to UNCHECKED by the daily maintenance pass.
type Equipment struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Category   *string    `json:"category,omitempty"`
	Quantity   int        `json:"quantity"`
	Status     string     `json:"status"`
	LastCheck  *time.Time `json:"last_check,omitempty"`
	PowerLevel *int       `json:"power_level,omitempty"`
	Remarks    *string    `json:"remarks,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// EquipmentCheck is the audit record of one inspection. Checks are append
// only and sync upstream; the equipment row itself stays local.
type EquipmentCheck struct {
	ID          int64     `json:"id"`
	EquipmentID string    `json:"equipment_id"`
	Status      string    `json:"status"`
	PowerLevel  *int      `json:"power_level,omitempty"`
	Remarks     *string   `json:"remarks,omitempty"`
	StationID   string    `json:"station_id"`
	Operator    string    `json:"operator"`
	Timestamp   time.Time `json:"timestamp"`
}
