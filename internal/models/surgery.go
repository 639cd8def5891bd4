package models

import "time"

// Surgery record states.
const (
	SurgeryOngoing   = "ONGOING"
	SurgeryCompleted = "COMPLETED"
	SurgeryArchived  = "ARCHIVED"
	SurgeryCancelled = "CANCELLED"
)

// SurgeryRecord is one operation log entry. RecordNumber is derived from the
// date, patient and a per-day sequence, so it stays unique across stations
// without coordination.
type SurgeryRecord struct {
	ID              int64      `json:"id"`
	RecordNumber    string     `json:"record_number"`
	RecordDate      time.Time  `json:"record_date"`
	PatientName     string     `json:"patient_name"`
	SurgerySequence int        `json:"surgery_sequence"`
	SurgeryType     *string    `json:"surgery_type,omitempty"`
	SurgeonName     *string    `json:"surgeon_name,omitempty"`
	AnesthesiaType  *string    `json:"anesthesia_type,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	Remarks         *string    `json:"remarks,omitempty"`
	StationID       string     `json:"station_id"`
	Status          string     `json:"status"`
	PatientOutcome  *string    `json:"patient_outcome,omitempty"`
	ArchivedAt      *time.Time `json:"archived_at,omitempty"`
	ArchivedBy      *string    `json:"archived_by,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// SurgeryConsumption links an item draw to the surgery that consumed it.
type SurgeryConsumption struct {
	ID        int64  `json:"id"`
	SurgeryID int64  `json:"surgery_id"`
	ItemCode  string `json:"item_code"`
	ItemName  string `json:"item_name"`
	Quantity  int    `json:"quantity"`
	Unit      string `json:"unit"`
}
