package models

import "time"

// Dispense record states. EMERGENCY is break-the-glass: stock is deducted
// immediately and the approval happens after the fact.
const (
	DispensePending   = "PENDING"
	DispenseApproved  = "APPROVED"
	DispenseEmergency = "EMERGENCY"
)

// DispenseRecord is one medicine hand-out request and its approval trail.
type DispenseRecord struct {
	ID              int64      `json:"id"`
	MedicineCode    string     `json:"medicine_code"`
	MedicineName    string     `json:"medicine_name"`
	Quantity        int        `json:"quantity"`
	Unit            *string    `json:"unit,omitempty"`
	DispensedBy     string     `json:"dispensed_by"`
	ApprovedBy      *string    `json:"approved_by,omitempty"`
	Status          string     `json:"status"`
	EmergencyReason *string    `json:"emergency_reason,omitempty"`
	PatientRefID    *string    `json:"patient_ref_id,omitempty"`
	PatientName     *string    `json:"patient_name,omitempty"`
	StationCode     string     `json:"station_code"`
	StorageLocation *string    `json:"storage_location,omitempty"`
	BatchNumber     *string    `json:"batch_number,omitempty"`
	LotNumber       *string    `json:"lot_number,omitempty"`
	ExpiryDate      *string    `json:"expiry_date,omitempty"`
	PrescriptionID  *string    `json:"prescription_id,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	PharmacistNotes *string    `json:"pharmacist_notes,omitempty"`
	UnitCost        *float64   `json:"unit_cost,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
