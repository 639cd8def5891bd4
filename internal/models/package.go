package models

import "time"

// Package lifecycle states. Generation writes PENDING, a successful import
// writes APPLIED. UPLOADED and PROCESSING belong to the staged hospital->
// central relay, which tracks packages it has received but not yet applied.
const (
	StatusPending    = "PENDING"
	StatusUploaded   = "UPLOADED"
	StatusProcessing = "PROCESSING"
	StatusApplied    = "APPLIED"
	StatusFailed     = "FAILED"
)

// Package types. REPORT exists for aggregate summaries relayed upward and is
// accepted by the registry schema, though only DELTA and FULL are generated.
const (
	PackageDelta  = "DELTA"
	PackageFull   = "FULL"
	PackageReport = "REPORT"
)

// Endpoint roles in the station -> hospital -> central topology.
const (
	EndpointStation  = "STATION"
	EndpointHospital = "HOSPITAL"
	EndpointCentral  = "CENTRAL"
)

// How a package physically travels. Stations are assumed offline, so
// everything except NETWORK means the bytes rode along with a person.
const (
	TransferNetwork = "NETWORK"
	TransferUSB     = "USB"
	TransferManual  = "MANUAL"
	TransferDrone   = "DRONE"
)

// SyncPackage is a row in the sync_packages registry: the audit record of one
// package's existence and fate. The changes themselves are not stored here,
// only their count, size and checksum.
type SyncPackage struct {
	PackageID       string     `json:"package_id"`
	PackageType     string     `json:"package_type"`
	SourceType      string     `json:"source_type"`
	SourceID        string     `json:"source_id"`
	DestinationType string     `json:"destination_type"`
	DestinationID   string     `json:"destination_id"`
	HospitalID      string     `json:"hospital_id"`
	TransferMethod  string     `json:"transfer_method"`
	PackageSize     int64      `json:"package_size"`
	Checksum        string     `json:"checksum"`
	ChangesCount    int        `json:"changes_count"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	UploadedAt      *time.Time `json:"uploaded_at,omitempty"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
	ErrorMessage    *string    `json:"error_message,omitempty"`
}
