package models

import "time"

// Station sync states driven by the upload flow.
const (
	SyncStatusPending = "PENDING"
	SyncStatusSyncing = "SYNCING"
	SyncStatusSynced  = "SYNCED"
	SyncStatusFailed  = "FAILED"
)

// Hospital is a command node that aggregates packages from its stations.
type Hospital struct {
	HospitalID        string    `json:"hospital_id"`
	HospitalName      string    `json:"hospital_name"`
	HospitalType      string    `json:"hospital_type"`
	CommandLevel      string    `json:"command_level"`
	Latitude          *float64  `json:"latitude,omitempty"`
	Longitude         *float64  `json:"longitude,omitempty"`
	ContactInfo       *string   `json:"contact_info,omitempty"`
	NetworkAccess     string    `json:"network_access"`
	TotalStations     int       `json:"total_stations"`
	OperationalStatus string    `json:"operational_status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Station is a field deployment that generates packages for its hospital.
// LastSyncAt and SyncStatus are maintained by the upload flow.
type Station struct {
	StationID         string     `json:"station_id"`
	StationName       string     `json:"station_name"`
	HospitalID        string     `json:"hospital_id"`
	StationType       string     `json:"station_type"`
	Latitude          *float64   `json:"latitude,omitempty"`
	Longitude         *float64   `json:"longitude,omitempty"`
	NetworkAccess     string     `json:"network_access"`
	OperationalStatus string     `json:"operational_status"`
	LastSyncAt        *time.Time `json:"last_sync_at,omitempty"`
	SyncStatus        string     `json:"sync_status"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}
