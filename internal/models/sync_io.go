package models

// Request bodies use the camelCase keys the station clients already send;
// responses use snake_case. The asymmetry is wire-compatibility, not taste.

// GenerateRequest asks a station to build a sync package from its local data.
type GenerateRequest struct {
	StationID      string `json:"stationId"`
	HospitalID     string `json:"hospitalId"`
	SyncType       string `json:"syncType"`
	SinceTimestamp string `json:"sinceTimestamp,omitempty"`
}

// ImportRequest carries a previously generated package into a local store.
type ImportRequest struct {
	PackageID   string         `json:"packageId"`
	PackageType string         `json:"packageType"`
	Changes     []ChangeRecord `json:"changes"`
	Checksum    string         `json:"checksum"`
}

// UploadRequest is an import arriving at the hospital side, attributed to the
// station that produced it.
type UploadRequest struct {
	ImportRequest
	StationID string `json:"stationId"`
}

// GenerateResult is the full outcome of package generation, changes included,
// so the caller can carry the payload away on whatever medium is available.
type GenerateResult struct {
	Success      bool           `json:"success"`
	PackageID    string         `json:"package_id"`
	PackageType  string         `json:"package_type"`
	PackageSize  int64          `json:"package_size"`
	Checksum     string         `json:"checksum"`
	ChangesCount int            `json:"changes_count"`
	Changes      []ChangeRecord `json:"changes"`
	Message      string         `json:"message"`
}

// Conflict records one change that could not be applied. The batch continues
// past it; the caller decides what to do with the leftovers.
type Conflict struct {
	Table     string         `json:"table"`
	Operation string         `json:"operation"`
	Error     string         `json:"error"`
	Data      map[string]any `json:"data"`
}

// ApplyResult summarizes an import: how many changes landed and which did not.
// Success refers to the package as a whole; a package with conflicts is still
// a successfully processed package.
type ApplyResult struct {
	Success           bool       `json:"success"`
	PackageID         string     `json:"package_id"`
	ChangesApplied    int        `json:"changes_applied"`
	ConflictsDetected int        `json:"conflicts_detected"`
	Conflicts         []Conflict `json:"conflicts"`
	Message           string     `json:"message"`
}

// UploadResult is an ApplyResult plus the hospital-side bookkeeping fields.
type UploadResult struct {
	ApplyResult
	StationID         string `json:"station_id"`
	ResponsePackageID string `json:"response_package_id"`
}
