package models

// SyncTable describes how one relation participates in sync packages: which
// column identifies a row, which column orders it in time, and whether it is
// included in DELTA and FULL extractions.
type SyncTable struct {
	Name            string
	PKColumn        string
	TimestampColumn string
	// StationColumn is the column extraction filters on. Empty means the
	// table is a shared catalog replicated to every station unfiltered.
	StationColumn string
	Delta         bool
	Full          bool
}

// TableRegistry is the compile-time whitelist of relations sync packages may
// carry. The extractor reads only these tables and the applier rejects change
// records naming any other table, so wire input can never choose its own
// target relation.
var TableRegistry = map[string]SyncTable{
	"items": {
		Name:            "items",
		PKColumn:        "item_code",
		TimestampColumn: "updated_at",
		Full:            true,
	},
	"inventory_events": {
		Name:            "inventory_events",
		PKColumn:        "id",
		TimestampColumn: "timestamp",
		StationColumn:   "station_id",
		Delta:           true,
		Full:            true,
	},
	"blood_events": {
		Name:            "blood_events",
		PKColumn:        "id",
		TimestampColumn: "timestamp",
		StationColumn:   "station_id",
		Delta:           true,
		Full:            true,
	},
	"equipment_checks": {
		Name:            "equipment_checks",
		PKColumn:        "id",
		TimestampColumn: "timestamp",
		StationColumn:   "station_id",
		Delta:           true,
		Full:            true,
	},
	"surgery_records": {
		Name:            "surgery_records",
		PKColumn:        "id",
		TimestampColumn: "created_at",
		StationColumn:   "station_id",
		Delta:           true,
		Full:            true,
	},
	"emergency_blood_bags": {
		Name:            "emergency_blood_bags",
		PKColumn:        "id",
		TimestampColumn: "created_at",
		StationColumn:   "station_id",
		Delta:           true,
	},
}

// SyncOrder fixes the order tables are visited during extraction. Map
// iteration order is random in Go and package contents must be deterministic
// for checksums to be reproducible.
var SyncOrder = []string{
	"items",
	"inventory_events",
	"blood_events",
	"equipment_checks",
	"surgery_records",
	"emergency_blood_bags",
}
