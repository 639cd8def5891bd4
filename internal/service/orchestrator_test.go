package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stationware/medsync/internal/db"
	"github.com/stationware/medsync/internal/models"
	"github.com/stationware/medsync/internal/processor"
	"github.com/stationware/medsync/pkg/canonical"
)

// newTestOrchestrator wires a full orchestrator onto one store, the way the
// daemon does it.
func newTestOrchestrator(store *db.Store, stationID, hospitalID string) *SyncOrchestrator {
	snapshots := db.NewSnapshotRepository(store.DB, store.Dialect())
	packages := db.NewPackageRepository(store.DB, store.Dialect())
	stations := db.NewStationRepository(store.DB, store.Dialect())

	extractor := NewChangeExtractor(snapshots, testLogger())
	applier := processor.NewPackageApplier(store, hospitalID, testLogger())
	return NewSyncOrchestrator(extractor, applier, packages, stations, stationID, hospitalID, testLogger())
}

func TestGenerateUploadRoundTrip(t *testing.T) {
	ctx := context.Background()

	stationStore := newTestStore(t)
	hospitalStore := newTestStore(t)

	seedItem(t, stationStore, "MED-TEST-001", "Acetaminophen 500mg", "Tab")
	inventory := db.NewInventoryRepository(stationStore.DB, stationStore.Dialect())
	require.NoError(t, inventory.InsertEvent(ctx, &models.InventoryEvent{
		EventType: models.EventReceive,
		ItemCode:  "MED-TEST-001",
		Quantity:  40,
		StationID: "HC-000001",
		Operator:  "medic-1",
	}))

	seedRoster(t, hospitalStore, "HOSP-001", "HC-000001")

	stationOrch := newTestOrchestrator(stationStore, "HC-000001", "HOSP-001")
	hospitalOrch := newTestOrchestrator(hospitalStore, "HOSP-STATION", "HOSP-001")

	generated, err := stationOrch.Generate(ctx, &models.GenerateRequest{SyncType: "FULL"})
	require.NoError(t, err)

	assert.True(t, generated.Success)
	assert.Equal(t, models.PackageFull, generated.PackageType)
	assert.Equal(t, 2, generated.ChangesCount) // one item, one event
	assert.Len(t, generated.Checksum, 64)
	assert.Contains(t, generated.PackageID, "HC-000001")

	// The station keeps a PENDING registry row for the package it produced.
	stationPackages := db.NewPackageRepository(stationStore.DB, stationStore.Dialect())
	pkg, err := stationPackages.GetByID(ctx, generated.PackageID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, pkg.Status)

	uploaded, err := hospitalOrch.Upload(ctx, &models.UploadRequest{
		ImportRequest: models.ImportRequest{
			PackageID:   generated.PackageID,
			PackageType: generated.PackageType,
			Changes:     generated.Changes,
			Checksum:    generated.Checksum,
		},
		StationID: "HC-000001",
	})
	require.NoError(t, err)

	assert.True(t, uploaded.Success)
	assert.Equal(t, 2, uploaded.ChangesApplied)
	assert.Equal(t, 0, uploaded.ConflictsDetected)
	assert.Equal(t, "PKG-RESPONSE-"+generated.PackageID, uploaded.ResponsePackageID)

	// The station's data is now visible on the hospital store.
	hospitalItems := db.NewItemRepository(hospitalStore.DB, hospitalStore.Dialect())
	item, err := hospitalItems.Get(ctx, "MED-TEST-001")
	require.NoError(t, err)
	assert.Equal(t, "Acetaminophen 500mg", item.ItemName)

	var eventCount int
	require.NoError(t, hospitalStore.DB.QueryRow(
		"SELECT COUNT(*) FROM inventory_events WHERE station_id = ?", "HC-000001").Scan(&eventCount))
	assert.Equal(t, 1, eventCount)

	// The hospital registered the package and stamped the sending station.
	hospitalPackages := db.NewPackageRepository(hospitalStore.DB, hospitalStore.Dialect())
	applied, err := hospitalPackages.GetByID(ctx, generated.PackageID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApplied, applied.Status)

	stations := db.NewStationRepository(hospitalStore.DB, hospitalStore.Dialect())
	station, err := stations.Get(ctx, "HC-000001")
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusSynced, station.SyncStatus)
	assert.NotNil(t, station.LastSyncAt)
}

func TestUploadTamperedPackage(t *testing.T) {
	ctx := context.Background()

	stationStore := newTestStore(t)
	hospitalStore := newTestStore(t)

	seedItem(t, stationStore, "MED-TEST-001", "Acetaminophen 500mg", "Tab")
	seedRoster(t, hospitalStore, "HOSP-001", "HC-000001")

	stationOrch := newTestOrchestrator(stationStore, "HC-000001", "HOSP-001")
	hospitalOrch := newTestOrchestrator(hospitalStore, "HOSP-STATION", "HOSP-001")

	generated, err := stationOrch.Generate(ctx, &models.GenerateRequest{SyncType: "FULL"})
	require.NoError(t, err)
	require.NotEmpty(t, generated.Changes)

	generated.Changes[0].Data["item_name"] = "Oxycodone 80mg" // altered in transit

	result, err := hospitalOrch.Upload(ctx, &models.UploadRequest{
		ImportRequest: models.ImportRequest{
			PackageID: generated.PackageID,
			Changes:   generated.Changes,
			Checksum:  generated.Checksum,
		},
		StationID: "HC-000001",
	})
	require.Error(t, err)
	assert.Nil(t, result)

	var integrityErr *processor.IntegrityError
	assert.ErrorAs(t, err, &integrityErr)

	// Nothing landed and the station was not stamped.
	var itemCount int
	require.NoError(t, hospitalStore.DB.QueryRow("SELECT COUNT(*) FROM items").Scan(&itemCount))
	assert.Equal(t, 0, itemCount)

	stations := db.NewStationRepository(hospitalStore.DB, hospitalStore.Dialect())
	station, err := stations.Get(ctx, "HC-000001")
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusPending, station.SyncStatus)
}

func TestGenerateRejectsUnknownSyncType(t *testing.T) {
	store := newTestStore(t)
	orch := newTestOrchestrator(store, "HC-000001", "HOSP-001")

	_, err := orch.Generate(context.Background(), &models.GenerateRequest{SyncType: "WEEKLY"})
	require.Error(t, err)

	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestGenerateEmptyStoreStillMintsPackage(t *testing.T) {
	store := newTestStore(t)
	orch := newTestOrchestrator(store, "HC-000001", "HOSP-001")

	result, err := orch.Generate(context.Background(), &models.GenerateRequest{SyncType: "DELTA"})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 0, result.ChangesCount)
	assert.Len(t, result.Checksum, 64)
}

func TestGenerateChecksumCoversPayload(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	seedItem(t, store, "MED-TEST-001", "Acetaminophen 500mg", "Tab")
	seedItem(t, store, "GAUZE-001", "Sterile Gauze 2x2", "Pack")
	seedItem(t, store, "GLOVE-001", "Nitrile Gloves M", "Box")

	orch := newTestOrchestrator(store, "HC-000000", "HOSP-001")
	result, err := orch.Generate(ctx, &models.GenerateRequest{SyncType: "FULL"})
	require.NoError(t, err)
	assert.Equal(t, 3, result.ChangesCount)

	// The published checksum and size describe the same canonical payload an
	// importer will recompute from the changes.
	payload, err := canonical.Marshal(result.Changes)
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), result.PackageSize)
	assert.Equal(t, canonical.Digest(payload), result.Checksum)
}

func TestGenerateDeltaHonorsCutoff(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	seedItem(t, store, "MED-TEST-001", "Acetaminophen 500mg", "Tab")
	inventory := db.NewInventoryRepository(store.DB, store.Dialect())
	require.NoError(t, inventory.InsertEvent(ctx, &models.InventoryEvent{
		EventType: models.EventReceive,
		ItemCode:  "MED-TEST-001",
		Quantity:  10,
		StationID: "HC-000000",
		Operator:  "medic-1",
	}))

	orch := newTestOrchestrator(store, "HC-000000", "HOSP-001")
	result, err := orch.Generate(ctx, &models.GenerateRequest{
		SyncType:       "DELTA",
		SinceTimestamp: "2000-01-01 00:00:00",
	})
	require.NoError(t, err)

	// The catalog never travels in a delta; the event after the cutoff does.
	require.Equal(t, 1, result.ChangesCount)
	assert.Equal(t, "inventory_events", result.Changes[0].Table)
	assert.Equal(t, models.PackageDelta, result.PackageType)
}

func TestImportValidation(t *testing.T) {
	store := newTestStore(t)
	orch := newTestOrchestrator(store, "HC-000001", "HOSP-001")

	valid := func() *models.ImportRequest {
		return &models.ImportRequest{
			PackageID: "PKG-20260110-080000-HC-000001-abcd1234",
			Checksum:  "0000000000000000000000000000000000000000000000000000000000000000",
			Changes: []models.ChangeRecord{
				{Table: "items", Operation: models.OpInsert, Data: map[string]any{"item_code": "X"}},
			},
		}
	}

	tests := []struct {
		name   string
		mutate func(req *models.ImportRequest)
	}{
		{"missing package id", func(req *models.ImportRequest) { req.PackageID = "" }},
		{"missing checksum", func(req *models.ImportRequest) { req.Checksum = "" }},
		{"no changes", func(req *models.ImportRequest) { req.Changes = nil }},
		{"change without table", func(req *models.ImportRequest) { req.Changes[0].Table = "" }},
		{"change without operation", func(req *models.ImportRequest) { req.Changes[0].Operation = "" }},
		{"change without data", func(req *models.ImportRequest) { req.Changes[0].Data = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(req)

			_, err := orch.Import(context.Background(), req)
			require.Error(t, err)

			var validationErr *ValidationError
			assert.ErrorAs(t, err, &validationErr)
		})
	}
}

func TestUploadRequiresStationID(t *testing.T) {
	store := newTestStore(t)
	orch := newTestOrchestrator(store, "HC-000001", "HOSP-001")

	_, err := orch.Upload(context.Background(), &models.UploadRequest{
		ImportRequest: models.ImportRequest{PackageID: "PKG-X", Checksum: "abc"},
	})
	require.Error(t, err)

	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
}
