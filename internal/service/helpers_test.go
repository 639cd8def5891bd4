package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stationware/medsync/internal/db"
	"github.com/stationware/medsync/internal/models"
)

// newTestStore opens a private in-memory SQLite store with the full schema
// applied. Each call gets its own database.
func newTestStore(t *testing.T) *db.Store {
	t.Helper()

	store, err := db.Open(context.Background(), "sqlite", ":memory:", testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func seedItem(t *testing.T, store *db.Store, code, name, unit string) {
	t.Helper()

	items := db.NewItemRepository(store.DB, store.Dialect())
	require.NoError(t, items.Upsert(context.Background(), &models.Item{
		ItemCode: code,
		ItemName: name,
		Unit:     unit,
		MinStock: 5,
	}))
}

func seedRoster(t *testing.T, store *db.Store, hospitalID, stationID string) {
	t.Helper()

	hospitals := db.NewHospitalRepository(store.DB, store.Dialect())
	require.NoError(t, hospitals.Upsert(context.Background(), &models.Hospital{
		HospitalID:        hospitalID,
		HospitalName:      "Test Hospital",
		HospitalType:      "FIELD_HOSPITAL",
		CommandLevel:      "REGIONAL",
		NetworkAccess:     "NONE",
		OperationalStatus: "ACTIVE",
	}))

	stations := db.NewStationRepository(store.DB, store.Dialect())
	require.NoError(t, stations.Upsert(context.Background(), &models.Station{
		StationID:         stationID,
		StationName:       "Test Station",
		HospitalID:        hospitalID,
		StationType:       "SMALL",
		NetworkAccess:     "NONE",
		OperationalStatus: "ACTIVE",
	}))
}

func seedEquipment(t *testing.T, store *db.Store, id, name string) {
	t.Helper()

	category := "Diagnostics"
	equipment := db.NewEquipmentRepository(store.DB, store.Dialect())
	require.NoError(t, equipment.Upsert(context.Background(), &models.Equipment{
		ID:       id,
		Name:     name,
		Category: &category,
		Quantity: 1,
		Status:   "UNCHECKED",
	}))
}
