package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stationware/medsync/internal/db"
)

func TestEquipmentCheckUpdatesRoster(t *testing.T) {
	store := newTestStore(t)
	seedEquipment(t, store, "DIAG-001", "Blood Pressure Monitor")

	svc := NewEquipmentService(store, "HC-000000", testLogger())
	ctx := context.Background()

	power := 80
	remarks := "battery below full"
	require.NoError(t, svc.Check(ctx, CheckRequest{
		EquipmentID: "DIAG-001",
		Status:      "NORMAL",
		PowerLevel:  &power,
		Remarks:     &remarks,
		Operator:    "medic-1",
	}))

	roster, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, "NORMAL", roster[0].Status)
	require.NotNil(t, roster[0].PowerLevel)
	assert.Equal(t, 80, *roster[0].PowerLevel)
	assert.NotNil(t, roster[0].LastCheck)

	var checkCount int
	require.NoError(t, store.DB.QueryRow("SELECT COUNT(*) FROM equipment_checks").Scan(&checkCount))
	assert.Equal(t, 1, checkCount)
}

func TestEquipmentCheckValidation(t *testing.T) {
	store := newTestStore(t)
	seedEquipment(t, store, "DIAG-001", "Blood Pressure Monitor")

	svc := NewEquipmentService(store, "HC-000000", testLogger())
	ctx := context.Background()

	var validationErr *ValidationError

	err := svc.Check(ctx, CheckRequest{EquipmentID: "", Status: "NORMAL"})
	require.ErrorAs(t, err, &validationErr)

	err = svc.Check(ctx, CheckRequest{EquipmentID: "DIAG-001", Status: "FINE"})
	require.ErrorAs(t, err, &validationErr)

	over := 150
	err = svc.Check(ctx, CheckRequest{EquipmentID: "DIAG-001", Status: "NORMAL", PowerLevel: &over})
	require.ErrorAs(t, err, &validationErr)

	err = svc.Check(ctx, CheckRequest{EquipmentID: "DIAG-999", Status: "NORMAL"})
	require.Error(t, err)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestEquipmentResetDaily(t *testing.T) {
	store := newTestStore(t)
	seedEquipment(t, store, "DIAG-001", "Blood Pressure Monitor")
	seedEquipment(t, store, "DIAG-002", "Pulse Oximeter")

	svc := NewEquipmentService(store, "HC-000000", testLogger())
	ctx := context.Background()

	require.NoError(t, svc.Check(ctx, CheckRequest{
		EquipmentID: "DIAG-001",
		Status:      "BROKEN",
		Operator:    "medic-1",
	}))

	reset, err := svc.ResetDaily(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), reset)

	roster, err := svc.List(ctx)
	require.NoError(t, err)
	for _, eq := range roster {
		assert.Equal(t, "UNCHECKED", eq.Status)
		assert.Nil(t, eq.PowerLevel)
		assert.Nil(t, eq.Remarks)
	}

	// The check log survives the reset untouched.
	var checkCount int
	require.NoError(t, store.DB.QueryRow("SELECT COUNT(*) FROM equipment_checks").Scan(&checkCount))
	assert.Equal(t, 1, checkCount)

	// Nothing to reset the second time around.
	reset, err = svc.ResetDaily(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), reset)
}
