package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stationware/medsync/internal/db"
	"github.com/stationware/medsync/internal/models"
)

func TestCreateSurgeryWithConsumptions(t *testing.T) {
	store := newTestStore(t)
	seedItem(t, store, "GAUZE-001", "Sterile Gauze 2x2", "Pack")
	seedItem(t, store, "SUTURE-001", "Vicryl 2-0", "Pc")

	inventory := NewInventoryService(store, "HC-000000", testLogger())
	ctx := context.Background()
	require.NoError(t, inventory.Receive(ctx, ReceiveItemRequest{ItemCode: "GAUZE-001", Quantity: 100}))
	require.NoError(t, inventory.Receive(ctx, ReceiveItemRequest{ItemCode: "SUTURE-001", Quantity: 20}))

	svc := NewSurgeryService(store, "HC-000000", testLogger())
	surgeryType := "Laparotomy"
	rec, err := svc.Create(ctx, CreateSurgeryRequest{
		PatientName: "CPT Hale",
		SurgeryType: &surgeryType,
		Operator:    "surgeon-1",
		Consumptions: []ConsumptionRequest{
			{ItemCode: "GAUZE-001", Quantity: 10},
			{ItemCode: "SUTURE-001", Quantity: 2},
		},
	})
	require.NoError(t, err)

	expectedNumber := fmt.Sprintf("%s-CPT Hale-1", time.Now().Format("20060102"))
	assert.Equal(t, expectedNumber, rec.RecordNumber)
	assert.Equal(t, 1, rec.SurgerySequence)
	assert.NotZero(t, rec.ID)

	listed, err := svc.List(ctx, db.SurgeryFilter{})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, models.SurgeryOngoing, listed[0].Status)
	require.Len(t, listed[0].Consumptions, 2)
	assert.Equal(t, "Sterile Gauze 2x2", listed[0].Consumptions[0].ItemName)

	// Each consumption drew real stock.
	stock, err := inventory.ListStock(ctx)
	require.NoError(t, err)
	byCode := map[string]int{}
	for _, s := range stock {
		byCode[s.ItemCode] = s.CurrentStock
	}
	assert.Equal(t, 90, byCode["GAUZE-001"])
	assert.Equal(t, 18, byCode["SUTURE-001"])
}

func TestCreateSurgerySequencesPerDay(t *testing.T) {
	store := newTestStore(t)
	svc := NewSurgeryService(store, "HC-000000", testLogger())
	ctx := context.Background()

	first, err := svc.Create(ctx, CreateSurgeryRequest{PatientName: "CPT Hale", Operator: "surgeon-1"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, CreateSurgeryRequest{PatientName: "SGT Reyes", Operator: "surgeon-1"})
	require.NoError(t, err)

	assert.Equal(t, 1, first.SurgerySequence)
	assert.Equal(t, 2, second.SurgerySequence)
	assert.NotEqual(t, first.RecordNumber, second.RecordNumber)
}

func TestCreateSurgeryUnknownItemRollsBack(t *testing.T) {
	store := newTestStore(t)
	svc := NewSurgeryService(store, "HC-000000", testLogger())

	_, err := svc.Create(context.Background(), CreateSurgeryRequest{
		PatientName: "CPT Hale",
		Operator:    "surgeon-1",
		Consumptions: []ConsumptionRequest{
			{ItemCode: "MED-MISSING-001", Quantity: 1},
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, db.ErrNotFound)

	// The whole transaction unwinds: no record, no consumptions, no events.
	for _, table := range []string{"surgery_records", "surgery_consumptions", "inventory_events"} {
		var n int
		require.NoError(t, store.DB.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
		assert.Equal(t, 0, n, table)
	}
}

func TestCreateSurgeryValidation(t *testing.T) {
	store := newTestStore(t)
	svc := NewSurgeryService(store, "HC-000000", testLogger())
	ctx := context.Background()

	var validationErr *ValidationError

	_, err := svc.Create(ctx, CreateSurgeryRequest{PatientName: ""})
	require.ErrorAs(t, err, &validationErr)

	_, err = svc.Create(ctx, CreateSurgeryRequest{
		PatientName:  "CPT Hale",
		Consumptions: []ConsumptionRequest{{ItemCode: "", Quantity: 1}},
	})
	require.ErrorAs(t, err, &validationErr)

	_, err = svc.Create(ctx, CreateSurgeryRequest{
		PatientName:  "CPT Hale",
		Consumptions: []ConsumptionRequest{{ItemCode: "GAUZE-001", Quantity: 0}},
	})
	require.ErrorAs(t, err, &validationErr)
}

func TestArchiveSurgery(t *testing.T) {
	store := newTestStore(t)
	svc := NewSurgeryService(store, "HC-000000", testLogger())
	ctx := context.Background()

	rec, err := svc.Create(ctx, CreateSurgeryRequest{PatientName: "CPT Hale", Operator: "surgeon-1"})
	require.NoError(t, err)

	require.NoError(t, svc.Archive(ctx, ArchiveSurgeryRequest{
		RecordNumber:   rec.RecordNumber,
		PatientOutcome: "DISCHARGED",
		ArchivedBy:     "surgeon-1",
		Notes:          "routine recovery",
	}))

	listed, err := svc.List(ctx, db.SurgeryFilter{})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, models.SurgeryArchived, listed[0].Status)
	require.NotNil(t, listed[0].PatientOutcome)
	assert.Equal(t, "DISCHARGED", *listed[0].PatientOutcome)
	require.NotNil(t, listed[0].ArchivedBy)
	assert.Equal(t, "surgeon-1", *listed[0].ArchivedBy)

	// Archiving is a one-shot transition.
	err = svc.Archive(ctx, ArchiveSurgeryRequest{
		RecordNumber:   rec.RecordNumber,
		PatientOutcome: "TRANSFERRED",
		ArchivedBy:     "surgeon-2",
	})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestArchiveSurgeryValidation(t *testing.T) {
	store := newTestStore(t)
	svc := NewSurgeryService(store, "HC-000000", testLogger())
	ctx := context.Background()

	var validationErr *ValidationError

	err := svc.Archive(ctx, ArchiveSurgeryRequest{RecordNumber: "", PatientOutcome: "DISCHARGED", ArchivedBy: "x"})
	require.ErrorAs(t, err, &validationErr)

	err = svc.Archive(ctx, ArchiveSurgeryRequest{RecordNumber: "20260110-X-1", PatientOutcome: "CURED", ArchivedBy: "x"})
	require.ErrorAs(t, err, &validationErr)

	err = svc.Archive(ctx, ArchiveSurgeryRequest{RecordNumber: "20260110-X-1", PatientOutcome: "DECEASED", ArchivedBy: ""})
	require.ErrorAs(t, err, &validationErr)

	err = svc.Archive(ctx, ArchiveSurgeryRequest{RecordNumber: "20260110-X-1", PatientOutcome: "DECEASED", ArchivedBy: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, db.ErrNotFound)
}
