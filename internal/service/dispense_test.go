package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stationware/medsync/internal/db"
	"github.com/stationware/medsync/internal/models"
)

func TestDispenseNormalFlowDeductsOnApproval(t *testing.T) {
	store := newTestStore(t)
	seedItem(t, store, "MED-PAIN-001", "Ibuprofen 400mg", "Tab")

	inventory := NewInventoryService(store, "HC-000000", testLogger())
	svc := NewDispenseService(store, "HC-000000", testLogger())
	ctx := context.Background()
	require.NoError(t, inventory.Receive(ctx, ReceiveItemRequest{ItemCode: "MED-PAIN-001", Quantity: 50}))

	res, err := svc.Dispense(ctx, DispenseRequest{
		MedicineCode: "MED-PAIN-001",
		Quantity:     10,
		DispensedBy:  "medic-1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.DispensePending, res.Status)
	assert.Equal(t, 50, res.RemainingStock)

	// Nothing drawn until the pharmacist signs off.
	consumed, err := inventory.ListEvents(ctx, db.EventFilter{EventType: models.EventConsume})
	require.NoError(t, err)
	assert.Empty(t, consumed)

	notes := "verified against prescription"
	require.NoError(t, svc.Approve(ctx, ApproveRequest{
		DispenseID:      res.DispenseID,
		ApprovedBy:      "pharm-1",
		PharmacistNotes: &notes,
	}))

	consumed, err = inventory.ListEvents(ctx, db.EventFilter{EventType: models.EventConsume})
	require.NoError(t, err)
	require.Len(t, consumed, 1)
	require.NotNil(t, consumed[0].Remarks)
	assert.Equal(t, "normal dispense (pharmacist approved)", *consumed[0].Remarks)

	rec, err := db.NewDispenseRepository(store.DB, store.Dialect()).Get(ctx, res.DispenseID)
	require.NoError(t, err)
	assert.Equal(t, models.DispenseApproved, rec.Status)
	require.NotNil(t, rec.ApprovedBy)
	assert.Equal(t, "pharm-1", *rec.ApprovedBy)
	assert.NotNil(t, rec.ApprovedAt)
	require.NotNil(t, rec.PharmacistNotes)
	assert.Equal(t, notes, *rec.PharmacistNotes)

	stock, err := inventory.ListStock(ctx)
	require.NoError(t, err)
	require.Len(t, stock, 1)
	assert.Equal(t, 40, stock[0].CurrentStock)
}

func TestDispenseEmergencyDeductsImmediately(t *testing.T) {
	store := newTestStore(t)
	seedItem(t, store, "MED-EMER-001", "Epinephrine 1mg/1ml", "Amp")

	inventory := NewInventoryService(store, "HC-000000", testLogger())
	svc := NewDispenseService(store, "HC-000000", testLogger())
	ctx := context.Background()
	require.NoError(t, inventory.Receive(ctx, ReceiveItemRequest{ItemCode: "MED-EMER-001", Quantity: 20}))

	res, err := svc.Dispense(ctx, DispenseRequest{
		MedicineCode:    "MED-EMER-001",
		Quantity:        4,
		DispensedBy:     "medic-1",
		Emergency:       true,
		EmergencyReason: "anaphylaxis, no pharmacist on shift",
	})
	require.NoError(t, err)
	assert.Equal(t, models.DispenseEmergency, res.Status)
	assert.Equal(t, 16, res.RemainingStock)

	consumed, err := inventory.ListEvents(ctx, db.EventFilter{EventType: models.EventConsume})
	require.NoError(t, err)
	require.Len(t, consumed, 1)
	require.NotNil(t, consumed[0].Remarks)
	assert.Equal(t, "emergency dispense: anaphylaxis, no pharmacist on shift", *consumed[0].Remarks)

	// After-the-fact approval stamps the record without a second draw.
	require.NoError(t, svc.Approve(ctx, ApproveRequest{DispenseID: res.DispenseID, ApprovedBy: "pharm-1"}))

	consumed, err = inventory.ListEvents(ctx, db.EventFilter{EventType: models.EventConsume})
	require.NoError(t, err)
	assert.Len(t, consumed, 1)

	rec, err := db.NewDispenseRepository(store.DB, store.Dialect()).Get(ctx, res.DispenseID)
	require.NoError(t, err)
	assert.Equal(t, models.DispenseApproved, rec.Status)
}

func TestDispenseValidation(t *testing.T) {
	store := newTestStore(t)
	svc := NewDispenseService(store, "HC-000000", testLogger())
	ctx := context.Background()

	var validationErr *ValidationError

	_, err := svc.Dispense(ctx, DispenseRequest{MedicineCode: "", Quantity: 1, DispensedBy: "medic-1"})
	require.ErrorAs(t, err, &validationErr)

	_, err = svc.Dispense(ctx, DispenseRequest{MedicineCode: "MED-PAIN-001", Quantity: 0, DispensedBy: "medic-1"})
	require.ErrorAs(t, err, &validationErr)

	_, err = svc.Dispense(ctx, DispenseRequest{MedicineCode: "MED-PAIN-001", Quantity: 1, DispensedBy: ""})
	require.ErrorAs(t, err, &validationErr)

	_, err = svc.Dispense(ctx, DispenseRequest{
		MedicineCode: "MED-PAIN-001", Quantity: 1, DispensedBy: "medic-1",
		Emergency: true, EmergencyReason: "pain",
	})
	require.ErrorAs(t, err, &validationErr)

	_, err = svc.Dispense(ctx, DispenseRequest{MedicineCode: "MED-MISSING-001", Quantity: 1, DispensedBy: "medic-1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestDispenseInsufficientStock(t *testing.T) {
	store := newTestStore(t)
	seedItem(t, store, "MED-PAIN-001", "Ibuprofen 400mg", "Tab")

	inventory := NewInventoryService(store, "HC-000000", testLogger())
	svc := NewDispenseService(store, "HC-000000", testLogger())
	ctx := context.Background()
	require.NoError(t, inventory.Receive(ctx, ReceiveItemRequest{ItemCode: "MED-PAIN-001", Quantity: 5}))

	_, err := svc.Dispense(ctx, DispenseRequest{MedicineCode: "MED-PAIN-001", Quantity: 10, DispensedBy: "medic-1"})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Msg, "insufficient stock")
}

func TestApproveRechecksStock(t *testing.T) {
	store := newTestStore(t)
	seedItem(t, store, "MED-EMER-001", "Epinephrine 1mg/1ml", "Amp")

	inventory := NewInventoryService(store, "HC-000000", testLogger())
	svc := NewDispenseService(store, "HC-000000", testLogger())
	ctx := context.Background()
	require.NoError(t, inventory.Receive(ctx, ReceiveItemRequest{ItemCode: "MED-EMER-001", Quantity: 10}))

	pending, err := svc.Dispense(ctx, DispenseRequest{MedicineCode: "MED-EMER-001", Quantity: 8, DispensedBy: "medic-1"})
	require.NoError(t, err)

	// An emergency draw lands between booking and approval.
	_, err = svc.Dispense(ctx, DispenseRequest{
		MedicineCode: "MED-EMER-001", Quantity: 5, DispensedBy: "medic-2",
		Emergency: true, EmergencyReason: "cardiac arrest in triage",
	})
	require.NoError(t, err)

	err = svc.Approve(ctx, ApproveRequest{DispenseID: pending.DispenseID, ApprovedBy: "pharm-1"})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Msg, "insufficient stock")

	rec, err := db.NewDispenseRepository(store.DB, store.Dialect()).Get(ctx, pending.DispenseID)
	require.NoError(t, err)
	assert.Equal(t, models.DispensePending, rec.Status)
}

func TestApproveValidation(t *testing.T) {
	store := newTestStore(t)
	seedItem(t, store, "MED-PAIN-001", "Ibuprofen 400mg", "Tab")

	inventory := NewInventoryService(store, "HC-000000", testLogger())
	svc := NewDispenseService(store, "HC-000000", testLogger())
	ctx := context.Background()
	require.NoError(t, inventory.Receive(ctx, ReceiveItemRequest{ItemCode: "MED-PAIN-001", Quantity: 50}))

	res, err := svc.Dispense(ctx, DispenseRequest{MedicineCode: "MED-PAIN-001", Quantity: 5, DispensedBy: "medic-1"})
	require.NoError(t, err)
	require.NoError(t, svc.Approve(ctx, ApproveRequest{DispenseID: res.DispenseID, ApprovedBy: "pharm-1"}))

	var validationErr *ValidationError

	err = svc.Approve(ctx, ApproveRequest{DispenseID: res.DispenseID, ApprovedBy: "pharm-2"})
	require.ErrorAs(t, err, &validationErr)

	err = svc.Approve(ctx, ApproveRequest{DispenseID: 0, ApprovedBy: "pharm-1"})
	require.ErrorAs(t, err, &validationErr)

	err = svc.Approve(ctx, ApproveRequest{DispenseID: res.DispenseID, ApprovedBy: ""})
	require.ErrorAs(t, err, &validationErr)

	err = svc.Approve(ctx, ApproveRequest{DispenseID: 9999, ApprovedBy: "pharm-1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestPendingQueue(t *testing.T) {
	store := newTestStore(t)
	seedItem(t, store, "MED-PAIN-001", "Ibuprofen 400mg", "Tab")

	inventory := NewInventoryService(store, "HC-000000", testLogger())
	svc := NewDispenseService(store, "HC-000000", testLogger())
	ctx := context.Background()
	require.NoError(t, inventory.Receive(ctx, ReceiveItemRequest{ItemCode: "MED-PAIN-001", Quantity: 100}))

	first, err := svc.Dispense(ctx, DispenseRequest{MedicineCode: "MED-PAIN-001", Quantity: 1, DispensedBy: "medic-1"})
	require.NoError(t, err)
	emergency, err := svc.Dispense(ctx, DispenseRequest{
		MedicineCode: "MED-PAIN-001", Quantity: 2, DispensedBy: "medic-2",
		Emergency: true, EmergencyReason: "after-hours hand-out",
	})
	require.NoError(t, err)
	approved, err := svc.Dispense(ctx, DispenseRequest{MedicineCode: "MED-PAIN-001", Quantity: 3, DispensedBy: "medic-3"})
	require.NoError(t, err)
	require.NoError(t, svc.Approve(ctx, ApproveRequest{DispenseID: approved.DispenseID, ApprovedBy: "pharm-1"}))

	// The open queue is PENDING plus EMERGENCY; approved records drop out.
	queue, err := svc.Pending(ctx, "", 0)
	require.NoError(t, err)
	ids := make([]int64, len(queue))
	for i, rec := range queue {
		ids[i] = rec.ID
	}
	assert.ElementsMatch(t, []int64{first.DispenseID, emergency.DispenseID}, ids)

	emergencies, err := svc.Pending(ctx, models.DispenseEmergency, 0)
	require.NoError(t, err)
	require.Len(t, emergencies, 1)
	assert.Equal(t, emergency.DispenseID, emergencies[0].ID)

	limited, err := svc.Pending(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
