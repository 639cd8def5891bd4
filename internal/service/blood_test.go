package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stationware/medsync/internal/db"
	"github.com/stationware/medsync/internal/models"
)

func TestBloodReceiveAndUse(t *testing.T) {
	store := newTestStore(t)
	svc := NewBloodService(store, "HC-000000", testLogger())
	ctx := context.Background()

	total, err := svc.Receive(ctx, BloodRequest{BloodType: "O+", Quantity: 5, Operator: "medic-1"})
	require.NoError(t, err)
	assert.Equal(t, 5, total)

	total, err = svc.Receive(ctx, BloodRequest{BloodType: "O+", Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, 8, total)

	remaining, err := svc.Use(ctx, BloodRequest{BloodType: "O+", Quantity: 6, Operator: "medic-2"})
	require.NoError(t, err)
	assert.Equal(t, 2, remaining)

	inventory, err := svc.Inventory(ctx, "HC-000000")
	require.NoError(t, err)
	require.Len(t, inventory, 1)
	assert.Equal(t, "O+", inventory[0].BloodType)
	assert.Equal(t, 2, inventory[0].Quantity)
}

func TestBloodUseWithoutInventory(t *testing.T) {
	store := newTestStore(t)
	svc := NewBloodService(store, "HC-000000", testLogger())

	_, err := svc.Use(context.Background(), BloodRequest{BloodType: "AB-", Quantity: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestBloodUseInsufficient(t *testing.T) {
	store := newTestStore(t)
	svc := NewBloodService(store, "HC-000000", testLogger())
	ctx := context.Background()

	_, err := svc.Receive(ctx, BloodRequest{BloodType: "A+", Quantity: 2})
	require.NoError(t, err)

	_, err = svc.Use(ctx, BloodRequest{BloodType: "A+", Quantity: 3})
	require.Error(t, err)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, err.Error(), "insufficient blood")
}

func TestBloodRejectsUnknownType(t *testing.T) {
	store := newTestStore(t)
	svc := NewBloodService(store, "HC-000000", testLogger())

	var validationErr *ValidationError

	_, err := svc.Receive(context.Background(), BloodRequest{BloodType: "C+", Quantity: 1})
	require.ErrorAs(t, err, &validationErr)

	_, err = svc.Use(context.Background(), BloodRequest{BloodType: "", Quantity: 1})
	require.ErrorAs(t, err, &validationErr)
}

func TestRegisterBagMintsSerialCodes(t *testing.T) {
	store := newTestStore(t)
	svc := NewBloodService(store, "HC-000000", testLogger())
	ctx := context.Background()

	first, err := svc.RegisterBag(ctx, RegisterBagRequest{
		BloodType:      "O+",
		ProductType:    "WHOLE_BLOOD",
		CollectionDate: "2026-03-14",
		Operator:       "medic-1",
	})
	require.NoError(t, err)

	second, err := svc.RegisterBag(ctx, RegisterBagRequest{
		BloodType:      "O+",
		ProductType:    "RBC_CONCENTRATE",
		CollectionDate: "2026-03-14",
		Operator:       "medic-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "DNO-260314-OP-001", first.BloodBagCode)
	assert.Equal(t, "DNO-260314-OP-002", second.BloodBagCode)
	assert.Equal(t, models.BagAvailable, first.Status)
	assert.Equal(t, 250, first.VolumeML)

	// Expiry follows the product shelf life, counted from collection.
	collected, _ := time.Parse("2006-01-02", "2026-03-14")
	assert.Equal(t, collected.AddDate(0, 0, 35), first.ExpiryDate)
	assert.Equal(t, collected.AddDate(0, 0, 42), second.ExpiryDate)
}

func TestRegisterBagValidation(t *testing.T) {
	store := newTestStore(t)
	svc := NewBloodService(store, "HC-000000", testLogger())
	ctx := context.Background()

	var validationErr *ValidationError

	_, err := svc.RegisterBag(ctx, RegisterBagRequest{BloodType: "Z+", ProductType: "WHOLE_BLOOD", Operator: "x"})
	require.ErrorAs(t, err, &validationErr)

	_, err = svc.RegisterBag(ctx, RegisterBagRequest{BloodType: "O+", ProductType: "DRIED_PLASMA", Operator: "x"})
	require.ErrorAs(t, err, &validationErr)

	_, err = svc.RegisterBag(ctx, RegisterBagRequest{BloodType: "O+", ProductType: "WHOLE_BLOOD"})
	require.ErrorAs(t, err, &validationErr)

	_, err = svc.RegisterBag(ctx, RegisterBagRequest{
		BloodType: "O+", ProductType: "WHOLE_BLOOD", Operator: "x", CollectionDate: "14/03/2026",
	})
	require.ErrorAs(t, err, &validationErr)
}

func TestUseBagLifecycle(t *testing.T) {
	store := newTestStore(t)
	svc := NewBloodService(store, "HC-000000", testLogger())
	ctx := context.Background()

	bag, err := svc.RegisterBag(ctx, RegisterBagRequest{
		BloodType:   "B-",
		ProductType: "WHOLE_BLOOD",
		Operator:    "medic-1",
	})
	require.NoError(t, err)

	require.NoError(t, svc.UseBag(ctx, bag.BloodBagCode, "CPT Hale", "medic-2"))

	used, err := svc.ListBags(ctx, models.BagUsed)
	require.NoError(t, err)
	require.Len(t, used, 1)
	assert.Equal(t, bag.BloodBagCode, used[0].BloodBagCode)
	require.NotNil(t, used[0].PatientName)
	assert.Equal(t, "CPT Hale", *used[0].PatientName)
	assert.NotNil(t, used[0].UsageTimestamp)

	// A bag goes to exactly one patient.
	err = svc.UseBag(ctx, bag.BloodBagCode, "SGT Reyes", "medic-2")
	require.Error(t, err)

	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestUseBagUnknownCode(t *testing.T) {
	store := newTestStore(t)
	svc := NewBloodService(store, "HC-000000", testLogger())

	err := svc.UseBag(context.Background(), "DNO-260101-OP-999", "CPT Hale", "medic-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, db.ErrNotFound)
}
