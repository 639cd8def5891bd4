package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stationware/medsync/internal/models"
)

type fakeSnapshotSource struct {
	rows       map[string][]map[string]any
	failTable  string
	sinceCalls []string
	allCalls   []string
}

func (f *fakeSnapshotSource) RowsSince(_ context.Context, tbl models.SyncTable, _, _ string) ([]map[string]any, error) {
	if tbl.Name == f.failTable {
		return nil, errors.New("disk read failed")
	}
	f.sinceCalls = append(f.sinceCalls, tbl.Name)
	return f.rows[tbl.Name], nil
}

func (f *fakeSnapshotSource) AllRows(_ context.Context, tbl models.SyncTable, _ string) ([]map[string]any, error) {
	if tbl.Name == f.failTable {
		return nil, errors.New("disk read failed")
	}
	f.allCalls = append(f.allCalls, tbl.Name)
	return f.rows[tbl.Name], nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExtractFullIncludesCatalogExcludesBags(t *testing.T) {
	source := &fakeSnapshotSource{rows: map[string][]map[string]any{
		"items": {
			{"item_code": "MED-TEST-001", "item_name": "Aspirin 100mg", "updated_at": "2026-01-10 08:00:00"},
		},
		"inventory_events": {
			{"id": int64(1), "event_type": "RECEIVE", "timestamp": "2026-01-11 09:00:00"},
		},
		"emergency_blood_bags": {
			{"id": int64(1), "blood_bag_code": "DNO-260110-OP-001", "created_at": "2026-01-10 10:00:00"},
		},
	}}

	extractor := NewChangeExtractor(source, testLogger())
	changes, err := extractor.Extract(context.Background(), models.PackageFull, "HC-000000", "")
	require.NoError(t, err)

	require.Len(t, changes, 2)
	assert.Equal(t, "items", changes[0].Table)
	assert.Equal(t, "inventory_events", changes[1].Table)
	for _, c := range changes {
		assert.NotEqual(t, "emergency_blood_bags", c.Table)
		assert.Equal(t, models.OpInsert, c.Operation)
	}
}

func TestExtractDeltaSkipsCatalogIncludesBags(t *testing.T) {
	source := &fakeSnapshotSource{rows: map[string][]map[string]any{
		"items": {
			{"item_code": "MED-TEST-001", "updated_at": "2026-01-10 08:00:00"},
		},
		"emergency_blood_bags": {
			{"id": int64(1), "blood_bag_code": "DNO-260110-OP-001", "created_at": "2026-01-10 10:00:00"},
		},
	}}

	extractor := NewChangeExtractor(source, testLogger())
	changes, err := extractor.Extract(context.Background(), models.PackageDelta, "HC-000000", "2026-01-01 00:00:00")
	require.NoError(t, err)

	require.Len(t, changes, 1)
	assert.Equal(t, "emergency_blood_bags", changes[0].Table)
	assert.NotContains(t, source.sinceCalls, "items")
	assert.NotContains(t, source.allCalls, "items")
}

func TestExtractDeltaWithoutSinceFallsBackToFull(t *testing.T) {
	source := &fakeSnapshotSource{rows: map[string][]map[string]any{}}

	extractor := NewChangeExtractor(source, testLogger())
	_, err := extractor.Extract(context.Background(), models.PackageDelta, "HC-000000", "")
	require.NoError(t, err)

	// Without a cutoff the delta is served as a full extraction, so the
	// catalog comes along and the bag ledger sits out.
	assert.Empty(t, source.sinceCalls)
	assert.Contains(t, source.allCalls, "items")
	assert.Contains(t, source.allCalls, "inventory_events")
	assert.NotContains(t, source.allCalls, "emergency_blood_bags")
}

func TestExtractCarriesRowTimestamp(t *testing.T) {
	source := &fakeSnapshotSource{rows: map[string][]map[string]any{
		"inventory_events": {
			{"id": int64(1), "timestamp": "2026-01-11 09:30:00"},
			{"id": int64(2)}, // no timestamp column value
		},
	}}

	extractor := NewChangeExtractor(source, testLogger())
	changes, err := extractor.Extract(context.Background(), models.PackageDelta, "HC-000000", "2026-01-01 00:00:00")
	require.NoError(t, err)

	require.Len(t, changes, 2)
	assert.Equal(t, "2026-01-11 09:30:00", changes[0].Timestamp)
	assert.NotEmpty(t, changes[1].Timestamp)
}

func TestExtractUnknownSyncType(t *testing.T) {
	extractor := NewChangeExtractor(&fakeSnapshotSource{}, testLogger())
	_, err := extractor.Extract(context.Background(), "INCREMENTAL", "HC-000000", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown sync type")
}

func TestExtractAbortsOnReadError(t *testing.T) {
	source := &fakeSnapshotSource{
		rows: map[string][]map[string]any{
			"items": {
				{"item_code": "MED-TEST-001", "updated_at": "2026-01-10 08:00:00"},
			},
		},
		failTable: "blood_events",
	}

	extractor := NewChangeExtractor(source, testLogger())
	changes, err := extractor.Extract(context.Background(), models.PackageFull, "HC-000000", "")
	require.Error(t, err)
	assert.Nil(t, changes)
	assert.Contains(t, err.Error(), "extraction aborted")
}
