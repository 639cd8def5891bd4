package db

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stationware/medsync/internal/mapper"
)

func newStationRepoWithMock(t *testing.T) (*StationRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewStationRepository(db, mapper.SQLite), mock, db
}

func TestMarkSyncedStampsStation(t *testing.T) {
	repo, mock, db := newStationRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE stations\s+SET last_sync_at = CURRENT_TIMESTAMP, sync_status = \?\s+WHERE station_id = \?`).
		WithArgs("SYNCED", "HC-000000").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkSynced(context.Background(), "HC-000000"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkSyncedUnknownStation(t *testing.T) {
	repo, mock, db := newStationRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE stations`).
		WithArgs("SYNCED", "HC-999999").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkSynced(context.Background(), "HC-999999")
	assert.ErrorIs(t, err, ErrNotFound)
}
