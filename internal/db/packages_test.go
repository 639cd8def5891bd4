package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stationware/medsync/internal/mapper"
	"github.com/stationware/medsync/internal/models"
)

func newPackageRepoWithMock(t *testing.T) (*PackageRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPackageRepository(db, mapper.SQLite), mock, db
}

func samplePackage() *models.SyncPackage {
	return &models.SyncPackage{
		PackageID:       "PKG-20260314-092653-HC-000000-a1b2c3d4",
		PackageType:     models.PackageDelta,
		SourceType:      models.EndpointStation,
		SourceID:        "HC-000000",
		DestinationType: models.EndpointHospital,
		DestinationID:   "HOSP-001",
		HospitalID:      "HOSP-001",
		TransferMethod:  models.TransferManual,
		PackageSize:     2048,
		Checksum:        "ecf9e98ec0641e23113ff3ce8bdc78d0ddd249886517fd4a7f68cc83d4e65667",
		ChangesCount:    3,
		Status:          models.StatusPending,
	}
}

func TestPackageCreate(t *testing.T) {
	repo, mock, db := newPackageRepoWithMock(t)
	defer db.Close()

	pkg := samplePackage()
	mock.ExpectExec(`INSERT INTO sync_packages`).
		WithArgs(pkg.PackageID, pkg.PackageType, pkg.SourceType, pkg.SourceID,
			pkg.DestinationType, pkg.DestinationID, pkg.HospitalID, pkg.TransferMethod,
			pkg.PackageSize, pkg.Checksum, pkg.ChangesCount, pkg.Status).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), pkg))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPackageCreateDuplicate(t *testing.T) {
	repo, mock, db := newPackageRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO sync_packages`).
		WillReturnError(errors.New("UNIQUE constraint failed: sync_packages.package_id"))

	err := repo.Create(context.Background(), samplePackage())
	assert.ErrorIs(t, err, ErrDuplicatePackage)
}

func TestPackageRecordAppliedUpserts(t *testing.T) {
	repo, mock, db := newPackageRepoWithMock(t)
	defer db.Close()

	pkg := samplePackage()
	pkg.Status = models.StatusApplied
	mock.ExpectExec(`INSERT INTO sync_packages.*ON CONFLICT \(package_id\) DO UPDATE SET`).
		WithArgs(pkg.PackageID, pkg.PackageType, pkg.SourceType, pkg.SourceID,
			pkg.DestinationType, pkg.DestinationID, pkg.HospitalID, pkg.TransferMethod,
			pkg.PackageSize, pkg.Checksum, pkg.ChangesCount, pkg.Status).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.RecordApplied(context.Background(), pkg))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPackageGetByIDNotFound(t *testing.T) {
	repo, mock, db := newPackageRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT package_id, .* FROM sync_packages WHERE package_id = \?`).
		WithArgs("PKG-MISSING").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "PKG-MISSING")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPackageList(t *testing.T) {
	repo, mock, db := newPackageRepoWithMock(t)
	defer db.Close()

	created := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	processed := created.Add(2 * time.Hour)
	rows := sqlmock.NewRows([]string{
		"package_id", "package_type", "source_type", "source_id", "destination_type",
		"destination_id", "hospital_id", "transfer_method", "package_size", "checksum",
		"changes_count", "status", "created_at", "uploaded_at", "processed_at", "error_message",
	}).AddRow(
		"PKG-A", "DELTA", "STATION", "HC-000000", "HOSPITAL",
		"HOSP-001", "HOSP-001", "MANUAL", int64(2048), "abc",
		3, "APPLIED", created, nil, processed, nil,
	).AddRow(
		"PKG-B", "FULL", "STATION", "HC-000000", "HOSPITAL",
		"HOSP-001", "HOSP-001", "USB", nil, "def",
		9, "PENDING", created, nil, nil, nil,
	)

	mock.ExpectQuery(`SELECT package_id, .* FROM sync_packages ORDER BY created_at DESC LIMIT \?`).
		WithArgs(10).
		WillReturnRows(rows)

	got, err := repo.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "PKG-A", got[0].PackageID)
	require.NotNil(t, got[0].ProcessedAt)
	assert.Equal(t, processed, *got[0].ProcessedAt)

	assert.Equal(t, "PKG-B", got[1].PackageID)
	assert.Zero(t, got[1].PackageSize)
	assert.Nil(t, got[1].ProcessedAt)
}
