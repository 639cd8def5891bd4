package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/stationware/medsync/internal/mapper"
	"github.com/stationware/medsync/internal/models"
)

// PackageRepository persists the sync package registry. Every package a
// station generates or applies leaves a row here, which is what lets two
// sides of an offline transfer reconcile what actually travelled.
type PackageRepository struct {
	db      DBTX
	dialect mapper.Dialect
}

func NewPackageRepository(db DBTX, dialect mapper.Dialect) *PackageRepository {
	return &PackageRepository{db: db, dialect: dialect}
}

// Create registers a freshly generated package. Package ids are primary keys,
// so a collision surfaces as ErrDuplicatePackage and the caller must abandon
// the package instead of overwriting history.
func (r *PackageRepository) Create(ctx context.Context, pkg *models.SyncPackage) error {
	query := rebind(r.dialect, `
		INSERT INTO sync_packages
			(package_id, package_type, source_type, source_id, destination_type,
			 destination_id, hospital_id, transfer_method, package_size, checksum,
			 changes_count, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		pkg.PackageID, pkg.PackageType, pkg.SourceType, pkg.SourceID,
		pkg.DestinationType, pkg.DestinationID, pkg.HospitalID, pkg.TransferMethod,
		pkg.PackageSize, pkg.Checksum, pkg.ChangesCount, pkg.Status)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("package %s: %w", pkg.PackageID, ErrDuplicatePackage)
		}
		return fmt.Errorf("failed to register package %s: %v", pkg.PackageID, err)
	}
	return nil
}

// RecordApplied upserts the registry row for a package this node just
// applied. Re-importing a package refreshes the same row, so replays stay
// visible without multiplying history. The original created_at survives the
// upsert.
func (r *PackageRepository) RecordApplied(ctx context.Context, pkg *models.SyncPackage) error {
	query := rebind(r.dialect, `
		INSERT INTO sync_packages
			(package_id, package_type, source_type, source_id, destination_type,
			 destination_id, hospital_id, transfer_method, package_size, checksum,
			 changes_count, status, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (package_id) DO UPDATE SET
			package_type = EXCLUDED.package_type,
			package_size = EXCLUDED.package_size,
			checksum = EXCLUDED.checksum,
			changes_count = EXCLUDED.changes_count,
			status = EXCLUDED.status,
			processed_at = CURRENT_TIMESTAMP`)

	_, err := r.db.ExecContext(ctx, query,
		pkg.PackageID, pkg.PackageType, pkg.SourceType, pkg.SourceID,
		pkg.DestinationType, pkg.DestinationID, pkg.HospitalID, pkg.TransferMethod,
		pkg.PackageSize, pkg.Checksum, pkg.ChangesCount, pkg.Status)
	if err != nil {
		return fmt.Errorf("failed to record package %s: %v", pkg.PackageID, err)
	}
	return nil
}

// GetByID fetches a single registry row, ErrNotFound when absent.
func (r *PackageRepository) GetByID(ctx context.Context, packageID string) (*models.SyncPackage, error) {
	query := rebind(r.dialect, selectPackageColumns+` WHERE package_id = ?`)

	pkg, err := scanPackage(r.db.QueryRowContext(ctx, query, packageID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("package %s: %w", packageID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch package %s: %v", packageID, err)
	}
	return pkg, nil
}

// List returns the most recent registry rows, newest first.
func (r *PackageRepository) List(ctx context.Context, limit int) ([]models.SyncPackage, error) {
	if limit <= 0 {
		limit = 50
	}
	query := rebind(r.dialect, selectPackageColumns+` ORDER BY created_at DESC LIMIT ?`)

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %v", err)
	}
	defer rows.Close()

	var out []models.SyncPackage
	for rows.Next() {
		pkg, err := scanPackage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan package row: %v", err)
		}
		out = append(out, *pkg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate packages: %v", err)
	}
	return out, nil
}

const selectPackageColumns = `
		SELECT package_id, package_type, source_type, source_id, destination_type,
		       destination_id, hospital_id, transfer_method, package_size, checksum,
		       changes_count, status, created_at, uploaded_at, processed_at, error_message
		FROM sync_packages`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPackage(row rowScanner) (*models.SyncPackage, error) {
	var (
		pkg                     models.SyncPackage
		size                    sql.NullInt64
		uploadedAt, processedAt sql.NullTime
		errorMessage            sql.NullString
	)

	err := row.Scan(
		&pkg.PackageID, &pkg.PackageType, &pkg.SourceType, &pkg.SourceID,
		&pkg.DestinationType, &pkg.DestinationID, &pkg.HospitalID, &pkg.TransferMethod,
		&size, &pkg.Checksum, &pkg.ChangesCount, &pkg.Status, &pkg.CreatedAt,
		&uploadedAt, &processedAt, &errorMessage)
	if err != nil {
		return nil, err
	}

	if size.Valid {
		pkg.PackageSize = size.Int64
	}
	if uploadedAt.Valid {
		t := uploadedAt.Time
		pkg.UploadedAt = &t
	}
	if processedAt.Valid {
		t := processedAt.Time
		pkg.ProcessedAt = &t
	}
	if errorMessage.Valid {
		msg := errorMessage.String
		pkg.ErrorMessage = &msg
	}
	return &pkg, nil
}
