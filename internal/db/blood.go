package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/stationware/medsync/internal/mapper"
	"github.com/stationware/medsync/internal/models"
)

// dateLayout is how DATE columns are bound. Binding time.Time would let the
// driver write a full timestamp, which breaks equality against date strings.
const dateLayout = "2006-01-02"

// BloodRepository covers the pooled blood ledger and the individually
// tracked emergency bags.
type BloodRepository struct {
	db      DBTX
	dialect mapper.Dialect
}

func NewBloodRepository(db DBTX, dialect mapper.Dialect) *BloodRepository {
	return &BloodRepository{db: db, dialect: dialect}
}

// Quantity returns the pooled quantity for a blood type at a station. The
// second return reports whether a ledger row exists at all.
func (r *BloodRepository) Quantity(ctx context.Context, bloodType, stationID string) (int, bool, error) {
	query := rebind(r.dialect, `
		SELECT quantity FROM blood_inventory
		WHERE blood_type = ? AND station_id = ?`)

	var qty int
	err := r.db.QueryRowContext(ctx, query, bloodType, stationID).Scan(&qty)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read blood quantity: %v", err)
	}
	return qty, true, nil
}

// InsertQuantity creates the ledger row for a blood type at a station.
func (r *BloodRepository) InsertQuantity(ctx context.Context, bloodType, stationID string, quantity int) error {
	query := rebind(r.dialect, `
		INSERT INTO blood_inventory (blood_type, quantity, station_id)
		VALUES (?, ?, ?)`)

	if _, err := r.db.ExecContext(ctx, query, bloodType, quantity, stationID); err != nil {
		return fmt.Errorf("failed to insert blood quantity: %v", err)
	}
	return nil
}

// SetQuantity overwrites the ledger row. The caller computes the new value;
// the repository just records it.
func (r *BloodRepository) SetQuantity(ctx context.Context, bloodType, stationID string, quantity int) error {
	query := rebind(r.dialect, `
		UPDATE blood_inventory
		SET quantity = ?, last_updated = CURRENT_TIMESTAMP
		WHERE blood_type = ? AND station_id = ?`)

	if _, err := r.db.ExecContext(ctx, query, quantity, bloodType, stationID); err != nil {
		return fmt.Errorf("failed to update blood quantity: %v", err)
	}
	return nil
}

// InsertEvent appends one blood ledger movement.
func (r *BloodRepository) InsertEvent(ctx context.Context, ev *models.BloodEvent) error {
	query := rebind(r.dialect, `
		INSERT INTO blood_events (event_type, blood_type, quantity, station_id, operator)
		VALUES (?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		ev.EventType, ev.BloodType, ev.Quantity, ev.StationID, ev.Operator)
	if err != nil {
		return fmt.Errorf("failed to insert blood event: %v", err)
	}
	return nil
}

// ListInventory returns ledger rows, for one station or for all of them when
// stationID is empty.
func (r *BloodRepository) ListInventory(ctx context.Context, stationID string) ([]models.BloodInventory, error) {
	query := `
		SELECT blood_type, quantity, station_id, last_updated
		FROM blood_inventory`
	var args []any
	if stationID != "" {
		query += " WHERE station_id = ? ORDER BY blood_type"
		args = append(args, stationID)
	} else {
		query += " ORDER BY station_id, blood_type"
	}

	rows, err := r.db.QueryContext(ctx, rebind(r.dialect, query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list blood inventory: %v", err)
	}
	defer rows.Close()

	var out []models.BloodInventory
	for rows.Next() {
		var inv models.BloodInventory
		if err := rows.Scan(&inv.BloodType, &inv.Quantity, &inv.StationID, &inv.LastUpdated); err != nil {
			return nil, fmt.Errorf("failed to scan blood inventory row: %v", err)
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate blood inventory: %v", err)
	}
	return out, nil
}

// InsertBag registers one emergency bag.
func (r *BloodRepository) InsertBag(ctx context.Context, bag *models.BloodBag) error {
	query := rebind(r.dialect, `
		INSERT INTO emergency_blood_bags
			(blood_bag_code, blood_type, product_type, collection_date, expiry_date,
			 volume_ml, status, station_id, operator, remarks)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		bag.BloodBagCode, bag.BloodType, bag.ProductType,
		bag.CollectionDate.Format(dateLayout), bag.ExpiryDate.Format(dateLayout),
		bag.VolumeML, bag.Status, bag.StationID, bag.Operator, bag.Remarks)
	if err != nil {
		return fmt.Errorf("failed to insert blood bag %s: %v", bag.BloodBagCode, err)
	}
	return nil
}

const selectBagColumns = `
		SELECT id, blood_bag_code, blood_type, product_type, collection_date,
		       expiry_date, volume_ml, status, station_id, operator, patient_name,
		       usage_timestamp, remarks, created_at
		FROM emergency_blood_bags`

// GetBagByCode fetches one bag, ErrNotFound when absent.
func (r *BloodRepository) GetBagByCode(ctx context.Context, bagCode string) (*models.BloodBag, error) {
	query := rebind(r.dialect, selectBagColumns+` WHERE blood_bag_code = ?`)

	bag, err := scanBag(r.db.QueryRowContext(ctx, query, bagCode))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("blood bag %s: %w", bagCode, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch blood bag %s: %v", bagCode, err)
	}
	return bag, nil
}

// CountBags counts bags of one type collected on one date, which seeds the
// serial in generated bag codes.
func (r *BloodRepository) CountBags(ctx context.Context, bloodType, collectionDate string) (int, error) {
	query := rebind(r.dialect, `
		SELECT COUNT(*) FROM emergency_blood_bags
		WHERE blood_type = ? AND collection_date = ?`)

	var count int
	if err := r.db.QueryRowContext(ctx, query, bloodType, collectionDate).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count blood bags: %v", err)
	}
	return count, nil
}

// ListBags returns bags, optionally narrowed to one status, freshest
// collections first.
func (r *BloodRepository) ListBags(ctx context.Context, status string) ([]models.BloodBag, error) {
	query := selectBagColumns
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY collection_date DESC, blood_bag_code"

	rows, err := r.db.QueryContext(ctx, rebind(r.dialect, query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list blood bags: %v", err)
	}
	defer rows.Close()

	var out []models.BloodBag
	for rows.Next() {
		bag, err := scanBag(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan blood bag row: %v", err)
		}
		out = append(out, *bag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate blood bags: %v", err)
	}
	return out, nil
}

// MarkBagUsed transfuses a bag to a patient.
func (r *BloodRepository) MarkBagUsed(ctx context.Context, bagCode, patientName string) error {
	query := rebind(r.dialect, `
		UPDATE emergency_blood_bags
		SET status = ?, patient_name = ?, usage_timestamp = CURRENT_TIMESTAMP
		WHERE blood_bag_code = ?`)

	if _, err := r.db.ExecContext(ctx, query, models.BagUsed, patientName, bagCode); err != nil {
		return fmt.Errorf("failed to mark blood bag %s used: %v", bagCode, err)
	}
	return nil
}

func scanBag(row rowScanner) (*models.BloodBag, error) {
	var (
		bag            models.BloodBag
		patientName    sql.NullString
		usageTimestamp sql.NullTime
		remarks        sql.NullString
	)

	err := row.Scan(
		&bag.ID, &bag.BloodBagCode, &bag.BloodType, &bag.ProductType,
		&bag.CollectionDate, &bag.ExpiryDate, &bag.VolumeML, &bag.Status,
		&bag.StationID, &bag.Operator, &patientName, &usageTimestamp,
		&remarks, &bag.CreatedAt)
	if err != nil {
		return nil, err
	}

	if patientName.Valid {
		v := patientName.String
		bag.PatientName = &v
	}
	if usageTimestamp.Valid {
		t := usageTimestamp.Time
		bag.UsageTimestamp = &t
	}
	if remarks.Valid {
		v := remarks.String
		bag.Remarks = &v
	}
	return &bag, nil
}
