package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/stationware/medsync/internal/mapper"
	"github.com/stationware/medsync/internal/models"
)

// EquipmentRepository keeps the equipment roster and its check log. The
// roster row carries the latest check state; the log keeps every check and is
// what sync packages carry.
type EquipmentRepository struct {
	db      DBTX
	dialect mapper.Dialect
}

func NewEquipmentRepository(db DBTX, dialect mapper.Dialect) *EquipmentRepository {
	return &EquipmentRepository{db: db, dialect: dialect}
}

const selectEquipmentColumns = `
		SELECT id, name, category, quantity, status, last_check, power_level,
		       remarks, created_at, updated_at
		FROM equipment`

func (r *EquipmentRepository) Get(ctx context.Context, equipmentID string) (*models.Equipment, error) {
	query := rebind(r.dialect, selectEquipmentColumns+` WHERE id = ?`)

	eq, err := scanEquipment(r.db.QueryRowContext(ctx, query, equipmentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("equipment %s: %w", equipmentID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch equipment %s: %v", equipmentID, err)
	}
	return eq, nil
}

func (r *EquipmentRepository) List(ctx context.Context) ([]models.Equipment, error) {
	query := selectEquipmentColumns + ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list equipment: %v", err)
	}
	defer rows.Close()

	var out []models.Equipment
	for rows.Next() {
		eq, err := scanEquipment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan equipment row: %v", err)
		}
		out = append(out, *eq)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate equipment: %v", err)
	}
	return out, nil
}

// ApplyCheck stamps the roster row with the outcome of a check.
func (r *EquipmentRepository) ApplyCheck(ctx context.Context, equipmentID, status string, powerLevel *int, remarks *string) error {
	query := rebind(r.dialect, `
		UPDATE equipment
		SET status = ?, last_check = CURRENT_TIMESTAMP, power_level = ?,
		    remarks = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`)

	if _, err := r.db.ExecContext(ctx, query, status, powerLevel, remarks, equipmentID); err != nil {
		return fmt.Errorf("failed to update equipment %s: %v", equipmentID, err)
	}
	return nil
}

// InsertCheck appends one check to the log.
func (r *EquipmentRepository) InsertCheck(ctx context.Context, chk *models.EquipmentCheck) error {
	query := rebind(r.dialect, `
		INSERT INTO equipment_checks
			(equipment_id, status, power_level, remarks, station_id, operator)
		VALUES (?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		chk.EquipmentID, chk.Status, chk.PowerLevel, chk.Remarks,
		chk.StationID, chk.Operator)
	if err != nil {
		return fmt.Errorf("failed to insert equipment check: %v", err)
	}
	return nil
}

// ResetDaily returns every checked roster row to UNCHECKED so the next shift
// starts from a clean sheet. It reports how many rows flipped.
func (r *EquipmentRepository) ResetDaily(ctx context.Context) (int64, error) {
	query := `
		UPDATE equipment
		SET status = 'UNCHECKED', remarks = NULL, power_level = NULL,
		    updated_at = CURRENT_TIMESTAMP
		WHERE status != 'UNCHECKED'`

	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to reset equipment checks: %v", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count reset rows: %v", err)
	}
	return affected, nil
}

// Upsert registers a roster entry, leaving an existing row untouched.
func (r *EquipmentRepository) Upsert(ctx context.Context, eq *models.Equipment) error {
	query := rebind(r.dialect, `
		INSERT INTO equipment (id, name, category, quantity, status)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`)

	_, err := r.db.ExecContext(ctx, query,
		eq.ID, eq.Name, eq.Category, eq.Quantity, eq.Status)
	if err != nil {
		return fmt.Errorf("failed to upsert equipment %s: %v", eq.ID, err)
	}
	return nil
}

func scanEquipment(row rowScanner) (*models.Equipment, error) {
	var (
		eq         models.Equipment
		category   sql.NullString
		lastCheck  sql.NullTime
		powerLevel sql.NullInt64
		remarks    sql.NullString
	)

	err := row.Scan(
		&eq.ID, &eq.Name, &category, &eq.Quantity, &eq.Status, &lastCheck,
		&powerLevel, &remarks, &eq.CreatedAt, &eq.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if category.Valid {
		v := category.String
		eq.Category = &v
	}
	if lastCheck.Valid {
		t := lastCheck.Time
		eq.LastCheck = &t
	}
	if powerLevel.Valid {
		v := int(powerLevel.Int64)
		eq.PowerLevel = &v
	}
	if remarks.Valid {
		v := remarks.String
		eq.Remarks = &v
	}
	return &eq, nil
}
