package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/stationware/medsync/internal/mapper"
	"github.com/stationware/medsync/internal/models"
)

// DispenseRepository keeps medicine hand-out requests and their approval
// trail.
type DispenseRepository struct {
	db      DBTX
	dialect mapper.Dialect
}

func NewDispenseRepository(db DBTX, dialect mapper.Dialect) *DispenseRepository {
	return &DispenseRepository{db: db, dialect: dialect}
}

// Insert writes one dispense request and returns its generated id.
func (r *DispenseRepository) Insert(ctx context.Context, rec *models.DispenseRecord) (int64, error) {
	query := `
		INSERT INTO dispense_records
			(medicine_code, medicine_name, quantity, unit, dispensed_by, status,
			 emergency_reason, patient_ref_id, patient_name, station_code)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	args := []any{
		rec.MedicineCode, rec.MedicineName, rec.Quantity, rec.Unit,
		rec.DispensedBy, rec.Status, rec.EmergencyReason, rec.PatientRefID,
		rec.PatientName, rec.StationCode,
	}

	if r.dialect == mapper.Postgres {
		var id int64
		err := r.db.QueryRowContext(ctx, rebind(r.dialect, query+" RETURNING id"), args...).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("failed to insert dispense record: %v", err)
		}
		return id, nil
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert dispense record: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read dispense record id: %v", err)
	}
	return id, nil
}

const selectDispenseColumns = `
		SELECT id, medicine_code, medicine_name, quantity, unit, dispensed_by,
		       approved_by, status, emergency_reason, patient_ref_id, patient_name,
		       station_code, storage_location, batch_number, lot_number, expiry_date,
		       prescription_id, approved_at, pharmacist_notes, unit_cost,
		       created_at, updated_at
		FROM dispense_records`

// Get fetches one dispense record, ErrNotFound when absent.
func (r *DispenseRepository) Get(ctx context.Context, id int64) (*models.DispenseRecord, error) {
	query := rebind(r.dialect, selectDispenseColumns+` WHERE id = ?`)

	rec, err := scanDispense(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("dispense record %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch dispense record %d: %v", id, err)
	}
	return rec, nil
}

// ListByStatus returns dispense records oldest first, so the approval queue
// drains in arrival order. An empty status means the open queue: PENDING
// plus EMERGENCY.
func (r *DispenseRepository) ListByStatus(ctx context.Context, status string, limit int) ([]models.DispenseRecord, error) {
	query := selectDispenseColumns
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	} else {
		query += " WHERE status IN (?, ?)"
		args = append(args, models.DispensePending, models.DispenseEmergency)
	}
	if limit <= 0 {
		limit = 50
	}
	query += " ORDER BY created_at ASC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, rebind(r.dialect, query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list dispense records: %v", err)
	}
	defer rows.Close()

	var out []models.DispenseRecord
	for rows.Next() {
		rec, err := scanDispense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dispense record: %v", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate dispense records: %v", err)
	}
	return out, nil
}

// Approve stamps a record as pharmacist approved.
func (r *DispenseRepository) Approve(ctx context.Context, id int64, approvedBy string, notes *string) error {
	query := rebind(r.dialect, `
		UPDATE dispense_records
		SET status = ?, approved_by = ?, approved_at = CURRENT_TIMESTAMP,
		    pharmacist_notes = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`)

	if _, err := r.db.ExecContext(ctx, query, models.DispenseApproved, approvedBy, notes, id); err != nil {
		return fmt.Errorf("failed to approve dispense record %d: %v", id, err)
	}
	return nil
}

func scanDispense(row rowScanner) (*models.DispenseRecord, error) {
	var (
		rec                           models.DispenseRecord
		unit, approvedBy              sql.NullString
		emergencyReason, patientRefID sql.NullString
		patientName, storageLocation  sql.NullString
		batchNumber, lotNumber        sql.NullString
		expiryDate, prescriptionID    sql.NullString
		pharmacistNotes               sql.NullString
		approvedAt                    sql.NullTime
		unitCost                      sql.NullFloat64
	)

	err := row.Scan(
		&rec.ID, &rec.MedicineCode, &rec.MedicineName, &rec.Quantity, &unit,
		&rec.DispensedBy, &approvedBy, &rec.Status, &emergencyReason,
		&patientRefID, &patientName, &rec.StationCode, &storageLocation,
		&batchNumber, &lotNumber, &expiryDate, &prescriptionID, &approvedAt,
		&pharmacistNotes, &unitCost, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}

	assign := func(dst **string, src sql.NullString) {
		if src.Valid {
			v := src.String
			*dst = &v
		}
	}
	assign(&rec.Unit, unit)
	assign(&rec.ApprovedBy, approvedBy)
	assign(&rec.EmergencyReason, emergencyReason)
	assign(&rec.PatientRefID, patientRefID)
	assign(&rec.PatientName, patientName)
	assign(&rec.StorageLocation, storageLocation)
	assign(&rec.BatchNumber, batchNumber)
	assign(&rec.LotNumber, lotNumber)
	assign(&rec.ExpiryDate, expiryDate)
	assign(&rec.PrescriptionID, prescriptionID)
	assign(&rec.PharmacistNotes, pharmacistNotes)
	if approvedAt.Valid {
		t := approvedAt.Time
		rec.ApprovedAt = &t
	}
	if unitCost.Valid {
		v := unitCost.Float64
		rec.UnitCost = &v
	}
	return &rec, nil
}
