package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/stationware/medsync/internal/mapper"
	"github.com/stationware/medsync/internal/models"
)

// SurgeryRepository keeps operation log records and their item consumptions.
type SurgeryRepository struct {
	db      DBTX
	dialect mapper.Dialect
}

func NewSurgeryRepository(db DBTX, dialect mapper.Dialect) *SurgeryRepository {
	return &SurgeryRepository{db: db, dialect: dialect}
}

// NextSequence returns the next per-day surgery sequence for a station.
func (r *SurgeryRepository) NextSequence(ctx context.Context, recordDate, stationID string) (int, error) {
	query := rebind(r.dialect, `
		SELECT COALESCE(MAX(surgery_sequence), 0) + 1
		FROM surgery_records
		WHERE record_date = ? AND station_id = ?`)

	var seq int
	if err := r.db.QueryRowContext(ctx, query, recordDate, stationID).Scan(&seq); err != nil {
		return 0, fmt.Errorf("failed to compute surgery sequence: %v", err)
	}
	return seq, nil
}

// Insert writes one surgery record and returns its generated id. Postgres
// hands the id back via RETURNING; SQLite via LastInsertId.
func (r *SurgeryRepository) Insert(ctx context.Context, rec *models.SurgeryRecord) (int64, error) {
	query := `
		INSERT INTO surgery_records
			(record_number, record_date, patient_name, surgery_sequence,
			 surgery_type, surgeon_name, anesthesia_type, duration_minutes,
			 remarks, station_id, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	args := []any{
		rec.RecordNumber, rec.RecordDate.Format(dateLayout), rec.PatientName,
		rec.SurgerySequence, rec.SurgeryType, rec.SurgeonName, rec.AnesthesiaType,
		rec.DurationMinutes, rec.Remarks, rec.StationID, rec.Status,
	}

	if r.dialect == mapper.Postgres {
		var id int64
		err := r.db.QueryRowContext(ctx, rebind(r.dialect, query+" RETURNING id"), args...).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("failed to insert surgery record %s: %v", rec.RecordNumber, err)
		}
		return id, nil
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert surgery record %s: %v", rec.RecordNumber, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read surgery record id: %v", err)
	}
	return id, nil
}

// InsertConsumption links one item draw to a surgery.
func (r *SurgeryRepository) InsertConsumption(ctx context.Context, c *models.SurgeryConsumption) error {
	query := rebind(r.dialect, `
		INSERT INTO surgery_consumptions (surgery_id, item_code, item_name, quantity, unit)
		VALUES (?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		c.SurgeryID, c.ItemCode, c.ItemName, c.Quantity, c.Unit)
	if err != nil {
		return fmt.Errorf("failed to insert surgery consumption: %v", err)
	}
	return nil
}

// ConsumptionsFor returns the item draws of one surgery.
func (r *SurgeryRepository) ConsumptionsFor(ctx context.Context, surgeryID int64) ([]models.SurgeryConsumption, error) {
	query := rebind(r.dialect, `
		SELECT id, surgery_id, item_code, item_name, quantity, unit
		FROM surgery_consumptions WHERE surgery_id = ? ORDER BY id`)

	rows, err := r.db.QueryContext(ctx, query, surgeryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list surgery consumptions: %v", err)
	}
	defer rows.Close()

	var out []models.SurgeryConsumption
	for rows.Next() {
		var (
			c    models.SurgeryConsumption
			unit sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.SurgeryID, &c.ItemCode, &c.ItemName, &c.Quantity, &unit); err != nil {
			return nil, fmt.Errorf("failed to scan surgery consumption: %v", err)
		}
		c.Unit = unit.String
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate surgery consumptions: %v", err)
	}
	return out, nil
}

// SurgeryFilter narrows List. Zero values mean no filter.
type SurgeryFilter struct {
	PatientName string
	Limit       int
}

const selectSurgeryColumns = `
		SELECT id, record_number, record_date, patient_name, surgery_sequence,
		       surgery_type, surgeon_name, anesthesia_type, duration_minutes,
		       remarks, station_id, status, patient_outcome, archived_at,
		       archived_by, created_at, updated_at
		FROM surgery_records`

// List returns surgery records, newest first within a day.
func (r *SurgeryRepository) List(ctx context.Context, f SurgeryFilter) ([]models.SurgeryRecord, error) {
	query := selectSurgeryColumns
	var args []any
	if f.PatientName != "" {
		query += " WHERE patient_name LIKE ?"
		args = append(args, "%"+f.PatientName+"%")
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " ORDER BY record_date DESC, surgery_sequence DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, rebind(r.dialect, query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list surgery records: %v", err)
	}
	defer rows.Close()

	var out []models.SurgeryRecord
	for rows.Next() {
		rec, err := scanSurgery(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan surgery record: %v", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate surgery records: %v", err)
	}
	return out, nil
}

// GetByRecordNumber fetches one surgery record, ErrNotFound when absent.
func (r *SurgeryRepository) GetByRecordNumber(ctx context.Context, recordNumber string) (*models.SurgeryRecord, error) {
	query := rebind(r.dialect, selectSurgeryColumns+` WHERE record_number = ?`)

	rec, err := scanSurgery(r.db.QueryRowContext(ctx, query, recordNumber))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("surgery record %s: %w", recordNumber, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch surgery record %s: %v", recordNumber, err)
	}
	return rec, nil
}

// Archive closes a record with a patient outcome. Extra notes append to the
// existing remarks instead of replacing them.
func (r *SurgeryRepository) Archive(ctx context.Context, recordNumber, outcome, archivedBy, notes string) error {
	query := rebind(r.dialect, `
		UPDATE surgery_records
		SET status = ?, patient_outcome = ?, archived_at = CURRENT_TIMESTAMP,
		    archived_by = ?,
		    remarks = CASE WHEN remarks IS NULL OR remarks = '' THEN ?
		                   ELSE remarks || ' | ' || ? END,
		    updated_at = CURRENT_TIMESTAMP
		WHERE record_number = ?`)

	res, err := r.db.ExecContext(ctx, query,
		models.SurgeryArchived, outcome, archivedBy, notes, notes, recordNumber)
	if err != nil {
		return fmt.Errorf("failed to archive surgery record %s: %v", recordNumber, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check archive update: %v", err)
	}
	if affected == 0 {
		return fmt.Errorf("surgery record %s: %w", recordNumber, ErrNotFound)
	}
	return nil
}

func scanSurgery(row rowScanner) (*models.SurgeryRecord, error) {
	var (
		rec                        models.SurgeryRecord
		surgeryType, surgeonName   sql.NullString
		anesthesiaType, remarks    sql.NullString
		patientOutcome, archivedBy sql.NullString
		durationMinutes            sql.NullInt64
		archivedAt                 sql.NullTime
	)

	err := row.Scan(
		&rec.ID, &rec.RecordNumber, &rec.RecordDate, &rec.PatientName,
		&rec.SurgerySequence, &surgeryType, &surgeonName, &anesthesiaType,
		&durationMinutes, &remarks, &rec.StationID, &rec.Status,
		&patientOutcome, &archivedAt, &archivedBy, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if surgeryType.Valid {
		v := surgeryType.String
		rec.SurgeryType = &v
	}
	if surgeonName.Valid {
		v := surgeonName.String
		rec.SurgeonName = &v
	}
	if anesthesiaType.Valid {
		v := anesthesiaType.String
		rec.AnesthesiaType = &v
	}
	if durationMinutes.Valid {
		v := int(durationMinutes.Int64)
		rec.DurationMinutes = &v
	}
	if remarks.Valid {
		v := remarks.String
		rec.Remarks = &v
	}
	if patientOutcome.Valid {
		v := patientOutcome.String
		rec.PatientOutcome = &v
	}
	if archivedAt.Valid {
		t := archivedAt.Time
		rec.ArchivedAt = &t
	}
	if archivedBy.Valid {
		v := archivedBy.String
		rec.ArchivedBy = &v
	}
	return &rec, nil
}
