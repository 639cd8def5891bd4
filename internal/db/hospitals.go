package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/stationware/medsync/internal/mapper"
	"github.com/stationware/medsync/internal/models"
)

// HospitalRepository reads and writes the hospital roster.
type HospitalRepository struct {
	db      DBTX
	dialect mapper.Dialect
}

func NewHospitalRepository(db DBTX, dialect mapper.Dialect) *HospitalRepository {
	return &HospitalRepository{db: db, dialect: dialect}
}

const selectHospitalColumns = `
		SELECT hospital_id, hospital_name, hospital_type, command_level, latitude,
		       longitude, contact_info, network_access, total_stations,
		       operational_status, created_at, updated_at
		FROM hospitals`

func (r *HospitalRepository) Get(ctx context.Context, hospitalID string) (*models.Hospital, error) {
	query := rebind(r.dialect, selectHospitalColumns+` WHERE hospital_id = ?`)

	h, err := scanHospital(r.db.QueryRowContext(ctx, query, hospitalID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("hospital %s: %w", hospitalID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch hospital %s: %v", hospitalID, err)
	}
	return h, nil
}

func (r *HospitalRepository) List(ctx context.Context) ([]models.Hospital, error) {
	query := selectHospitalColumns + ` ORDER BY hospital_id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list hospitals: %v", err)
	}
	defer rows.Close()

	var out []models.Hospital
	for rows.Next() {
		h, err := scanHospital(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan hospital row: %v", err)
		}
		out = append(out, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate hospitals: %v", err)
	}
	return out, nil
}

// Upsert registers a hospital, leaving an existing row untouched.
func (r *HospitalRepository) Upsert(ctx context.Context, h *models.Hospital) error {
	query := rebind(r.dialect, `
		INSERT INTO hospitals
			(hospital_id, hospital_name, hospital_type, command_level, latitude,
			 longitude, contact_info, network_access, operational_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (hospital_id) DO NOTHING`)

	_, err := r.db.ExecContext(ctx, query,
		h.HospitalID, h.HospitalName, h.HospitalType, h.CommandLevel,
		h.Latitude, h.Longitude, h.ContactInfo, h.NetworkAccess, h.OperationalStatus)
	if err != nil {
		return fmt.Errorf("failed to upsert hospital %s: %v", h.HospitalID, err)
	}
	return nil
}

func scanHospital(row rowScanner) (*models.Hospital, error) {
	var (
		h                   models.Hospital
		latitude, longitude sql.NullFloat64
		contactInfo         sql.NullString
	)

	err := row.Scan(
		&h.HospitalID, &h.HospitalName, &h.HospitalType, &h.CommandLevel,
		&latitude, &longitude, &contactInfo, &h.NetworkAccess, &h.TotalStations,
		&h.OperationalStatus, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if latitude.Valid {
		v := latitude.Float64
		h.Latitude = &v
	}
	if longitude.Valid {
		v := longitude.Float64
		h.Longitude = &v
	}
	if contactInfo.Valid {
		v := contactInfo.String
		h.ContactInfo = &v
	}
	return &h, nil
}
