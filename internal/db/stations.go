package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/stationware/medsync/internal/mapper"
	"github.com/stationware/medsync/internal/models"
)

// StationRepository reads and writes the station roster a hospital node
// keeps about the field stations reporting to it.
type StationRepository struct {
	db      DBTX
	dialect mapper.Dialect
}

func NewStationRepository(db DBTX, dialect mapper.Dialect) *StationRepository {
	return &StationRepository{db: db, dialect: dialect}
}

const selectStationColumns = `
		SELECT station_id, station_name, hospital_id, station_type, latitude,
		       longitude, network_access, operational_status, last_sync_at,
		       sync_status, created_at, updated_at
		FROM stations`

func (r *StationRepository) Get(ctx context.Context, stationID string) (*models.Station, error) {
	query := rebind(r.dialect, selectStationColumns+` WHERE station_id = ?`)

	st, err := scanStation(r.db.QueryRowContext(ctx, query, stationID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("station %s: %w", stationID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch station %s: %v", stationID, err)
	}
	return st, nil
}

func (r *StationRepository) List(ctx context.Context) ([]models.Station, error) {
	query := selectStationColumns + ` ORDER BY station_id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list stations: %v", err)
	}
	defer rows.Close()

	var out []models.Station
	for rows.Next() {
		st, err := scanStation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan station row: %v", err)
		}
		out = append(out, *st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stations: %v", err)
	}
	return out, nil
}

// Upsert registers a station, leaving an existing row untouched. Seeding and
// tests call this, so it has to be safe to run twice.
func (r *StationRepository) Upsert(ctx context.Context, st *models.Station) error {
	query := rebind(r.dialect, `
		INSERT INTO stations
			(station_id, station_name, hospital_id, station_type, latitude,
			 longitude, network_access, operational_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (station_id) DO NOTHING`)

	_, err := r.db.ExecContext(ctx, query,
		st.StationID, st.StationName, st.HospitalID, st.StationType,
		st.Latitude, st.Longitude, st.NetworkAccess, st.OperationalStatus)
	if err != nil {
		return fmt.Errorf("failed to upsert station %s: %v", st.StationID, err)
	}
	return nil
}

// MarkSynced stamps a station as freshly synchronized after one of its
// packages has been applied here.
func (r *StationRepository) MarkSynced(ctx context.Context, stationID string) error {
	query := rebind(r.dialect, `
		UPDATE stations
		SET last_sync_at = CURRENT_TIMESTAMP, sync_status = ?
		WHERE station_id = ?`)

	res, err := r.db.ExecContext(ctx, query, models.SyncStatusSynced, stationID)
	if err != nil {
		return fmt.Errorf("failed to mark station %s synced: %v", stationID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check station update: %v", err)
	}
	if affected == 0 {
		return fmt.Errorf("station %s: %w", stationID, ErrNotFound)
	}
	return nil
}

func scanStation(row rowScanner) (*models.Station, error) {
	var (
		st                  models.Station
		latitude, longitude sql.NullFloat64
		lastSyncAt          sql.NullTime
	)

	err := row.Scan(
		&st.StationID, &st.StationName, &st.HospitalID, &st.StationType,
		&latitude, &longitude, &st.NetworkAccess, &st.OperationalStatus,
		&lastSyncAt, &st.SyncStatus, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if latitude.Valid {
		v := latitude.Float64
		st.Latitude = &v
	}
	if longitude.Valid {
		v := longitude.Float64
		st.Longitude = &v
	}
	if lastSyncAt.Valid {
		t := lastSyncAt.Time
		st.LastSyncAt = &t
	}
	return &st, nil
}
