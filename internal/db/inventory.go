package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/stationware/medsync/internal/mapper"
	"github.com/stationware/medsync/internal/models"
)

// InventoryRepository appends and queries the stock movement log.
type InventoryRepository struct {
	db      DBTX
	dialect mapper.Dialect
}

func NewInventoryRepository(db DBTX, dialect mapper.Dialect) *InventoryRepository {
	return &InventoryRepository{db: db, dialect: dialect}
}

// InsertEvent appends one stock movement. Events are immutable once written;
// corrections are new events.
func (r *InventoryRepository) InsertEvent(ctx context.Context, ev *models.InventoryEvent) error {
	query := rebind(r.dialect, `
		INSERT INTO inventory_events
			(event_type, item_code, quantity, batch_number, expiry_date, remarks,
			 station_id, operator)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		ev.EventType, ev.ItemCode, ev.Quantity, ev.BatchNumber, ev.ExpiryDate,
		ev.Remarks, ev.StationID, ev.Operator)
	if err != nil {
		return fmt.Errorf("failed to insert inventory event: %v", err)
	}
	return nil
}

// EventFilter narrows ListEvents. Zero values mean no filter.
type EventFilter struct {
	EventType string
	ItemCode  string
	Limit     int
}

// ListEvents returns movements newest first.
func (r *InventoryRepository) ListEvents(ctx context.Context, f EventFilter) ([]models.InventoryEvent, error) {
	var (
		clauses []string
		args    []any
	)
	if f.EventType != "" {
		clauses = append(clauses, "event_type = ?")
		args = append(args, f.EventType)
	}
	if f.ItemCode != "" {
		clauses = append(clauses, "item_code LIKE ?")
		args = append(args, "%"+f.ItemCode+"%")
	}

	query := `
		SELECT id, event_type, item_code, quantity, batch_number, expiry_date,
		       remarks, station_id, operator, timestamp
		FROM inventory_events`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " ORDER BY timestamp DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, rebind(r.dialect, query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory events: %v", err)
	}
	defer rows.Close()

	var out []models.InventoryEvent
	for rows.Next() {
		var (
			ev                               models.InventoryEvent
			batchNumber, expiryDate, remarks sql.NullString
		)
		err := rows.Scan(
			&ev.ID, &ev.EventType, &ev.ItemCode, &ev.Quantity, &batchNumber,
			&expiryDate, &remarks, &ev.StationID, &ev.Operator, &ev.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inventory event: %v", err)
		}
		if batchNumber.Valid {
			v := batchNumber.String
			ev.BatchNumber = &v
		}
		if expiryDate.Valid {
			v := expiryDate.String
			ev.ExpiryDate = &v
		}
		if remarks.Valid {
			v := remarks.String
			ev.Remarks = &v
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate inventory events: %v", err)
	}
	return out, nil
}
