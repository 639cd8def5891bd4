package db

import (
	"context"
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"github.com/stationware/medsync/internal/mapper"
	"github.com/stationware/medsync/internal/models"
)

// SnapshotRepository reads whole rows as column-keyed maps for the change
// extractor. It is strictly read only.
type SnapshotRepository struct {
	db      DBTX
	builder *mapper.SQLBuilder
}

func NewSnapshotRepository(db DBTX, dialect mapper.Dialect) *SnapshotRepository {
	return &SnapshotRepository{db: db, builder: mapper.NewSQLBuilder(dialect)}
}

// RowsSince returns the rows of tbl written by stationID strictly after
// since, oldest first.
func (r *SnapshotRepository) RowsSince(ctx context.Context, tbl models.SyncTable, stationID, since string) ([]map[string]any, error) {
	query, err := r.builder.BuildSelectSince(tbl)
	if err != nil {
		return nil, err
	}
	return r.readRows(ctx, tbl.Name, query, stationID, since)
}

// AllRows returns every row of tbl visible to stationID in key order.
// Catalog tables without a station column come back unfiltered.
func (r *SnapshotRepository) AllRows(ctx context.Context, tbl models.SyncTable, stationID string) ([]map[string]any, error) {
	query := r.builder.BuildSelectAll(tbl)
	if tbl.StationColumn == "" {
		return r.readRows(ctx, tbl.Name, query)
	}
	return r.readRows(ctx, tbl.Name, query, stationID)
}

func (r *SnapshotRepository) readRows(ctx context.Context, table, query string, args ...any) ([]map[string]any, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %v", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s columns: %v", table, err)
	}

	var out []map[string]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %v", table, err)
		}

		row := make(map[string]any, len(cols))
		for i, col := range cols {
			v, err := snapshotValue(vals[i])
			if err != nil {
				return nil, fmt.Errorf("table %s column %s: %v", table, col, err)
			}
			row[col] = v
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %v", table, err)
	}
	return out, nil
}

// snapshotValue normalizes driver values for packaging. Timestamps flatten to
// the plain layout and text blobs become strings. A value that cannot survive
// a JSON round trip is an error, not a silently corrupted package.
func snapshotValue(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return val.Format("2006-01-02 15:04:05"), nil
	case []byte:
		if !utf8.Valid(val) {
			return nil, fmt.Errorf("binary value is not valid UTF-8")
		}
		return string(val), nil
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil, fmt.Errorf("non-finite number cannot be packaged")
		}
		return val, nil
	case int64, bool, string:
		return val, nil
	default:
		return nil, fmt.Errorf("unsupported driver value of type %T", v)
	}
}
