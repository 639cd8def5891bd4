// Package mapper translates change records into executable SQL for the
// station and hospital stores. Statements are built dynamically from payload
// maps, so the column set follows the data; identifiers are validated before
// they reach the database because payload keys arrive over the wire.
package mapper

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/stationware/medsync/internal/models"
)

// Dialect selects placeholder style and upsert form.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// ErrKeyOnly reports an UPDATE whose payload carries nothing beyond the key
// column. Callers treat it as an applied no-op rather than a failure.
var ErrKeyOnly = errors.New("update payload has no non-key columns")

var identifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// SQLBuilder builds SQL statements from change payloads for one dialect.
type SQLBuilder struct {
	dialect Dialect
}

// NewSQLBuilder initializes a builder for the given dialect.
func NewSQLBuilder(dialect Dialect) *SQLBuilder {
	return &SQLBuilder{dialect: dialect}
}

func (b *SQLBuilder) placeholder(n int) string {
	if b.dialect == Postgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// BuildUpsert generates an idempotent insert: replaying the same change
// record converges on the same row instead of failing on a duplicate key.
func (b *SQLBuilder) BuildUpsert(tbl models.SyncTable, data map[string]any) (string, []any, error) {
	if len(data) == 0 {
		return "", nil, fmt.Errorf("no data provided for upsert on table %s", tbl.Name)
	}

	keys, err := sortedColumns(tbl.Name, data)
	if err != nil {
		return "", nil, err
	}

	args := make([]any, 0, len(keys))
	placeholders := make([]string, 0, len(keys))
	for i, k := range keys {
		v, err := normalizeValue(data[k])
		if err != nil {
			return "", nil, fmt.Errorf("table %s column %s: %v", tbl.Name, k, err)
		}
		args = append(args, v)
		placeholders = append(placeholders, b.placeholder(i+1))
	}

	if b.dialect == SQLite {
		query := fmt.Sprintf(
			"INSERT OR REPLACE INTO %s (%s) VALUES (%s)",
			tbl.Name,
			strings.Join(keys, ", "),
			strings.Join(placeholders, ", "),
		)
		return query, args, nil
	}

	// Change payloads carry full row snapshots, so replacing every non-key
	// column converges with SQLite's REPLACE semantics.
	assigns := make([]string, 0, len(keys))
	for _, k := range keys {
		if strings.EqualFold(k, tbl.PKColumn) {
			continue
		}
		assigns = append(assigns, fmt.Sprintf("%s = EXCLUDED.%s", k, k))
	}
	conflict := fmt.Sprintf("ON CONFLICT (%s) DO NOTHING", tbl.PKColumn)
	if len(assigns) > 0 {
		conflict = fmt.Sprintf("ON CONFLICT (%s) DO UPDATE SET %s",
			tbl.PKColumn, strings.Join(assigns, ", "))
	}
	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) %s",
		tbl.Name,
		strings.Join(keys, ", "),
		strings.Join(placeholders, ", "),
		conflict,
	)
	return query, args, nil
}

// BuildUpdate generates an UPDATE of every non-key payload column, addressed
// by the registry's key column for the table. Returns ErrKeyOnly when the
// payload has nothing to set.
func (b *SQLBuilder) BuildUpdate(tbl models.SyncTable, data map[string]any) (string, []any, error) {
	keyValue, ok := data[tbl.PKColumn]
	if !ok {
		return "", nil, fmt.Errorf("update on %s is missing key column %s", tbl.Name, tbl.PKColumn)
	}

	keys, err := sortedColumns(tbl.Name, data)
	if err != nil {
		return "", nil, err
	}

	assigns := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for _, k := range keys {
		if strings.EqualFold(k, tbl.PKColumn) {
			continue
		}
		v, err := normalizeValue(data[k])
		if err != nil {
			return "", nil, fmt.Errorf("table %s column %s: %v", tbl.Name, k, err)
		}
		args = append(args, v)
		assigns = append(assigns, fmt.Sprintf("%s = %s", k, b.placeholder(len(args))))
	}
	if len(assigns) == 0 {
		return "", nil, ErrKeyOnly
	}

	kv, err := normalizeValue(keyValue)
	if err != nil {
		return "", nil, fmt.Errorf("table %s key %s: %v", tbl.Name, tbl.PKColumn, err)
	}
	args = append(args, kv)

	query := fmt.Sprintf(
		"UPDATE %s SET %s WHERE %s = %s",
		tbl.Name,
		strings.Join(assigns, ", "),
		tbl.PKColumn,
		b.placeholder(len(args)),
	)
	return query, args, nil
}

// BuildDelete generates a DELETE addressed by the registry's key column.
func (b *SQLBuilder) BuildDelete(tbl models.SyncTable, data map[string]any) (string, []any, error) {
	keyValue, ok := data[tbl.PKColumn]
	if !ok {
		return "", nil, fmt.Errorf("delete on %s is missing key column %s", tbl.Name, tbl.PKColumn)
	}
	kv, err := normalizeValue(keyValue)
	if err != nil {
		return "", nil, fmt.Errorf("table %s key %s: %v", tbl.Name, tbl.PKColumn, err)
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = %s", tbl.Name, tbl.PKColumn, b.placeholder(1))
	return query, []any{kv}, nil
}

// BuildSelectSince generates the delta extraction query: one station's rows
// strictly after a cutoff. Ordered by timestamp then key so equal timestamps
// cannot reshuffle package bytes between runs.
func (b *SQLBuilder) BuildSelectSince(tbl models.SyncTable) (string, error) {
	if tbl.StationColumn == "" {
		return "", fmt.Errorf("table %s has no station column for delta extraction", tbl.Name)
	}
	return fmt.Sprintf(
		"SELECT * FROM %s WHERE %s = %s AND %s > %s ORDER BY %s, %s",
		tbl.Name,
		tbl.StationColumn, b.placeholder(1),
		tbl.TimestampColumn, b.placeholder(2),
		tbl.TimestampColumn, tbl.PKColumn,
	), nil
}

// BuildSelectAll generates the full snapshot query, station filtered unless
// the table is a shared catalog. Ordered by key for reproducible output.
func (b *SQLBuilder) BuildSelectAll(tbl models.SyncTable) string {
	if tbl.StationColumn == "" {
		return fmt.Sprintf("SELECT * FROM %s ORDER BY %s", tbl.Name, tbl.PKColumn)
	}
	return fmt.Sprintf(
		"SELECT * FROM %s WHERE %s = %s ORDER BY %s",
		tbl.Name,
		tbl.StationColumn, b.placeholder(1),
		tbl.PKColumn,
	)
}

// sortedColumns validates payload keys as identifiers and fixes their order
// for deterministic SQL generation.
func sortedColumns(table string, data map[string]any) ([]string, error) {
	keys := make([]string, 0, len(data))
	for k := range data {
		if !identifierRe.MatchString(k) {
			return nil, fmt.Errorf("unsafe column name %q on table %s", k, table)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// normalizeValue handles type conversion between JSON payloads and driver
// bindings. Booleans become 0/1 and ISO timestamps are rewritten into the
// plain layout both stores keep, so replayed rows compare equal to local
// ones.
func normalizeValue(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case bool:
		if val {
			return 1, nil
		}
		return 0, nil
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i, nil
		}
		if f, err := val.Float64(); err == nil {
			return f, nil
		}
		return val.String(), nil
	case string:
		// 1. Try full ISO8601/RFC3339 (timestamp with zone)
		if t, err := time.Parse(time.RFC3339, val); err == nil {
			return t.Format("2006-01-02 15:04:05"), nil
		}
		// 2. Try zoneless ISO (timestamp without zone)
		if t, err := time.Parse("2006-01-02T15:04:05", val); err == nil {
			return t.Format("2006-01-02 15:04:05"), nil
		}
		return val, nil
	case float64, int, int64:
		return val, nil
	default:
		return nil, fmt.Errorf("unsupported payload value type %T", v)
	}
}
