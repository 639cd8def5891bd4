package models

// Operations a change record may carry. Anything else is rejected by the
// applier as a per-record conflict.
const (
	OpInsert = "INSERT"
	OpUpdate = "UPDATE"
	OpDelete = "DELETE"
)

// ChangeRecord is one row-level mutation inside a sync package. Data holds the
// full row snapshot keyed by column name; Timestamp is the source row's own
// timestamp value, used for ordering and audit, not for conflict resolution.
type ChangeRecord struct {
	Table     string         `json:"table"`
	Operation string         `json:"operation"`
	Data      map[string]any `json:"data"`
	Timestamp string         `json:"timestamp"`
}

// ValidOperation reports whether op is one of the three supported mutations.
func ValidOperation(op string) bool {
	return op == OpInsert || op == OpUpdate || op == OpDelete
}
