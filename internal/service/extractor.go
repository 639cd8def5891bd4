package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/stationware/medsync/internal/models"
	"github.com/stationware/medsync/pkg/metrics"
)

// SnapshotSource is the read contract the extractor needs. Both calls return
// rows as column-keyed maps already normalized for packaging.
type SnapshotSource interface {
	RowsSince(ctx context.Context, tbl models.SyncTable, stationID, since string) ([]map[string]any, error)
	AllRows(ctx context.Context, tbl models.SyncTable, stationID string) ([]map[string]any, error)
}

// ChangeExtractor turns local table state into an ordered list of change
// records. It never writes; generation must leave the station store exactly
// as it found it.
type ChangeExtractor struct {
	source SnapshotSource
	logger *slog.Logger
}

func NewChangeExtractor(source SnapshotSource, logger *slog.Logger) *ChangeExtractor {
	return &ChangeExtractor{source: source, logger: logger}
}

// Extract walks the registry in sync order. DELTA takes rows the station
// wrote strictly after since; FULL takes the whole visible state. A DELTA
// request without a since timestamp has no cutoff to apply, so it is served
// as a FULL extraction; the caller keeps the DELTA label because the label
// records what was asked for, not what was served. Tables that do not
// participate in the effective mode are skipped.
//
// Any read error aborts the whole extraction. A partial package that looks
// complete is worse than no package.
func (e *ChangeExtractor) Extract(ctx context.Context, syncType, stationID, since string) ([]models.ChangeRecord, error) {
	mode := strings.ToUpper(syncType)
	if mode != models.PackageDelta && mode != models.PackageFull {
		return nil, fmt.Errorf("unknown sync type %q", syncType)
	}
	if mode == models.PackageDelta && since == "" {
		e.logger.Warn("DELTA requested without since timestamp, serving full content",
			"station_id", stationID,
		)
		mode = models.PackageFull
	}

	start := time.Now()
	defer func() {
		metrics.ExtractDuration.Observe(time.Since(start).Seconds())
	}()

	fallbackTS := time.Now().Format("2006-01-02 15:04:05")

	var changes []models.ChangeRecord
	for _, name := range models.SyncOrder {
		tbl := models.TableRegistry[name]

		rows, err := e.tableRows(ctx, tbl, mode, stationID, since)
		if err != nil {
			return nil, fmt.Errorf("extraction aborted: %w", err)
		}
		if rows == nil {
			continue
		}

		for _, row := range rows {
			ts := fallbackTS
			if v, ok := row[tbl.TimestampColumn].(string); ok && v != "" {
				ts = v
			}
			changes = append(changes, models.ChangeRecord{
				Table:     tbl.Name,
				Operation: models.OpInsert,
				Data:      row,
				Timestamp: ts,
			})
		}

		e.logger.Debug("Extracted table", "table", tbl.Name, "rows", len(rows))
	}

	e.logger.Info("Extraction complete",
		"sync_type", syncType,
		"station_id", stationID,
		"changes", len(changes),
	)
	return changes, nil
}

// tableRows resolves one table for one effective mode. A nil slice with a
// nil error means the table sits out this mode.
func (e *ChangeExtractor) tableRows(ctx context.Context, tbl models.SyncTable, mode, stationID, since string) ([]map[string]any, error) {
	switch mode {
	case models.PackageDelta:
		if !tbl.Delta {
			return nil, nil
		}
		return e.source.RowsSince(ctx, tbl, stationID, since)
	case models.PackageFull:
		if !tbl.Full {
			return nil, nil
		}
		return e.source.AllRows(ctx, tbl, stationID)
	default:
		return nil, fmt.Errorf("unknown sync type %q", mode)
	}
}
