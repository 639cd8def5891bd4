// Package processor applies incoming sync packages to the local store. It is
// the only writer that touches synced tables on behalf of another node, so
// everything here is gated, transactional and whitelisted.
package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/stationware/medsync/internal/db"
	"github.com/stationware/medsync/internal/mapper"
	"github.com/stationware/medsync/internal/models"
	"github.com/stationware/medsync/pkg/canonical"
	"github.com/stationware/medsync/pkg/metrics"
)

// IntegrityError reports a package whose recomputed checksum does not match
// the declared one. Nothing has been written when it fires.
type IntegrityError struct {
	Expected string
	Actual   string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("checksum mismatch: expected %s, got %s", e.Expected, e.Actual)
}

// PackageApplier verifies and applies sync packages.
type PackageApplier struct {
	store      *db.Store
	hospitalID string
	logger     *slog.Logger
}

func NewPackageApplier(store *db.Store, hospitalID string, logger *slog.Logger) *PackageApplier {
	return &PackageApplier{
		store:      store,
		hospitalID: hospitalID,
		logger:     logger,
	}
}

// Apply runs the complete import cycle: integrity gate, transactional batch,
// registry record. Individual bad changes become conflicts and the batch
// keeps going; infrastructure failures abort the whole package, and the
// store is left exactly as it was.
func (a *PackageApplier) Apply(ctx context.Context, req *models.ImportRequest) (*models.ApplyResult, error) {
	start := time.Now()

	l := a.logger.With("package_id", req.PackageID)

	// Integrity Gate
	// The checksum is recomputed from the changes exactly as the generator
	// computed it. A mismatch means the payload was altered in transit, and
	// an altered payload never gets a transaction.
	payload, err := canonical.Marshal(req.Changes)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize changes: %w", err)
	}
	actual := canonical.Digest(payload)
	if actual != req.Checksum {
		metrics.PackagesApplied.WithLabelValues("rejected").Inc()
		l.Warn("Package rejected: checksum mismatch",
			"expected", req.Checksum,
			"actual", actual,
		)
		return nil, &IntegrityError{Expected: req.Checksum, Actual: actual}
	}

	packageType := req.PackageType
	if packageType == "" {
		packageType = models.PackageFull
	}

	builder := mapper.NewSQLBuilder(a.store.Dialect())
	applied := 0
	var conflicts []models.Conflict

	err = db.WithTx(ctx, a.store.DB, nil, func(ctx context.Context, tx db.DBTX) error {
		for i, change := range req.Changes {
			changeErr, fatalErr := a.applyChange(ctx, tx, builder, i, change)
			if fatalErr != nil {
				return fatalErr
			}
			if changeErr != nil {
				l.Warn("Change conflict",
					"table", change.Table,
					"operation", change.Operation,
					"error", changeErr,
				)
				conflicts = append(conflicts, models.Conflict{
					Table:     change.Table,
					Operation: change.Operation,
					Error:     changeErr.Error(),
					Data:      change.Data,
				})
				metrics.ChangeConflicts.Inc()
				continue
			}
			applied++
		}

		// The registry entry rides in the same transaction as the data it
		// describes. The import side does not know which station produced
		// the package, only the upload flow does.
		packages := db.NewPackageRepository(tx, a.store.Dialect())
		return packages.RecordApplied(ctx, &models.SyncPackage{
			PackageID:       req.PackageID,
			PackageType:     packageType,
			SourceType:      models.EndpointStation,
			SourceID:        "STATION-UNKNOWN",
			DestinationType: models.EndpointHospital,
			DestinationID:   "HOSPITAL-LOCAL",
			HospitalID:      a.hospitalID,
			TransferMethod:  models.TransferUSB,
			PackageSize:     int64(len(payload)),
			Checksum:        req.Checksum,
			ChangesCount:    len(req.Changes),
			Status:          models.StatusApplied,
		})
	})
	if err != nil {
		metrics.PackagesApplied.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("package apply failed: %w", err)
	}

	metrics.PackagesApplied.WithLabelValues("applied").Inc()
	metrics.ChangesApplied.Add(float64(applied))
	metrics.ApplyDuration.Observe(time.Since(start).Seconds())

	l.Info("Package applied",
		"changes_applied", applied,
		"conflicts", len(conflicts),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	msg := fmt.Sprintf("Applied %d changes", applied)
	if len(conflicts) > 0 {
		msg = fmt.Sprintf("Applied %d changes, %d conflicts", applied, len(conflicts))
	}
	return &models.ApplyResult{
		Success:           true,
		PackageID:         req.PackageID,
		ChangesApplied:    applied,
		ConflictsDetected: len(conflicts),
		Conflicts:         conflicts,
		Message:           msg,
	}, nil
}

// applyChange lands one change inside the batch transaction. The first return
// is a conflict the batch can survive; the second aborts the package.
func (a *PackageApplier) applyChange(ctx context.Context, tx db.DBTX, builder *mapper.SQLBuilder, idx int, change models.ChangeRecord) (changeErr, fatalErr error) {
	// Whitelist Validation
	tbl, ok := models.TableRegistry[change.Table]
	if !ok {
		return fmt.Errorf("table %s is not whitelisted for sync", change.Table), nil
	}
	if !models.ValidOperation(change.Operation) {
		return fmt.Errorf("unsupported operation %s", change.Operation), nil
	}
	if len(change.Data) == 0 {
		return errors.New("change carries no data"), nil
	}

	// Build SQL
	query, args, err := a.buildSQL(builder, tbl, change)
	if err != nil {
		if errors.Is(err, mapper.ErrKeyOnly) {
			// The update carries nothing beyond its key. Applied as a no-op.
			return nil, nil
		}
		return err, nil
	}

	// Each change gets its own savepoint so one bad row cannot poison the
	// rest of the package. Savepoint failures are infrastructure, not data,
	// and abort the batch.
	sp := fmt.Sprintf("sp_change_%d", idx)
	if _, err := tx.ExecContext(ctx, "SAVEPOINT "+sp); err != nil {
		return nil, fmt.Errorf("failed to create savepoint: %v", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+sp); rbErr != nil {
			return nil, fmt.Errorf("failed to roll back savepoint: %v", rbErr)
		}
		if _, relErr := tx.ExecContext(ctx, "RELEASE SAVEPOINT "+sp); relErr != nil {
			return nil, fmt.Errorf("failed to release savepoint: %v", relErr)
		}
		return fmt.Errorf("execution error: %v", err), nil
	}
	if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT "+sp); err != nil {
		return nil, fmt.Errorf("failed to release savepoint: %v", err)
	}
	return nil, nil
}

// buildSQL bridges change operations to the SQL generator.
func (a *PackageApplier) buildSQL(builder *mapper.SQLBuilder, tbl models.SyncTable, change models.ChangeRecord) (string, []any, error) {
	switch change.Operation {
	case models.OpInsert:
		return builder.BuildUpsert(tbl, change.Data)
	case models.OpUpdate:
		return builder.BuildUpdate(tbl, change.Data)
	case models.OpDelete:
		return builder.BuildDelete(tbl, change.Data)
	default:
		return "", nil, fmt.Errorf("unsupported operation: %s", change.Operation)
	}
}
