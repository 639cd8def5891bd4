package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stationware/medsync/internal/models"
	"github.com/stationware/medsync/pkg/canonical"
	"github.com/stationware/medsync/pkg/metrics"
)

// Applier is the import half of the sync cycle, implemented by the processor.
type Applier interface {
	Apply(ctx context.Context, req *models.ImportRequest) (*models.ApplyResult, error)
}

// PackageRegistry is the slice of package persistence generation needs.
type PackageRegistry interface {
	Create(ctx context.Context, pkg *models.SyncPackage) error
}

// StationRoster stamps stations after their packages land.
type StationRoster interface {
	MarkSynced(ctx context.Context, stationID string) error
}

// SyncOrchestrator drives the three package flows: generate on a station,
// import on any node, upload on the hospital side.
type SyncOrchestrator struct {
	extractor  *ChangeExtractor
	applier    Applier
	packages   PackageRegistry
	stations   StationRoster
	stationID  string
	hospitalID string
	logger     *slog.Logger
}

func NewSyncOrchestrator(extractor *ChangeExtractor, applier Applier, packages PackageRegistry, stations StationRoster, stationID, hospitalID string, logger *slog.Logger) *SyncOrchestrator {
	return &SyncOrchestrator{
		extractor:  extractor,
		applier:    applier,
		packages:   packages,
		stations:   stations,
		stationID:  stationID,
		hospitalID: hospitalID,
		logger:     logger,
	}
}

// Generate extracts local changes and wraps them into a checksummed package.
// The caller gets the changes back in full; on a disconnected station the
// response body is the thing that travels.
func (o *SyncOrchestrator) Generate(ctx context.Context, req *models.GenerateRequest) (*models.GenerateResult, error) {
	stationID := req.StationID
	if stationID == "" {
		stationID = o.stationID
	}
	hospitalID := req.HospitalID
	if hospitalID == "" {
		hospitalID = o.hospitalID
	}

	syncType := strings.ToUpper(req.SyncType)
	if syncType == "" {
		syncType = models.PackageDelta
	}
	if syncType != models.PackageDelta && syncType != models.PackageFull {
		return nil, validationf("syncType must be DELTA or FULL, got %q", req.SyncType)
	}

	changes, err := o.extractor.Extract(ctx, syncType, stationID, req.SinceTimestamp)
	if err != nil {
		return nil, err
	}

	payload, err := canonical.Marshal(changes)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize changes: %w", err)
	}
	checksum := canonical.Digest(payload)
	packageID := buildPackageID(stationID, time.Now())

	// The registry row is the durable proof this package ever existed. If
	// the id collides, the package is abandoned, never silently renamed.
	err = o.packages.Create(ctx, &models.SyncPackage{
		PackageID:       packageID,
		PackageType:     syncType,
		SourceType:      models.EndpointStation,
		SourceID:        stationID,
		DestinationType: models.EndpointHospital,
		DestinationID:   hospitalID,
		HospitalID:      hospitalID,
		TransferMethod:  models.TransferManual,
		PackageSize:     int64(len(payload)),
		Checksum:        checksum,
		ChangesCount:    len(changes),
		Status:          models.StatusPending,
	})
	if err != nil {
		return nil, err
	}

	metrics.PackagesGenerated.WithLabelValues(syncType, stationID).Inc()
	metrics.PackageSize.Observe(float64(len(payload)))

	o.logger.Info("Package generated",
		"package_id", packageID,
		"sync_type", syncType,
		"changes", len(changes),
		"size_bytes", len(payload),
	)

	return &models.GenerateResult{
		Success:      true,
		PackageID:    packageID,
		PackageType:  syncType,
		PackageSize:  int64(len(payload)),
		Checksum:     checksum,
		ChangesCount: len(changes),
		Changes:      changes,
		Message:      fmt.Sprintf("Generated %s package with %d changes", syncType, len(changes)),
	}, nil
}

// Import validates the request envelope and hands the package to the applier.
// Envelope problems are the caller's to fix; everything past this point is
// either applied, a conflict, or an integrity failure.
func (o *SyncOrchestrator) Import(ctx context.Context, req *models.ImportRequest) (*models.ApplyResult, error) {
	if err := validateImport(req); err != nil {
		return nil, err
	}
	return o.applier.Apply(ctx, req)
}

// Upload is the hospital-side receive flow: an import attributed to the
// sending station, which gets its roster row stamped on success.
func (o *SyncOrchestrator) Upload(ctx context.Context, req *models.UploadRequest) (*models.UploadResult, error) {
	if req.StationID == "" {
		return nil, validationf("stationId is required")
	}

	applyRes, err := o.Import(ctx, &req.ImportRequest)
	if err != nil {
		return nil, err
	}

	// Roster bookkeeping must not unwind an applied package.
	if err := o.stations.MarkSynced(ctx, req.StationID); err != nil {
		o.logger.Warn("Failed to mark station synced",
			"station_id", req.StationID,
			"error", err,
		)
	} else {
		metrics.LastSyncTimestamp.WithLabelValues(req.StationID).SetToCurrentTime()
	}

	// TODO: generate the reciprocal hospital->station package once the
	// response payload format is settled with the station clients.
	return &models.UploadResult{
		ApplyResult:       *applyRes,
		StationID:         req.StationID,
		ResponsePackageID: "PKG-RESPONSE-" + req.PackageID,
	}, nil
}

func validateImport(req *models.ImportRequest) error {
	if req.PackageID == "" {
		return validationf("packageId is required")
	}
	if req.Checksum == "" {
		return validationf("checksum is required")
	}
	if len(req.Changes) == 0 {
		return validationf("package has no changes")
	}
	for i, change := range req.Changes {
		if change.Table == "" {
			return validationf("change %d has no table", i)
		}
		if change.Operation == "" {
			return validationf("change %d has no operation", i)
		}
		if len(change.Data) == 0 {
			return validationf("change %d has no data", i)
		}
	}
	return nil
}

// buildPackageID mints PKG-YYYYMMDD-HHMMSS-<station>-<random>. The random
// tail keeps ids distinct even when two packages are generated within the
// same second.
func buildPackageID(stationID string, now time.Time) string {
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return fmt.Sprintf("PKG-%s-%s-%s", now.Format("20060102-150405"), stationID, suffix)
}
