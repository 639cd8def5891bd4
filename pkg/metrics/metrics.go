package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PackagesGenerated tracks how many sync packages each station produced
	// Labels allow filtering by sync type (DELTA/FULL) and station
	PackagesGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "medsync_packages_generated_total",
		Help: "Total number of sync packages generated",
	}, []string{"sync_type", "station_id"})

	// PackagesApplied tracks import outcomes
	// status is "applied" or "rejected" (rejected means the checksum gate fired)
	PackagesApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "medsync_packages_applied_total",
		Help: "Total number of sync packages imported, by outcome",
	}, []string{"status"})

	// ChangesApplied counts individual change records that landed in the store
	ChangesApplied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "medsync_changes_applied_total",
		Help: "Total number of change records applied across all packages",
	})

	// ChangeConflicts counts change records that failed inside otherwise
	// successful packages. Growth here means stores are drifting apart
	ChangeConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "medsync_change_conflicts_total",
		Help: "Total number of change records rejected as conflicts",
	})

	// ExtractDuration measures how long a package extraction takes
	// Use this to spot table scans slowing down as event logs grow
	ExtractDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "medsync_extract_duration_seconds",
		Help:    "Duration of change extraction in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// ApplyDuration measures how long a package import takes end to end
	ApplyDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "medsync_apply_duration_seconds",
		Help:    "Duration of package apply in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// PackageSize tracks serialized package sizes in bytes
	// Packages travel on USB sticks and drones, so size is operationally real
	PackageSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "medsync_package_size_bytes",
		Help:    "Serialized size of generated sync packages in bytes",
		Buckets: []float64{1024, 10240, 102400, 1048576, 10485760},
	})

	// LastSyncTimestamp is the unix time of the last successful upload per
	// station. This is the primary indicator of a station going dark
	LastSyncTimestamp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "medsync_last_sync_timestamp_seconds",
		Help: "Unix timestamp of the last successful sync per station",
	}, []string{"station_id"})

	// HealthStatus provides a binary 0/1 signal for the daemon's health
	// 1 = Healthy, 0 = Unhealthy (store unreachable)
	HealthStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "medsync_healthy",
		Help: "Current health status of the daemon (1 for healthy, 0 for unhealthy)",
	})
)
