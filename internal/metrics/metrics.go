package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dam_db_queries_total",
			Help: "Total number of catalog store queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dam_db_query_duration_seconds",
			Help:    "Catalog store query duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)

	DBEntriesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dam_db_entries",
			Help: "Number of entries in the catalog store",
		},
	)

	DBEntriesByType = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dam_db_entries_by_type",
			Help: "Number of entries in the catalog store by media type",
		},
		[]string{"type"},
	)

	DBThumbnailsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dam_db_thumbnails",
			Help: "Number of catalog entries with a stored thumbnail",
		},
	)

	DBSizeBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dam_db_size_bytes",
			Help: "Size of the catalog database file in bytes",
		},
	)
)

// Scan metrics
var (
	ScanRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dam_scan_runs_total",
			Help: "Total number of catalog scans by outcome",
		},
		[]string{"status"},
	)

	ScanLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dam_scan_last_run_timestamp",
			Help: "Unix timestamp of the last completed scan",
		},
	)

	ScanLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dam_scan_last_run_duration_seconds",
			Help: "Duration of the last scan in seconds",
		},
	)

	ScanFilesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dam_scan_files_processed_total",
			Help: "Total number of files cataloged by type",
		},
		[]string{"type"},
	)

	ScanDirectoriesVisited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dam_scan_directories_visited_total",
			Help: "Total number of directories listed by the path scanner",
		},
	)

	ScanErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dam_scan_errors_total",
			Help: "Total number of errors that aborted a scan by kind",
		},
		[]string{"kind"},
	)
)

// Reorganizer metrics
var (
	ReorganizeMovesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dam_reorganize_moves_total",
			Help: "Total number of reorganize decisions by result",
		},
		[]string{"result"}, // "moved", "in_place", "error"
	)

	ReorganizeDirsPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dam_reorganize_dirs_pruned_total",
			Help: "Total number of emptied source directories removed after a move",
		},
	)
)

// Thumbnail metrics
var (
	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dam_thumbnail_generations_total",
			Help: "Total number of thumbnail generations",
		},
		[]string{"type", "status"},
	)

	ThumbnailGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dam_thumbnail_generation_duration_seconds",
			Help:    "Thumbnail generation duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"type"},
	)

	ThumbnailBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dam_thumbnail_size_bytes",
			Help:    "Size of encoded thumbnails in bytes",
			Buckets: prometheus.ExponentialBuckets(4096, 2, 8),
		},
	)
)

// Filesystem metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dam_filesystem_retry_attempts_total",
			Help: "Total number of filesystem operation retries after stale file handle errors",
		},
		[]string{"operation"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dam_filesystem_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after a retry",
		},
		[]string{"operation"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dam_filesystem_retry_failures_total",
			Help: "Total number of filesystem operations that failed after exhausting retries",
		},
		[]string{"operation"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dam_filesystem_stale_errors_total",
			Help: "Total number of ESTALE errors observed",
		},
		[]string{"operation"},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dam_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
