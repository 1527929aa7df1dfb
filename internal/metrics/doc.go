// Package metrics provides Prometheus instrumentation for the dam catalog
// tool.
//
// dam is a short-lived command rather than a server, so metrics are not
// scraped over HTTP. Instead, when a textfile path is configured, the CLI
// calls [WriteTextfile] after each command and the node_exporter textfile
// collector picks the file up. All metrics are prefixed with "dam_".
//
// # Metric Categories
//
// ## Database Metrics
//   - DBQueryTotal: Counter of store queries by operation and status
//   - DBQueryDuration: Histogram of store query duration by operation
//   - DBEntriesTotal: Gauge of catalog entries after the last scan
//   - DBEntriesByType: Gauge of catalog entries by media type
//   - DBThumbnailsTotal: Gauge of entries with a stored thumbnail
//   - DBSizeBytes: Gauge of the catalog database file size
//
// The entry gauges are set from a one-time snapshot by [Collect].
//
// ## Scan Metrics
//   - ScanRunsTotal: Counter of scans by outcome
//   - ScanLastRunTimestamp / ScanLastRunDuration: Gauges for the last scan
//   - ScanFilesProcessed: Counter of cataloged files by media type
//   - ScanDirectoriesVisited: Counter of listed directories
//   - ScanErrors: Counter of scan-aborting errors by kind
//
// ## Reorganizer Metrics
//   - ReorganizeMovesTotal: Counter of moves by result
//   - ReorganizeDirsPruned: Counter of removed empty source directories
//
// ## Thumbnail Metrics
//   - ThumbnailGenerationsTotal: Counter by media type and status
//   - ThumbnailGenerationDuration: Histogram by media type
//   - ThumbnailBytes: Histogram of encoded thumbnail sizes
//
// ## Filesystem Metrics
//
// Recorded through [NewFilesystemObserver], which the filesystem package
// calls via its Observer interface to avoid an import cycle.
package metrics
