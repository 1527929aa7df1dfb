package metrics

var entryTypes = []string{"image", "video", "audio", "document", "other"}

// InitializeMetrics pre-populates all expected label combinations so that
// every series is present in the exported textfile even when a scan never
// hits a particular branch.
func InitializeMetrics() {
	for _, status := range []string{"success", "error"} {
		ScanRunsTotal.WithLabelValues(status)
	}

	for _, t := range entryTypes {
		ScanFilesProcessed.WithLabelValues(t)
		DBEntriesByType.WithLabelValues(t)
	}

	for _, kind := range []string{"io", "identity", "store", "canceled"} {
		ScanErrors.WithLabelValues(kind)
	}

	for _, result := range []string{"moved", "in_place", "error"} {
		ReorganizeMovesTotal.WithLabelValues(result)
	}

	for _, t := range []string{"image", "video"} {
		ThumbnailGenerationDuration.WithLabelValues(t)
		for _, status := range []string{"success", "error_decode", "error_unsupported", "error_encode"} {
			ThumbnailGenerationsTotal.WithLabelValues(t, status)
		}
	}

	for _, op := range []string{"stat", "readdir", "rename", "remove"} {
		FilesystemRetryAttempts.WithLabelValues(op)
		FilesystemRetrySuccess.WithLabelValues(op)
		FilesystemRetryFailures.WithLabelValues(op)
		FilesystemStaleErrors.WithLabelValues(op)
	}

	for _, op := range []string{"initialize_schema", "upsert_entry", "find_by_name",
		"get_entry", "list_entries", "get_thumbnail", "count_entries", "entry_stats",
		"get_metadata", "record_scan"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}
}
