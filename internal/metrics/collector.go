package metrics

import (
	"context"

	"dam/internal/logging"
)

// StatsProvider reports catalog statistics.
type StatsProvider interface {
	Stats(ctx context.Context) (Stats, error)
}

// Stats is a snapshot of the catalog contents.
type Stats struct {
	Entries       int
	ByType        map[string]int
	WithThumbnail int
}

// Collect takes one snapshot from provider and sets the catalog gauges.
// Types missing from the snapshot are reported as zero.
func Collect(ctx context.Context, provider StatsProvider) error {
	if provider == nil {
		return nil
	}

	stats, err := provider.Stats(ctx)
	if err != nil {
		return err
	}

	for _, t := range entryTypes {
		DBEntriesByType.WithLabelValues(t).Set(0)
	}
	for t, n := range stats.ByType {
		DBEntriesByType.WithLabelValues(t).Set(float64(n))
	}
	DBEntriesTotal.Set(float64(stats.Entries))
	DBThumbnailsTotal.Set(float64(stats.WithThumbnail))

	logging.Debug("Metrics collected: entries=%d, thumbnails=%d, types=%v",
		stats.Entries, stats.WithThumbnail, stats.ByType)
	return nil
}
