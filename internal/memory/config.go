package memory

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"

	"github.com/dustin/go-humanize"

	"dam/internal/logging"
)

const (
	// DefaultMemoryRatio is the share of the configured limit given to the
	// Go heap. The rest is left to CGO and subprocesses.
	DefaultMemoryRatio = 0.85
)

// ConfigResult describes what Configure did.
type ConfigResult struct {
	// Configured reports whether a limit is in effect.
	Configured bool

	// Source is "GOMEMLIMIT", "config" or "none".
	Source string

	// Limit is the configured total in bytes, before the ratio.
	Limit int64

	// GoMemLimit is the limit handed to the runtime.
	GoMemLimit int64
}

// ParseLimit parses a size such as "512MiB" or "2GB".
func ParseLimit(s string) (int64, error) {
	n, err := humanize.ParseBytes(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid memory limit %q: %w", s, err)
	}
	if n == 0 || n > 1<<62 {
		return 0, fmt.Errorf("memory limit %q out of range", s)
	}
	return int64(n), nil
}

// Configure applies limit as the soft memory limit. An empty limit leaves
// the runtime default alone, and GOMEMLIMIT in the environment takes
// precedence over limit.
func Configure(limit string) (ConfigResult, error) {
	if env := os.Getenv("GOMEMLIMIT"); env != "" {
		logging.Debug("GOMEMLIMIT set via environment: %s", env)
		return ConfigResult{Configured: true, Source: "GOMEMLIMIT"}, nil
	}
	if strings.TrimSpace(limit) == "" {
		return ConfigResult{Source: "none"}, nil
	}

	total, err := ParseLimit(limit)
	if err != nil {
		return ConfigResult{Source: "none"}, err
	}

	goMemLimit := int64(float64(total) * DefaultMemoryRatio)
	debug.SetMemoryLimit(goMemLimit)

	logging.Debug("Configured GOMEMLIMIT: %s (%.0f%% of %s)",
		humanize.IBytes(uint64(goMemLimit)), DefaultMemoryRatio*100, humanize.IBytes(uint64(total)))

	return ConfigResult{
		Configured: true,
		Source:     "config",
		Limit:      total,
		GoMemLimit: goMemLimit,
	}, nil
}
