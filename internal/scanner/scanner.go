// Package scanner enumerates the files beneath a catalog root.
package scanner

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"dam/internal/filesystem"
	"dam/internal/logging"
	"dam/internal/metrics"
)

// ErrList is returned when a directory cannot be listed. A scan that
// fails this way returns no paths.
var ErrList = errors.New("cannot list directory")

// Scanner walks a directory tree depth first.
type Scanner struct {
	retry filesystem.RetryConfig
}

// New creates a Scanner that lists directories with the given retry policy.
func New(retry filesystem.RetryConfig) *Scanner {
	return &Scanner{retry: retry}
}

// Scan walks root with the default retry policy.
func Scan(root string) ([]string, error) {
	return New(filesystem.DefaultRetryConfig()).Scan(root)
}

// Scan returns every non-hidden file under root in lexical order. Names
// starting with "." are skipped at every depth, so hidden directories are
// never entered. Symlinks are reported as files and never followed.
func (s *Scanner) Scan(root string) ([]string, error) {
	var files []string
	if err := s.walk(root, &files); err != nil {
		return nil, err
	}
	logging.Debug("Scanned %s: %d files", root, len(files))
	return files, nil
}

func (s *Scanner) walk(dir string, files *[]string) error {
	entries, err := filesystem.ReadDirWithRetry(dir, s.retry)
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrList, dir, err)
	}
	metrics.ScanDirectoriesVisited.Inc()

	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		path := filepath.Join(dir, name)
		if entry.IsDir() {
			if err := s.walk(path, files); err != nil {
				return err
			}
			continue
		}
		*files = append(*files, path)
	}
	return nil
}
