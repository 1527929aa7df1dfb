package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dam/internal/database"
	"dam/internal/filesystem"
	"dam/internal/logging"
	"dam/internal/metrics"
)

// Layouts of the two directory levels below the catalog root.
const (
	yearLayout = "2006"
	dayLayout  = "Jan_02"
)

// CanonicalPath returns where a file named name, created at created,
// belongs: <root>/<year>/<Mon_DD>/<name>, in local time.
func CanonicalPath(root string, created time.Time, name string) string {
	created = created.Local()
	return filepath.Join(root, created.Format(yearLayout), created.Format(dayLayout), name)
}

// Reorganize moves the file at e.Path to its canonical location under root
// and updates e.Path. It reports whether the file moved; a file already in
// place is left alone. An existing different file at the destination is
// never overwritten.
func Reorganize(root string, e *database.Entry, retry filesystem.RetryConfig) (bool, error) {
	src := filepath.Clean(e.Path)
	dest := CanonicalPath(root, e.Created, e.Name)
	if src == dest {
		metrics.ReorganizeMovesTotal.WithLabelValues("in_place").Inc()
		return false, nil
	}

	if err := move(src, dest, retry); err != nil {
		metrics.ReorganizeMovesTotal.WithLabelValues("error").Inc()
		return false, err
	}

	metrics.ReorganizeMovesTotal.WithLabelValues("moved").Inc()
	logging.Debug("Moved %s -> %s", src, dest)
	e.Path = dest
	pruneDir(root, filepath.Dir(src))
	return true, nil
}

func move(src, dest string, retry filesystem.RetryConfig) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrIO, filepath.Dir(dest), err)
	}

	destInfo, err := filesystem.StatWithRetry(dest, retry)
	switch {
	case err == nil:
		srcInfo, serr := filesystem.StatWithRetry(src, retry)
		if serr != nil {
			return fmt.Errorf("%w: stat %s: %w", ErrIO, src, serr)
		}
		if !os.SameFile(srcInfo, destInfo) {
			return fmt.Errorf("%w: move %s to %s: %w", ErrIO, src, dest, os.ErrExist)
		}
		// A case-only rename on a case-insensitive filesystem sees its own
		// destination. Any other pair naming one file is a hard link, and
		// dropping src leaves the file under dest alone.
		if !strings.EqualFold(src, dest) {
			if err := filesystem.RemoveWithRetry(src, retry); err != nil {
				return fmt.Errorf("%w: unlink %s: %w", ErrIO, src, err)
			}
			return nil
		}
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: stat %s: %w", ErrIO, dest, err)
	}

	if err := filesystem.RenameWithRetry(src, dest, retry); err != nil {
		return fmt.Errorf("%w: move %s to %s: %w", ErrIO, src, dest, err)
	}
	return nil
}

// pruneDir removes dir when it is empty. The catalog root is never
// removed and failures are ignored.
func pruneDir(root, dir string) {
	if filepath.Clean(dir) == filepath.Clean(root) {
		return
	}
	if err := os.Remove(dir); err != nil {
		logging.Debug("Kept %s: %v", dir, err)
		return
	}
	metrics.ReorganizeDirsPruned.Inc()
	logging.Debug("Removed empty directory %s", dir)
}
