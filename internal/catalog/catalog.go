package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"dam/internal/database"
	"dam/internal/identity"
	"dam/internal/logging"
	"dam/internal/mediatypes"
	"dam/internal/metrics"
	"dam/internal/scanner"

	"github.com/gofrs/flock"
)

// MarkerName is the catalog database file at the root of every catalog.
// Its presence alone marks a directory as initialized.
const MarkerName = ".dam"

// Status is the lifecycle state of a root directory.
type Status int

const (
	// StatusEmpty means the root has no catalog marker.
	StatusEmpty Status = iota
	// StatusInitialized means the root holds a catalog.
	StatusInitialized
)

func (s Status) String() string {
	if s == StatusInitialized {
		return "initialized"
	}
	return "empty"
}

// State is the result of Check. Catalog is set only when Status is
// StatusInitialized, and the caller must Close it.
type State struct {
	Status  Status
	Root    string
	Catalog *Catalog
}

// Catalog binds a root directory to its exclusively owned store.
type Catalog struct {
	root string
	db   *database.Database
	opts options
}

// ScanResult summarizes one scan.
type ScanResult struct {
	Files             int
	Moved             int
	Thumbnails        int
	ThumbnailFailures int
	Duration          time.Duration
}

// Info describes an open catalog.
type Info struct {
	Root          string    `json:"root"`
	CatalogID     string    `json:"catalogId"`
	SchemaVersion int       `json:"schemaVersion"`
	CreatedAt     time.Time `json:"createdAt"`
	LastScanAt    time.Time `json:"lastScanAt"`
	Entries       int       `json:"entries"`
	SizeBytes     int64     `json:"sizeBytes"`
}

// resolveRoot returns root as a clean absolute path of an existing
// directory.
func resolveRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("%w: resolve %s: %w", ErrIO, root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrIO, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrIO, abs)
	}
	return abs, nil
}

func markerExists(root string) (bool, error) {
	_, err := os.Lstat(filepath.Join(root, MarkerName))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("%w: %w", ErrIO, err)
}

// Check reports whether root holds a catalog, opening it when it does.
// Nothing is written.
func Check(ctx context.Context, root string, opts ...Option) (State, error) {
	abs, err := resolveRoot(root)
	if err != nil {
		return State{}, err
	}
	exists, err := markerExists(abs)
	if err != nil {
		return State{}, err
	}
	if !exists {
		return State{Status: StatusEmpty, Root: abs}, nil
	}

	c, err := open(ctx, abs, buildOptions(opts))
	if err != nil {
		return State{}, err
	}
	return State{Status: StatusInitialized, Root: abs, Catalog: c}, nil
}

// Init creates a catalog at root. It fails with ErrAlreadyInitialized when
// the marker exists and leaves that catalog untouched.
func Init(ctx context.Context, root string, opts ...Option) (*Catalog, error) {
	abs, err := resolveRoot(root)
	if err != nil {
		return nil, err
	}
	exists, err := markerExists(abs)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyInitialized, abs)
	}

	marker := filepath.Join(abs, MarkerName)
	db, err := database.New(ctx, marker, nil)
	if err != nil {
		return nil, err
	}
	md, err := db.Create(ctx)
	if err != nil {
		_ = db.Close()
		// Leave the root Empty rather than holding a half-built marker.
		if rmErr := os.Remove(marker); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			logging.Warn("failed to remove %s after init failure: %v", marker, rmErr)
		}
		return nil, err
	}

	logging.Info("Initialized catalog %s at %s", md.CatalogID, abs)
	return &Catalog{root: abs, db: db, opts: buildOptions(opts)}, nil
}

// Load opens the catalog at root, failing with ErrNotInitialized when root
// has no marker.
func Load(ctx context.Context, root string, opts ...Option) (*Catalog, error) {
	abs, err := resolveRoot(root)
	if err != nil {
		return nil, err
	}
	exists, err := markerExists(abs)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotInitialized, abs)
	}
	return open(ctx, abs, buildOptions(opts))
}

func open(ctx context.Context, root string, o options) (*Catalog, error) {
	db, err := database.New(ctx, filepath.Join(root, MarkerName), nil)
	if err != nil {
		return nil, err
	}
	// A marker that is not a catalog database is a store failure.
	if _, err := db.Metadata(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Catalog{root: root, db: db, opts: o}, nil
}

// Root returns the absolute catalog root.
func (c *Catalog) Root() string {
	return c.root
}

// Close releases the store.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Scan catalogs every non-hidden file under the root: each file is moved
// to its canonical location, given a thumbnail when possible and upserted.
// The first filesystem, identity or store error aborts the scan; files
// handled before it stay moved and recorded. Thumbnail failures only
// leave the entry without a thumbnail.
func (c *Catalog) Scan(ctx context.Context) (result ScanResult, err error) {
	start := time.Now()
	defer func() {
		result.Duration = time.Since(start)
		recordScan(result.Duration, err)
	}()

	lock := flock.New(filepath.Join(c.root, MarkerName))
	locked, err := lock.TryLock()
	if err != nil {
		return result, fmt.Errorf("%w: lock catalog: %w", ErrIO, err)
	}
	if !locked {
		return result, fmt.Errorf("%w: another scan is running in %s", ErrBusy, c.root)
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			logging.Warn("failed to unlock catalog: %v", unlockErr)
		}
	}()

	paths, err := scanner.New(c.opts.retry).Scan(c.root)
	if err != nil {
		return result, fmt.Errorf("%w: %w", ErrIO, err)
	}
	logging.Info("Scanning %d files in %s", len(paths), c.root)

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := c.catalogFile(ctx, path, &result); err != nil {
			return result, err
		}
	}

	if err := c.db.RecordScan(ctx, time.Now()); err != nil {
		return result, err
	}
	c.db.UpdateDBMetrics(ctx)
	logging.Info("Scan complete: %d files, %d moved, %d thumbnails (%d failed) in %v",
		result.Files, result.Moved, result.Thumbnails, result.ThumbnailFailures, time.Since(start).Round(time.Millisecond))
	return result, nil
}

func (c *Catalog) catalogFile(ctx context.Context, path string, result *ScanResult) error {
	// Reject untextual names before anything on disk changes.
	if _, err := identity.RelativeText(c.root, path); err != nil {
		return identityError(err)
	}

	info, err := c.opts.inspector.Inspect(path)
	if err != nil {
		return fmt.Errorf("%w: inspect %s: %w", ErrIO, path, err)
	}

	rel, err := identity.RelativeText(c.root, CanonicalPath(c.root, info.Created, info.Name))
	if err != nil {
		return identityError(err)
	}
	id, err := identity.Compute(rel)
	if err != nil {
		return identityError(err)
	}

	entry := database.Entry{
		ID:      id,
		Name:    info.Name,
		Path:    path,
		Created: info.Created,
		Type:    mediatypes.ForPath(info.Name),
	}

	moved, err := Reorganize(c.root, &entry, c.opts.retry)
	if err != nil {
		return err
	}
	if moved {
		result.Moved++
	}

	c.attachThumbnail(ctx, &entry, moved, result)

	if err := c.db.Upsert(ctx, &entry); err != nil {
		return err
	}
	result.Files++
	metrics.ScanFilesProcessed.WithLabelValues(string(entry.Type)).Inc()
	return nil
}

// identityError keeps ErrIdentity failures as they are and reports any
// other path problem as ErrIO.
func identityError(err error) error {
	if errors.Is(err, ErrIdentity) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrIO, err)
}

// attachThumbnail renders a thumbnail for entry unless thumbnails are
// disabled, the type has none, or the stored one is still current.
func (c *Catalog) attachThumbnail(ctx context.Context, entry *database.Entry, moved bool, result *ScanResult) {
	if !c.opts.thumbnails || c.opts.thumbnailer == nil || !entry.Type.HasThumbnail() {
		return
	}
	if !moved {
		if existing, err := c.db.Get(ctx, entry.ID); err == nil && existing.HasThumbnail && existing.Path == entry.Path {
			return
		}
	}

	data, err := c.opts.thumbnailer.Generate(entry.Path)
	if err != nil {
		result.ThumbnailFailures++
		logging.Warn("No thumbnail for %s: %v", entry.Path, err)
		return
	}
	if len(data) > 0 {
		entry.Thumbnail = data
		result.Thumbnails++
	}
}

func recordScan(d time.Duration, err error) {
	metrics.ScanLastRunTimestamp.SetToCurrentTime()
	metrics.ScanLastRunDuration.Set(d.Seconds())
	if err != nil {
		metrics.ScanRunsTotal.WithLabelValues("error").Inc()
		metrics.ScanErrors.WithLabelValues(errorKind(err)).Inc()
		return
	}
	metrics.ScanRunsTotal.WithLabelValues("success").Inc()
}

// List returns every entry ordered by path.
func (c *Catalog) List(ctx context.Context) ([]database.Entry, error) {
	return c.db.List(ctx)
}

// Find returns the first entry, by id, whose name contains name.
func (c *Catalog) Find(ctx context.Context, name string) (database.Entry, error) {
	return c.db.FindByName(ctx, name)
}

// Open finds an entry by name and launches it with the configured opener.
// A launch failure is returned as ErrLaunch and leaves the catalog usable.
func (c *Catalog) Open(ctx context.Context, name string) (database.Entry, error) {
	entry, err := c.Find(ctx, name)
	if err != nil {
		return database.Entry{}, err
	}
	if err := c.opts.launcher.Launch(entry.Path); err != nil {
		return entry, fmt.Errorf("%w: %s: %w", ErrLaunch, entry.Path, err)
	}
	return entry, nil
}

// Thumbnail returns the stored thumbnail of the first entry matching name.
func (c *Catalog) Thumbnail(ctx context.Context, name string) (database.Entry, []byte, error) {
	entry, err := c.Find(ctx, name)
	if err != nil {
		return database.Entry{}, nil, err
	}
	data, err := c.db.Thumbnail(ctx, entry.ID)
	if err != nil {
		return entry, nil, err
	}
	if len(data) == 0 {
		return entry, nil, fmt.Errorf("%w: %s has no thumbnail", ErrNotFound, entry.Name)
	}
	return entry, data, nil
}

// Info reports catalog metadata and size.
func (c *Catalog) Info(ctx context.Context) (Info, error) {
	md, err := c.db.Metadata(ctx)
	if err != nil {
		return Info{}, err
	}
	n, err := c.db.Count(ctx)
	if err != nil {
		return Info{}, err
	}

	info := Info{
		Root:          c.root,
		CatalogID:     md.CatalogID,
		SchemaVersion: md.SchemaVersion,
		CreatedAt:     md.CreatedAt,
		LastScanAt:    md.LastScanAt,
		Entries:       n,
	}
	if fi, err := os.Stat(c.db.Path()); err == nil {
		info.SizeBytes = fi.Size()
	}
	return info, nil
}
