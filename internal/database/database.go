package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"dam/internal/identity"
	"dam/internal/logging"
	"dam/internal/mediatypes"
	"dam/internal/metrics"
)

// Default timeout for single-row database operations
const defaultTimeout = 5 * time.Second

// Timeout for operations that read the whole catalog
const listTimeout = 60 * time.Second

var (
	// ErrStore is returned when the catalog database cannot be read or written.
	ErrStore = errors.New("catalog store error")
	// ErrNotFound is returned when no entry matches a lookup.
	ErrNotFound = errors.New("no matching entry")
)

// Options controls how the database is opened.
type Options struct {
	// BusyTimeout is how long SQLite waits on a locked database file.
	BusyTimeout time.Duration
}

// DefaultOptions returns the options used when nil is passed to New.
func DefaultOptions() *Options {
	return &Options{BusyTimeout: 5 * time.Second}
}

// Database is the catalog store. It owns a single SQLite connection.
type Database struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// New opens the SQLite file at dbPath, creating an empty file if none
// exists. The schema is only created by Create.
//
// The rollback journal is used instead of WAL so that an idle catalog is a
// single file on disk.
func New(ctx context.Context, dbPath string, opts *Options) (*Database, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	logging.Debug("Database path: %s", dbPath)

	if err := diagnoseDatabasePermissions(dbPath); err != nil {
		logging.Warn("Database permission diagnostics: %v", err)
	}

	dsn, err := fileURI(dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrStore, dbPath, err)
	}
	connStr := fmt.Sprintf("%s?_journal_mode=DELETE&_synchronous=FULL&_busy_timeout=%d",
		dsn, opts.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrStore, dbPath, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("%w: connect %s: %w", ErrStore, dbPath, err)
	}

	// One writer, one reader: the catalog is used by a single process at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &Database{db: db, dbPath: dbPath}, nil
}

// fileURI returns dbPath as an absolute file: URI, so that characters such
// as '?' and '#' in directory names are not read as DSN syntax.
func fileURI(dbPath string) (string, error) {
	abs, err := filepath.Abs(dbPath)
	if err != nil {
		return "", err
	}
	p := filepath.ToSlash(abs)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return (&url.URL{Scheme: "file", Path: p}).String(), nil
}

// Path returns the database file path.
func (d *Database) Path() string {
	return d.dbPath
}

// Create creates the schema and writes the catalog metadata. It is used
// when a catalog is first initialized; calling it again leaves existing
// data and metadata untouched.
func (d *Database) Create(ctx context.Context) (Metadata, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("initialize_schema", start, err) }()

	if err = d.initialize(ctx); err != nil {
		return Metadata{}, fmt.Errorf("%w: create schema: %w", ErrStore, err)
	}
	if err = d.initMetadata(ctx); err != nil {
		return Metadata{}, fmt.Errorf("%w: write metadata: %w", ErrStore, err)
	}

	logging.Info("Catalog database initialized at %s", d.dbPath)
	return d.Metadata(ctx)
}

func (d *Database) initialize(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	schema := `
	CREATE TABLE IF NOT EXISTS entry (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		path TEXT NOT NULL,
		created INTEGER NOT NULL,
		type TEXT NOT NULL DEFAULT 'other',
		thumbnail BLOB
	);

	CREATE INDEX IF NOT EXISTS idx_entry_name ON entry(name);
	CREATE INDEX IF NOT EXISTS idx_entry_path ON entry(path);

	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT
	);
	`

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// Upsert inserts entry or, when an entry with the same ID exists, replaces
// its name, path, creation time and type. The stored thumbnail is only
// replaced when entry carries a non-empty one. The ID is never changed.
func (d *Database) Upsert(ctx context.Context, entry *Entry) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("upsert_entry", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `
	INSERT INTO entry (id, name, path, created, type, thumbnail)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		path = excluded.path,
		created = excluded.created,
		type = excluded.type,
		thumbnail = COALESCE(excluded.thumbnail, entry.thumbnail)
	`

	var thumb any
	if len(entry.Thumbnail) > 0 {
		thumb = entry.Thumbnail
	}

	_, err = d.db.ExecContext(ctx, query,
		int64(entry.ID),
		entry.Name,
		entry.Path,
		entry.Created.UnixNano(),
		string(entry.Type),
		thumb,
	)
	if err != nil {
		return fmt.Errorf("%w: upsert %s (%s): %w", ErrStore, entry.ID, entry.Path, err)
	}
	return nil
}

const entryColumns = `id, name, path, created, type, thumbnail IS NOT NULL`

// FindByName returns the entry with the lowest ID whose name contains text.
// Matching is a plain substring test; '%' and '_' in text are literal.
func (d *Database) FindByName(ctx context.Context, text string) (Entry, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("find_by_name", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `SELECT ` + entryColumns + ` FROM entry
	WHERE name LIKE '%' || ? || '%' ESCAPE '\'
	ORDER BY id
	LIMIT 1`

	var entry Entry
	entry, err = scanEntry(d.db.QueryRowContext(ctx, query, escapeLike(text)))
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return Entry{}, fmt.Errorf("%w: name contains %q", ErrNotFound, text)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("%w: find %q: %w", ErrStore, text, err)
	}
	return entry, nil
}

// Get returns the entry with the given ID.
func (d *Database) Get(ctx context.Context, id identity.ID) (Entry, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_entry", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var entry Entry
	entry, err = scanEntry(d.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM entry WHERE id = ?`, int64(id)))
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return Entry{}, fmt.Errorf("%w: id %s", ErrNotFound, id)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("%w: get %s: %w", ErrStore, id, err)
	}
	return entry, nil
}

// List returns every entry ordered by path, then ID. Thumbnails are not
// loaded; use Thumbnail to fetch one.
func (d *Database) List(ctx context.Context) ([]Entry, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_entries", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `SELECT `+entryColumns+` FROM entry ORDER BY path, id`)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %w", ErrStore, err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			logging.Debug("failed to close rows: %v", closeErr)
		}
	}()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		entry, err = scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: list: %w", ErrStore, err)
		}
		entries = append(entries, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list: %w", ErrStore, err)
	}
	return entries, nil
}

// Thumbnail returns the stored thumbnail for id, or nil when the entry has
// none.
func (d *Database) Thumbnail(ctx context.Context, id identity.ID) ([]byte, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_thumbnail", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var data []byte
	err = d.db.QueryRowContext(ctx, "SELECT thumbnail FROM entry WHERE id = ?", int64(id)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return nil, fmt.Errorf("%w: id %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: thumbnail %s: %w", ErrStore, id, err)
	}
	return data, nil
}

// Count returns the number of entries.
func (d *Database) Count(ctx context.Context) (int, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("count_entries", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var n int
	if err = d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM entry").Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count: %w", ErrStore, err)
	}
	return n, nil
}

// Stats returns entry counts by media type and the number of entries with
// a stored thumbnail.
func (d *Database) Stats(ctx context.Context) (metrics.Stats, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("entry_stats", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	stats := metrics.Stats{ByType: make(map[string]int)}
	rows, err := d.db.QueryContext(ctx,
		"SELECT type, COUNT(*), COUNT(thumbnail) FROM entry GROUP BY type")
	if err != nil {
		return stats, fmt.Errorf("%w: stats: %w", ErrStore, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var t string
		var n, thumbs int
		if err = rows.Scan(&t, &n, &thumbs); err != nil {
			return stats, fmt.Errorf("%w: stats: %w", ErrStore, err)
		}
		stats.ByType[t] = n
		stats.Entries += n
		stats.WithThumbnail += thumbs
	}
	if err = rows.Err(); err != nil {
		return stats, fmt.Errorf("%w: stats: %w", ErrStore, err)
	}
	return stats, nil
}

// UpdateDBMetrics refreshes the entry and file size gauges.
func (d *Database) UpdateDBMetrics(ctx context.Context) {
	if err := metrics.Collect(ctx, d); err != nil {
		logging.Warn("Failed to collect catalog metrics: %v", err)
	}
	if fi, err := os.Stat(d.dbPath); err == nil {
		metrics.DBSizeBytes.Set(float64(fi.Size()))
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var (
		entry   Entry
		id      int64
		created int64
		ftype   string
	)
	if err := row.Scan(&id, &entry.Name, &entry.Path, &created, &ftype, &entry.HasThumbnail); err != nil {
		return Entry{}, err
	}
	entry.ID = identity.ID(id)
	entry.Created = time.Unix(0, created)
	entry.Type = mediatypes.FileType(ftype)
	if !entry.Type.Valid() {
		entry.Type = mediatypes.FileTypeOther
	}
	return entry, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes text match literally inside a LIKE pattern using '\' as
// the escape character.
func escapeLike(text string) string {
	return likeEscaper.Replace(text)
}

// recordQuery records database query metrics
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

// diagnoseDatabasePermissions checks database directory and file permissions
func diagnoseDatabasePermissions(dbPath string) error {
	dir := filepath.Dir(dbPath)

	dirInfo, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot stat database directory: %w", err)
	}
	logging.Debug("Database directory: %s (mode: %v)", dir, dirInfo.Mode())

	if dbInfo, err := os.Stat(dbPath); err == nil {
		logging.Debug("Database file exists: %s (mode: %v, size: %d bytes)", dbPath, dbInfo.Mode(), dbInfo.Size())
		if dbInfo.Mode().Perm()&0o200 == 0 {
			logging.Warn("Database file is read-only! Mode: %v", dbInfo.Mode())
		}
	}

	// A leftover rollback journal means a previous writer was interrupted;
	// SQLite replays it on the next write.
	if jInfo, err := os.Stat(dbPath + "-journal"); err == nil {
		logging.Warn("Hot journal found: %s (%d bytes)", dbPath+"-journal", jInfo.Size())
	}

	return nil
}
