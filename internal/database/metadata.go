package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// SchemaVersion is the version written to new catalogs.
const SchemaVersion = 1

const (
	keyCatalogID     = "catalog_id"
	keySchemaVersion = "schema_version"
	keyCreatedAt     = "created_at"
	keyLastScanAt    = "last_scan_at"
)

// Metadata describes a catalog as a whole.
type Metadata struct {
	CatalogID     string    `json:"catalogId"`
	SchemaVersion int       `json:"schemaVersion"`
	CreatedAt     time.Time `json:"createdAt"`
	// LastScanAt is zero until a scan completes.
	LastScanAt time.Time `json:"lastScanAt"`
}

// GetMetadata retrieves a metadata value by key.
// Returns sql.ErrNoRows if the key doesn't exist.
func (d *Database) GetMetadata(ctx context.Context, key string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var value string
	err := d.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetMetadata sets a metadata key-value pair.
func (d *Database) SetMetadata(ctx context.Context, key, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// initMetadata writes the catalog identity once. Existing values are kept.
func (d *Database) initMetadata(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	values := map[string]string{
		keyCatalogID:     uuid.NewString(),
		keySchemaVersion: strconv.Itoa(SchemaVersion),
		keyCreatedAt:     time.Now().UTC().Format(time.RFC3339),
	}
	for key, value := range values {
		if _, err := d.db.ExecContext(ctx,
			"INSERT OR IGNORE INTO metadata (key, value) VALUES (?, ?)", key, value); err != nil {
			return err
		}
	}
	return nil
}

// Metadata reads the catalog metadata. A database without a catalog id is
// not a catalog and yields ErrStore.
func (d *Database) Metadata(ctx context.Context) (Metadata, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_metadata", start, err) }()

	var md Metadata
	md.CatalogID, err = d.GetMetadata(ctx, keyCatalogID)
	if errors.Is(err, sql.ErrNoRows) {
		return Metadata{}, fmt.Errorf("%w: %s has no catalog id", ErrStore, d.dbPath)
	}
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: read metadata: %w", ErrStore, err)
	}

	version, verr := d.GetMetadata(ctx, keySchemaVersion)
	if verr == nil {
		md.SchemaVersion, _ = strconv.Atoi(version)
	}

	created, cerr := d.GetMetadata(ctx, keyCreatedAt)
	if cerr == nil {
		md.CreatedAt, _ = time.Parse(time.RFC3339, created)
	}

	if scanned, serr := d.GetMetadata(ctx, keyLastScanAt); serr == nil {
		md.LastScanAt, _ = time.Parse(time.RFC3339, scanned)
	}

	return md, nil
}

// RecordScan stores the completion time of a successful scan.
func (d *Database) RecordScan(ctx context.Context, at time.Time) error {
	start := time.Now()
	err := d.SetMetadata(ctx, keyLastScanAt, at.UTC().Format(time.RFC3339))
	recordQuery("record_scan", start, err)
	if err != nil {
		return fmt.Errorf("%w: record scan: %w", ErrStore, err)
	}
	return nil
}
