// Package database provides the SQLite catalog store.
//
// Each catalog is a single SQLite file (the ".dam" marker at the catalog
// root) holding:
//   - one entry row per cataloged file, keyed by its identity.ID
//   - an optional JPEG thumbnail blob per entry
//   - catalog metadata (catalog id, schema version, creation time)
//
// Writes are single upsert statements and therefore atomic. The database
// uses the rollback journal rather than WAL so that nothing but the marker
// file remains between commands. Every query is recorded in the dam_db_*
// Prometheus metrics.
package database
