// Package assetdb maintains the SQLite-backed asset index: the mapping
// between project paths, GUIDs and serialized sub-assets. The search
// core resolves entities through this index instead of re-reading
// sidecar files on every lookup.
package assetdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	refserrors "github.com/standardbeagle/refscan/internal/errors"
	"github.com/standardbeagle/refscan/internal/types"
)

const (
	// DBFileName is the index file under the project state directory.
	DBFileName = "index.db"

	// SchemaVersion guards the on-disk layout. The index is a cache of
	// the project tree, so a mismatch drops and rebuilds it instead of
	// migrating.
	SchemaVersion = 1
)

const schema = `
CREATE TABLE IF NOT EXISTS assets (
  path      TEXT PRIMARY KEY,
  guid      TEXT NOT NULL UNIQUE,
  name      TEXT NOT NULL,
  type_tag  TEXT NOT NULL,
  mtime     INTEGER NOT NULL,
  size      INTEGER NOT NULL,
  fast_hash INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS subassets (
  guid     TEXT NOT NULL,
  local_id TEXT NOT NULL,
  name     TEXT NOT NULL,
  type_tag TEXT NOT NULL,
  PRIMARY KEY(guid, local_id)
);

CREATE TABLE IF NOT EXISTS meta (
  key   TEXT PRIMARY KEY,
  value TEXT NOT NULL
);
`

// ErrNotIndexed signals that a project has no asset index yet and one
// is required; building it is an explicit step.
var ErrNotIndexed = errors.New("project not indexed")

// DB is the asset index for one project root. All methods are safe for
// use from a single goroutine; the scan workers never touch it.
type DB struct {
	db   *sql.DB
	root string
	path string
}

// Path returns the index file location for a project root.
func Path(root string) string {
	return filepath.Join(root, types.StateDirName, DBFileName)
}

// OpenExisting opens the index only if it has been built before.
// Commands that merely consume the index use this so a typo'd project
// directory fails loudly instead of scanning against an implicitly
// created empty database.
func OpenExisting(ctx context.Context, root string) (*DB, error) {
	if _, err := os.Stat(Path(root)); err != nil {
		return nil, refserrors.NewResolveError("open-index", root, ErrNotIndexed)
	}
	return Open(ctx, root)
}

// Open opens or creates the index database for a project root and
// ensures the schema is current. A version mismatch drops every table
// and starts fresh; callers should Reindex afterwards.
func Open(ctx context.Context, root string) (*DB, error) {
	dbPath := Path(root)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, refserrors.NewPersistError("open-index", dbPath, err)
	}

	// modernc.org/sqlite uses _pragma=name(value) syntax
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", dbPath)
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, refserrors.NewPersistError("open-index", dbPath, err)
	}

	// SQLite handles concurrency better with a single writer.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, refserrors.NewPersistError("open-index", dbPath, err)
	}

	if err := initSchema(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, refserrors.NewPersistError("init-schema", dbPath, err)
	}

	return &DB{db: sqlDB, root: root, path: dbPath}, nil
}

// initSchema creates the tables, dropping them first when the stored
// schema version disagrees with this build.
func initSchema(ctx context.Context, db *sql.DB) error {
	version, err := storedSchemaVersion(ctx, db)
	if err != nil {
		return err
	}

	if version != 0 && version != SchemaVersion {
		for _, table := range []string{"assets", "subassets", "meta"} {
			if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
				return fmt.Errorf("drop %s: %w", table, err)
			}
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES ('schema_version', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		strconv.Itoa(SchemaVersion))
	return err
}

// storedSchemaVersion returns 0 when the database is new.
func storedSchemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var name string
	err := db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type='table' AND name='meta'`).Scan(&name)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("check meta table: %w", err)
	}

	var value string
	err = db.QueryRowContext(ctx,
		`SELECT value FROM meta WHERE key='schema_version'`).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}

	version, err := strconv.Atoi(value)
	if err != nil {
		// Unreadable version counts as a mismatch.
		return -1, nil
	}
	return version, nil
}

// Root returns the project root this index belongs to.
func (d *DB) Root() string {
	return d.root
}

// Close checkpoints the WAL and closes the connection. Safe to call on
// an already closed database.
func (d *DB) Close() error {
	if d.db == nil {
		return nil
	}
	// Merge the WAL into the main file so a copy of index.db alone is
	// complete.
	_, _ = d.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	err := d.db.Close()
	d.db = nil
	return err
}
