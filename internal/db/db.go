package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB is the ingest results database.
type DB struct {
	*sql.DB
}

// pragmas are applied to every connection opened through Open.
var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA temp_store=MEMORY",
	"PRAGMA foreign_keys=ON",
}

// Open opens (or creates) the SQLite database at path and applies the
// connection PRAGMAs. The schema is not touched; call MigrateUp.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// PRAGMAs are per connection.
	sqlDB.SetMaxOpenConns(1)

	for _, pragma := range pragmas {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return &DB{sqlDB}, nil
}

// OpenMigrated opens path and brings its schema to the latest version.
func OpenMigrated(path string) (*DB, error) {
	d, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := d.MigrateUp(); err != nil {
		d.Close()
		return nil, err
	}
	version, _, err := d.MigrateVersion()
	if err != nil {
		d.Close()
		return nil, err
	}
	diagf("%s at schema version %d", path, version)
	return d, nil
}
