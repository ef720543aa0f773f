// Package sqlitedb opens SQLite databases with the settings the search
// backends rely on. The driver is selected at build time: the default build
// uses the pure Go modernc.org/sqlite driver, while the sqlite_cgo tag
// switches to github.com/mattn/go-sqlite3.
package sqlitedb

import (
	"database/sql"
	"fmt"
)

// Open opens (creating if necessary) the SQLite database at path with WAL
// journaling and a single-writer connection pool. Use ":memory:" for an
// in-memory database in tests.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	// SQLite benefits from a single writer connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return db, nil
}
