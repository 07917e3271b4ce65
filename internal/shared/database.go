package shared

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// NewDatabase opens a connection to a SQLite database at the specified path.
// The path can be ":memory:" for an in-memory database.
//
// File databases use WAL mode and a 5s busy timeout.
func NewDatabase(path string) (*sql.DB, error) {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", path)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if path == ":memory:" {
		// every new connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// ConfigureDatabase sets connection pool settings for the database.
// Zero values leave the driver defaults in place.
func ConfigureDatabase(db *sql.DB, maxOpenConns, maxIdleConns int) {
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}
	if maxIdleConns > 0 {
		db.SetMaxIdleConns(maxIdleConns)
	}
}
