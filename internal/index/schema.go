// Package index keeps a SQLite mirror of the day logs and compiled entries
// for search. It is derived data: the JSONL logs stay the source of truth and
// the index can be rebuilt from them at any time with Sync.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS days (
	date     TEXT PRIMARY KEY,
	checksum TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS events (
	date    TEXT NOT NULL,
	seq     INTEGER NOT NULL,
	ts      TEXT NOT NULL DEFAULT '',
	section TEXT NOT NULL,
	text    TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (date, seq)
);

CREATE TABLE IF NOT EXISTS entries (
	path       TEXT PRIMARY KEY,
	date       TEXT NOT NULL,
	title      TEXT NOT NULL DEFAULT '',
	topics     TEXT NOT NULL DEFAULT '[]',
	collection TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_events_section ON events(section);
CREATE INDEX IF NOT EXISTS idx_entries_date ON entries(date);
`

// DB wraps a sql.DB with index-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
