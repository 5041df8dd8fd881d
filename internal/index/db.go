// Package index writes snapshots of the note graph into SQLite for
// querying with external tools.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS notes (
	path     TEXT PRIMARY KEY,
	stem     TEXT NOT NULL,
	title    TEXT NOT NULL DEFAULT '',
	id       TEXT NOT NULL DEFAULT '',
	checksum TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS links (
	source        TEXT NOT NULL REFERENCES notes(path) ON DELETE CASCADE,
	kind          TEXT NOT NULL,
	target        TEXT NOT NULL,
	resolved_path TEXT,
	UNIQUE(source, kind, target)
);

CREATE TABLE IF NOT EXISTS tasks (
	path     TEXT NOT NULL REFERENCES notes(path) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	text     TEXT NOT NULL,
	PRIMARY KEY(path, position)
);

CREATE INDEX IF NOT EXISTS idx_links_source ON links(source);
CREATE INDEX IF NOT EXISTS idx_links_resolved ON links(resolved_path);
`

// DB wraps a sql.DB holding exported snapshots.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
