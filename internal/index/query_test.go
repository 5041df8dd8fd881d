package index

// Read helpers over an exported snapshot, used to check what Export wrote.

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/noteexplorer/internal/apperr"
)

// CountNotes returns the number of exported notes.
func (db *DB) CountNotes() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("index: count notes: %w", err)
	}
	return n, nil
}

// Checksum returns the exported checksum of the note at path.
func (db *DB) Checksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM notes WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("index: checksum %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("index: checksum: %w", err)
	}
	return cs, nil
}

// Backlinks returns the sorted paths of notes whose links resolve to path.
func (db *DB) Backlinks(path string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT DISTINCT source FROM links WHERE resolved_path = ? ORDER BY source`, path)
	if err != nil {
		return nil, fmt.Errorf("index: backlinks: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// BrokenTargets returns the distinct targets of links that resolved to no note.
func (db *DB) BrokenTargets() ([]string, error) {
	rows, err := db.conn.Query(`SELECT DISTINCT target FROM links WHERE resolved_path IS NULL ORDER BY target`)
	if err != nil {
		return nil, fmt.Errorf("index: broken targets: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Tasks returns the exported open tasks of the note at path, in order.
func (db *DB) Tasks(path string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT text FROM tasks WHERE path = ? ORDER BY position`, path)
	if err != nil {
		return nil, fmt.Errorf("index: tasks: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
