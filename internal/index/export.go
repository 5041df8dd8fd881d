package index

import (
	"fmt"

	"github.com/starford/noteexplorer/internal/models"
	"github.com/starford/noteexplorer/internal/note"
)

// Snapshot is the read side of a note collection needed for an export.
type Snapshot interface {
	Records() []note.Record
	Lookup(link models.WikiLink) (models.NoteMeta, bool)
}

// Export replaces the database content with the notes, links and tasks of
// snap in one transaction. Links that resolve to no note are stored with a
// NULL resolved_path. It returns the number of notes written.
func (db *DB) Export(snap Snapshot) (int, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, table := range []string{"tasks", "links", "notes"} {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return 0, fmt.Errorf("index: clear %s: %w", table, err)
		}
	}

	noteStmt, err := tx.Prepare(`INSERT INTO notes (path, stem, title, id, checksum) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("index: prepare note insert: %w", err)
	}
	defer noteStmt.Close()
	linkStmt, err := tx.Prepare(`INSERT OR IGNORE INTO links (source, kind, target, resolved_path) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("index: prepare link insert: %w", err)
	}
	defer linkStmt.Close()
	taskStmt, err := tx.Prepare(`INSERT INTO tasks (path, position, text) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("index: prepare task insert: %w", err)
	}
	defer taskStmt.Close()

	records := snap.Records()
	for _, r := range records {
		m := r.Meta
		if _, err := noteStmt.Exec(m.Path, m.Stem, m.Title, m.ID, r.Checksum); err != nil {
			return 0, fmt.Errorf("index: insert note %s: %w", m.Path, err)
		}
		for _, l := range r.Links {
			var resolved any
			if target, ok := snap.Lookup(l); ok {
				resolved = target.Path
			}
			if _, err := linkStmt.Exec(m.Path, l.Kind.String(), l.Target, resolved); err != nil {
				return 0, fmt.Errorf("index: insert link: %w", err)
			}
		}
		for i, task := range r.Tasks {
			if _, err := taskStmt.Exec(m.Path, i, task); err != nil {
				return 0, fmt.Errorf("index: insert task: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("index: commit: %w", err)
	}
	return len(records), nil
}
