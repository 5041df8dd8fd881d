// Package testutil provides shared test helpers for setting up note directories.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/noteexplorer/internal/parser"
	"github.com/starford/noteexplorer/internal/storage"
)

// Heading is the backlinks heading used by tests.
const Heading = "## Links to this note"

// TestVault creates a temporary note directory holding files (path → content)
// and a storage.FS rooted at it.
func TestVault(t *testing.T, files map[string]string) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		WriteFile(t, dir, rel, content)
	}
	store, err := storage.NewFS(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// WriteFile writes content verbatim, bypassing storage normalization.
func WriteFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// ReadFile returns the content of a file in dir.
func ReadFile(t *testing.T, dir, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

// TestParser returns a parser for 14-digit ids and the Heading.
func TestParser(t *testing.T) *parser.NoteParser {
	t.Helper()
	p, err := parser.New(`\d{14}`, Heading)
	if err != nil {
		t.Fatal(err)
	}
	return p
}
