// Package report renders query and mutation results as Markdown text.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/starford/noteexplorer/internal/models"
	"github.com/starford/noteexplorer/internal/note"
)

// Counter is the part of a collection the statistics need.
type Counter interface {
	Count() int
	CountWithID() int
	CountLinks() int
}

// Stats prints note and link counts.
func Stats(w io.Writer, c Counter) error {
	_, err := fmt.Fprintf(w, "# Statistics\n\n- Notes in collection: %d\n- Notes with ID: %d\n- Wikilinks: %d\n",
		c.Count(), c.CountWithID(), c.CountLinks())
	return err
}

// Tasks prints open tasks grouped by note.
func Tasks(w io.Writer, tasks []note.NoteTasks) error {
	total := 0
	for _, t := range tasks {
		total += len(t.Tasks)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Tasks\n\nThere are %d tasks in your notes\n", total)
	for _, t := range tasks {
		fmt.Fprintf(&b, "\n## %s\n\n", t.Note.WikiLinkTo())
		for _, task := range t.Tasks {
			fmt.Fprintf(&b, "- [ ] %s\n", task)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Sources prints notes with outgoing but no incoming links.
func Sources(w io.Writer, notes []models.NoteMeta) error {
	return noteList(w, "Source notes", "have no incoming links, but at least one outgoing link", notes)
}

// Sinks prints notes with incoming but no outgoing links.
func Sinks(w io.Writer, notes []models.NoteMeta) error {
	return noteList(w, "Sink notes", "have no outgoing links, but at least one incoming link", notes)
}

// Isolated prints notes without any links.
func Isolated(w io.Writer, notes []models.NoteMeta) error {
	return noteList(w, "Isolated notes", "have no incoming or outgoing links", notes)
}

func noteList(w io.Writer, title, summary string, notes []models.NoteMeta) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n%d notes %s\n\n", title, len(notes), summary)
	writeLinks(&b, notes)
	_, err := io.WriteString(w, b.String())
	return err
}

// BrokenLinks prints each unresolved link with the notes using it.
func BrokenLinks(w io.Writer, broken []note.BrokenLink) error {
	var b strings.Builder
	b.WriteString("# Broken links\n\n")
	for _, bl := range broken {
		linkers := make([]string, len(bl.Sources))
		for i, m := range bl.Sources {
			linkers[i] = m.WikiLinkTo()
		}
		fmt.Fprintf(&b, "- \"%s\" links to unknown %s\n", strings.Join(linkers, " and "), bl.Link)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// RemovedBacklinks reports how many notes lost their backlinks section.
func RemovedBacklinks(w io.Writer, changed []models.NoteMeta) error {
	_, err := fmt.Fprintf(w, "Removed backlinks section from %d notes\n", len(changed))
	return err
}

// UpdatedBacklinks reports the notes whose backlinks section was rewritten.
func UpdatedBacklinks(w io.Writer, changed []models.NoteMeta) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Updated backlinks section in %d notes\n", len(changed))
	writeLinks(&b, changed)
	_, err := io.WriteString(w, b.String())
	return err
}

// Renamed reports a file rename and the notes rewritten by it.
func Renamed(w io.Writer, from, to string, changed []models.NoteMeta) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Renamed %q to %q, updated links in %d notes\n", from, to, len(changed))
	writeLinks(&b, changed)
	_, err := io.WriteString(w, b.String())
	return err
}

// Exported reports a finished export.
func Exported(w io.Writer, target string, notes int) error {
	_, err := fmt.Fprintf(w, "Exported %d notes to %s\n", notes, target)
	return err
}

func writeLinks(b *strings.Builder, notes []models.NoteMeta) {
	for _, m := range notes {
		fmt.Fprintf(b, "- %s\n", m.WikiLinkTo())
	}
}
