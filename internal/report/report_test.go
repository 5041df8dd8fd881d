package report

import (
	"bytes"
	"testing"

	"github.com/starford/noteexplorer/internal/models"
	"github.com/starford/noteexplorer/internal/note"
)

type counts struct{ notes, withID, links int }

func (c counts) Count() int       { return c.notes }
func (c counts) CountWithID() int { return c.withID }
func (c counts) CountLinks() int  { return c.links }

var (
	noteA = models.NoteMeta{Path: "A.md", Stem: "A", Extension: "md", Title: "A"}
	noteB = models.NoteMeta{Path: "b.md", Stem: "b", Extension: "md", Title: "Bee", ID: "20201012145848"}
)

func TestStats(t *testing.T) {
	var buf bytes.Buffer
	if err := Stats(&buf, counts{3, 1, 5}); err != nil {
		t.Fatal(err)
	}
	want := "# Statistics\n\n- Notes in collection: 3\n- Notes with ID: 1\n- Wikilinks: 5\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestTasks(t *testing.T) {
	var buf bytes.Buffer
	err := Tasks(&buf, []note.NoteTasks{
		{Note: noteA, Tasks: []string{"one", "two"}},
		{Note: noteB, Tasks: []string{"three"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := "# Tasks\n\nThere are 3 tasks in your notes\n" +
		"\n## [[A]]\n\n- [ ] one\n- [ ] two\n" +
		"\n## [[20201012145848]] Bee\n\n- [ ] three\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestNoteLists(t *testing.T) {
	cases := []struct {
		name  string
		print func(*bytes.Buffer, []models.NoteMeta) error
		want  string
	}{
		{"sources", func(b *bytes.Buffer, n []models.NoteMeta) error { return Sources(b, n) },
			"# Source notes\n\n2 notes have no incoming links, but at least one outgoing link\n\n- [[A]]\n- [[20201012145848]] Bee\n"},
		{"sinks", func(b *bytes.Buffer, n []models.NoteMeta) error { return Sinks(b, n) },
			"# Sink notes\n\n2 notes have no outgoing links, but at least one incoming link\n\n- [[A]]\n- [[20201012145848]] Bee\n"},
		{"isolated", func(b *bytes.Buffer, n []models.NoteMeta) error { return Isolated(b, n) },
			"# Isolated notes\n\n2 notes have no incoming or outgoing links\n\n- [[A]]\n- [[20201012145848]] Bee\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := tc.print(&buf, []models.NoteMeta{noteA, noteB}); err != nil {
				t.Fatal(err)
			}
			if buf.String() != tc.want {
				t.Errorf("got %q, want %q", buf.String(), tc.want)
			}
		})
	}
}

func TestBrokenLinks(t *testing.T) {
	var buf bytes.Buffer
	err := BrokenLinks(&buf, []note.BrokenLink{
		{Link: models.FileNameLink("Nowhere"), Sources: []models.NoteMeta{noteA, noteB}},
		{Link: models.IDLink("20000101000000"), Sources: []models.NoteMeta{noteA}},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := "# Broken links\n\n" +
		"- \"[[A]] and [[20201012145848]] Bee\" links to unknown [[Nowhere]]\n" +
		"- \"[[A]]\" links to unknown [[20000101000000]]\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestBacklinkSummaries(t *testing.T) {
	var buf bytes.Buffer
	_ = RemovedBacklinks(&buf, []models.NoteMeta{noteA})
	_ = UpdatedBacklinks(&buf, []models.NoteMeta{noteA, noteB})
	want := "Removed backlinks section from 1 notes\n" +
		"Updated backlinks section in 2 notes\n- [[A]]\n- [[20201012145848]] Bee\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestRenamed(t *testing.T) {
	var buf bytes.Buffer
	_ = Renamed(&buf, "old.md", "New.md", []models.NoteMeta{noteA})
	want := "Renamed \"old.md\" to \"New.md\", updated links in 1 notes\n- [[A]]\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}
