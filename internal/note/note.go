// Package note builds the link graph of a note directory: notes with their
// resolved identity, the reverse backlink index, and the queries and
// mutations on top of them.
package note

import (
	"fmt"
	"strings"

	"github.com/starford/noteexplorer/internal/models"
	"github.com/starford/noteexplorer/internal/parser"
	"github.com/starford/noteexplorer/internal/storage"
)

// Note is a loaded file plus everything derived from its content. Since the
// derived fields depend on the content and file name, a Note is rebuilt rather
// than patched when either changes.
type Note struct {
	file       models.NoteFile
	title      string
	titleLower string
	id         string
	// Unique by identity, in order of first appearance. Never contains a
	// link to the note itself.
	links     []models.WikiLink
	tasks     []string
	backlinks *parser.Region
	// Closing line of a block left open at the end of the content.
	unclosed string
	parser   *parser.NoteParser
}

// New parses file and resolves its identity. An id in the file name wins over
// ids in the content; a title in the content wins over the file name.
func New(file models.NoteFile, p *parser.NoteParser) *Note {
	data := p.Parse(file.Content)

	id, ok := p.FindID(file.Stem)
	if !ok && len(data.IDs) > 0 {
		id = data.IDs[0]
	}

	var title string
	if len(data.Titles) > 0 {
		title = data.Titles[0]
	} else {
		title = p.RemoveID(file.Stem)
	}

	n := &Note{
		file:       file,
		title:      title,
		titleLower: models.Fold(title),
		id:         id,
		tasks:      data.Tasks,
		backlinks:  data.Backlinks,
		unclosed:   data.Unclosed,
		parser:     p,
	}

	seen := make(map[models.LinkKey]struct{}, len(data.Links))
	for _, l := range data.Links {
		if n.IsLinkTo(l) {
			continue
		}
		k := l.Key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		n.links = append(n.links, l)
	}
	return n
}

// File returns the underlying file.
func (n *Note) File() models.NoteFile { return n.file }

// Title returns the resolved title.
func (n *Note) Title() string { return n.title }

// ID returns the resolved id, or "" when the note has none.
func (n *Note) ID() string { return n.id }

// Links returns the distinct outgoing links.
func (n *Note) Links() []models.WikiLink { return n.links }

// Tasks returns the open tasks in document order.
func (n *Note) Tasks() []string { return n.tasks }

// HasBacklinks reports whether the note contains a backlinks section.
func (n *Note) HasBacklinks() bool { return n.backlinks != nil }

// FileNameLink returns the link addressing the note by file stem.
func (n *Note) FileNameLink() models.WikiLink {
	return models.FileNameLink(n.file.Stem)
}

// IsLinkTo reports whether link addresses this note.
func (n *Note) IsLinkTo(link models.WikiLink) bool {
	switch link.Kind {
	case models.LinkID:
		return n.id != "" && models.IDLink(n.id).Equal(link)
	default:
		return n.FileNameLink().Equal(link)
	}
}

// Meta returns the read-only projection of the note.
func (n *Note) Meta() models.NoteMeta {
	return models.NoteMeta{
		Path:      n.file.Path,
		Stem:      n.file.Stem,
		Extension: n.file.Extension,
		Title:     n.title,
		ID:        n.id,
	}
}

// WikiLinkTo renders a wikilink pointing at this note.
func (n *Note) WikiLinkTo() string {
	return models.FormatWikiLink(n.id, n.title, n.file.Stem)
}

// ContentsWithoutBacklinks returns the content with the backlinks section cut out.
func (n *Note) ContentsWithoutBacklinks() string {
	if n.backlinks == nil {
		return n.file.Content
	}
	c := n.file.Content
	return c[:n.backlinks.Start] + c[n.backlinks.End:]
}

// BacklinksBody returns the trimmed backlinks section without its heading,
// or "" when there is none.
func (n *Note) BacklinksBody() string {
	if n.backlinks == nil {
		return ""
	}
	heading := n.parser.BacklinksHeading()
	return strings.TrimSpace(n.file.Content[n.backlinks.Start+len(heading) : n.backlinks.End])
}

// ContentsWithNewBacklinks returns the content with the backlinks section
// replaced by heading and body, or appended when there was none. A code fence
// or front matter block left open at the end is closed before an appended
// section so that the heading is parsed as one.
func (n *Note) ContentsWithNewBacklinks(heading, body string) string {
	before, after := n.file.Content, ""
	if n.backlinks != nil {
		before = n.file.Content[:n.backlinks.Start]
		after = n.file.Content[n.backlinks.End:]
	}

	parts := make([]string, 0, 4)
	if b := strings.TrimRight(before, " \t\r\n"); b != "" {
		if n.backlinks == nil && n.unclosed != "" {
			b += "\n" + n.unclosed
		}
		parts = append(parts, b)
	}
	parts = append(parts, heading, strings.TrimSpace(body), after)
	return strings.TrimRight(strings.Join(parts, "\n\n"), " \t\r\n")
}

// Rename moves the note file to newStem in the same directory and returns
// the new file. The Note itself is stale afterwards.
func (n *Note) Rename(store storage.Provider, newStem string) (models.NoteFile, error) {
	renamed := n.file.WithStem(newStem)
	if err := store.Move(n.file.Path, renamed.Path); err != nil {
		return models.NoteFile{}, fmt.Errorf("note: rename %s: %w", n.file.Path, err)
	}
	return renamed, nil
}

// less orders notes by case-folded title, then by stem.
func less(a, b *Note) bool {
	if a.titleLower != b.titleLower {
		return a.titleLower < b.titleLower
	}
	return a.file.Stem < b.file.Stem
}
