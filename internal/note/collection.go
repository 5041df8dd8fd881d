package note

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/starford/noteexplorer/internal/apperr"
	"github.com/starford/noteexplorer/internal/checksum"
	"github.com/starford/noteexplorer/internal/models"
	"github.com/starford/noteexplorer/internal/parser"
	"github.com/starford/noteexplorer/internal/storage"
)

// Collection is the link graph of one note directory.
//
// Notes live in an arena; both indexes refer to arena slots, so replacing a
// note after a rename or rewrite touches one slot plus the affected keys.
// A nil slot belongs to a note that was dropped from the index.
type Collection struct {
	store  storage.Provider
	parser *parser.NoteParser
	logger *slog.Logger

	arena []*Note
	// One FileName key per note, plus an Id key for notes with an id.
	notes map[models.LinkKey]int
	// Link target → notes linking to it.
	backlinks map[models.LinkKey]*incoming
}

type incoming struct {
	// Spelling of the first reference seen, used when reporting.
	link    models.WikiLink
	sources []int
}

// BrokenLink is a link target without a note, with the notes referring to it.
type BrokenLink struct {
	Link    models.WikiLink
	Sources []models.NoteMeta
}

// NoteTasks pairs a note with its open tasks.
type NoteTasks struct {
	Note  models.NoteMeta
	Tasks []string
}

// FilenameMismatch pairs a note with the file stem its id and title call for.
type FilenameMismatch struct {
	Note models.NoteMeta
	Stem string
}

// Record is the full per-note view used for exports.
type Record struct {
	Meta     models.NoteMeta
	Checksum string
	Links    []models.WikiLink
	Tasks    []string
}

// Collect loads every note with the given extension from store and indexes
// it. Files that cannot be read or decoded are logged and skipped.
func Collect(store storage.Provider, extension string, p *parser.NoteParser, logger *slog.Logger) (*Collection, error) {
	paths, err := store.List(extension)
	if err != nil {
		return nil, fmt.Errorf("note: collect: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Collection{
		store:     store,
		parser:    p,
		logger:    logger,
		notes:     make(map[models.LinkKey]int, len(paths)),
		backlinks: make(map[models.LinkKey]*incoming),
	}
	for _, path := range paths {
		content, err := store.Read(path)
		if err != nil {
			logger.Warn("note: skipping unreadable file", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		c.add(New(models.NewNoteFile(path, content), p))
	}

	logger.Debug("note: collection built",
		slog.Int("files", len(paths)),
		slog.Int("notes", c.Count()),
		slog.Int("links", c.CountLinks()))
	return c, nil
}

func (c *Collection) add(n *Note) {
	slot := len(c.arena)
	c.arena = append(c.arena, n)

	fk := n.FileNameLink().Key()
	if prev, ok := c.notes[fk]; ok {
		c.logger.Warn("note: file name used twice, keeping the later file",
			slog.String("path", n.file.Path),
			slog.String("dropped", c.arena[prev].file.Path))
		c.drop(prev)
	}
	c.notes[fk] = slot

	if n.id != "" {
		ik := models.IDLink(n.id).Key()
		if prev, ok := c.notes[ik]; ok {
			c.logger.Warn("note: id used in two notes, keeping the later note",
				slog.String("id", n.id),
				slog.String("path", n.file.Path),
				slog.String("other", c.arena[prev].file.Path))
		}
		c.notes[ik] = slot
	}

	c.indexLinks(slot)
}

func (c *Collection) drop(slot int) {
	c.unindexLinks(slot)
	c.unindexIdentity(slot)
	c.arena[slot] = nil
}

// replace swaps in a rebuilt note. The slot keeps the keys it owned; an id
// key held by another note is not taken over.
func (c *Collection) replace(slot int, n *Note) {
	old := c.arena[slot]
	ownedID := old.id != "" && c.owns(models.IDLink(old.id), slot)

	c.unindexLinks(slot)
	c.unindexIdentity(slot)
	c.arena[slot] = n

	c.notes[n.FileNameLink().Key()] = slot
	if n.id != "" {
		ik := models.IDLink(n.id).Key()
		if _, taken := c.notes[ik]; ownedID || !taken {
			c.notes[ik] = slot
		}
	}
	c.indexLinks(slot)
}

func (c *Collection) owns(link models.WikiLink, slot int) bool {
	s, ok := c.notes[link.Key()]
	return ok && s == slot
}

func (c *Collection) unindexIdentity(slot int) {
	n := c.arena[slot]
	if c.owns(n.FileNameLink(), slot) {
		delete(c.notes, n.FileNameLink().Key())
	}
	if n.id != "" && c.owns(models.IDLink(n.id), slot) {
		delete(c.notes, models.IDLink(n.id).Key())
	}
}

func (c *Collection) indexLinks(slot int) {
	for _, l := range c.arena[slot].links {
		k := l.Key()
		e, ok := c.backlinks[k]
		if !ok {
			e = &incoming{link: l}
			c.backlinks[k] = e
		}
		e.sources = append(e.sources, slot)
	}
}

func (c *Collection) unindexLinks(slot int) {
	for _, l := range c.arena[slot].links {
		k := l.Key()
		e, ok := c.backlinks[k]
		if !ok {
			continue
		}
		e.sources = slices.DeleteFunc(e.sources, func(s int) bool { return s == slot })
		if len(e.sources) == 0 {
			delete(c.backlinks, k)
		}
	}
}

// sorted returns the slots of all indexed notes ordered by title, then stem.
func (c *Collection) sorted() []int {
	slots := make([]int, 0, len(c.arena))
	for i, n := range c.arena {
		if n != nil {
			slots = append(slots, i)
		}
	}
	sort.Slice(slots, func(i, j int) bool {
		return less(c.arena[slots[i]], c.arena[slots[j]])
	})
	return slots
}

func (c *Collection) hasIncomingLinks(n *Note) bool {
	if _, ok := c.backlinks[n.FileNameLink().Key()]; ok {
		return true
	}
	if n.id != "" {
		if _, ok := c.backlinks[models.IDLink(n.id).Key()]; ok {
			return true
		}
	}
	return false
}

// incomingNotes returns the notes linking to n, by file name or id. A note
// linking both ways appears twice.
func (c *Collection) incomingNotes(n *Note) []*Note {
	var out []*Note
	if e, ok := c.backlinks[n.FileNameLink().Key()]; ok {
		for _, s := range e.sources {
			out = append(out, c.arena[s])
		}
	}
	if n.id != "" {
		if e, ok := c.backlinks[models.IDLink(n.id).Key()]; ok {
			for _, s := range e.sources {
				out = append(out, c.arena[s])
			}
		}
	}
	return out
}

func (c *Collection) filter(keep func(*Note) bool) []models.NoteMeta {
	var out []models.NoteMeta
	for _, slot := range c.sorted() {
		if n := c.arena[slot]; keep(n) {
			out = append(out, n.Meta())
		}
	}
	return out
}

// Count returns the number of notes.
func (c *Collection) Count() int {
	count := 0
	for _, n := range c.arena {
		if n != nil {
			count++
		}
	}
	return count
}

// CountWithID returns the number of notes with an id.
func (c *Collection) CountWithID() int {
	count := 0
	for _, n := range c.arena {
		if n != nil && n.id != "" {
			count++
		}
	}
	return count
}

// CountLinks returns the number of distinct link targets.
func (c *Collection) CountLinks() int {
	return len(c.backlinks)
}

// Metas returns all notes.
func (c *Collection) Metas() []models.NoteMeta {
	return c.filter(func(*Note) bool { return true })
}

// Lookup returns the note addressed by link.
func (c *Collection) Lookup(link models.WikiLink) (models.NoteMeta, bool) {
	slot, ok := c.notes[link.Key()]
	if !ok {
		return models.NoteMeta{}, false
	}
	return c.arena[slot].Meta(), true
}

// Sources returns notes with outgoing links but no incoming ones.
func (c *Collection) Sources() []models.NoteMeta {
	return c.filter(func(n *Note) bool {
		return len(n.links) > 0 && !c.hasIncomingLinks(n)
	})
}

// Sinks returns notes with incoming links but no outgoing ones.
func (c *Collection) Sinks() []models.NoteMeta {
	return c.filter(func(n *Note) bool {
		return len(n.links) == 0 && c.hasIncomingLinks(n)
	})
}

// Isolated returns notes with neither incoming nor outgoing links.
func (c *Collection) Isolated() []models.NoteMeta {
	return c.filter(func(n *Note) bool {
		return len(n.links) == 0 && !c.hasIncomingLinks(n)
	})
}

// BrokenLinks returns every link target that no note answers to.
func (c *Collection) BrokenLinks() []BrokenLink {
	var out []BrokenLink
	for k, e := range c.backlinks {
		if _, ok := c.notes[k]; ok {
			continue
		}
		sources := make([]*Note, 0, len(e.sources))
		for _, s := range e.sources {
			sources = append(sources, c.arena[s])
		}
		sort.Slice(sources, func(i, j int) bool { return less(sources[i], sources[j]) })
		metas := make([]models.NoteMeta, len(sources))
		for i, n := range sources {
			metas[i] = n.Meta()
		}
		out = append(out, BrokenLink{Link: e.link, Sources: metas})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Link, out[j].Link
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return models.Fold(a.Target) < models.Fold(b.Target)
	})
	return out
}

// Tasks returns the notes with open tasks.
func (c *Collection) Tasks() []NoteTasks {
	var out []NoteTasks
	for _, slot := range c.sorted() {
		n := c.arena[slot]
		if len(n.tasks) > 0 {
			out = append(out, NoteTasks{Note: n.Meta(), Tasks: n.tasks})
		}
	}
	return out
}

// MismatchedFilenames returns the notes whose file stem differs from
// "<id> <title>" (or just the title), cleaned for use as a file name.
func (c *Collection) MismatchedFilenames() []FilenameMismatch {
	var out []FilenameMismatch
	for _, slot := range c.sorted() {
		n := c.arena[slot]
		stem := canonicalStem(n.id, n.title)
		if stem == "" || models.Fold(stem) == models.Fold(n.file.Stem) {
			continue
		}
		out = append(out, FilenameMismatch{Note: n.Meta(), Stem: stem})
	}
	return out
}

// Records returns every note with its checksum, links and tasks.
func (c *Collection) Records() []Record {
	slots := c.sorted()
	out := make([]Record, 0, len(slots))
	for _, slot := range slots {
		n := c.arena[slot]
		out = append(out, Record{
			Meta:     n.Meta(),
			Checksum: checksum.Sum(n.file.Content),
			Links:    n.links,
			Tasks:    n.tasks,
		})
	}
	return out
}

// save writes content to the note in slot and rebuilds it. Failures are
// logged and reported as false.
func (c *Collection) save(slot int, content string) bool {
	n := c.arena[slot]
	if err := c.store.Write(n.file.Path, content); err != nil {
		c.logger.Error("note: save failed", slog.String("path", n.file.Path), slog.String("error", err.Error()))
		return false
	}
	c.replace(slot, New(n.file.WithContent(storage.Normalize(content)), c.parser))
	return true
}

// RemoveBacklinks strips the backlinks section from every note that has one
// and returns the notes changed.
func (c *Collection) RemoveBacklinks() []models.NoteMeta {
	var changed []models.NoteMeta
	for _, slot := range c.sorted() {
		n := c.arena[slot]
		if !n.HasBacklinks() {
			continue
		}
		if c.save(slot, n.ContentsWithoutBacklinks()) {
			changed = append(changed, c.arena[slot].Meta())
		}
	}
	return changed
}

// UpdateBacklinks rewrites the backlinks section of every note whose section
// does not list exactly the notes linking to it, and returns the notes
// changed. Running it twice in a row changes nothing the second time.
func (c *Collection) UpdateBacklinks() []models.NoteMeta {
	heading := c.parser.BacklinksHeading()
	var changed []models.NoteMeta
	for _, slot := range c.sorted() {
		n := c.arena[slot]

		sources := c.incomingNotes(n)
		sort.SliceStable(sources, func(i, j int) bool { return less(sources[i], sources[j]) })
		lines := make([]string, 0, len(sources))
		for _, src := range sources {
			lines = append(lines, "- "+src.WikiLinkTo())
		}
		body := strings.Join(slices.Compact(lines), "\n")

		if body == n.BacklinksBody() {
			continue
		}

		var content string
		if body == "" {
			content = n.ContentsWithoutBacklinks()
		} else {
			content = n.ContentsWithNewBacklinks(heading, body)
		}
		if c.save(slot, content) {
			changed = append(changed, c.arena[slot].Meta())
		}
	}
	return changed
}

// RenameNote renames the file of note to newStem and rewrites every
// file-name link to it in other notes. Id links are left alone. It returns
// the notes whose content was rewritten.
func (c *Collection) RenameNote(note models.NoteMeta, newStem string) ([]models.NoteMeta, error) {
	slot, ok := c.notes[models.FileNameLink(note.Stem).Key()]
	if !ok || c.arena[slot].file.Path != note.Path {
		return nil, fmt.Errorf("note: rename %s: %w", note.Path, apperr.ErrNotFound)
	}
	if strings.TrimSpace(newStem) == "" {
		return nil, fmt.Errorf("note: rename %s: empty file name", note.Path)
	}
	n := c.arena[slot]
	oldStem := n.file.Stem
	if newStem == oldStem {
		return nil, nil
	}
	if other, ok := c.notes[models.FileNameLink(newStem).Key()]; ok && other != slot {
		return nil, fmt.Errorf("note: rename %s to %q: %w", note.Path, newStem, apperr.ErrAlreadyExists)
	}

	file, err := n.Rename(c.store, newStem)
	if err != nil {
		return nil, err
	}
	c.replace(slot, New(file, c.parser))
	c.logger.Info("note: renamed", slog.String("from", note.Path), slog.String("to", file.Path))

	// The note itself is included: links it had to itself under the old
	// name would otherwise turn into broken links.
	targets := []int{slot}
	if e, ok := c.backlinks[models.FileNameLink(oldStem).Key()]; ok {
		for _, s := range e.sources {
			if s != slot {
				targets = append(targets, s)
			}
		}
	}

	var changed []models.NoteMeta
	for _, s := range targets {
		src := c.arena[s]
		content, count := c.parser.ReplaceFileNameLinks(src.file.Content, oldStem, newStem)
		if count == 0 {
			continue
		}
		if c.save(s, content) {
			changed = append(changed, c.arena[s].Meta())
		}
	}
	return changed, nil
}
