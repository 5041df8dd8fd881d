// Package models defines the domain types shared by the parser, the note graph and its consumers.
package models

import (
	"path"
	"strings"
	"unicode"
)

// NoteFile is one loaded note file. It is never modified in place: renames and
// content rewrites produce a new value.
type NoteFile struct {
	// Path is slash-separated and relative to the vault root.
	Path string
	// Stem is the file name without directory and extension.
	Stem string
	// Extension is the file extension without the leading dot.
	Extension string
	Content   string
}

// NewNoteFile derives stem and extension from p.
func NewNoteFile(p, content string) NoteFile {
	base := path.Base(p)
	ext := path.Ext(base)
	return NoteFile{
		Path:      p,
		Stem:      strings.TrimSuffix(base, ext),
		Extension: strings.TrimPrefix(ext, "."),
		Content:   content,
	}
}

// WithStem returns the file as it would be after renaming it to newStem in the same directory.
func (f NoteFile) WithStem(newStem string) NoteFile {
	name := newStem
	if f.Extension != "" {
		name += "." + f.Extension
	}
	dir := path.Dir(f.Path)
	p := name
	if dir != "." {
		p = dir + "/" + name
	}
	return NoteFile{Path: p, Stem: newStem, Extension: f.Extension, Content: f.Content}
}

// WithContent returns a copy of the file holding content.
func (f NoteFile) WithContent(content string) NoteFile {
	f.Content = content
	return f
}

// NoteMeta is the read-only projection of a note handed to callers.
type NoteMeta struct {
	Path      string `json:"path"`
	Stem      string `json:"stem"`
	Extension string `json:"extension"`
	Title     string `json:"title"`
	ID        string `json:"id,omitempty"`
}

// FileName returns the note's file name including the extension.
func (m NoteMeta) FileName() string {
	if m.Extension == "" {
		return m.Stem
	}
	return m.Stem + "." + m.Extension
}

// WikiLinkTo renders a wikilink pointing at the note.
func (m NoteMeta) WikiLinkTo() string {
	return FormatWikiLink(m.ID, m.Title, m.Stem)
}

// FormatWikiLink renders "[[target]] description". The target is the id when
// present, else the file stem. The description is the title, left out when it
// would just repeat the target.
func FormatWikiLink(id, title, stem string) string {
	target := stem
	if id != "" {
		target = id
	}
	desc := title
	if title == target {
		desc = ""
	}
	return strings.TrimRightFunc("[["+target+"]] "+desc, unicode.IsSpace)
}
