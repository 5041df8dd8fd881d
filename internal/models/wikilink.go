package models

import "golang.org/x/text/cases"

// LinkKind tells how a wikilink identifies its target.
type LinkKind uint8

const (
	LinkFileName LinkKind = iota
	LinkID
)

func (k LinkKind) String() string {
	if k == LinkID {
		return "id"
	}
	return "filename"
}

// WikiLink is a reference to a note, either by id or by file stem. Target keeps
// the original spelling for display; identity is case-insensitive (see Key).
type WikiLink struct {
	Kind   LinkKind
	Target string
}

// IDLink returns a link addressing a note by id.
func IDLink(id string) WikiLink { return WikiLink{Kind: LinkID, Target: id} }

// FileNameLink returns a link addressing a note by file stem.
func FileNameLink(stem string) WikiLink { return WikiLink{Kind: LinkFileName, Target: stem} }

// LinkKey is the comparable identity of a WikiLink, used as map key.
type LinkKey struct {
	kind   LinkKind
	folded string
}

// Key returns the case-folded identity of l.
func (l WikiLink) Key() LinkKey {
	return LinkKey{kind: l.Kind, folded: Fold(l.Target)}
}

// Equal reports whether l and o address the same note. Links of different
// kinds are never equal.
func (l WikiLink) Equal(o WikiLink) bool {
	return l.Key() == o.Key()
}

func (l WikiLink) String() string {
	return "[[" + l.Target + "]]"
}

// Fold returns s under Unicode full case folding.
func Fold(s string) string {
	// Casers carry state, so each call gets its own.
	return cases.Fold().String(s)
}
