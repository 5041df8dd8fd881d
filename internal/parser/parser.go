// Package parser extracts titles, ids, wikilinks, tasks and the backlinks
// section from note text in a single forward pass over its lines.
package parser

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/starford/noteexplorer/internal/models"
)

// Characters that cannot be part of a wikilink target.
const linkChars = `[^<>:*?/\]\["\\\t]`

var (
	yamlTitleRe = regexp.MustCompile(`\A\s*['"]?title['"]?\s*: \s*['"]?([^'"]+)['"]?\z`)
	// [[label|target#section]], where label and section are optional.
	wikilinkRe     = regexp.MustCompile(`\[\[([^\[\]]+\|)?(` + linkChars + `+?)(#[^\[\]]+)?\]\]`)
	taskRe         = regexp.MustCompile(`\A\s*[-+*]\s+\[ \]\s+(.+?)\z`)
	backlinkItemRe = regexp.MustCompile(`\A[-+*]`)
	indentedListRe = regexp.MustCompile(`\A\s+[-+*]\s.+\z`)
)

var codeFences = []string{"```", "~~~"}

const bom = "\ufeff"

type state int

const (
	stateInitial state = iota
	stateYAML
	stateRegular
	stateCodeBlock
	stateBackLinks
)

// Region is a byte range [Start, End) of the parsed text.
type Region struct {
	Start int
	End   int
}

// NoteData is the raw result of parsing one note.
type NoteData struct {
	Titles []string
	IDs    []string
	// Links in document order; duplicates are kept.
	Links []models.WikiLink
	Tasks []string
	// Backlinks is nil when the text has no backlinks section. The region
	// starts at the heading line and ends where the bullet list ends.
	Backlinks *Region
	// Unclosed is the line that would close a code fence or front matter
	// block still open at the end of the text, or "".
	Unclosed string
}

// NoteParser holds the compiled configuration shared by all notes of a collection.
type NoteParser struct {
	idRe             *regexp.Regexp
	backlinksHeading string
}

// New compiles idPattern, anchored so that ids only match as whole
// whitespace-delimited tokens. backlinksHeading is matched literally.
func New(idPattern, backlinksHeading string) (*NoteParser, error) {
	re, err := regexp.Compile(`(?:\A|\s)(` + idPattern + `)(?:\z|\b)`)
	if err != nil {
		return nil, fmt.Errorf("parser: compile id pattern %q: %w", idPattern, err)
	}
	return &NoteParser{
		idRe:             re,
		backlinksHeading: backlinksHeading,
	}, nil
}

// BacklinksHeading returns the exact heading line of backlinks sections.
func (p *NoteParser) BacklinksHeading() string { return p.backlinksHeading }

// Parse never fails; text it cannot make sense of simply yields less data.
func (p *NoteParser) Parse(text string) NoteData {
	var data NoteData

	offset := 0
	if strings.HasPrefix(text, bom) {
		offset = len(bom)
	}

	st := stateInitial
	var fence string

	start, end, ok := nextLine(text, offset)
	for ok {
		ln := text[start:end]

		switch st {
		case stateInitial:
			if strings.HasPrefix(ln, "---") {
				st = stateYAML
			} else {
				st = stateRegular
				continue
			}

		case stateYAML:
			switch {
			case strings.HasPrefix(ln, "---"), strings.HasPrefix(ln, "..."):
				st = stateRegular
			case ln[0] == '#':
				// comment
			default:
				if len(ln) > 7 {
					if m := yamlTitleRe.FindStringSubmatch(ln); m != nil {
						if title := strings.TrimSpace(m[1]); title != "" {
							data.Titles = append(data.Titles, title)
						}
					}
				}
				p.scanIDsAndLinks(ln, &data)
			}

		case stateRegular:
			switch {
			case ln == p.backlinksHeading:
				data.Backlinks = &Region{Start: start, End: len(text)}
				st = stateBackLinks
			case len(ln) > 2 && ln[0] == '#' && ln[1] == ' ':
				title := trimTitle(stripHeadingAttributes(ln[2:]))
				if title != "" {
					data.Titles = append(data.Titles, title)
				}
				p.scanIDsAndLinks(ln, &data)
			case (ln[0] == '\t' || strings.HasPrefix(ln, "    ")) && !indentedListRe.MatchString(ln):
				// indented code
			case isFence(ln):
				fence = ln[:3]
				st = stateCodeBlock
			default:
				p.scanIDsAndLinks(ln, &data)
				if m := taskRe.FindStringSubmatch(ln); m != nil {
					data.Tasks = append(data.Tasks, m[1])
				}
			}

		case stateCodeBlock:
			if strings.HasPrefix(ln, fence) {
				st = stateRegular
			}

		case stateBackLinks:
			if !backlinkItemRe.MatchString(ln) {
				data.Backlinks.End = start
				st = stateRegular
				continue
			}
		}

		start, end, ok = nextLine(text, end)
	}

	switch st {
	case stateYAML:
		data.Unclosed = "---"
	case stateCodeBlock:
		data.Unclosed = fence
	}
	return data
}

func (p *NoteParser) scanIDsAndLinks(ln string, data *NoteData) {
	if id, ok := p.FindID(ln); ok {
		data.IDs = append(data.IDs, id)
	}
	if len(ln) > 4 && strings.Contains(ln, "[[") {
		data.Links = append(data.Links, p.WikiLinks(ln)...)
	}
}

// FindID returns the first id in text.
func (p *NoteParser) FindID(text string) (string, bool) {
	m := p.idRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// IsID reports whether text contains an id.
func (p *NoteParser) IsID(text string) bool {
	return p.idRe.MatchString(text)
}

// RemoveID removes the first id in text and trims the result.
func (p *NoteParser) RemoveID(text string) string {
	loc := p.idRe.FindStringIndex(text)
	if loc == nil {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(text[:loc[0]] + text[loc[1]:])
}

// WikiLinks returns the links in text, in order. Targets that look like ids
// become id links; targets starting or ending with a space or dot are dropped.
func (p *NoteParser) WikiLinks(text string) []models.WikiLink {
	var links []models.WikiLink
	for _, m := range wikilinkRe.FindAllStringSubmatch(text, -1) {
		target := m[2]
		switch {
		case p.IsID(target):
			links = append(links, models.IDLink(target))
		case !BeginsOrEndsWithDotOrSpace(target):
			links = append(links, models.FileNameLink(target))
		}
	}
	return links
}

// ReplaceFileNameLinks rewrites every wikilink in text whose target equals
// oldStem (case-insensitively) to point at newStem. Label and section parts
// are kept. It returns the rewritten text and the number of links changed.
func (p *NoteParser) ReplaceFileNameLinks(text, oldStem, newStem string) (string, int) {
	old := models.FileNameLink(oldStem).Key()
	n := 0
	out := wikilinkRe.ReplaceAllStringFunc(text, func(raw string) string {
		m := wikilinkRe.FindStringSubmatch(raw)
		if m == nil || p.IsID(m[2]) || models.FileNameLink(m[2]).Key() != old {
			return raw
		}
		n++
		return "[[" + m[1] + newStem + m[3] + "]]"
	})
	return out, n
}

// BeginsOrEndsWithDotOrSpace reports whether s has a leading or trailing dot or space.
func BeginsOrEndsWithDotOrSpace(s string) bool {
	if s == "" {
		return false
	}
	first, last := s[0], s[len(s)-1]
	return first == '.' || first == ' ' || last == '.' || last == ' '
}

// stripHeadingAttributes removes a trailing Pandoc attribute block ("{#id .class}").
func stripHeadingAttributes(text string) string {
	if text != "" && text[len(text)-1] == '}' {
		if i := strings.LastIndexByte(text, '{'); i >= 0 {
			return text[:i]
		}
	}
	return text
}

// trimTitle drops surrounding whitespace and closing hashes of an ATX heading.
func trimTitle(s string) string {
	return strings.TrimSpace(strings.TrimRightFunc(s, func(r rune) bool {
		return r == '#' || unicode.IsSpace(r)
	}))
}

func isFence(ln string) bool {
	for _, f := range codeFences {
		if strings.HasPrefix(ln, f) {
			return true
		}
	}
	return false
}

// nextLine finds the first non-empty line at or after offset and returns its
// byte bounds, excluding the line terminator. Both "\r" and "\n" end a line.
func nextLine(text string, offset int) (start, end int, ok bool) {
	start = offset
	for start < len(text) && (text[start] == '\n' || text[start] == '\r') {
		start++
	}
	if start >= len(text) {
		return 0, 0, false
	}
	if i := strings.IndexAny(text[start:], "\r\n"); i >= 0 {
		return start, start + i, true
	}
	return start, len(text), true
}
