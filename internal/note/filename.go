package note

import (
	"regexp"
	"strings"
)

var (
	// Replaced with a space: illegal on at least one common file system.
	illegalFileChars = regexp.MustCompile(`[<>:*?|/"\\\x00-\x1f\x7f]`)
	surroundingDots  = regexp.MustCompile(`\A\.|\.\z`)
	spaceRuns        = regexp.MustCompile(` +`)
)

// CleanFilename turns name into a portable file stem: illegal characters
// become spaces, a leading or trailing dot is removed and runs of spaces are
// collapsed.
func CleanFilename(name string) string {
	s := illegalFileChars.ReplaceAllString(name, " ")
	s = surroundingDots.ReplaceAllString(s, "")
	s = spaceRuns.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// canonicalStem is the file stem a note should have given its id and title.
func canonicalStem(id, title string) string {
	if id != "" {
		return CleanFilename(id + " " + title)
	}
	return CleanFilename(title)
}
