// Package storage defines the note directory file-system abstraction.
package storage

// Provider is the interface for note file operations. All paths are
// slash-separated and relative to the note directory root.
type Provider interface {
	// List returns every file with the given extension under the root,
	// skipping hidden files and directories.
	List(extension string) ([]string, error)
	// Read returns the text of the file at path. Content that is not valid
	// UTF-8 yields an error wrapping apperr.ErrUndecodable.
	Read(path string) (string, error)
	// Write atomically replaces the file at path. The stored text always
	// ends with exactly one newline.
	Write(path, content string) error
	// Move renames oldPath to newPath without overwriting another file.
	Move(oldPath, newPath string) error
}
