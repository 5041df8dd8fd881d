package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	// ErrUndecodable is returned for note files that are not valid UTF-8.
	ErrUndecodable = errors.New("undecodable content")
)
