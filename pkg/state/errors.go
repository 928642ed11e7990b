package state

import "errors"

var (
	// ErrInvalidPath is reported for empty paths, paths containing ".."
	// and paths with empty segments.
	ErrInvalidPath = errors.New("rx: invalid state path")

	// ErrCircularUpdate is reported when a write targets a path whose own
	// notification is still running. The write is dropped, never retried.
	ErrCircularUpdate = errors.New("rx: circular update dropped")
)
