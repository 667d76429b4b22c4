package history

import "errors"

var (
	// ErrNotFound is returned when no entry exists at a sequence.
	ErrNotFound = errors.New("history: entry not found")

	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("history: store is closed")
)
