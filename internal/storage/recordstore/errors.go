package recordstore

import "errors"

var (
	// ErrNotFound is returned when a key does not exist in the store.
	ErrNotFound = errors.New("record not found")

	// ErrClosed is returned when operating on a closed store.
	ErrClosed = errors.New("record store is closed")
)
