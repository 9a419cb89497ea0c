package repository

import "errors"

// Sentinel kinds for store errors.
var (
	// ErrNotFound marks an id absent from its source set.
	ErrNotFound = errors.New("not found")
	// ErrLookup marks a failed read; the store may be unavailable.
	ErrLookup = errors.New("store lookup failed")
	// ErrConflict marks a write the store rejected and rolled back.
	ErrConflict = errors.New("store rejected write")
)
