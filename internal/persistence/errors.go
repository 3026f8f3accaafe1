package persistence

import "errors"

var (
	// ErrNotFound is returned when no document exists under the requested key.
	ErrNotFound = errors.New("persistence: not found")
	// ErrStorage is returned when a document could not be durably written.
	ErrStorage = errors.New("persistence: storage failure")
)
