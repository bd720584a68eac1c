package repository

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrUnavailable indicates the backing store could not be reached.
	// Validation paths treat this as failure (fail closed).
	ErrUnavailable = errors.New("repository: store unavailable")
)
