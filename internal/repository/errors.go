package repository

import "errors"

var (
	// ErrNotFound is returned when a lookup matches no row or document.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a conditional write matched nothing.
	ErrConflict = errors.New("record was modified concurrently")
)
