package store

import "errors"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a conditional update matched no rows,
// e.g. claiming an item that is already claimed.
var ErrConflict = errors.New("conflict")
