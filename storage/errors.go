package storage

import (
	"errors"
)

var (
	// ErrNotFound indicates there is no row for the requested node id.
	ErrNotFound = errors.New("no row for that node id")

	// ErrDuplicateID indicates an insert would reuse an existing node id.
	ErrDuplicateID = errors.New("a row with that node id already exists")
)
