package forest

import (
	"errors"
)

var (
	// ErrRetriesExhausted indicates a node kept changing partition while an
	// operation was trying to lock it.
	ErrRetriesExhausted = errors.New("the node kept changing partition during lock acquisition")
)
