package nestedset

import "errors"

var (
	ErrCyclicMove            = errors.New("the move target is the node itself or one of its own descendants")
	ErrAlreadyRoot           = errors.New("the node has no parent to remove")
	ErrSamePartitionRequired = errors.New("the partition arrangement does not match the move formula")
	ErrRootSibling           = errors.New("a sibling of a partition root is a root of its own partition")
	ErrInvalidPosition       = errors.New("unrecognised placement position")
)
