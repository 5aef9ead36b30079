package nestedset

import (
	"fmt"

	"github.com/google/uuid"
)

// Position selects where a placed subtree lands relative to a target node.
type Position int

const (
	FirstChild Position = iota
	LastChild
	LeftSibling
	RightSibling
)

func (p Position) String() string {
	switch p {
	case FirstChild:
		return "first-child"
	case LastChild:
		return "last-child"
	case LeftSibling:
		return "left-sibling"
	case RightSibling:
		return "right-sibling"
	default:
		return fmt.Sprintf("position(%d)", int(p))
	}
}

// IsSibling reports whether the position places alongside the target rather
// than beneath it.
func (p Position) IsSibling() bool {
	return p == LeftSibling || p == RightSibling
}

// anchor derives the space target for placing a span relative to target: the
// boundary value immediately left of where the placed span begins, using the
// target's boundaries before any gap is opened. The placed span starts at
// anchor+1 once every boundary greater than the anchor has been shifted up by
// the span's width.
//
// Sibling positions relative to a partition root have no anchor; such a
// placement denotes a new root and is reported with ErrRootSibling so callers
// can route it to the demotion path.
func anchor(target *Node, p Position) (space int64, depth int64, parent uuid.UUID, err error) {
	switch p {
	case LastChild:
		return target.Right - 1, target.Depth + 1, target.ID, nil
	case FirstChild:
		return target.Left, target.Depth + 1, target.ID, nil
	case LeftSibling:
		if target.IsRoot() {
			return 0, 0, uuid.Nil, fmt.Errorf("%w: target %s", ErrRootSibling, target.ID)
		}
		return target.Left - 1, target.Depth, target.Parent, nil
	case RightSibling:
		if target.IsRoot() {
			return 0, 0, uuid.Nil, fmt.Errorf("%w: target %s", ErrRootSibling, target.ID)
		}
		return target.Right, target.Depth, target.Parent, nil
	default:
		return 0, 0, uuid.Nil, fmt.Errorf("%w: %s", ErrInvalidPosition, p)
	}
}
