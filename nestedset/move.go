package nestedset

import (
	"fmt"

	"github.com/google/uuid"
)

// MovePlan describes a structural move confined to one partition.
//
// The subtree's own rows, identified by Left in [OldLeft, OldRight], shift
// uniformly by SubtreeDelta on both boundary fields and by DepthDelta on
// depth. Every other boundary in [GapFirst, GapLast] shifts by GapDelta,
// which always carries the inverse sign of SubtreeDelta: the in-between
// region slides the opposite way to fill the vacated span and open the
// destination. Both spans are expressed in pre-move boundary values.
type MovePlan struct {
	Parent       uuid.UUID
	NewLeft      int64
	NewRight     int64
	OldLeft      int64
	OldRight     int64
	SubtreeDelta int64
	DepthDelta   int64
	GapFirst     int64
	GapLast      int64
	GapDelta     int64
}

// NoOp reports whether the move leaves every row where it already is.
func (p MovePlan) NoOp() bool {
	return p.SubtreeDelta == 0 && p.DepthDelta == 0
}

// PlanMove computes the relocation of node relative to target within their
// shared partition.
//
// The destination bounds depend on whether the target boundary used as the
// anchor sits above or below the subtree being moved. The branch test uses
// boundaries from before any shift: when the subtree currently sits before
// the anchor, its own extraction pulls the anchor down by the subtree width,
// and the formula compensates by placing the subtree width lower. The two
// branches are not interchangeable; the overlap between the vacated span and
// the opened span differs case by case.
//
// Moving f to be the first child of a illustrates the leftward case, with the
// in-between region [3,10] sliding up by the width 2:
//
//	              1 root 14                             1 root 14
//	             /         \                           /         \
//	       2 (a) 7       8 (b) 13        ==>     2 (a) 9       10 (b) 13
//	        /   \          /   \                 /   |   \           \
//	  3 (c) 4  5 (d) 6  9 (e) 10  11 (f) 12  3 (f) 4 5 (c) 6 7 (d) 8  11 (e) 12
func PlanMove(node, target *Node, p Position) (MovePlan, error) {
	if node.Partition != target.Partition {
		return MovePlan{}, fmt.Errorf(
			"%w: node is in %d, target in %d",
			ErrSamePartitionRequired, node.Partition, target.Partition)
	}
	if node.ID == target.ID || node.IsAncestorOf(target) {
		return MovePlan{}, fmt.Errorf("%w: %s into %s", ErrCyclicMove, node.ID, target.ID)
	}

	width := node.Width()

	var newLeft, newRight, depthDelta int64
	var parent uuid.UUID

	switch p {
	case LastChild:
		if target.Right > node.Right {
			newLeft = target.Right - width
			newRight = target.Right - 1
		} else {
			newLeft = target.Right
			newRight = target.Right + width - 1
		}
		depthDelta = target.Depth + 1 - node.Depth
		parent = target.ID
	case FirstChild:
		if target.Left > node.Left {
			newLeft = target.Left - width + 1
			newRight = target.Left
		} else {
			newLeft = target.Left + 1
			newRight = target.Left + width
		}
		depthDelta = target.Depth + 1 - node.Depth
		parent = target.ID
	case LeftSibling:
		if target.IsRoot() {
			return MovePlan{}, fmt.Errorf("%w: target %s", ErrRootSibling, target.ID)
		}
		if target.Left > node.Left {
			newLeft = target.Left - width
			newRight = target.Left - 1
		} else {
			newLeft = target.Left
			newRight = target.Left + width - 1
		}
		depthDelta = target.Depth - node.Depth
		parent = target.Parent
	case RightSibling:
		if target.IsRoot() {
			return MovePlan{}, fmt.Errorf("%w: target %s", ErrRootSibling, target.ID)
		}
		if target.Right > node.Right {
			newLeft = target.Right - width + 1
			newRight = target.Right
		} else {
			newLeft = target.Right + 1
			newRight = target.Right + width
		}
		depthDelta = target.Depth - node.Depth
		parent = target.Parent
	default:
		return MovePlan{}, fmt.Errorf("%w: %s", ErrInvalidPosition, p)
	}

	plan := MovePlan{
		Parent:       parent,
		NewLeft:      newLeft,
		NewRight:     newRight,
		OldLeft:      node.Left,
		OldRight:     node.Right,
		SubtreeDelta: newLeft - node.Left,
		DepthDelta:   depthDelta,
	}

	// The affected range is [min(oldLeft,newLeft), max(oldRight,newRight)].
	// Its non-subtree members all sit on one side of the old span, because
	// nesting forbids foreign boundaries inside [oldLeft, oldRight].
	switch {
	case plan.SubtreeDelta < 0:
		plan.GapFirst = newLeft
		plan.GapLast = node.Left - 1
		plan.GapDelta = width
	case plan.SubtreeDelta > 0:
		plan.GapFirst = node.Right + 1
		plan.GapLast = newRight
		plan.GapDelta = -width
	}

	return plan, nil
}
