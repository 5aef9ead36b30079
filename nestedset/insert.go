package nestedset

import "github.com/google/uuid"

// LeafWidth is the boundary span of a freshly created node; every node enters
// the forest as a leaf.
const LeafWidth = 2

// InsertPlan describes where a new width-2 leaf lands and the gap that must
// be opened for it. Before the leaf is written, every boundary in Partition
// strictly greater than GapAfter moves by GapDelta, applied independently to
// the left and right fields with the same predicate.
type InsertPlan struct {
	Partition int64
	Parent    uuid.UUID
	Depth     int64
	Left      int64
	Right     int64
	GapAfter  int64
	GapDelta  int64
}

// PlanInsert computes the placement of a new leaf relative to target.
//
// Taking last-child as the worked example: the anchor is target.right - 1, so
// opening the gap shifts target.right (and everything beyond) up by 2, and
// the leaf occupies [target.right, target.right+1] using the boundary values
// from before the shift:
//
//	     1 (t) 6                 1 (t) 8
//	      /   \       ==>       /   |   \
//	2 (a) 3  4 (b) 5      2 (a) 3 4 (b) 5 6 (new) 7
//
// Sibling placements relative to a partition root fail with ErrRootSibling;
// they denote the creation of a new single-node partition, which needs no
// arithmetic here.
func PlanInsert(target *Node, p Position) (InsertPlan, error) {
	space, depth, parent, err := anchor(target, p)
	if err != nil {
		return InsertPlan{}, err
	}
	return InsertPlan{
		Partition: target.Partition,
		Parent:    parent,
		Depth:     depth,
		Left:      space + 1,
		Right:     space + LeafWidth,
		GapAfter:  space,
		GapDelta:  LeafWidth,
	}, nil
}
