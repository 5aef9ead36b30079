package nestedset

import (
	"fmt"

	"github.com/google/uuid"
)

// GraftPlan describes promotion of a root subtree into a destination
// partition. Before the subtree's rows are carried over, every boundary in
// Partition strictly greater than SpaceAfter is opened by +Width. The
// subtree's rows then shift by SubtreeDelta on both boundary fields, by
// DepthDelta on depth, and take the destination partition.
type GraftPlan struct {
	Partition    int64
	Parent       uuid.UUID
	SpaceAfter   int64
	Width        int64
	NewLeft      int64
	NewRight     int64
	SubtreeDelta int64
	DepthDelta   int64
}

// PlanGraft positions node, a partition root or a subtree already rebased by
// PlanExtract, relative to target in the target's partition. For the
// canonical promotion (attach a root as the last child of parent) the
// placement reduces to new_left = left + parent.right - 1, using the parent's
// boundary from before the space is opened.
//
// A cross-partition move of a non-root node is the composition of
// PlanExtract and PlanGraft: extract rebases the subtree to left 1 / depth 0,
// and the graft places that rebased span. The two deltas sum; no combined
// formula exists on purpose, so the invariant arguments stay compositional.
func PlanGraft(node, target *Node, p Position) (GraftPlan, error) {
	if node.Partition == target.Partition {
		return GraftPlan{}, fmt.Errorf(
			"%w: graft requires distinct partitions, both are %d",
			ErrSamePartitionRequired, node.Partition)
	}
	space, depth, parent, err := anchor(target, p)
	if err != nil {
		return GraftPlan{}, err
	}
	delta := space + 1 - node.Left
	return GraftPlan{
		Partition:    target.Partition,
		Parent:       parent,
		SpaceAfter:   space,
		Width:        node.Width(),
		NewLeft:      node.Left + delta,
		NewRight:     node.Right + delta,
		SubtreeDelta: delta,
		DepthDelta:   depth - node.Depth,
	}, nil
}
