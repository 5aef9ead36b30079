package nestedset

import "fmt"

// ExtractPlan describes demotion of a subtree to the root of a fresh
// partition. The subtree's rows, identified by Left in [OldLeft, OldRight]
// in the source partition, are rebased so the demoted node lands at left 1
// and depth 0, and are assigned the freshly allocated partition. The vacated
// span is then closed: every boundary in the source partition greater than
// GapAfter moves by GapDelta, applied to left and right fields with the same
// predicate, mirroring the close used for deletion.
type ExtractPlan struct {
	OldLeft      int64
	OldRight     int64
	NewLeft      int64
	NewRight     int64
	SubtreeDelta int64
	DepthDelta   int64
	GapAfter     int64
	GapDelta     int64
}

// PlanExtract computes the demotion of node. Fails with ErrAlreadyRoot when
// the node has no parent. Partition allocation is the store's concern; the
// plan only carries the rebase and the gap close.
func PlanExtract(node *Node) (ExtractPlan, error) {
	if node.IsRoot() {
		return ExtractPlan{}, fmt.Errorf("%w: %s", ErrAlreadyRoot, node.ID)
	}
	width := node.Width()
	return ExtractPlan{
		OldLeft:      node.Left,
		OldRight:     node.Right,
		NewLeft:      1,
		NewRight:     width,
		SubtreeDelta: -(node.Left - 1),
		DepthDelta:   -node.Depth,
		GapAfter:     node.Right,
		GapDelta:     -width,
	}, nil
}
