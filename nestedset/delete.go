package nestedset

// DeletePlan describes removal of a whole subtree. Rows with Left in
// [OldLeft, OldRight] are removed, then every remaining boundary greater
// than GapAfter moves by GapDelta to close the vacated span.
type DeletePlan struct {
	OldLeft  int64
	OldRight int64
	GapAfter int64
	GapDelta int64
}

// PlanDelete computes the removal of node and all of its descendants.
// Deleting a partition root empties the partition; the close then matches
// nothing, which is fine.
func PlanDelete(node *Node) DeletePlan {
	return DeletePlan{
		OldLeft:  node.Left,
		OldRight: node.Right,
		GapAfter: node.Right,
		GapDelta: -node.Width(),
	}
}
