package forest_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forestrie/go-nestedset/forest"
	"github.com/forestrie/go-nestedset/nestedset"
	"github.com/forestrie/go-nestedset/nstesting"
	"github.com/forestrie/go-nestedset/storage"
)

func newContext(t *testing.T) nstesting.TestContext {
	return nstesting.NewTestContext(t, nstesting.TestConfig{TestLabelPrefix: "TestMutator"})
}

type bounds struct {
	left, right, depth int64
}

func requireBounds(t *testing.T, c nstesting.TestContext, want map[string]bounds, ids map[string]*nestedset.Node) {
	t.Helper()
	for name, w := range want {
		n, err := c.Store.Fetch(context.Background(), ids[name].ID)
		require.NoError(t, err)
		require.Equal(t, w.left, n.Left, "left of %s", name)
		require.Equal(t, w.right, n.Right, "right of %s", name)
		require.Equal(t, w.depth, n.Depth, "depth of %s", name)
	}
}

func requireValid(t *testing.T, c nstesting.TestContext, partitions ...int64) {
	t.Helper()
	for _, p := range partitions {
		vs, err := forest.CheckPartition(context.Background(), c.Store, p)
		require.NoError(t, err)
		require.Empty(t, vs, "partition %d", p)
	}
}

func TestInsertBuildsCanonicalTree(t *testing.T) {
	c := newContext(t)
	fx := c.BuildSampleTree()

	requireBounds(t, c, map[string]bounds{
		"root": {1, 14, 0},
		"a":    {2, 7, 1},
		"c":    {3, 4, 2},
		"d":    {5, 6, 2},
		"b":    {8, 13, 1},
		"e":    {9, 10, 2},
		"f":    {11, 12, 2},
	}, fx)
	requireValid(t, c, 1)
}

func TestMoveFirstChildRenumbers(t *testing.T) {
	c := newContext(t)
	fx := c.BuildSampleTree()

	moved, err := c.Mutator.MoveNode(context.Background(), fx["f"].ID, fx["a"].ID, nestedset.FirstChild)
	require.NoError(t, err)
	require.Equal(t, fx["a"].ID, moved.Parent)

	requireBounds(t, c, map[string]bounds{
		"root": {1, 14, 0},
		"a":    {2, 9, 1},
		"f":    {3, 4, 2},
		"c":    {5, 6, 2},
		"d":    {7, 8, 2},
		"b":    {10, 13, 1},
		"e":    {11, 12, 2},
	}, fx)
	requireValid(t, c, 1)
}

func TestMoveLastChildRenumbers(t *testing.T) {
	c := newContext(t)
	fx := c.BuildSampleTree()

	_, err := c.Mutator.MoveNode(context.Background(), fx["f"].ID, fx["a"].ID, nestedset.LastChild)
	require.NoError(t, err)

	requireBounds(t, c, map[string]bounds{
		"root": {1, 14, 0},
		"a":    {2, 9, 1},
		"c":    {3, 4, 2},
		"d":    {5, 6, 2},
		"f":    {7, 8, 2},
		"b":    {10, 13, 1},
		"e":    {11, 12, 2},
	}, fx)
	requireValid(t, c, 1)
}

// TestMoveDeepens relocates an inner node beneath one of the leaves of the
// other branch, dragging its whole subtree two levels down.
func TestMoveDeepens(t *testing.T) {
	c := newContext(t)
	fx := c.BuildSampleTree()

	_, err := c.Mutator.MoveNode(context.Background(), fx["a"].ID, fx["e"].ID, nestedset.LastChild)
	require.NoError(t, err)

	requireBounds(t, c, map[string]bounds{
		"root": {1, 14, 0},
		"b":    {2, 13, 1},
		"e":    {3, 10, 2},
		"a":    {4, 9, 3},
		"c":    {5, 6, 4},
		"d":    {7, 8, 4},
		"f":    {11, 12, 2},
	}, fx)
	requireValid(t, c, 1)
}

func TestMoveRoundTrip(t *testing.T) {
	c := newContext(t)
	fx := c.BuildSampleTree()
	ctx := context.Background()

	_, err := c.Mutator.MoveNode(ctx, fx["f"].ID, fx["a"].ID, nestedset.FirstChild)
	require.NoError(t, err)
	_, err = c.Mutator.MoveNode(ctx, fx["f"].ID, fx["b"].ID, nestedset.LastChild)
	require.NoError(t, err)

	// the inverse move restores every boundary
	for name, orig := range fx {
		n, err := c.Store.Fetch(ctx, orig.ID)
		require.NoError(t, err)
		require.Equal(t, orig.Left, n.Left, "left of %s", name)
		require.Equal(t, orig.Right, n.Right, "right of %s", name)
		require.Equal(t, orig.Depth, n.Depth, "depth of %s", name)
		require.Equal(t, orig.Parent, n.Parent, "parent of %s", name)
	}
}

func TestMoveNoOpLeavesBoundariesAlone(t *testing.T) {
	c := newContext(t)
	fx := c.BuildSampleTree()

	// d already is the last child of a
	n, err := c.Mutator.MoveNode(context.Background(), fx["d"].ID, fx["a"].ID, nestedset.LastChild)
	require.NoError(t, err)
	require.Equal(t, int64(5), n.Left)
	require.Equal(t, int64(6), n.Right)

	requireBounds(t, c, map[string]bounds{
		"root": {1, 14, 0}, "a": {2, 7, 1}, "b": {8, 13, 1},
	}, fx)
}

func TestMoveCycleRejected(t *testing.T) {
	c := newContext(t)
	fx := c.BuildSampleTree()
	ctx := context.Background()

	_, err := c.Mutator.MoveNode(ctx, fx["a"].ID, fx["c"].ID, nestedset.LastChild)
	require.ErrorIs(t, err, nestedset.ErrCyclicMove)

	_, err = c.Mutator.MoveNode(ctx, fx["a"].ID, fx["a"].ID, nestedset.FirstChild)
	require.ErrorIs(t, err, nestedset.ErrCyclicMove)

	_, err = c.Mutator.MoveNode(ctx, fx["a"].ID, fx["c"].ID, nestedset.RightSibling)
	require.ErrorIs(t, err, nestedset.ErrCyclicMove)

	// a root beside itself is still a self move, not the root-demotion path
	_, err = c.Mutator.MoveNode(ctx, fx["root"].ID, fx["root"].ID, nestedset.RightSibling)
	require.ErrorIs(t, err, nestedset.ErrCyclicMove)

	_, err = c.Mutator.MoveNode(ctx, fx["a"].ID, fx["a"].ID, nestedset.LeftSibling)
	require.ErrorIs(t, err, nestedset.ErrCyclicMove)
}

func TestExtractAsRoot(t *testing.T) {
	c := newContext(t)
	fx := c.BuildSampleTree()
	ctx := context.Background()

	b, err := c.Mutator.ExtractAsRoot(ctx, fx["b"].ID)
	require.NoError(t, err)
	require.True(t, b.IsRoot())
	require.Equal(t, int64(2), b.Partition)

	// the source partition closes around the vacated span, the a subtree
	// keeps its numbering
	requireBounds(t, c, map[string]bounds{
		"root": {1, 8, 0},
		"a":    {2, 7, 1},
		"c":    {3, 4, 2},
		"d":    {5, 6, 2},
		"b":    {1, 6, 0},
		"e":    {2, 3, 1},
		"f":    {4, 5, 1},
	}, fx)
	requireValid(t, c, 1, 2)
}

func TestExtractRootRejected(t *testing.T) {
	c := newContext(t)
	fx := c.BuildSampleTree()

	_, err := c.Mutator.ExtractAsRoot(context.Background(), fx["root"].ID)
	require.ErrorIs(t, err, nestedset.ErrAlreadyRoot)
}

func TestMoveAcrossPartitions(t *testing.T) {
	c := newContext(t)
	fx := c.BuildSampleTree()
	ctx := context.Background()

	_, err := c.Mutator.ExtractAsRoot(ctx, fx["b"].ID)
	require.NoError(t, err)

	moved, err := c.Mutator.MoveNode(ctx, fx["c"].ID, fx["e"].ID, nestedset.LastChild)
	require.NoError(t, err)
	require.Equal(t, int64(2), moved.Partition)
	require.Equal(t, fx["e"].ID, moved.Parent)

	requireBounds(t, c, map[string]bounds{
		"root": {1, 6, 0},
		"a":    {2, 5, 1},
		"d":    {3, 4, 2},
		"b":    {1, 8, 0},
		"e":    {2, 5, 1},
		"c":    {3, 4, 2},
		"f":    {6, 7, 1},
	}, fx)
	requireValid(t, c, 1, 2)
}

func TestMoveRootIntoOtherTree(t *testing.T) {
	c := newContext(t)
	fx := c.BuildSampleTree()
	ctx := context.Background()

	r2, err := c.Mutator.InsertRoot(ctx, nstesting.ID(50))
	require.NoError(t, err)

	moved, err := c.Mutator.MoveNode(ctx, r2.ID, fx["a"].ID, nestedset.LastChild)
	require.NoError(t, err)
	require.Equal(t, int64(1), moved.Partition)
	require.Equal(t, fx["a"].ID, moved.Parent)
	require.Equal(t, int64(7), moved.Left)
	require.Equal(t, int64(8), moved.Right)
	require.Equal(t, int64(2), moved.Depth)

	requireBounds(t, c, map[string]bounds{
		"root": {1, 16, 0},
		"a":    {2, 9, 1},
		"b":    {10, 15, 1},
	}, fx)
	requireValid(t, c, 1, 2)
}

func TestSiblingOfRootMakesNewRoot(t *testing.T) {
	c := newContext(t)
	fx := c.BuildSampleTree()
	ctx := context.Background()

	// inserting beside a root creates a fresh single node partition
	n, err := c.Mutator.InsertLeaf(ctx, nstesting.ID(60), fx["root"].ID, nestedset.RightSibling)
	require.NoError(t, err)
	require.True(t, n.IsRoot())
	require.NotEqual(t, fx["root"].Partition, n.Partition)
	require.Equal(t, int64(1), n.Left)
	require.Equal(t, int64(2), n.Right)

	// moving beside a root demotes the subtree to a root of its own
	b, err := c.Mutator.MoveNode(ctx, fx["b"].ID, n.ID, nestedset.LeftSibling)
	require.NoError(t, err)
	require.True(t, b.IsRoot())
	require.NotEqual(t, int64(1), b.Partition)
	require.NotEqual(t, n.Partition, b.Partition)

	// a root moved beside another root stays exactly where it is
	again, err := c.Mutator.MoveNode(ctx, b.ID, n.ID, nestedset.RightSibling)
	require.NoError(t, err)
	require.Equal(t, b.Partition, again.Partition)
	require.Equal(t, b.Left, again.Left)

	requireValid(t, c, 1, n.Partition, b.Partition)
}

func TestDeleteSubtree(t *testing.T) {
	c := newContext(t)
	fx := c.BuildSampleTree()
	ctx := context.Background()

	count, err := c.Mutator.DeleteSubtree(ctx, fx["b"].ID)
	require.NoError(t, err)
	require.Equal(t, int64(3), count)

	requireBounds(t, c, map[string]bounds{
		"root": {1, 8, 0},
		"a":    {2, 7, 1},
		"c":    {3, 4, 2},
		"d":    {5, 6, 2},
	}, fx)

	_, err = c.Store.Fetch(ctx, fx["e"].ID)
	require.ErrorIs(t, err, storage.ErrNotFound)
	requireValid(t, c, 1)
}

func TestDeleteLeaf(t *testing.T) {
	c := newContext(t)
	fx := c.BuildSampleTree()

	count, err := c.Mutator.DeleteSubtree(context.Background(), fx["d"].ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	requireBounds(t, c, map[string]bounds{
		"root": {1, 12, 0},
		"a":    {2, 5, 1},
		"c":    {3, 4, 2},
		"b":    {6, 11, 1},
	}, fx)
	requireValid(t, c, 1)
}

func TestMutatorUnknownNode(t *testing.T) {
	c := newContext(t)
	fx := c.BuildSampleTree()
	ctx := context.Background()

	_, err := c.Mutator.MoveNode(ctx, nstesting.ID(99), fx["a"].ID, nestedset.LastChild)
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = c.Mutator.InsertLeaf(ctx, nstesting.ID(61), nstesting.ID(99), nestedset.LastChild)
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = c.Mutator.DeleteSubtree(ctx, nstesting.ID(99))
	require.ErrorIs(t, err, storage.ErrNotFound)
}
