package forest

import (
	"context"
	"fmt"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/google/uuid"

	"github.com/forestrie/go-nestedset/nestedset"
	"github.com/forestrie/go-nestedset/storage"
)

// lockAttempts bounds the refetch loop in the lock helpers. A node only
// escapes by changing partition between the fetch and the lock, which takes
// a racing extract or cross partition move each time.
const lockAttempts = 8

// Mutator performs structural changes on the forest. All methods are safe
// for concurrent use; operations on disjoint partition sets proceed in
// parallel.
type Mutator struct {
	store storage.Store
	log   logger.Logger
	locks *partitionLocks
}

func NewMutator(store storage.Store, log logger.Logger) *Mutator {
	return &Mutator{store: store, log: log, locks: newPartitionLocks()}
}

// lockNode locks the partition holding id and returns the row as it stands
// under that lock. The caller must invoke the release function.
func (m *Mutator) lockNode(ctx context.Context, id uuid.UUID) (*nestedset.Node, func(), error) {
	for attempt := 0; attempt < lockAttempts; attempt++ {
		n, err := m.store.Fetch(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		release := m.locks.acquire(n.Partition)
		fresh, err := m.store.Fetch(ctx, id)
		if err != nil {
			release()
			return nil, nil, err
		}
		if fresh.Partition == n.Partition {
			return fresh, release, nil
		}
		release()
	}
	return nil, nil, fmt.Errorf("%w: %s", ErrRetriesExhausted, id)
}

// lockPair locks the partitions of both nodes, in ascending partition order,
// and returns both rows as they stand under the locks.
func (m *Mutator) lockPair(ctx context.Context, a, b uuid.UUID) (*nestedset.Node, *nestedset.Node, func(), error) {
	for attempt := 0; attempt < lockAttempts; attempt++ {
		na, err := m.store.Fetch(ctx, a)
		if err != nil {
			return nil, nil, nil, err
		}
		nb, err := m.store.Fetch(ctx, b)
		if err != nil {
			return nil, nil, nil, err
		}
		release := m.locks.acquire(na.Partition, nb.Partition)
		fa, err := m.store.Fetch(ctx, a)
		if err == nil {
			var fb *nestedset.Node
			fb, err = m.store.Fetch(ctx, b)
			if err == nil && fa.Partition == na.Partition && fb.Partition == nb.Partition {
				return fa, fb, release, nil
			}
		}
		release()
		if err != nil {
			return nil, nil, nil, err
		}
	}
	return nil, nil, nil, fmt.Errorf("%w: %s and %s", ErrRetriesExhausted, a, b)
}

// InsertRoot creates a single node tree in a freshly allocated partition.
func (m *Mutator) InsertRoot(ctx context.Context, id uuid.UUID) (*nestedset.Node, error) {
	p, err := m.store.AllocatePartition(ctx)
	if err != nil {
		return nil, err
	}
	n := &nestedset.Node{ID: id, Partition: p, Depth: 0, Left: 1, Right: nestedset.LeafWidth}
	rows, err := m.store.Apply(ctx, storage.Mutation{Inserts: []*nestedset.Node{n}})
	if err != nil {
		return nil, err
	}
	m.log.Debugf("insert root %s in partition %d", id, p)
	mutationsTotal.WithLabelValues("insert-root").Inc()
	rowsTouched.Add(float64(rows))
	return n.Clone(), nil
}

// InsertLeaf creates a new node placed relative to target. A sibling
// placement relative to a partition root creates a new root instead, since
// roots have no siblings.
func (m *Mutator) InsertLeaf(ctx context.Context, id, targetID uuid.UUID, pos nestedset.Position) (*nestedset.Node, error) {
	target, release, err := m.lockNode(ctx, targetID)
	if err != nil {
		return nil, err
	}
	defer release()

	if target.IsRoot() && pos.IsSibling() {
		return m.InsertRoot(ctx, id)
	}

	plan, err := nestedset.PlanInsert(target, pos)
	if err != nil {
		return nil, err
	}

	n := &nestedset.Node{
		ID: id, Parent: plan.Parent,
		Partition: plan.Partition, Depth: plan.Depth,
		Left: plan.Left, Right: plan.Right,
	}
	rows, err := m.store.Apply(ctx, storage.Mutation{
		Shifts: []storage.RangeShift{
			{Partition: plan.Partition, Field: storage.FieldLeft, By: storage.FieldLeft, Where: storage.After(plan.GapAfter), Delta: plan.GapDelta},
			{Partition: plan.Partition, Field: storage.FieldRight, By: storage.FieldRight, Where: storage.After(plan.GapAfter), Delta: plan.GapDelta},
		},
		Inserts: []*nestedset.Node{n},
	})
	if err != nil {
		return nil, err
	}
	m.log.Debugf("insert %s as %s of %s at (%d,%d)", id, pos, targetID, plan.Left, plan.Right)
	mutationsTotal.WithLabelValues("insert").Inc()
	rowsTouched.Add(float64(rows))
	return n.Clone(), nil
}

// MoveNode relocates the subtree rooted at id to the placement described by
// target and pos, within or across partitions. Moving a node to be a
// sibling of a partition root demotes it to a root of its own; moving a
// root beside another root is a no-op, roots have no order among
// themselves. Moving a node relative to itself fails with ErrCyclicMove.
func (m *Mutator) MoveNode(ctx context.Context, id, targetID uuid.UUID, pos nestedset.Position) (*nestedset.Node, error) {
	if id == targetID {
		return nil, fmt.Errorf("%w: %s into itself", nestedset.ErrCyclicMove, id)
	}

	node, target, release, err := m.lockPair(ctx, id, targetID)
	if err != nil {
		return nil, err
	}
	defer release()

	if target.IsRoot() && pos.IsSibling() {
		if node.IsRoot() {
			return node, nil
		}
		if node.IsAncestorOf(target) {
			return nil, fmt.Errorf("%w: %s into %s", nestedset.ErrCyclicMove, id, targetID)
		}
		return m.extractLocked(ctx, node)
	}
	if node.Partition == target.Partition {
		return m.moveWithin(ctx, node, target, pos)
	}
	return m.moveAcross(ctx, node, target, pos)
}

func (m *Mutator) moveWithin(ctx context.Context, node, target *nestedset.Node, pos nestedset.Position) (*nestedset.Node, error) {
	plan, err := nestedset.PlanMove(node, target, pos)
	if err != nil {
		return nil, err
	}
	if plan.NoOp() {
		return node, nil
	}

	p := node.Partition
	subtree := storage.Between(plan.OldLeft, plan.OldRight)
	shifts := []storage.RangeShift{
		{Partition: p, Field: storage.FieldLeft, By: storage.FieldLeft, Where: subtree, Delta: plan.SubtreeDelta},
		{Partition: p, Field: storage.FieldRight, By: storage.FieldLeft, Where: subtree, Delta: plan.SubtreeDelta},
		{Partition: p, Field: storage.FieldLeft, By: storage.FieldLeft, Where: storage.Between(plan.GapFirst, plan.GapLast), Delta: plan.GapDelta},
		{Partition: p, Field: storage.FieldRight, By: storage.FieldRight, Where: storage.Between(plan.GapFirst, plan.GapLast), Delta: plan.GapDelta},
	}
	if plan.DepthDelta != 0 {
		shifts = append(shifts, storage.RangeShift{
			Partition: p, Field: storage.FieldDepth, By: storage.FieldLeft, Where: subtree, Delta: plan.DepthDelta,
		})
	}
	rows, err := m.store.Apply(ctx, storage.Mutation{
		Shifts:    shifts,
		Reparents: []storage.Reparent{{ID: node.ID, Parent: plan.Parent}},
	})
	if err != nil {
		return nil, err
	}
	m.log.Debugf("move %s %s of %s: (%d,%d) -> (%d,%d), %d rows",
		node.ID, pos, target.ID, plan.OldLeft, plan.OldRight, plan.NewLeft, plan.NewRight, rows)
	mutationsTotal.WithLabelValues("move").Inc()
	rowsTouched.Add(float64(rows))
	return m.store.Fetch(ctx, node.ID)
}

// moveAcross is the extract-then-graft composition committed as one
// mutation: open the destination gap, carry the subtree over with the
// summed deltas, close the source gap.
func (m *Mutator) moveAcross(ctx context.Context, node, target *nestedset.Node, pos nestedset.Position) (*nestedset.Node, error) {
	src, dst := node.Partition, target.Partition

	var carryLeft, carryDepth int64
	var closeShifts []storage.RangeShift

	graftFrom := node
	if !node.IsRoot() {
		x, err := nestedset.PlanExtract(node)
		if err != nil {
			return nil, err
		}
		carryLeft = x.SubtreeDelta
		carryDepth = x.DepthDelta
		closeShifts = []storage.RangeShift{
			{Partition: src, Field: storage.FieldLeft, By: storage.FieldLeft, Where: storage.After(x.GapAfter), Delta: x.GapDelta},
			{Partition: src, Field: storage.FieldRight, By: storage.FieldRight, Where: storage.After(x.GapAfter), Delta: x.GapDelta},
		}
		virtual := node.Clone()
		virtual.Parent = uuid.Nil
		virtual.Left = x.NewLeft
		virtual.Right = x.NewRight
		virtual.Depth = 0
		graftFrom = virtual
	}

	g, err := nestedset.PlanGraft(graftFrom, target, pos)
	if err != nil {
		return nil, err
	}

	subtree := storage.Between(node.Left, node.Right)
	shifts := []storage.RangeShift{
		{Partition: dst, Field: storage.FieldLeft, By: storage.FieldLeft, Where: storage.After(g.SpaceAfter), Delta: g.Width},
		{Partition: dst, Field: storage.FieldRight, By: storage.FieldRight, Where: storage.After(g.SpaceAfter), Delta: g.Width},
		{Partition: src, Field: storage.FieldLeft, By: storage.FieldLeft, Where: subtree, Delta: carryLeft + g.SubtreeDelta},
		{Partition: src, Field: storage.FieldRight, By: storage.FieldLeft, Where: subtree, Delta: carryLeft + g.SubtreeDelta},
		{Partition: src, Field: storage.FieldPartition, By: storage.FieldLeft, Where: subtree, Delta: dst - src},
	}
	if d := carryDepth + g.DepthDelta; d != 0 {
		shifts = append(shifts, storage.RangeShift{
			Partition: src, Field: storage.FieldDepth, By: storage.FieldLeft, Where: subtree, Delta: d,
		})
	}
	shifts = append(shifts, closeShifts...)

	rows, err := m.store.Apply(ctx, storage.Mutation{
		Shifts:    shifts,
		Reparents: []storage.Reparent{{ID: node.ID, Parent: g.Parent}},
	})
	if err != nil {
		return nil, err
	}
	m.log.Debugf("move %s %s of %s: partition %d -> %d at (%d,%d), %d rows",
		node.ID, pos, target.ID, src, dst, g.NewLeft, g.NewRight, rows)
	mutationsTotal.WithLabelValues("move").Inc()
	rowsTouched.Add(float64(rows))
	return m.store.Fetch(ctx, node.ID)
}

// ExtractAsRoot demotes the subtree rooted at id to the root of a freshly
// allocated partition. Extracting a node that already is a root fails with
// ErrAlreadyRoot.
func (m *Mutator) ExtractAsRoot(ctx context.Context, id uuid.UUID) (*nestedset.Node, error) {
	node, release, err := m.lockNode(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()
	return m.extractLocked(ctx, node)
}

func (m *Mutator) extractLocked(ctx context.Context, node *nestedset.Node) (*nestedset.Node, error) {
	x, err := nestedset.PlanExtract(node)
	if err != nil {
		return nil, err
	}
	dst, err := m.store.AllocatePartition(ctx)
	if err != nil {
		return nil, err
	}

	src := node.Partition
	subtree := storage.Between(x.OldLeft, x.OldRight)
	rows, err := m.store.Apply(ctx, storage.Mutation{
		Shifts: []storage.RangeShift{
			{Partition: src, Field: storage.FieldLeft, By: storage.FieldLeft, Where: subtree, Delta: x.SubtreeDelta},
			{Partition: src, Field: storage.FieldRight, By: storage.FieldLeft, Where: subtree, Delta: x.SubtreeDelta},
			{Partition: src, Field: storage.FieldDepth, By: storage.FieldLeft, Where: subtree, Delta: x.DepthDelta},
			{Partition: src, Field: storage.FieldPartition, By: storage.FieldLeft, Where: subtree, Delta: dst - src},
			{Partition: src, Field: storage.FieldLeft, By: storage.FieldLeft, Where: storage.After(x.GapAfter), Delta: x.GapDelta},
			{Partition: src, Field: storage.FieldRight, By: storage.FieldRight, Where: storage.After(x.GapAfter), Delta: x.GapDelta},
		},
		Reparents: []storage.Reparent{{ID: node.ID, Parent: uuid.Nil}},
	})
	if err != nil {
		return nil, err
	}
	m.log.Debugf("extract %s: partition %d -> %d, %d rows", node.ID, src, dst, rows)
	mutationsTotal.WithLabelValues("extract").Inc()
	rowsTouched.Add(float64(rows))
	return m.store.Fetch(ctx, node.ID)
}

// DeleteSubtree removes the node and all of its descendants, returning how
// many nodes were removed.
func (m *Mutator) DeleteSubtree(ctx context.Context, id uuid.UUID) (int64, error) {
	node, release, err := m.lockNode(ctx, id)
	if err != nil {
		return 0, err
	}
	defer release()

	plan := nestedset.PlanDelete(node)
	p := node.Partition
	rows, err := m.store.Apply(ctx, storage.Mutation{
		Deletes: []storage.RangeDelete{{Partition: p, Where: storage.Between(plan.OldLeft, plan.OldRight)}},
		Shifts: []storage.RangeShift{
			{Partition: p, Field: storage.FieldLeft, By: storage.FieldLeft, Where: storage.After(plan.GapAfter), Delta: plan.GapDelta},
			{Partition: p, Field: storage.FieldRight, By: storage.FieldRight, Where: storage.After(plan.GapAfter), Delta: plan.GapDelta},
		},
	})
	if err != nil {
		return 0, err
	}
	count := node.SubtreeCount()
	m.log.Debugf("delete subtree of %s: %d nodes, %d rows", id, count, rows)
	mutationsTotal.WithLabelValues("delete").Inc()
	rowsTouched.Add(float64(rows))
	nodesDeleted.Add(float64(count))
	return count, nil
}
