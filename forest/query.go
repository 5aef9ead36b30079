package forest

import (
	"context"

	"github.com/google/uuid"

	"github.com/forestrie/go-nestedset/nestedset"
	"github.com/forestrie/go-nestedset/storage"
)

// Reader answers ancestry queries with bounded ordered scans. Every result
// slice is in ascending left order, which for descendants is preorder and
// for ancestors is root first.
//
// Reads take no partition locks. A query that races a mutation sees either
// the rows from before it or the rows from after it, never a mix, because
// mutations commit atomically.
type Reader struct {
	store storage.Store
}

func NewReader(store storage.Store) *Reader {
	return &Reader{store: store}
}

func (r *Reader) collect(ctx context.Context, partition int64, where storage.Span, keep func(*nestedset.Node) bool) ([]*nestedset.Node, error) {
	var nodes []*nestedset.Node
	err := r.store.ScanByLeft(ctx, partition, where, func(n *nestedset.Node) error {
		if keep == nil || keep(n) {
			nodes = append(nodes, n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return nodes, nil
}

// Ancestors returns the chain from the partition root down to the node's
// parent. A root has none.
func (r *Reader) Ancestors(ctx context.Context, id uuid.UUID) ([]*nestedset.Node, error) {
	n, err := r.store.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	// ancestors open before the node and close after it
	return r.collect(ctx, n.Partition, storage.Between(1, n.Left-1), func(c *nestedset.Node) bool {
		return c.Right > n.Right
	})
}

// Subtree returns the node and all of its descendants in preorder.
func (r *Reader) Subtree(ctx context.Context, id uuid.UUID) ([]*nestedset.Node, error) {
	n, err := r.store.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.collect(ctx, n.Partition, storage.Between(n.Left, n.Right), nil)
}

// Descendants returns the subtree without the node itself.
func (r *Reader) Descendants(ctx context.Context, id uuid.UUID) ([]*nestedset.Node, error) {
	n, err := r.store.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.collect(ctx, n.Partition, storage.Between(n.Left+1, n.Right-1), nil)
}

// Children returns the node's immediate children in sibling order.
func (r *Reader) Children(ctx context.Context, id uuid.UUID) ([]*nestedset.Node, error) {
	n, err := r.store.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.collect(ctx, n.Partition, storage.Between(n.Left+1, n.Right-1), func(c *nestedset.Node) bool {
		return c.Parent == n.ID
	})
}

// Siblings returns the other children of the node's parent, in sibling
// order. A root has none.
func (r *Reader) Siblings(ctx context.Context, id uuid.UUID) ([]*nestedset.Node, error) {
	n, err := r.store.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.IsRoot() {
		return nil, nil
	}
	parent, err := r.store.Fetch(ctx, n.Parent)
	if err != nil {
		return nil, err
	}
	return r.collect(ctx, n.Partition, storage.Between(parent.Left+1, parent.Right-1), func(c *nestedset.Node) bool {
		return c.Parent == parent.ID && c.ID != n.ID
	})
}
