package storage

import (
	"context"
	"math"

	"github.com/google/uuid"

	"github.com/forestrie/go-nestedset/nestedset"
)

// Field names one of the shiftable ordering fields of a row.
type Field int

const (
	FieldLeft Field = iota
	FieldRight
	FieldDepth
	FieldPartition
)

func (f Field) String() string {
	switch f {
	case FieldLeft:
		return "left"
	case FieldRight:
		return "right"
	case FieldDepth:
		return "depth"
	case FieldPartition:
		return "partition"
	default:
		return "field(?)"
	}
}

// Span is a closed interval of field values. An empty span (Last < First)
// matches nothing.
type Span struct {
	First int64
	Last  int64
}

// After spans everything strictly above v.
func After(v int64) Span {
	return Span{First: v + 1, Last: math.MaxInt64}
}

// Between spans [first, last] inclusive.
func Between(first, last int64) Span {
	return Span{First: first, Last: last}
}

func (s Span) Contains(v int64) bool {
	return s.First <= v && v <= s.Last
}

// RangeShift adds Delta to Field on every row of Partition whose By value
// lies in Where. The By value is always read from the row as it stood before
// the enclosing Mutation began.
type RangeShift struct {
	Partition int64
	Field     Field
	By        Field
	Where     Span
	Delta     int64
}

// RangeDelete removes every row of Partition whose left boundary lies in
// Where. Because subtrees are contiguous left ranges, one RangeDelete
// removes exactly one subtree.
type RangeDelete struct {
	Partition int64
	Where     Span
}

// Reparent rewrites the parent pointer of one row, identified by node id.
// It applies after the mutation's shifts, so the row may be one that the
// same mutation is moving.
type Reparent struct {
	ID     uuid.UUID
	Parent uuid.UUID
}

// Mutation is one atomic structural change. Either every part applies or
// none does. Shift predicates are evaluated against a common snapshot of
// the rows taken when Apply begins, so the order of Shifts is irrelevant
// and overlapping shifts accumulate.
type Mutation struct {
	Shifts    []RangeShift
	Deletes   []RangeDelete
	Inserts   []*nestedset.Node
	Reparents []Reparent
}

func (m Mutation) partitions() map[int64]struct{} {
	ps := map[int64]struct{}{}
	for _, sh := range m.Shifts {
		ps[sh.Partition] = struct{}{}
	}
	for _, d := range m.Deletes {
		ps[d.Partition] = struct{}{}
	}
	return ps
}

// Store is the persistence contract for boundary encoded rows.
type Store interface {
	// Fetch returns the current row for id, or ErrNotFound.
	Fetch(ctx context.Context, id uuid.UUID) (*nestedset.Node, error)

	// ScanByLeft visits the rows of one partition whose left boundary lies
	// in where, in ascending left order. Returning an error from visit stops
	// the scan and propagates the error.
	ScanByLeft(ctx context.Context, partition int64, where Span, visit func(*nestedset.Node) error) error

	// AllocatePartition reserves a fresh, never before returned partition id.
	AllocatePartition(ctx context.Context) (int64, error)

	// Apply commits one mutation atomically and reports how many rows it
	// wrote or removed. A failed mutation touches nothing and reports zero.
	Apply(ctx context.Context, mu Mutation) (int, error)
}

func fieldValue(n *nestedset.Node, f Field) int64 {
	switch f {
	case FieldLeft:
		return n.Left
	case FieldRight:
		return n.Right
	case FieldDepth:
		return n.Depth
	default:
		return n.Partition
	}
}

func addToField(n *nestedset.Node, f Field, delta int64) {
	switch f {
	case FieldLeft:
		n.Left += delta
	case FieldRight:
		n.Right += delta
	case FieldDepth:
		n.Depth += delta
	default:
		n.Partition += delta
	}
}

// applyShifts evaluates every shift predicate against n, the snapshot row,
// and returns a copy with the matching deltas applied. The second result is
// false when no shift touched the row.
func applyShifts(n *nestedset.Node, shifts []RangeShift) (*nestedset.Node, bool) {
	var next *nestedset.Node
	for _, sh := range shifts {
		if sh.Partition != n.Partition || !sh.Where.Contains(fieldValue(n, sh.By)) {
			continue
		}
		if next == nil {
			next = n.Clone()
		}
		addToField(next, sh.Field, sh.Delta)
	}
	return next, next != nil
}

func matchesDelete(n *nestedset.Node, deletes []RangeDelete) bool {
	for _, d := range deletes {
		if d.Partition == n.Partition && d.Where.Contains(n.Left) {
			return true
		}
	}
	return false
}
