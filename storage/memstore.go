package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/btree"
	"github.com/google/uuid"

	"github.com/forestrie/go-nestedset/nestedset"
)

// MemStore keeps rows in an in memory btree keyed by (partition, left),
// with a side index by node id. Rows are cloned on the way in and out, so
// callers can never alias the store's own copies.
type MemStore struct {
	mu            sync.RWMutex
	byID          map[uuid.UUID]*nestedset.Node
	rows          *btree.BTreeG[*nestedset.Node]
	nextPartition int64
}

func rowLess(a, b *nestedset.Node) bool {
	if a.Partition != b.Partition {
		return a.Partition < b.Partition
	}
	return a.Left < b.Left
}

func NewMemStore() *MemStore {
	return &MemStore{
		byID:          map[uuid.UUID]*nestedset.Node{},
		rows:          btree.NewG(8, rowLess),
		nextPartition: 1,
	}
}

func (s *MemStore) Fetch(_ context.Context, id uuid.UUID) (*nestedset.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return n.Clone(), nil
}

func (s *MemStore) ScanByLeft(_ context.Context, partition int64, where Span, visit func(*nestedset.Node) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var visitErr error
	pivot := &nestedset.Node{Partition: partition, Left: where.First}
	s.rows.AscendGreaterOrEqual(pivot, func(n *nestedset.Node) bool {
		if n.Partition != partition || n.Left > where.Last {
			return false
		}
		visitErr = visit(n.Clone())
		return visitErr == nil
	})
	return visitErr
}

func (s *MemStore) AllocatePartition(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.nextPartition
	s.nextPartition++
	return p, nil
}

// Apply stages the whole mutation against a snapshot of the touched
// partitions, validates it, and only then rewrites the indexes. A failed
// mutation leaves the store untouched.
func (s *MemStore) Apply(_ context.Context, mu Mutation) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type change struct {
		old  *nestedset.Node
		next *nestedset.Node
	}
	var changes []change
	var removed []*nestedset.Node

	for p := range mu.partitions() {
		pivot := &nestedset.Node{Partition: p, Left: 0}
		s.rows.AscendGreaterOrEqual(pivot, func(n *nestedset.Node) bool {
			if n.Partition != p {
				return false
			}
			if matchesDelete(n, mu.Deletes) {
				removed = append(removed, n)
				return true
			}
			if next, changed := applyShifts(n, mu.Shifts); changed {
				changes = append(changes, change{old: n, next: next})
			}
			return true
		})
	}

	inserts := make([]*nestedset.Node, 0, len(mu.Inserts))
	for _, n := range mu.Inserts {
		if _, ok := s.byID[n.ID]; ok {
			return 0, fmt.Errorf("%w: %s", ErrDuplicateID, n.ID)
		}
		inserts = append(inserts, n.Clone())
	}

	staged := map[uuid.UUID]*nestedset.Node{}
	for _, c := range changes {
		staged[c.next.ID] = c.next
	}
	for _, n := range inserts {
		staged[n.ID] = n
	}
	for _, r := range mu.Reparents {
		if n, ok := staged[r.ID]; ok {
			n.Parent = r.Parent
			continue
		}
		old, ok := s.byID[r.ID]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrNotFound, r.ID)
		}
		next := old.Clone()
		next.Parent = r.Parent
		changes = append(changes, change{old: old, next: next})
		staged[r.ID] = next
	}

	// Commit. Old keys come out before any new key goes in, because rows
	// routinely shift through each other's former positions.
	for _, n := range removed {
		s.rows.Delete(n)
		delete(s.byID, n.ID)
	}
	for _, c := range changes {
		s.rows.Delete(c.old)
	}
	for _, c := range changes {
		s.rows.ReplaceOrInsert(c.next)
		s.byID[c.next.ID] = c.next
	}
	for _, n := range inserts {
		s.rows.ReplaceOrInsert(n)
		s.byID[n.ID] = n
	}
	return len(removed) + len(changes) + len(inserts), nil
}
