package storage

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	dbm "github.com/cosmos/cosmos-db"
	"github.com/google/uuid"

	"github.com/forestrie/go-nestedset/nestedset"
)

// Key layout. Row keys order by (partition, left) so a raw iterator walks a
// partition in preorder. Boundary and partition values are never negative,
// which keeps big endian byte order and numeric order in agreement.
//
//	'n' | be64(partition) | be64(left)  -> CBOR row
//	'i' | node id (16 bytes)            -> be64(partition) | be64(left)
//	'p'                                 -> be64(last allocated partition)
const (
	rowTag = 'n'
	idTag  = 'i'
)

var partitionCounterKey = []byte{'p'}

func rowKey(partition, left int64) []byte {
	k := make([]byte, 17)
	k[0] = rowTag
	binary.BigEndian.PutUint64(k[1:9], uint64(partition))
	binary.BigEndian.PutUint64(k[9:17], uint64(left))
	return k
}

func idKey(id uuid.UUID) []byte {
	k := make([]byte, 17)
	k[0] = idTag
	copy(k[1:], id[:])
	return k
}

// KVStore lays rows out in any cosmos-db backend. Every mutation lands in a
// single write batch, so the atomicity guarantee is the backend's.
type KVStore struct {
	mu    sync.Mutex
	db    dbm.DB
	codec codec
}

func NewKVStore(db dbm.DB) (*KVStore, error) {
	c, err := newCodec()
	if err != nil {
		return nil, err
	}
	return &KVStore{db: db, codec: c}, nil
}

func (s *KVStore) Fetch(_ context.Context, id uuid.UUID) (*nestedset.Node, error) {
	loc, err := s.db.Get(idKey(id))
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	key := make([]byte, 17)
	key[0] = rowTag
	copy(key[1:], loc)
	data, err := s.db.Get(key)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.codec.unmarshalNode(data)
}

func (s *KVStore) ScanByLeft(_ context.Context, partition int64, where Span, visit func(*nestedset.Node) error) error {
	start := rowKey(partition, where.First)
	var end []byte
	if where.Last == math.MaxInt64 {
		end = rowKey(partition+1, 0)
	} else {
		end = rowKey(partition, where.Last+1)
	}

	it, err := s.db.Iterator(start, end)
	if err != nil {
		return err
	}
	defer it.Close()

	for ; it.Valid(); it.Next() {
		n, err := s.codec.unmarshalNode(it.Value())
		if err != nil {
			return err
		}
		if err := visit(n); err != nil {
			return err
		}
	}
	return it.Error()
}

func (s *KVStore) AllocatePartition(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.db.Get(partitionCounterKey)
	if err != nil {
		return 0, err
	}
	next := int64(1)
	if raw != nil {
		next = int64(binary.BigEndian.Uint64(raw)) + 1
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(next))
	if err := s.db.SetSync(partitionCounterKey, buf); err != nil {
		return 0, err
	}
	return next, nil
}

func (s *KVStore) Apply(ctx context.Context, mu Mutation) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type change struct {
		old  *nestedset.Node
		next *nestedset.Node
	}
	var changes []change
	var removed []*nestedset.Node

	for p := range mu.partitions() {
		err := func() error {
			it, err := s.db.Iterator(rowKey(p, 0), rowKey(p+1, 0))
			if err != nil {
				return err
			}
			defer it.Close()
			for ; it.Valid(); it.Next() {
				n, err := s.codec.unmarshalNode(it.Value())
				if err != nil {
					return err
				}
				if matchesDelete(n, mu.Deletes) {
					removed = append(removed, n)
					continue
				}
				if next, changed := applyShifts(n, mu.Shifts); changed {
					changes = append(changes, change{old: n, next: next})
				}
			}
			return it.Error()
		}()
		if err != nil {
			return 0, err
		}
	}

	for _, n := range mu.Inserts {
		has, err := s.db.Has(idKey(n.ID))
		if err != nil {
			return 0, err
		}
		if has {
			return 0, fmt.Errorf("%w: %s", ErrDuplicateID, n.ID)
		}
	}

	staged := map[uuid.UUID]*nestedset.Node{}
	for _, c := range changes {
		staged[c.next.ID] = c.next
	}
	inserts := make([]*nestedset.Node, 0, len(mu.Inserts))
	for _, n := range mu.Inserts {
		n = n.Clone()
		inserts = append(inserts, n)
		staged[n.ID] = n
	}
	for _, r := range mu.Reparents {
		if n, ok := staged[r.ID]; ok {
			n.Parent = r.Parent
			continue
		}
		old, err := s.Fetch(ctx, r.ID)
		if err != nil {
			return 0, err
		}
		next := old.Clone()
		next.Parent = r.Parent
		changes = append(changes, change{old: old, next: next})
		staged[r.ID] = next
	}

	batch := s.db.NewBatch()
	defer batch.Close()

	// Old keys are deleted ahead of any set, because shifted rows routinely
	// land on positions other rows just vacated.
	for _, n := range removed {
		if err := batch.Delete(rowKey(n.Partition, n.Left)); err != nil {
			return 0, err
		}
		if err := batch.Delete(idKey(n.ID)); err != nil {
			return 0, err
		}
	}
	for _, c := range changes {
		if err := batch.Delete(rowKey(c.old.Partition, c.old.Left)); err != nil {
			return 0, err
		}
	}
	for _, c := range changes {
		if err := s.batchPut(batch, c.next); err != nil {
			return 0, err
		}
	}
	for _, n := range inserts {
		if err := s.batchPut(batch, n); err != nil {
			return 0, err
		}
	}
	if err := batch.WriteSync(); err != nil {
		return 0, err
	}
	return len(removed) + len(changes) + len(inserts), nil
}

func (s *KVStore) batchPut(batch dbm.Batch, n *nestedset.Node) error {
	data, err := s.codec.marshalNode(n)
	if err != nil {
		return err
	}
	key := rowKey(n.Partition, n.Left)
	if err := batch.Set(key, data); err != nil {
		return err
	}
	return batch.Set(idKey(n.ID), key[1:])
}
