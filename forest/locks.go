package forest

import (
	"sort"
	"sync"
)

// partitionLocks hands out one mutex per partition id, created on first
// use. Multi partition operations must acquire in ascending id order.
type partitionLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newPartitionLocks() *partitionLocks {
	return &partitionLocks{locks: map[int64]*sync.Mutex{}}
}

func (l *partitionLocks) get(partition int64) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.locks[partition]
	if !ok {
		m = &sync.Mutex{}
		l.locks[partition] = m
	}
	return m
}

// acquire locks the given partitions, deduplicated and in ascending order,
// and returns the function that releases them all.
func (l *partitionLocks) acquire(partitions ...int64) func() {
	uniq := map[int64]struct{}{}
	for _, p := range partitions {
		uniq[p] = struct{}{}
	}
	ordered := make([]int64, 0, len(uniq))
	for p := range uniq {
		ordered = append(ordered, p)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	held := make([]*sync.Mutex, 0, len(ordered))
	for _, p := range ordered {
		m := l.get(p)
		m.Lock()
		held = append(held, m)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
