package forest

import (
	"context"

	"github.com/forestrie/go-nestedset/nestedset"
	"github.com/forestrie/go-nestedset/storage"
)

// CheckPartition scans one partition and re-derives its structure from the
// boundary values, reporting every rule breach found. An empty result means
// the partition is a well formed tree (or empty).
func CheckPartition(ctx context.Context, store storage.Store, partition int64) ([]nestedset.Violation, error) {
	var nodes []*nestedset.Node
	err := store.ScanByLeft(ctx, partition, storage.After(0), func(n *nestedset.Node) error {
		nodes = append(nodes, n)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return nestedset.Check(nodes), nil
}
