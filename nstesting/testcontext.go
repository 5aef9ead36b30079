// Package nstesting provides shared fixtures for forest tests: a configured
// store and mutator, a deterministic sample tree, and a seeded churn driver
// for soak style tests.
package nstesting

import (
	"context"
	"math/rand"
	"testing"

	dbm "github.com/cosmos/cosmos-db"
	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/forestrie/go-nestedset/forest"
	"github.com/forestrie/go-nestedset/nestedset"
	"github.com/forestrie/go-nestedset/storage"
)

type TestContext struct {
	Log     logger.Logger
	Store   storage.Store
	Mutator *forest.Mutator
	Seed    int64
	T       *testing.T
}

type TestConfig struct {
	// Seed drives the churn generator. Force it to a fixed value so a run
	// reproduces exactly.
	Seed            int64
	TestLabelPrefix string
	// UseKV switches the context to a cosmos-db backed store; the default is
	// the in memory btree store.
	UseKV bool
}

func NewTestContext(t *testing.T, cfg TestConfig) TestContext {
	c := TestContext{T: t, Seed: cfg.Seed}
	logger.New("INFO")
	c.Log = logger.Sugar.WithServiceName(cfg.TestLabelPrefix)

	if cfg.UseKV {
		kv, err := storage.NewKVStore(dbm.NewMemDB())
		require.NoError(t, err)
		c.Store = kv
	} else {
		c.Store = storage.NewMemStore()
	}
	c.Mutator = forest.NewMutator(c.Store, c.Log)
	return c
}

func (c *TestContext) GetLog() logger.Logger { return c.Log }

// ID returns the deterministic node id used by fixtures, with i in the last
// byte so ids read naturally in failure output.
func ID(i byte) uuid.UUID {
	var u uuid.UUID
	u[15] = i
	return u
}

// BuildSampleTree grows the canonical seven node tree through the mutator
// and returns the rows keyed by name:
//
//	              1 root 14
//	             /         \
//	       2 (a) 7       8 (b) 13
//	        /   \          /   \
//	  3 (c) 4  5 (d) 6  9 (e) 10  11 (f) 12
func (c *TestContext) BuildSampleTree() map[string]*nestedset.Node {
	ctx := context.Background()

	_, err := c.Mutator.InsertRoot(ctx, ID(1))
	require.NoError(c.T, err)

	children := []struct {
		id     uuid.UUID
		parent uuid.UUID
	}{
		{ID(2), ID(1)}, // a
		{ID(3), ID(2)}, // c
		{ID(4), ID(2)}, // d
		{ID(5), ID(1)}, // b
		{ID(6), ID(5)}, // e
		{ID(7), ID(5)}, // f
	}
	for _, ch := range children {
		_, err := c.Mutator.InsertLeaf(ctx, ch.id, ch.parent, nestedset.LastChild)
		require.NoError(c.T, err)
	}

	names := map[string]uuid.UUID{
		"root": ID(1), "a": ID(2), "c": ID(3), "d": ID(4),
		"b": ID(5), "e": ID(6), "f": ID(7),
	}
	nodes := map[string]*nestedset.Node{}
	for name, id := range names {
		n, err := c.Store.Fetch(ctx, id)
		require.NoError(c.T, err)
		nodes[name] = n
	}
	return nodes
}

// Churn applies rounds of random valid mutations across a small population
// of nodes, skipping the planner rejections (cyclic moves and the like) that
// random selection naturally produces. It returns the ids still present.
func (c *TestContext) Churn(rounds int) []uuid.UUID {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(c.Seed))

	var ids []uuid.UUID
	for i := byte(1); i <= 3; i++ {
		n, err := c.Mutator.InsertRoot(ctx, ID(100+i))
		require.NoError(c.T, err)
		ids = append(ids, n.ID)
	}

	positions := []nestedset.Position{
		nestedset.FirstChild, nestedset.LastChild,
		nestedset.LeftSibling, nestedset.RightSibling,
	}
	nextID := byte(1)

	for round := 0; round < rounds; round++ {
		if len(ids) == 0 {
			id := ID(nextID)
			nextID++
			n, err := c.Mutator.InsertRoot(ctx, id)
			require.NoError(c.T, err)
			ids = append(ids, n.ID)
		}
		target := ids[rng.Intn(len(ids))]
		pos := positions[rng.Intn(len(positions))]

		switch op := rng.Intn(10); {
		case op < 5:
			id := ID(nextID)
			nextID++
			_, err := c.Mutator.InsertLeaf(ctx, id, target, pos)
			require.NoError(c.T, err)
			ids = append(ids, id)
		case op < 8:
			node := ids[rng.Intn(len(ids))]
			if node == target {
				continue
			}
			_, err := c.Mutator.MoveNode(ctx, node, target, pos)
			if err != nil {
				require.ErrorIs(c.T, err, nestedset.ErrCyclicMove)
			}
		case op < 9 && len(ids) > 4:
			node := ids[rng.Intn(len(ids))]
			_, err := c.Mutator.ExtractAsRoot(ctx, node)
			if err != nil {
				require.ErrorIs(c.T, err, nestedset.ErrAlreadyRoot)
			}
		default:
			node := ids[rng.Intn(len(ids))]
			count, err := c.Mutator.DeleteSubtree(ctx, node)
			require.NoError(c.T, err)
			require.Positive(c.T, count)
			ids = c.prune(ids)
		}
	}
	return ids
}

// prune drops ids whose rows no longer exist.
func (c *TestContext) prune(ids []uuid.UUID) []uuid.UUID {
	var live []uuid.UUID
	for _, id := range ids {
		if _, err := c.Store.Fetch(context.Background(), id); err == nil {
			live = append(live, id)
		}
	}
	return live
}

// Partitions lists every partition that currently holds at least one of the
// given rows.
func (c *TestContext) Partitions(ids []uuid.UUID) []int64 {
	seen := map[int64]struct{}{}
	var ps []int64
	for _, id := range ids {
		n, err := c.Store.Fetch(context.Background(), id)
		require.NoError(c.T, err)
		if _, ok := seen[n.Partition]; !ok {
			seen[n.Partition] = struct{}{}
			ps = append(ps, n.Partition)
		}
	}
	return ps
}
