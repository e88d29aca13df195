package stress

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/sushant-115/bptree/core/indexing/bptree"
	"github.com/sushant-115/bptree/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTree(t *testing.T, capacity int) *bptree.Tree[int64, string] {
	t.Helper()
	tree, err := bptree.NewOrdered[int64, string](capacity)
	require.NoError(t, err)
	return tree
}

func TestRun_InsertOnly(t *testing.T) {
	tree := newTree(t, 4)
	report, err := Run(context.Background(), tree, config.StressConfig{Inserts: 500, KeyMax: 100, Seed: 1}, zap.NewNop())
	require.NoError(t, err)

	require.Equal(t, 500, report.Inserts)
	require.Zero(t, report.Deletes+report.Misses)
	require.Equal(t, tree.Len(), report.Keys)
	require.LessOrEqual(t, tree.Len(), 100)
	require.NoError(t, tree.Validate())

	for k, v := range tree.All() {
		require.Regexp(t, `^val_\d+_\d+_\S+$`, v)
		require.Contains(t, v, "val_"+itoa(k)+"_")
	}
}

func TestRun_MixedWorkload(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	tree := newTree(t, 3)
	cfg := config.StressConfig{Inserts: 2000, KeyMax: 200, DeleteRatio: 0.4, Seed: 42}

	report, err := Run(context.Background(), tree, cfg, zap.New(core))
	require.NoError(t, err)
	require.Equal(t, 2000, report.Ops())
	require.Positive(t, report.Deletes)
	require.Positive(t, report.Misses)
	require.Equal(t, tree.Len(), report.Keys)
	require.NoError(t, tree.Validate())
	require.Equal(t, 10, logs.FilterMessage("stress progress").Len())
	require.Equal(t, 1, logs.FilterMessage("stress run finished").Len())
}

// TestRun_SeedIsReproducible compares the key sets of two runs with the same
// seed. Values carry a random word and are not compared.
func TestRun_SeedIsReproducible(t *testing.T) {
	cfg := config.StressConfig{Inserts: 300, KeyMax: 1000, DeleteRatio: 0.3, Seed: 9}
	first, second := newTree(t, 3), newTree(t, 5)

	r1, err := Run(context.Background(), first, cfg, nil)
	require.NoError(t, err)
	r2, err := Run(context.Background(), second, cfg, nil)
	require.NoError(t, err)

	require.Equal(t, first.Keys(), second.Keys())
	require.Equal(t, r1.Deletes, r2.Deletes)
	require.Equal(t, uint64(9), r1.Seed)
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := Run(ctx, newTree(t, 4), config.StressConfig{Inserts: 10, KeyMax: 10}, nil)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, report.Ops())
	require.NotZero(t, report.Seed, "a zero seed is replaced by a random one")
}

func TestRun_RateLimited(t *testing.T) {
	cfg := config.StressConfig{Inserts: 11, KeyMax: 10, RatePerSecond: 100, Seed: 3}
	report, err := Run(context.Background(), newTree(t, 4), cfg, nil)
	require.NoError(t, err)
	// The first operation uses the burst; ten more wait 10ms each.
	require.GreaterOrEqual(t, report.Elapsed, 80*time.Millisecond)
}

func TestRun_DeadlineDuringWait(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	cfg := config.StressConfig{Inserts: 1000, KeyMax: 10, RatePerSecond: 20, Seed: 5}
	report, err := Run(ctx, newTree(t, 4), cfg, nil)
	require.Error(t, err)
	require.Less(t, report.Ops(), 1000)
}

func TestRun_InvalidKeyMax(t *testing.T) {
	_, err := Run(context.Background(), newTree(t, 4), config.StressConfig{Inserts: 1}, nil)
	require.ErrorIs(t, err, config.ErrInvalidKeyMax)
}

func itoa(k int64) string {
	return strconv.FormatInt(k, 10)
}
