package main

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/chesshash/internal/engine"
	"github.com/hailam/chesshash/internal/storage"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	eng, err := engine.New(engine.Config{HashMB: 1}, quiet)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	return eng
}

func TestBenchInterruptIsNotAnError(t *testing.T) {
	store, err := storage.Open("", quiet)
	require.NoError(t, err)
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, bench(ctx, newEngine(t), store, []string{"64"}, quiet))

	// An interrupted bench is not recorded.
	stats, err := store.LoadBenchStats()
	require.NoError(t, err)
	assert.Zero(t, stats.Runs)
}

func TestBenchRecordsCompletedRun(t *testing.T) {
	store, err := storage.Open("", quiet)
	require.NoError(t, err)
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	require.NoError(t, bench(ctx, newEngine(t), store, []string{"4", "1"}, quiet))

	stats, err := store.LoadBenchStats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Runs)
	assert.NotZero(t, stats.TotalNodes)
}

func TestBenchInvalidArgs(t *testing.T) {
	err := bench(context.Background(), newEngine(t), nil, []string{"4", "x"}, quiet)
	assert.ErrorContains(t, err, `invalid argument "x"`)
}
