package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/simsweep/internal/sweep/layout"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	id, err := s.BeginSweep(ctx, Sweep{App: "bench.py", Dir: "/tmp/out", Mode: "threads", Seed: 1<<63 + 5, Trials: 2})
	require.NoError(t, err)

	samples := []Sample{
		{Task: "4_2_1_1", Layout: layout.Layout{Components: 4, EventsPerComponent: 2}, Concurrency: 1, Trial: 1, Elapsed: 2.5, Events: 500, Rate: 200},
		{Task: "4_2_1_0", Layout: layout.Layout{Components: 4, EventsPerComponent: 2}, Concurrency: 1, Trial: 0, Elapsed: 2, Events: 500, Rate: 250},
	}
	for _, smp := range samples {
		require.NoError(t, s.RecordSample(ctx, id, smp))
	}
	require.NoError(t, s.FinishSweep(ctx, id, StatusSucceeded))

	sw, err := s.Sweep(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "bench.py", sw.App)
	assert.Equal(t, uint64(1<<63+5), sw.Seed)
	assert.Equal(t, 2, sw.Trials)
	assert.Equal(t, StatusSucceeded, sw.Status)
	assert.False(t, sw.FinishedAt.IsZero())

	got, err := s.Samples(ctx, id)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, samples[1], got[0])
	assert.Equal(t, samples[0], got[1])
}

func TestStore_DuplicateSample(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	id, err := s.BeginSweep(ctx, Sweep{App: "a", Dir: "d", Mode: "threads", Trials: 1})
	require.NoError(t, err)

	smp := Sample{Task: "1_1_1_0", Layout: layout.Layout{Components: 1, EventsPerComponent: 1}, Concurrency: 1, Rate: 1}
	require.NoError(t, s.RecordSample(ctx, id, smp))
	assert.Error(t, s.RecordSample(ctx, id, smp))
}

func TestStore_UnknownSweep(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.Sweep(ctx, 42)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.FinishSweep(ctx, 42, StatusFailed), ErrNotFound)
}

func TestStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "results.db")

	s, err := Open(path)
	require.NoError(t, err)
	id, err := s.BeginSweep(ctx, Sweep{App: "a", Dir: "d", Mode: "processes", Trials: 3})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	sw, err := s.Sweep(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "processes", sw.Mode)
	assert.Equal(t, StatusRunning, sw.Status)
}
