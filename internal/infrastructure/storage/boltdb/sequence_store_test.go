package boltdb

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"sfgnexus/internal/core/basenumber"
)

func increment(ctx context.Context, s *SequenceStore, id string, start int64) (int64, error) {
	var next int64
	err := s.InTransaction(ctx, func(ctx context.Context, tx basenumber.SequenceTx) error {
		seq, err := tx.FindOrCreateSequence(ctx, id, start)
		if err != nil {
			return err
		}
		next = seq.CurrentNumber + 1
		return tx.UpdateSequence(ctx, id, seq.CurrentNumber, next)
	})
	return next, err
}

func openStore(t *testing.T) (*SequenceStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sequences.bolt")
	s, err := Open(path)
	require.NoError(t, err)
	return s, path
}

func TestSequenceStore_PersistsAcrossReopen(t *testing.T) {
	s, path := openStore(t)
	ctx := context.Background()

	n, err := increment(ctx, s, "base_number", 10000)
	require.NoError(t, err)
	assert.Equal(t, int64(10001), n)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	n, err = increment(ctx, s, "base_number", 10000)
	require.NoError(t, err)
	assert.Equal(t, int64(10002), n)

	seq, found, err := s.ReadSequence(ctx, "base_number")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(10002), seq.CurrentNumber)
}

func TestSequenceStore_RollbackOnError(t *testing.T) {
	s, _ := openStore(t)
	t.Cleanup(func() { _ = s.Close() })
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.InTransaction(ctx, func(ctx context.Context, tx basenumber.SequenceTx) error {
		_, err := tx.FindOrCreateSequence(ctx, "seq", 5)
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, found, err := s.ReadSequence(ctx, "seq")
	require.NoError(t, err)
	assert.False(t, found, "bootstrap must roll back with the transaction")
}

func TestSequenceStore_CancelledBeforeCommit(t *testing.T) {
	s, _ := openStore(t)
	t.Cleanup(func() { _ = s.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	err := s.InTransaction(ctx, func(ctx context.Context, tx basenumber.SequenceTx) error {
		seq, err := tx.FindOrCreateSequence(ctx, "seq", 0)
		require.NoError(t, err)
		require.NoError(t, tx.UpdateSequence(ctx, "seq", seq.CurrentNumber, 1))
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)

	_, found, err := s.ReadSequence(context.Background(), "seq")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSequenceStore_StaleUpdateConflicts(t *testing.T) {
	s, _ := openStore(t)
	t.Cleanup(func() { _ = s.Close() })

	err := s.InTransaction(context.Background(), func(ctx context.Context, tx basenumber.SequenceTx) error {
		_, err := tx.FindOrCreateSequence(ctx, "seq", 3)
		require.NoError(t, err)
		return tx.UpdateSequence(ctx, "seq", 2, 3)
	})
	assert.ErrorIs(t, err, basenumber.ErrConflict)
}

func TestSequenceStore_ConcurrentIncrements(t *testing.T) {
	s, _ := openStore(t)
	t.Cleanup(func() { _ = s.Close() })
	const workers = 50

	results := make([]int64, workers)
	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			n, err := increment(context.Background(), s, "seq", 0)
			results[i] = n
			return err
		})
	}
	require.NoError(t, g.Wait())

	seen := make(map[int64]struct{}, workers)
	for _, n := range results {
		seen[n] = struct{}{}
	}
	assert.Len(t, seen, workers)

	seq, _, err := s.ReadSequence(context.Background(), "seq")
	require.NoError(t, err)
	assert.Equal(t, int64(workers), seq.CurrentNumber)
}

func TestSequenceStore_Closed(t *testing.T) {
	s, _ := openStore(t)
	require.NoError(t, s.Close())

	_, err := increment(context.Background(), s, "seq", 0)
	assert.ErrorIs(t, err, basenumber.ErrStoreUnavailable)
	assert.ErrorIs(t, s.Ping(context.Background()), basenumber.ErrStoreUnavailable)
}
