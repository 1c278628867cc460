package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sfgnexus/internal/core/basenumber"
)

func increment(ctx context.Context, s *SequenceStore, id string) (int64, error) {
	var next int64
	err := s.InTransaction(ctx, func(ctx context.Context, tx basenumber.SequenceTx) error {
		seq, err := tx.FindOrCreateSequence(ctx, id, 100)
		if err != nil {
			return err
		}
		next = seq.CurrentNumber + 1
		return tx.UpdateSequence(ctx, id, seq.CurrentNumber, next)
	})
	return next, err
}

func TestSequenceStore_BootstrapAndIncrement(t *testing.T) {
	s := NewSequenceStore()
	ctx := context.Background()

	_, found, err := s.ReadSequence(ctx, "seq")
	require.NoError(t, err)
	assert.False(t, found)

	n, err := increment(ctx, s, "seq")
	require.NoError(t, err)
	assert.Equal(t, int64(101), n)

	n, err = increment(ctx, s, "seq")
	require.NoError(t, err)
	assert.Equal(t, int64(102), n)

	seq, found, err := s.ReadSequence(ctx, "seq")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(102), seq.CurrentNumber)
}

func TestSequenceStore_RollbackDiscardsWrites(t *testing.T) {
	s := NewSequenceStore()
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.InTransaction(ctx, func(ctx context.Context, tx basenumber.SequenceTx) error {
		seq, err := tx.FindOrCreateSequence(ctx, "seq", 100)
		require.NoError(t, err)
		require.NoError(t, tx.UpdateSequence(ctx, "seq", seq.CurrentNumber, seq.CurrentNumber+1))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	// Even the bootstrap row is rolled back.
	_, found, err := s.ReadSequence(ctx, "seq")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSequenceStore_CompareAndSwapConflict(t *testing.T) {
	s := NewSequenceStore()
	ctx := context.Background()

	err := s.InTransaction(ctx, func(ctx context.Context, tx basenumber.SequenceTx) error {
		_, err := tx.FindOrCreateSequence(ctx, "seq", 100)
		require.NoError(t, err)
		return tx.UpdateSequence(ctx, "seq", 99, 100)
	})
	assert.ErrorIs(t, err, basenumber.ErrConflict)
}

func TestSequenceStore_CancelledWhileWaiting(t *testing.T) {
	s := NewSequenceStore()
	hold := make(chan struct{})
	entered := make(chan struct{})

	go func() {
		_ = s.InTransaction(context.Background(), func(ctx context.Context, tx basenumber.SequenceTx) error {
			close(entered)
			<-hold
			return nil
		})
	}()
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := increment(ctx, s, "seq")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(hold)
}

func TestSequenceStore_CancelledBeforeCommit(t *testing.T) {
	s := NewSequenceStore()
	ctx, cancel := context.WithCancel(context.Background())

	err := s.InTransaction(ctx, func(ctx context.Context, tx basenumber.SequenceTx) error {
		seq, err := tx.FindOrCreateSequence(ctx, "seq", 100)
		require.NoError(t, err)
		require.NoError(t, tx.UpdateSequence(ctx, "seq", seq.CurrentNumber, seq.CurrentNumber+1))
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)

	_, found, err := s.ReadSequence(context.Background(), "seq")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSequenceStore_Closed(t *testing.T) {
	s := NewSequenceStore()
	s.Close()
	ctx := context.Background()

	_, err := increment(ctx, s, "seq")
	assert.ErrorIs(t, err, basenumber.ErrStoreUnavailable)
	assert.ErrorIs(t, s.Ping(ctx), basenumber.ErrStoreUnavailable)

	_, _, err = s.ReadSequence(ctx, "seq")
	assert.ErrorIs(t, err, basenumber.ErrStoreUnavailable)
}
