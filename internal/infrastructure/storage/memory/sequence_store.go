// Package memory provides an in-process SequenceStore.
// Used for tests and single-process development; state dies with the process.
package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"sfgnexus/internal/core/basenumber"
)

// Compile-time check that SequenceStore implements basenumber.SequenceStore.
var _ basenumber.SequenceStore = (*SequenceStore)(nil)

// SequenceStore keeps sequences in a map. Transactions are serialized by a
// single-slot semaphore and buffer their writes until commit.
type SequenceStore struct {
	sem    chan struct{}
	mu     sync.RWMutex
	rows   map[string]int64
	closed atomic.Bool
}

// NewSequenceStore creates an empty store.
func NewSequenceStore() *SequenceStore {
	return &SequenceStore{
		sem:  make(chan struct{}, 1),
		rows: make(map[string]int64),
	}
}

// InTransaction runs fn exclusively. Writes become visible only if fn returns
// nil and ctx is still live at commit time.
func (s *SequenceStore) InTransaction(ctx context.Context, fn func(ctx context.Context, tx basenumber.SequenceTx) error) error {
	if s.closed.Load() {
		return fmt.Errorf("begin transaction: %w", basenumber.ErrStoreUnavailable)
	}

	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-s.sem }()

	tx := &sequenceTx{store: s, writes: make(map[string]int64)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	for id, v := range tx.writes {
		s.rows[id] = v
	}
	s.mu.Unlock()
	return nil
}

// ReadSequence returns the committed row.
func (s *SequenceStore) ReadSequence(ctx context.Context, id string) (basenumber.Sequence, bool, error) {
	if s.closed.Load() {
		return basenumber.Sequence{}, false, fmt.Errorf("read sequence: %w", basenumber.ErrStoreUnavailable)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.rows[id]
	if !ok {
		return basenumber.Sequence{}, false, nil
	}
	return basenumber.Sequence{ID: id, CurrentNumber: v}, true, nil
}

// Ping reports ErrStoreUnavailable after Close.
func (s *SequenceStore) Ping(ctx context.Context) error {
	if s.closed.Load() {
		return basenumber.ErrStoreUnavailable
	}
	return nil
}

// Close makes every later call fail with ErrStoreUnavailable.
func (s *SequenceStore) Close() {
	s.closed.Store(true)
}

type sequenceTx struct {
	store  *SequenceStore
	writes map[string]int64
}

func (t *sequenceTx) lookup(id string) (int64, bool) {
	if v, ok := t.writes[id]; ok {
		return v, true
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	v, ok := t.store.rows[id]
	return v, ok
}

func (t *sequenceTx) FindOrCreateSequence(ctx context.Context, id string, start int64) (basenumber.Sequence, error) {
	if v, ok := t.lookup(id); ok {
		return basenumber.Sequence{ID: id, CurrentNumber: v}, nil
	}
	t.writes[id] = start
	return basenumber.Sequence{ID: id, CurrentNumber: start}, nil
}

func (t *sequenceTx) UpdateSequence(ctx context.Context, id string, expected, next int64) error {
	cur, ok := t.lookup(id)
	if !ok {
		return fmt.Errorf("update sequence %q: row does not exist", id)
	}
	if cur != expected {
		return fmt.Errorf("update sequence %q: expected %d, found %d: %w", id, expected, cur, basenumber.ErrConflict)
	}
	t.writes[id] = next
	return nil
}
