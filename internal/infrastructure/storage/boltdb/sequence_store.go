// Package boltdb provides an embedded SequenceStore on bbolt.
// bbolt admits one read-write transaction at a time, so allocations never
// race; contention shows up as waiting on the file lock instead.
package boltdb

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"sfgnexus/internal/core/basenumber"
)

var sequenceBucket = []byte("sequences")

// Compile-time check that SequenceStore implements basenumber.SequenceStore.
var _ basenumber.SequenceStore = (*SequenceStore)(nil)

// SequenceStore keeps each sequence as a big-endian uint64 under its id.
type SequenceStore struct {
	db *bolt.DB
}

// Open opens (or creates) the bbolt file at path.
func Open(path string) (*SequenceStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sequenceBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &SequenceStore{db: db}, nil
}

// Close releases the file lock.
func (s *SequenceStore) Close() error {
	return s.db.Close()
}

// InTransaction implements basenumber.SequenceStore.
func (s *SequenceStore) InTransaction(ctx context.Context, fn func(ctx context.Context, tx basenumber.SequenceTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(sequenceBucket)
		if b == nil {
			return fmt.Errorf("bucket %s missing: %w", sequenceBucket, basenumber.ErrStoreUnavailable)
		}
		if err := fn(ctx, &sequenceTx{bucket: b}); err != nil {
			return err
		}
		// Returning an error from Update rolls back.
		return ctx.Err()
	})
	return classifyError(err)
}

// ReadSequence implements basenumber.SequenceStore.
func (s *SequenceStore) ReadSequence(ctx context.Context, id string) (basenumber.Sequence, bool, error) {
	var (
		seq   basenumber.Sequence
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(sequenceBucket)
		if b == nil {
			return nil
		}
		v := b.Get([]byte(id))
		if v == nil {
			return nil
		}
		n, err := decode(v)
		if err != nil {
			return err
		}
		seq, found = basenumber.Sequence{ID: id, CurrentNumber: n}, true
		return nil
	})
	if err != nil {
		return basenumber.Sequence{}, false, classifyError(fmt.Errorf("read sequence: %w", err))
	}
	return seq, found, nil
}

// Ping implements basenumber.SequenceStore.
func (s *SequenceStore) Ping(ctx context.Context) error {
	err := s.db.View(func(tx *bolt.Tx) error { return nil })
	return classifyError(err)
}

// Stats reports transaction counters for the health endpoint.
func (s *SequenceStore) Stats() map[string]any {
	stats := s.db.Stats()
	return map[string]any{
		"driver":       "bolt",
		"path":         s.db.Path(),
		"open_tx":      stats.OpenTxN,
		"total_tx":     stats.TxN,
		"free_pages":   stats.FreePageN,
		"pending_page": stats.PendingPageN,
	}
}

type sequenceTx struct {
	bucket *bolt.Bucket
}

func (t *sequenceTx) FindOrCreateSequence(ctx context.Context, id string, start int64) (basenumber.Sequence, error) {
	if v := t.bucket.Get([]byte(id)); v != nil {
		n, err := decode(v)
		if err != nil {
			return basenumber.Sequence{}, err
		}
		return basenumber.Sequence{ID: id, CurrentNumber: n}, nil
	}
	if err := t.bucket.Put([]byte(id), encode(start)); err != nil {
		return basenumber.Sequence{}, fmt.Errorf("bootstrap sequence: %w", err)
	}
	return basenumber.Sequence{ID: id, CurrentNumber: start}, nil
}

func (t *sequenceTx) UpdateSequence(ctx context.Context, id string, expected, next int64) error {
	v := t.bucket.Get([]byte(id))
	if v == nil {
		return fmt.Errorf("update sequence %q: row does not exist", id)
	}
	cur, err := decode(v)
	if err != nil {
		return err
	}
	if cur != expected {
		return fmt.Errorf("update sequence %q: expected %d, found %d: %w", id, expected, cur, basenumber.ErrConflict)
	}
	if err := t.bucket.Put([]byte(id), encode(next)); err != nil {
		return fmt.Errorf("update sequence: %w", err)
	}
	return nil
}

func encode(n int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(n))
	return buf
}

func decode(v []byte) (int64, error) {
	if len(v) != 8 {
		return 0, fmt.Errorf("corrupt sequence value: %d bytes", len(v))
	}
	return int64(binary.BigEndian.Uint64(v)), nil
}

func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, bolt.ErrDatabaseNotOpen) || errors.Is(err, bolt.ErrTimeout) || errors.Is(err, bolt.ErrTxClosed) {
		return fmt.Errorf("%w: %w", basenumber.ErrStoreUnavailable, err)
	}
	return err
}
