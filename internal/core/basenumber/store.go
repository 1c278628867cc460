package basenumber

import (
	"context"
	"errors"
)

// Sentinel errors returned by SequenceStore implementations.
// Stores wrap driver errors with these so the allocator can classify them.
var (
	// ErrConflict means the transaction lost a race (serialization failure,
	// compare-and-swap mismatch, lock contention). Retrying may succeed.
	ErrConflict = errors.New("sequence: concurrent modification")

	// ErrStoreUnavailable means the store could not be reached.
	ErrStoreUnavailable = errors.New("sequence: store unavailable")

	// ErrSequenceExhausted means the stored value cannot be incremented into
	// another valid BaseNumber (negative or at math.MaxInt64).
	ErrSequenceExhausted = errors.New("sequence: no further numbers")
)

// Sequence is the persisted counter record.
type Sequence struct {
	ID            string `db:"id" json:"id"`
	CurrentNumber int64  `db:"current_number" json:"currentNumber"`
}

// SequenceTx is the view of the store inside one transaction.
type SequenceTx interface {
	// FindOrCreateSequence returns the row, creating it with currentNumber=start
	// when absent. Concurrent bootstraps must leave exactly one row.
	FindOrCreateSequence(ctx context.Context, id string, start int64) (Sequence, error)

	// UpdateSequence sets currentNumber=next if it still equals expected.
	// Returns ErrConflict otherwise.
	UpdateSequence(ctx context.Context, id string, expected, next int64) error
}

// SequenceStore is the transactional persistent store behind the allocator.
//
// InTransaction begins a transaction whose isolation prevents two callers from
// both incrementing from the same value, runs fn, and commits when fn returns
// nil. Any error from fn, or a cancelled ctx, rolls the transaction back.
// Commit-time conflicts are reported as ErrConflict.
type SequenceStore interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx SequenceTx) error) error

	// ReadSequence returns the row without creating it.
	ReadSequence(ctx context.Context, id string) (Sequence, bool, error)

	// Ping checks store reachability.
	Ping(ctx context.Context) error
}
