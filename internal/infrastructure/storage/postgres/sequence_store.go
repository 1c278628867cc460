package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"sfgnexus/internal/core/basenumber"
)

const sequenceTable = "sys_base_number_sequences"

const sequenceSchema = `
CREATE TABLE IF NOT EXISTS sys_base_number_sequences (
    id             TEXT PRIMARY KEY,
    current_number BIGINT NOT NULL,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Compile-time check that SequenceStore implements basenumber.SequenceStore.
var _ basenumber.SequenceStore = (*SequenceStore)(nil)

// SequenceStore persists BaseNumber sequences in PostgreSQL.
// Every allocation transaction runs SERIALIZABLE; the row is additionally
// locked with SELECT ... FOR UPDATE and updated with a compare-and-swap.
type SequenceStore struct {
	pool      *Pool
	txManager *TxManager
	txOptions TxOptions
}

// NewSequenceStore creates a store on top of pool.
func NewSequenceStore(pool *Pool) *SequenceStore {
	return &SequenceStore{
		pool:      pool,
		txManager: NewTxManager(pool),
		txOptions: SerializableTxOptions(),
	}
}

// builder returns a squirrel builder with PostgreSQL placeholder format.
func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// EnsureSchema creates the sequence table if needed.
func (s *SequenceStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, sequenceSchema); err != nil {
		return classifyError(fmt.Errorf("create %s: %w", sequenceTable, err))
	}
	return nil
}

// InTransaction implements basenumber.SequenceStore.
func (s *SequenceStore) InTransaction(ctx context.Context, fn func(ctx context.Context, tx basenumber.SequenceTx) error) error {
	var fnErr error
	err := s.txManager.RunInTransactionWithOptions(ctx, s.txOptions, func(ctx context.Context) error {
		fnErr = fn(ctx, &sequenceTx{q: s.txManager.GetQuerier(ctx)})
		return fnErr
	})
	if err != nil && err == fnErr {
		// sequenceTx already classified its own failures; caller errors pass through.
		return err
	}
	return classifyError(err)
}

// ReadSequence implements basenumber.SequenceStore.
func (s *SequenceStore) ReadSequence(ctx context.Context, id string) (basenumber.Sequence, bool, error) {
	query, args, err := builder().
		Select("id", "current_number").
		From(sequenceTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return basenumber.Sequence{}, false, fmt.Errorf("build select: %w", err)
	}

	var seq basenumber.Sequence
	if err := pgxscan.Get(ctx, s.txManager.GetQuerier(ctx), &seq, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return basenumber.Sequence{}, false, nil
		}
		return basenumber.Sequence{}, false, classifyError(fmt.Errorf("read sequence: %w", err))
	}
	return seq, true, nil
}

// Ping implements basenumber.SequenceStore.
func (s *SequenceStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", basenumber.ErrStoreUnavailable, err)
	}
	return nil
}

// Stats reports pool statistics for the health endpoint.
func (s *SequenceStore) Stats() map[string]any {
	stats := s.pool.Stats()
	return map[string]any{
		"driver":              "postgres",
		"total_conns":         stats.TotalConns,
		"acquired_conns":      stats.AcquiredConns,
		"idle_conns":          stats.IdleConns,
		"max_conns":           stats.MaxConns,
		"acquire_count":       stats.AcquireCount,
		"acquire_duration_ms": stats.AcquireDuration.Milliseconds(),
	}
}

type sequenceTx struct {
	q Querier
}

func (t *sequenceTx) FindOrCreateSequence(ctx context.Context, id string, start int64) (basenumber.Sequence, error) {
	insert, args, err := builder().
		Insert(sequenceTable).
		Columns("id", "current_number").
		Values(id, start).
		Suffix("ON CONFLICT (id) DO NOTHING").
		ToSql()
	if err != nil {
		return basenumber.Sequence{}, fmt.Errorf("build insert: %w", err)
	}
	if _, err := t.q.Exec(ctx, insert, args...); err != nil {
		return basenumber.Sequence{}, classifyError(fmt.Errorf("bootstrap sequence: %w", err))
	}

	query, args, err := builder().
		Select("id", "current_number").
		From(sequenceTable).
		Where(squirrel.Eq{"id": id}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return basenumber.Sequence{}, fmt.Errorf("build select: %w", err)
	}

	var seq basenumber.Sequence
	if err := pgxscan.Get(ctx, t.q, &seq, query, args...); err != nil {
		return basenumber.Sequence{}, classifyError(fmt.Errorf("load sequence: %w", err))
	}
	return seq, nil
}

func (t *sequenceTx) UpdateSequence(ctx context.Context, id string, expected, next int64) error {
	update, args, err := builder().
		Update(sequenceTable).
		Set("current_number", next).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id, "current_number": expected}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := t.q.Exec(ctx, update, args...)
	if err != nil {
		return classifyError(fmt.Errorf("update sequence: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update sequence %q from %d: %w", id, expected, basenumber.ErrConflict)
	}
	return nil
}
