// Package sqlite provides a file-backed SequenceStore on modernc.org/sqlite.
// A single writer connection serializes all transactions.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/sqlscan"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"sfgnexus/internal/core/basenumber"
)

const sequenceTable = "sys_base_number_sequences"

const sequenceSchema = `
CREATE TABLE IF NOT EXISTS sys_base_number_sequences (
    id             TEXT PRIMARY KEY,
    current_number INTEGER NOT NULL,
    created_at     TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at     TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// Compile-time check that SequenceStore implements basenumber.SequenceStore.
var _ basenumber.SequenceStore = (*SequenceStore)(nil)

// SequenceStore persists sequences in a SQLite database file.
type SequenceStore struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(ctx context.Context, path string) (*SequenceStore, error) {
	dsn := "file:" + path + "?" + url.Values{
		"_pragma": []string{"busy_timeout(5000)", "journal_mode(WAL)"},
	}.Encode()

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// SQLite allows one writer; one connection keeps every transaction serial.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, sequenceSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create %s: %w", sequenceTable, err)
	}

	return &SequenceStore{db: db}, nil
}

// Close releases the database handle.
func (s *SequenceStore) Close() error {
	return s.db.Close()
}

// InTransaction implements basenumber.SequenceStore.
func (s *SequenceStore) InTransaction(ctx context.Context, fn func(ctx context.Context, tx basenumber.SequenceTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("begin transaction: %w: %w", basenumber.ErrStoreUnavailable, err)
	}

	if err := fn(ctx, &sequenceTx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return classifyError(err)
	}
	if err := ctx.Err(); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return classifyError(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// ReadSequence implements basenumber.SequenceStore.
func (s *SequenceStore) ReadSequence(ctx context.Context, id string) (basenumber.Sequence, bool, error) {
	query, args, err := squirrel.
		Select("id", "current_number").
		From(sequenceTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return basenumber.Sequence{}, false, fmt.Errorf("build select: %w", err)
	}

	var seq basenumber.Sequence
	if err := sqlscan.Get(ctx, s.db, &seq, query, args...); err != nil {
		if sqlscan.NotFound(err) {
			return basenumber.Sequence{}, false, nil
		}
		return basenumber.Sequence{}, false, classifyError(fmt.Errorf("read sequence: %w", err))
	}
	return seq, true, nil
}

// Ping implements basenumber.SequenceStore.
func (s *SequenceStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", basenumber.ErrStoreUnavailable, err)
	}
	return nil
}

// Stats reports connection statistics for the health endpoint.
func (s *SequenceStore) Stats() map[string]any {
	stats := s.db.Stats()
	return map[string]any{
		"driver":           "sqlite",
		"open_connections": stats.OpenConnections,
		"in_use":           stats.InUse,
		"wait_count":       stats.WaitCount,
	}
}

type sequenceTx struct {
	tx *sql.Tx
}

func (t *sequenceTx) FindOrCreateSequence(ctx context.Context, id string, start int64) (basenumber.Sequence, error) {
	insert, args, err := squirrel.
		Insert(sequenceTable).
		Columns("id", "current_number").
		Values(id, start).
		Suffix("ON CONFLICT (id) DO NOTHING").
		ToSql()
	if err != nil {
		return basenumber.Sequence{}, fmt.Errorf("build insert: %w", err)
	}
	if _, err := t.tx.ExecContext(ctx, insert, args...); err != nil {
		return basenumber.Sequence{}, fmt.Errorf("bootstrap sequence: %w", err)
	}

	query, args, err := squirrel.
		Select("id", "current_number").
		From(sequenceTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return basenumber.Sequence{}, fmt.Errorf("build select: %w", err)
	}

	var seq basenumber.Sequence
	if err := sqlscan.Get(ctx, t.tx, &seq, query, args...); err != nil {
		return basenumber.Sequence{}, fmt.Errorf("load sequence: %w", err)
	}
	return seq, nil
}

func (t *sequenceTx) UpdateSequence(ctx context.Context, id string, expected, next int64) error {
	update, args, err := squirrel.
		Update(sequenceTable).
		Set("current_number", next).
		Set("updated_at", squirrel.Expr("CURRENT_TIMESTAMP")).
		Where(squirrel.Eq{"id": id, "current_number": expected}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	res, err := t.tx.ExecContext(ctx, update, args...)
	if err != nil {
		return fmt.Errorf("update sequence: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update sequence: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update sequence %q from %d: %w", id, expected, basenumber.ErrConflict)
	}
	return nil
}

// classifyError maps SQLite lock contention to ErrConflict and a closed
// handle to ErrStoreUnavailable.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, basenumber.ErrConflict) || errors.Is(err, basenumber.ErrStoreUnavailable) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return fmt.Errorf("%w: %w", basenumber.ErrConflict, err)
		case sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_IOERR:
			return fmt.Errorf("%w: %w", basenumber.ErrStoreUnavailable, err)
		}
		return err
	}

	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("%w: %w", basenumber.ErrStoreUnavailable, err)
	}
	return err
}
