package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"sfgnexus/internal/core/basenumber"
)

// SQLSTATE codes that mean "another transaction won; try again".
const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateUniqueViolation      = "23505"
	sqlStateLockNotAvailable     = "55P03"
)

// SQLSTATE codes that mean the server is going away or refusing work.
const (
	sqlStateAdminShutdown   = "57P01"
	sqlStateCrashShutdown   = "57P02"
	sqlStateCannotConnect   = "57P03"
	sqlStateTooManyConns    = "53300"
	sqlClassConnectionError = "08"
)

// classifyError maps driver errors onto the basenumber sentinels.
// Context errors and unrelated server errors pass through unchanged.
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

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlStateSerializationFailure, sqlStateDeadlockDetected,
			sqlStateUniqueViolation, sqlStateLockNotAvailable:
			return fmt.Errorf("%w: %w", basenumber.ErrConflict, err)
		case sqlStateAdminShutdown, sqlStateCrashShutdown,
			sqlStateCannotConnect, sqlStateTooManyConns:
			return fmt.Errorf("%w: %w", basenumber.ErrStoreUnavailable, err)
		}
		if strings.HasPrefix(pgErr.Code, sqlClassConnectionError) {
			return fmt.Errorf("%w: %w", basenumber.ErrStoreUnavailable, err)
		}
		return err
	}

	// Row vanished between bootstrap and select: a concurrent writer got there first.
	if pgxscan.NotFound(err) {
		return fmt.Errorf("%w: %w", basenumber.ErrConflict, err)
	}

	// No server response at all: refused connection, closed pool, network failure.
	return fmt.Errorf("%w: %w", basenumber.ErrStoreUnavailable, err)
}
