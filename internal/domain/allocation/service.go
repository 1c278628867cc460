// Package allocation implements the BaseNumber allocator on top of a
// transactional SequenceStore.
package allocation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"sfgnexus/internal/core/apperror"
	"sfgnexus/internal/core/basenumber"
	"sfgnexus/pkg/logger"
)

var tracer = otel.Tracer("sfgnexus/allocation")

// Ensure compile-time interface compliance.
var _ basenumber.Allocator = (*Service)(nil)

// Service issues BaseNumbers. It holds no counter of its own: every
// allocation is a read-increment-write transaction against the store.
type Service struct {
	store     basenumber.SequenceStore
	config    basenumber.Config
	configErr error
}

// NewService creates an allocator. Zero config fields take defaults.
// An invalid config is reported by every Allocate call before the store is
// touched; callers that want to fail fast check Config.Validate first.
func NewService(store basenumber.SequenceStore, cfg basenumber.Config) *Service {
	cfg = cfg.WithDefaults()
	return &Service{
		store:     store,
		config:    cfg,
		configErr: cfg.Validate(),
	}
}

// Config returns the effective configuration.
func (s *Service) Config() basenumber.Config {
	return s.config
}

// Allocate issues the next BaseNumber and joins it with prefix.
func (s *Service) Allocate(ctx context.Context, rawPrefix string) (*basenumber.Allocation, error) {
	// Validate before touching the store: an invalid prefix must not consume a number.
	prefix, err := basenumber.ParsePrefix(rawPrefix)
	if err != nil {
		return nil, err
	}
	if s.configErr != nil {
		return nil, s.configErr
	}

	ctx, span := tracer.Start(ctx, "basenumber.allocate")
	defer span.End()
	span.SetAttributes(attribute.String("prefix", prefix.String()))

	next, attempts, err := s.allocateWithRetry(ctx)
	span.SetAttributes(attribute.Int("attempts", attempts))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	baseNumber := basenumber.FormatNumber(next)
	formatted, err := basenumber.Format(baseNumber, prefix)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	logger.Info(ctx, "base number allocated",
		"base_number", baseNumber,
		"prefix", prefix,
		"attempts", attempts,
	)

	return &basenumber.Allocation{
		BaseNumber:     baseNumber,
		Prefix:         prefix,
		Formatted:      formatted,
		SequenceNumber: next,
	}, nil
}

// allocateWithRetry runs the increment transaction until it commits, the
// store fails, ctx ends or the attempts run out.
func (s *Service) allocateWithRetry(ctx context.Context) (int64, int, error) {
	var lastErr error
	for attempt := 1; attempt <= s.config.MaxAttempts; attempt++ {
		next, err := s.increment(ctx)
		if err == nil {
			return next, attempt, nil
		}

		switch {
		case ctx.Err() != nil:
			return 0, attempt, ctx.Err()
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return 0, attempt, err
		case errors.Is(err, basenumber.ErrStoreUnavailable):
			logger.Error(ctx, "sequence store unavailable", "attempt", attempt, "error", err)
			return 0, attempt, apperror.NewStoreUnavailable(err)
		case errors.Is(err, basenumber.ErrSequenceExhausted):
			logger.Error(ctx, "sequence exhausted", "sequence_id", s.config.SequenceID, "error", err)
			return 0, attempt, apperror.NewBusinessRule(apperror.CodeBusinessRule, "sequence has no further numbers").
				WithDetail("sequence", s.config.SequenceID).
				WithCause(err)
		case errors.Is(err, basenumber.ErrConflict):
			lastErr = err
			logger.Debug(ctx, "allocation conflict, retrying", "attempt", attempt, "error", err)
		default:
			logger.Error(ctx, "allocation failed", "attempt", attempt, "error", err)
			return 0, attempt, apperror.NewInternal(err)
		}

		if attempt < s.config.MaxAttempts {
			if err := s.backoff(ctx, attempt); err != nil {
				return 0, attempt, err
			}
		}
	}

	logger.Warn(ctx, "allocation retries exhausted",
		"attempts", s.config.MaxAttempts,
		"error", lastErr,
	)
	return 0, s.config.MaxAttempts,
		apperror.NewConcurrencyExhausted(s.config.SequenceID, s.config.MaxAttempts).WithCause(lastErr)
}

// increment is one attempt: bootstrap-or-read, +1, compare-and-swap, commit.
func (s *Service) increment(ctx context.Context) (int64, error) {
	var next int64
	err := s.store.InTransaction(ctx, func(ctx context.Context, tx basenumber.SequenceTx) error {
		seq, err := tx.FindOrCreateSequence(ctx, s.config.SequenceID, s.config.StartValue)
		if err != nil {
			return err
		}
		// Checked before the write so the transaction rolls back untouched.
		if seq.CurrentNumber < 0 || seq.CurrentNumber == math.MaxInt64 {
			return fmt.Errorf("%w: current value %d", basenumber.ErrSequenceExhausted, seq.CurrentNumber)
		}
		next = seq.CurrentNumber + 1
		return tx.UpdateSequence(ctx, s.config.SequenceID, seq.CurrentNumber, next)
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

// backoff sleeps RetryBackoff*attempt plus up to the same again of jitter.
func (s *Service) backoff(ctx context.Context, attempt int) error {
	base := s.config.RetryBackoff * time.Duration(attempt)
	if base <= 0 {
		return ctx.Err()
	}
	delay := base + rand.N(base)

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Current reads the counter without creating it.
func (s *Service) Current(ctx context.Context) (basenumber.Sequence, bool, error) {
	seq, found, err := s.store.ReadSequence(ctx, s.config.SequenceID)
	if err != nil {
		if errors.Is(err, basenumber.ErrStoreUnavailable) {
			return basenumber.Sequence{}, false, apperror.NewStoreUnavailable(err)
		}
		if ctx.Err() != nil {
			return basenumber.Sequence{}, false, ctx.Err()
		}
		return basenumber.Sequence{}, false, apperror.NewInternal(fmt.Errorf("read sequence %s: %w", s.config.SequenceID, err))
	}
	if !found {
		return basenumber.Sequence{ID: s.config.SequenceID, CurrentNumber: s.config.StartValue}, false, nil
	}
	return seq, true, nil
}
