package allocation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"

	"sfgnexus/internal/core/apperror"
	"sfgnexus/internal/core/basenumber"
	"sfgnexus/internal/infrastructure/storage/memory"
)

const (
	timeout = 2 * time.Second
	tick    = 5 * time.Millisecond
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newService(store basenumber.SequenceStore) *Service {
	return NewService(store, basenumber.Config{
		SequenceID:   "base_number",
		StartValue:   10000,
		MaxAttempts:  5,
		RetryBackoff: 0,
	})
}

// countingStore counts transactions and can inject failures into the first
// attempts.
type countingStore struct {
	basenumber.SequenceStore
	txCount atomic.Int32
	failFor int32
	failErr error
}

func (s *countingStore) InTransaction(ctx context.Context, fn func(ctx context.Context, tx basenumber.SequenceTx) error) error {
	n := s.txCount.Add(1)
	if s.failErr != nil && (s.failFor < 0 || n <= s.failFor) {
		return fmt.Errorf("attempt %d: %w", n, s.failErr)
	}
	return s.SequenceStore.InTransaction(ctx, fn)
}

func TestAllocate_Example(t *testing.T) {
	svc := newService(memory.NewSequenceStore())
	ctx := context.Background()

	a, err := svc.Allocate(ctx, "QUO")
	require.NoError(t, err)
	assert.Equal(t, "10001-QUO", a.Formatted)
	assert.Equal(t, "10001", a.BaseNumber)
	assert.Equal(t, basenumber.PrefixQuote, a.Prefix)
	assert.Equal(t, int64(10001), a.SequenceNumber)

	a, err = svc.Allocate(ctx, "ORD")
	require.NoError(t, err)
	assert.Equal(t, "10002-ORD", a.Formatted)
}

func TestAllocate_EmptyPrefixDefaultsToEnquiry(t *testing.T) {
	svc := newService(memory.NewSequenceStore())

	a, err := svc.Allocate(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "10001-ENQ", a.Formatted)
}

func TestAllocate_Monotonic(t *testing.T) {
	svc := newService(memory.NewSequenceStore())
	ctx := context.Background()

	var prev int64
	for i := 0; i < 20; i++ {
		a, err := svc.Allocate(ctx, "ENQ")
		require.NoError(t, err)
		assert.Greater(t, a.SequenceNumber, prev)
		prev = a.SequenceNumber
	}
}

func TestAllocate_InvalidPrefixLeavesCounterUntouched(t *testing.T) {
	store := &countingStore{SequenceStore: memory.NewSequenceStore()}
	svc := newService(store)
	ctx := context.Background()

	_, err := svc.Allocate(ctx, "ENQ")
	require.NoError(t, err)

	for _, bad := range []string{"XYZ", "enq", "ENQ-", "123"} {
		_, err := svc.Allocate(ctx, bad)
		require.Error(t, err, bad)
		assert.True(t, apperror.IsValidation(err), bad)
	}

	assert.Equal(t, int32(1), store.txCount.Load(), "invalid prefixes must not open a transaction")
	seq, found, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(10001), seq.CurrentNumber)
}

func TestAllocate_ConcurrentCallersGetDistinctNumbers(t *testing.T) {
	svc := newService(memory.NewSequenceStore())
	const callers = 100

	var (
		mu      sync.Mutex
		numbers = make([]int64, 0, callers)
	)
	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < callers; i++ {
		g.Go(func() error {
			a, err := svc.Allocate(ctx, "ENQ")
			if err != nil {
				return err
			}
			mu.Lock()
			numbers = append(numbers, a.SequenceNumber)
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())

	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })
	for i, n := range numbers {
		assert.Equal(t, int64(10001+i), n, "numbers must be distinct and gap-free")
	}

	seq, found, err := svc.Current(context.Background())
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(10000+callers), seq.CurrentNumber)
}

func TestAllocate_BootstrapRace(t *testing.T) {
	store := memory.NewSequenceStore()
	svc := newService(store)
	const callers = 30

	seen := make([]string, callers)
	var g errgroup.Group
	for i := 0; i < callers; i++ {
		g.Go(func() error {
			a, err := svc.Allocate(context.Background(), "QUO")
			if err != nil {
				return err
			}
			seen[i] = a.BaseNumber
			return nil
		})
	}
	require.NoError(t, g.Wait())

	distinct := make(map[string]struct{}, callers)
	for _, b := range seen {
		distinct[b] = struct{}{}
	}
	assert.Len(t, distinct, callers)

	seq, found, err := store.ReadSequence(context.Background(), "base_number")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(10000+callers), seq.CurrentNumber)
}

func TestAllocate_RetriesConflicts(t *testing.T) {
	store := &countingStore{
		SequenceStore: memory.NewSequenceStore(),
		failFor:       3,
		failErr:       basenumber.ErrConflict,
	}
	svc := newService(store)

	a, err := svc.Allocate(context.Background(), "ENQ")
	require.NoError(t, err)
	assert.Equal(t, "10001-ENQ", a.Formatted, "failed attempts must not consume numbers")
	assert.Equal(t, int32(4), store.txCount.Load())
}

func TestAllocate_ConcurrencyExhausted(t *testing.T) {
	store := &countingStore{
		SequenceStore: memory.NewSequenceStore(),
		failFor:       -1,
		failErr:       basenumber.ErrConflict,
	}
	svc := newService(store)

	_, err := svc.Allocate(context.Background(), "ENQ")
	require.Error(t, err)
	assert.True(t, apperror.IsConcurrencyExhausted(err))
	assert.ErrorIs(t, err, basenumber.ErrConflict)
	assert.Equal(t, int32(5), store.txCount.Load())

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 503, appErr.HTTPStatus)
	assert.Equal(t, 5, appErr.Details["attempts"])
}

func TestAllocate_StoreUnavailableIsNotRetried(t *testing.T) {
	store := &countingStore{
		SequenceStore: memory.NewSequenceStore(),
		failFor:       -1,
		failErr:       basenumber.ErrStoreUnavailable,
	}
	svc := newService(store)

	_, err := svc.Allocate(context.Background(), "ORD")
	require.Error(t, err)
	assert.True(t, apperror.IsStoreUnavailable(err))
	assert.ErrorIs(t, err, basenumber.ErrStoreUnavailable)
	assert.Equal(t, int32(1), store.txCount.Load())
}

func TestAllocate_ClosedMemoryStore(t *testing.T) {
	store := memory.NewSequenceStore()
	store.Close()

	_, err := newService(store).Allocate(context.Background(), "ENQ")
	assert.True(t, apperror.IsStoreUnavailable(err))
}

func TestAllocate_UnknownStoreErrorIsInternal(t *testing.T) {
	store := &countingStore{
		SequenceStore: memory.NewSequenceStore(),
		failFor:       -1,
		failErr:       errors.New("disk on fire"),
	}
	_, err := newService(store).Allocate(context.Background(), "ENQ")
	assert.True(t, apperror.HasCode(err, apperror.CodeInternal))
	assert.Equal(t, int32(1), store.txCount.Load())
}

func TestAllocate_CancelledContext(t *testing.T) {
	store := &countingStore{SequenceStore: memory.NewSequenceStore()}
	svc := newService(store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Allocate(ctx, "ENQ")
	assert.ErrorIs(t, err, context.Canceled)
	assert.LessOrEqual(t, store.txCount.Load(), int32(1), "cancellation must not be retried")

	_, found, err := svc.Current(context.Background())
	require.NoError(t, err)
	assert.False(t, found, "cancelled allocation must not bootstrap the sequence")
}

func TestAllocate_CancelDuringBackoff(t *testing.T) {
	store := &countingStore{
		SequenceStore: memory.NewSequenceStore(),
		failFor:       -1,
		failErr:       basenumber.ErrConflict,
	}
	svc := NewService(store, basenumber.Config{MaxAttempts: 5, RetryBackoff: 1 << 40})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := svc.Allocate(ctx, "ENQ")
		done <- err
	}()

	require.Eventually(t, func() bool { return store.txCount.Load() == 1 }, timeout, tick)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, int32(1), store.txCount.Load())
}

func TestCurrent_BeforeFirstAllocation(t *testing.T) {
	svc := newService(memory.NewSequenceStore())

	seq, found, err := svc.Current(context.Background())
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, "base_number", seq.ID)
	assert.Equal(t, int64(10000), seq.CurrentNumber)
}

func TestAllocate_StartValueFromConfig(t *testing.T) {
	svc := NewService(memory.NewSequenceStore(), basenumber.Config{StartValue: 0})

	a, err := svc.Allocate(context.Background(), "INV")
	require.NoError(t, err)
	assert.Equal(t, "1-INV", a.Formatted)

	id, ok := basenumber.Parse(a.Formatted)
	require.True(t, ok)
	assert.Equal(t, strconv.FormatInt(a.SequenceNumber, 10), id.BaseNumber)
	assert.Equal(t, "base_number", svc.Config().SequenceID)
}

func TestAllocate_NegativeStartValueIsRejectedBeforeTheStore(t *testing.T) {
	store := &countingStore{SequenceStore: memory.NewSequenceStore()}
	svc := NewService(store, basenumber.Config{StartValue: -5})

	_, err := svc.Allocate(context.Background(), "ENQ")
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	assert.Equal(t, int32(0), store.txCount.Load())

	_, found, err := store.ReadSequence(context.Background(), "base_number")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestAllocate_ExhaustedSequenceIsNotWritten(t *testing.T) {
	store := memory.NewSequenceStore()
	svc := NewService(store, basenumber.Config{StartValue: math.MaxInt64})

	_, err := svc.Allocate(context.Background(), "ENQ")
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeBusinessRule))
	assert.ErrorIs(t, err, basenumber.ErrSequenceExhausted)

	_, found, err := store.ReadSequence(context.Background(), "base_number")
	require.NoError(t, err)
	assert.False(t, found, "the bootstrap row is rolled back with the failed attempt")
}

func TestAllocate_ExhaustedAfterLastNumber(t *testing.T) {
	store := memory.NewSequenceStore()
	svc := NewService(store, basenumber.Config{StartValue: math.MaxInt64 - 1})
	ctx := context.Background()

	a, err := svc.Allocate(ctx, "ORD")
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), a.SequenceNumber)

	_, err = svc.Allocate(ctx, "ORD")
	assert.ErrorIs(t, err, basenumber.ErrSequenceExhausted)

	seq, found, err := store.ReadSequence(ctx, "base_number")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(math.MaxInt64), seq.CurrentNumber)
}
