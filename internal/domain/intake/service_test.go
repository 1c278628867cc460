package intake

import (
	"context"
	"maps"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sfgnexus/internal/core/apperror"
	"sfgnexus/internal/core/basenumber"
	"sfgnexus/internal/domain/allocation"
	"sfgnexus/internal/domain/truthfile"
	"sfgnexus/internal/infrastructure/storage/memory"
)

func newTestService(allocator basenumber.Allocator) *Service {
	clock := func() time.Time { return time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC) }
	return NewService(allocator, truthfile.NewValidator(nil), truthfile.NewPathBuilder(nil, clock))
}

func TestOpenEnquiry_Complete(t *testing.T) {
	alloc := allocation.NewService(memory.NewSequenceStore(), basenumber.DefaultConfig())
	svc := newTestService(alloc)

	input := truthfile.Fields{
		"Customer":     "Acme",
		"Project":      "Riverside",
		"Location":     "Leeds",
		"ProductType":  "Doors",
		"DeliveryType": "Collected",
	}
	enq, err := svc.OpenEnquiry(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, "10001-ENQ", enq.Allocation.Formatted)
	assert.True(t, enq.Validation.Valid)
	assert.Equal(t, 100, enq.Completeness)
	assert.Empty(t, enq.RedAlert)
	require.NotNil(t, enq.Paths)
	assert.Equal(t,
		"/sites/Files/SFG Aluminium/2025 SFG Aluminium/Active/10001-ENQ/Acme/Riverside/Leeds/Doors/Collected",
		enq.Paths.Canonical)
	assert.Equal(t, "/sites/Files/SFG Aluminium/2025 SFG Aluminium/June 2025/Active", enq.Paths.MonthShortcut)

	assert.NotContains(t, input, "BaseNumber", "caller fields are not mutated")
	assert.Equal(t, "10001", enq.Fields["BaseNumber"])
}

func TestOpenEnquiry_MissingFieldsRaiseRedAlert(t *testing.T) {
	svc := newTestService(&basenumber.MockAllocator{})

	enq, err := svc.OpenEnquiry(context.Background(), truthfile.Fields{"Customer": "Acme"})
	require.NoError(t, err)
	assert.False(t, enq.Validation.Valid)
	assert.Equal(t, []string{"Project", "Location"}, enq.Validation.Missing)
	assert.Equal(t, 60, enq.Completeness)
	assert.Nil(t, enq.Paths)
	assert.Contains(t, enq.RedAlert, "Project 10001 for Acme")
}

func TestOpenEnquiry_WithoutDeliveryTypeHasNoPaths(t *testing.T) {
	svc := newTestService(&basenumber.MockAllocator{})

	enq, err := svc.OpenEnquiry(context.Background(), truthfile.Fields{
		"Customer": "Acme", "Project": "Riverside", "Location": "Leeds",
	})
	require.NoError(t, err)
	assert.True(t, enq.Validation.Valid)
	assert.Nil(t, enq.Paths)
}

func TestOpenEnquiry_AllocationFailure(t *testing.T) {
	mock := &basenumber.MockAllocator{
		AllocateFunc: func(ctx context.Context, prefix string) (*basenumber.Allocation, error) {
			return nil, apperror.NewStoreUnavailable(basenumber.ErrStoreUnavailable)
		},
	}
	_, err := newTestService(mock).OpenEnquiry(context.Background(), nil)
	assert.True(t, apperror.IsStoreUnavailable(err))
	assert.Equal(t, []string{"ENQ"}, mock.Calls())
}

func TestAdvance(t *testing.T) {
	svc := newTestService(&basenumber.MockAllocator{})
	ctx := context.Background()

	tr, err := svc.Advance(ctx, "10001-ENQ", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "10001-QUO", tr.Formatted)
	assert.Nil(t, tr.Validation)

	tr, err = svc.Advance(ctx, "10001-QUO", "QUO", nil)
	require.NoError(t, err)
	assert.Equal(t, "10001-QUO", tr.Formatted, "quote revisions keep the prefix")

	tr, err = svc.Advance(ctx, "10001-INV", "", nil)
	require.NoError(t, err)
	assert.Equal(t, basenumber.PrefixDelivery, tr.To.Prefix)
}

func TestAdvance_Rejections(t *testing.T) {
	svc := newTestService(&basenumber.MockAllocator{})
	ctx := context.Background()

	_, err := svc.Advance(ctx, "garbage", "", nil)
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.Advance(ctx, "10001-XYZ", "", nil)
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.Advance(ctx, "10001-ENQ", "ORD", nil)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTransition))

	_, err = svc.Advance(ctx, "10001-PAID", "", nil)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTransition))

	_, err = svc.Advance(ctx, "10001-ENQ", "bogus", nil)
	assert.True(t, apperror.IsValidation(err))
}

func TestAdvance_ConversionGate(t *testing.T) {
	svc := newTestService(&basenumber.MockAllocator{})
	ctx := context.Background()

	fields := truthfile.Fields{
		"BaseNumber":   "10001",
		"Prefix":       "QUO",
		"Customer":     "Acme",
		"Project":      "Riverside",
		"Location":     "Leeds",
		"ProductType":  "Doors",
		"DeliveryType": "Collected",
	}

	_, err := svc.Advance(ctx, "10001-QUO", "ORD", fields)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeConversionBlocked))
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, 422, appErr.HTTPStatus)
	assert.Equal(t, []string{"ENQ_initial_count", "Current_product_count"}, appErr.Details["missing"])

	fields["ENQ_initial_count"] = 3
	fields["Current_product_count"] = 3
	tr, err := svc.Advance(ctx, "10001-QUO", "", fields)
	require.NoError(t, err)
	assert.Equal(t, "10001-ORD", tr.Formatted)
	require.NotNil(t, tr.Validation)
	assert.True(t, tr.Validation.Valid)
}

func TestAdvance_ConversionGateUsesIdentifier(t *testing.T) {
	svc := newTestService(&basenumber.MockAllocator{})
	ctx := context.Background()

	fields := truthfile.Fields{
		"Customer":              "Acme",
		"Project":               "Riverside",
		"Location":              "Leeds",
		"ProductType":           "Doors",
		"DeliveryType":          "Collected",
		"ENQ_initial_count":     2,
		"Current_product_count": 2,
	}
	tr, err := svc.Advance(ctx, "10001-QUO", "ORD", fields)
	require.NoError(t, err, "BaseNumber and Prefix come from the identifier")
	assert.Equal(t, "10001-ORD", tr.Formatted)
	assert.NotContains(t, fields, "BaseNumber", "caller fields are not mutated")

	mismatched := maps.Clone(fields)
	mismatched["BaseNumber"] = "99999"
	_, err = svc.Advance(ctx, "10001-QUO", "ORD", mismatched)
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	mismatched = maps.Clone(fields)
	mismatched["Prefix"] = "ENQ"
	_, err = svc.Advance(ctx, "10001-QUO", "ORD", mismatched)
	assert.True(t, apperror.IsValidation(err))
}
