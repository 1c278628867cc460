package basenumber

import (
	"context"
	"sync"
)

// MockAllocator is a test implementation of Allocator.
// Use in unit tests to avoid store dependencies.
type MockAllocator struct {
	AllocateFunc func(ctx context.Context, prefix string) (*Allocation, error)
	CurrentFunc  func(ctx context.Context) (Sequence, bool, error)

	mu    sync.Mutex
	calls []string
}

// Allocate implements Allocator.
func (m *MockAllocator) Allocate(ctx context.Context, prefix string) (*Allocation, error) {
	m.mu.Lock()
	m.calls = append(m.calls, prefix)
	m.mu.Unlock()

	if m.AllocateFunc != nil {
		return m.AllocateFunc(ctx, prefix)
	}
	p, err := ParsePrefix(prefix)
	if err != nil {
		return nil, err
	}
	// Default: return predictable mock number
	return &Allocation{
		BaseNumber:     "10001",
		Prefix:         p,
		Formatted:      "10001-" + string(p),
		SequenceNumber: 10001,
	}, nil
}

// Current implements Allocator.
func (m *MockAllocator) Current(ctx context.Context) (Sequence, bool, error) {
	if m.CurrentFunc != nil {
		return m.CurrentFunc(ctx)
	}
	return Sequence{ID: "base_number", CurrentNumber: 10000}, true, nil
}

// Calls returns the prefixes passed to Allocate, in call order.
func (m *MockAllocator) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// Ensure compile-time interface compliance.
var _ Allocator = (*MockAllocator)(nil)
