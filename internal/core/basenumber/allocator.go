package basenumber

import "context"

// Allocation is the result of one successful allocation.
type Allocation struct {
	BaseNumber     string `json:"baseNumber"`
	Prefix         Prefix `json:"prefix"`
	Formatted      string `json:"formatted"`
	SequenceNumber int64  `json:"sequenceNumber"`
}

// Identifier returns the allocation as a parsed identifier.
func (a Allocation) Identifier() Identifier {
	return Identifier{BaseNumber: a.BaseNumber, Prefix: a.Prefix}
}

// Allocator issues unique, strictly increasing BaseNumbers.
// This is the domain contract - the implementation lives in domain/allocation.
type Allocator interface {
	// Allocate issues the next BaseNumber joined with prefix.
	// An empty prefix defaults to ENQ.
	Allocate(ctx context.Context, prefix string) (*Allocation, error)

	// Current returns the counter without modifying it.
	// The bool is false when no allocation has happened yet.
	Current(ctx context.Context) (Sequence, bool, error)
}
