package dto

import "sfgnexus/internal/core/basenumber"

// AllocateRequest is the body of POST /allocate-base-number.
// An empty or absent prefix means ENQ.
type AllocateRequest struct {
	Prefix string `json:"prefix"`
}

// AllocationResponse describes one issued BaseNumber.
type AllocationResponse struct {
	BaseNumber     string `json:"baseNumber"`
	Prefix         string `json:"prefix"`
	Formatted      string `json:"formatted"`
	SequenceNumber int64  `json:"sequenceNumber"`
}

// FromAllocation converts a domain allocation.
func FromAllocation(a *basenumber.Allocation) AllocationResponse {
	return AllocationResponse{
		BaseNumber:     a.BaseNumber,
		Prefix:         string(a.Prefix),
		Formatted:      a.Formatted,
		SequenceNumber: a.SequenceNumber,
	}
}

// SequenceResponse is the counter state.
type SequenceResponse struct {
	ID            string `json:"id"`
	CurrentNumber int64  `json:"currentNumber"`
	Initialized   bool   `json:"initialized"`
}

// ParseQuery is the query of GET /base-numbers/parse.
type ParseQuery struct {
	Value string `form:"value" binding:"required"`
}

// IdentifierResponse is a parsed FormattedIdentifier.
type IdentifierResponse struct {
	BaseNumber string `json:"baseNumber"`
	Prefix     string `json:"prefix"`
	Known      bool   `json:"knownPrefix"`
}
