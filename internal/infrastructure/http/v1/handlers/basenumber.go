package handlers

import (
	"github.com/gin-gonic/gin"

	"sfgnexus/internal/core/apperror"
	"sfgnexus/internal/core/basenumber"
	"sfgnexus/internal/infrastructure/http/v1/dto"
)

// BaseNumberHandler exposes BaseNumber allocation.
type BaseNumberHandler struct {
	*BaseHandler
	allocator basenumber.Allocator
}

// NewBaseNumberHandler creates a new handler.
func NewBaseNumberHandler(base *BaseHandler, allocator basenumber.Allocator) *BaseNumberHandler {
	return &BaseNumberHandler{BaseHandler: base, allocator: allocator}
}

// Allocate issues the next BaseNumber.
// POST /api/v1/allocate-base-number
func (h *BaseNumberHandler) Allocate(c *gin.Context) {
	var req dto.AllocateRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}

	alloc, err := h.allocator.Allocate(c.Request.Context(), req.Prefix)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromAllocation(alloc))
}

// Current returns the counter without advancing it.
// GET /api/v1/base-numbers/current
func (h *BaseNumberHandler) Current(c *gin.Context) {
	seq, found, err := h.allocator.Current(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.SequenceResponse{
		ID:            seq.ID,
		CurrentNumber: seq.CurrentNumber,
		Initialized:   found,
	})
}

// Parse splits a formatted identifier.
// GET /api/v1/base-numbers/parse?value=10001-ENQ
func (h *BaseNumberHandler) Parse(c *gin.Context) {
	var q dto.ParseQuery
	if !h.BindQuery(c, &q) {
		return
	}

	id, ok := basenumber.Parse(q.Value)
	if !ok {
		h.Error(c, apperror.NewValidation("value is not a formatted identifier").
			WithDetail("value", q.Value))
		return
	}

	h.OK(c, dto.IdentifierResponse{
		BaseNumber: id.BaseNumber,
		Prefix:     string(id.Prefix),
		Known:      id.Prefix.Valid(),
	})
}
