package handlers

import (
	"github.com/gin-gonic/gin"

	"sfgnexus/internal/domain/intake"
	"sfgnexus/internal/infrastructure/http/v1/dto"
)

// IntakeHandler exposes enquiry intake and lifecycle progression.
type IntakeHandler struct {
	*BaseHandler
	service *intake.Service
}

// NewIntakeHandler creates a new handler.
func NewIntakeHandler(base *BaseHandler, service *intake.Service) *IntakeHandler {
	return &IntakeHandler{BaseHandler: base, service: service}
}

// OpenEnquiry allocates an ENQ number for a new record.
// POST /api/v1/enquiries
func (h *IntakeHandler) OpenEnquiry(c *gin.Context) {
	var req dto.OpenEnquiryRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}

	enq, err := h.service.OpenEnquiry(c.Request.Context(), req.Fields)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, enq)
}

// Advance moves an identifier to its next lifecycle stage.
// POST /api/v1/identifiers/advance
func (h *IntakeHandler) Advance(c *gin.Context) {
	var req dto.AdvanceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	tr, err := h.service.Advance(c.Request.Context(), req.Formatted, req.To, req.Fields)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, tr)
}
