package handlers

import (
	"github.com/gin-gonic/gin"

	"sfgnexus/internal/domain/truthfile"
	"sfgnexus/internal/infrastructure/http/v1/dto"
)

// TruthFileHandler exposes field validation and path generation.
type TruthFileHandler struct {
	*BaseHandler
	validator *truthfile.Validator
	paths     *truthfile.PathBuilder
}

// NewTruthFileHandler creates a new handler.
func NewTruthFileHandler(base *BaseHandler, validator *truthfile.Validator, paths *truthfile.PathBuilder) *TruthFileHandler {
	return &TruthFileHandler{BaseHandler: base, validator: validator, paths: paths}
}

// ValidateFields checks a record. An invalid record is still a 200: the
// request succeeded, the record did not.
// POST /api/v1/validate-fields
func (h *TruthFileHandler) ValidateFields(c *gin.Context) {
	var req dto.ValidateFieldsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	var result truthfile.ValidationResult
	if req.CheckConversion {
		result = h.validator.ValidateQuoteToOrderConversion(req.Fields)
	} else {
		result = h.validator.ValidateRequiredFields(req.Fields)
	}

	h.JSON(c, dto.ValidateFieldsResponse{
		Success:      true,
		Validation:   result,
		Completeness: h.validator.Completeness(req.Fields),
		Message:      truthfile.MissingFieldsMessage(result.Missing),
	})
}

// GeneratePaths renders the canonical and month shortcut paths.
// POST /api/v1/generate-paths
func (h *TruthFileHandler) GeneratePaths(c *gin.Context) {
	var req dto.GeneratePathsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	paths, err := h.paths.Build(req.JobPath)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.JSON(c, dto.GeneratePathsResponse{Success: true, Paths: paths})
}

// Folders lists the job folder structure, optionally for one area.
// GET /api/v1/folders?stage=drawings
func (h *TruthFileHandler) Folders(c *gin.Context) {
	if stage := c.Query("stage"); stage != "" {
		h.OK(c, h.paths.FoldersByStage(stage))
		return
	}
	h.OK(c, h.paths.Folders())
}
