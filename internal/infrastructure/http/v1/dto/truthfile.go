package dto

import "sfgnexus/internal/domain/truthfile"

// ValidateFieldsRequest is the body of POST /validate-fields.
type ValidateFieldsRequest struct {
	Fields          truthfile.Fields `json:"fields" binding:"required"`
	CheckConversion bool             `json:"checkConversion"`
}

// ValidateFieldsResponse reports the validation outcome. It is returned with
// 200 whether or not the record is valid.
type ValidateFieldsResponse struct {
	Success      bool                       `json:"success"`
	Validation   truthfile.ValidationResult `json:"validation"`
	Completeness int                        `json:"completeness"`
	Message      string                     `json:"message,omitempty"`
}

// GeneratePathsRequest is the body of POST /generate-paths.
type GeneratePathsRequest struct {
	JobPath truthfile.JobPath `json:"jobPath"`
}

// GeneratePathsResponse carries the generated paths.
type GeneratePathsResponse struct {
	Success bool            `json:"success"`
	Paths   truthfile.Paths `json:"paths"`
}
