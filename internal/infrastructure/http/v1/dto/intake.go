package dto

import "sfgnexus/internal/domain/truthfile"

// OpenEnquiryRequest is the body of POST /enquiries.
type OpenEnquiryRequest struct {
	Fields truthfile.Fields `json:"fields"`
}

// AdvanceRequest is the body of POST /identifiers/advance.
type AdvanceRequest struct {
	Formatted string           `json:"formatted" binding:"required"`
	To        string           `json:"to"`
	Fields    truthfile.Fields `json:"fields"`
}
