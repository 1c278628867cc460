// Package dto provides Data Transfer Objects for API requests/responses.
package dto

// --- Envelopes ---

// SuccessResponse wraps a successful payload.
type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// NewSuccess wraps data in a success envelope.
func NewSuccess(data any) SuccessResponse {
	return SuccessResponse{Success: true, Data: data}
}

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorEnvelope is the body of every failed request.
type ErrorEnvelope struct {
	Success bool          `json:"success"`
	Error   ErrorResponse `json:"error"`
}

// NewErrorEnvelope builds the failure body.
func NewErrorEnvelope(code, message string, details map[string]any) ErrorEnvelope {
	return ErrorEnvelope{
		Success: false,
		Error: ErrorResponse{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}
