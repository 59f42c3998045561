package errors

import (
	"encoding/json"
	stderrors "errors"
)

// ErrorResponse is the error envelope used by the Apify API.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody contains the error details.
type ErrorBody struct {
	Type      string         `json:"type"`
	Message   string         `json:"message"`
	Code      ErrorCode      `json:"code,omitempty"`
	Retryable bool           `json:"retryable,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// ToResponse converts an AppError to an ErrorResponse for JSON serialization.
// Type falls back to the kebab-case form of Code.
func (e *AppError) ToResponse() ErrorResponse {
	t := e.Type
	if t == "" {
		t = e.Code.Type()
	}
	return ErrorResponse{
		Error: ErrorBody{
			Type:      t,
			Message:   e.Message,
			Code:      e.Code,
			Retryable: e.Retryable,
			Details:   e.Details,
		},
	}
}

// ParseResponse decodes an API error envelope. It reports false when body
// is not one.
func ParseResponse(body []byte) (ErrorBody, bool) {
	var resp ErrorResponse
	if len(body) == 0 || json.Unmarshal(body, &resp) != nil {
		return ErrorBody{}, false
	}
	if resp.Error.Type == "" && resp.Error.Message == "" {
		return ErrorBody{}, false
	}
	return resp.Error, true
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
