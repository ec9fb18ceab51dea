package api

import (
	"encoding/json"
	"io"
)

// ErrorResponse is written when an operation fails
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SuccessResponse wraps the result of an operation
type SuccessResponse struct {
	Data any `json:"data"`
}

// Error codes
const (
	CodeAlreadyExists     = "ALREADY_EXISTS"
	CodeNotFound          = "NOT_FOUND"
	CodeConflict          = "CONFLICT"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeInvalidArgument   = "INVALID_ARGUMENT"
	CodeMalformedResponse = "MALFORMED_RESPONSE"
	CodeUnavailable       = "UNAVAILABLE"
	CodeCanceled          = "CANCELED"
	CodeInternal          = "INTERNAL"
)

// WriteError writes a standardized JSON error response
func WriteError(w io.Writer, code, message string) error {
	return encode(w, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// WriteSuccess writes a standardized JSON success response
func WriteSuccess(w io.Writer, data any) error {
	return encode(w, SuccessResponse{Data: data})
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
