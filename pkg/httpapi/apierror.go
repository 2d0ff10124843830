package httpapi

import (
	"encoding/json"
	"net/http"
)

// APIError is a structured error response. StatusCode drives the HTTP status;
// the rest is serialized into the error envelope.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string { return e.Message }

// ToJSON converts the error into the wire envelope.
func (e *APIError) ToJSON() []byte {
	data, _ := json.Marshal(map[string]any{
		"success": false,
		"error": map[string]any{
			"code":    e.Code,
			"message": e.Message,
		},
	})
	return data
}

func BadRequest(code, message string) *APIError {
	return &APIError{StatusCode: http.StatusBadRequest, Code: code, Message: message}
}

func NotFound(code, message string) *APIError {
	if message == "" {
		message = "resource not found"
	}
	return &APIError{StatusCode: http.StatusNotFound, Code: code, Message: message}
}

func TooManyRequests(message string) *APIError {
	if message == "" {
		message = "rate limited, try again later"
	}
	return &APIError{StatusCode: http.StatusTooManyRequests, Code: "RATE_LIMITED", Message: message}
}

func InternalError(message string) *APIError {
	if message == "" {
		message = "an unexpected error occurred"
	}
	return &APIError{StatusCode: http.StatusInternalServerError, Code: "INTERNAL_ERROR", Message: message}
}
