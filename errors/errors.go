// Package errors provides unified error handling for the transcription
// service. It implements structured error types with error codes, HTTP status
// mapping, and retryable detection.
package errors

import (
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// httpStatusByCode mirrors the statuses the constructors assign, for errors
// rebuilt from a serialized code.
var httpStatusByCode = map[ErrorCode]int{
	ErrCodeDecode:            http.StatusBadRequest,
	ErrCodeInvalidDuration:   http.StatusBadRequest,
	ErrCodeProviderTimeout:   http.StatusGatewayTimeout,
	ErrCodeProviderHTTP:      http.StatusBadGateway,
	ErrCodeProviderRequest:   http.StatusInternalServerError,
	ErrCodeMalformedResponse: http.StatusBadGateway,
	ErrCodeTranslation:       http.StatusInternalServerError,
	ErrCodeNotFound:          http.StatusNotFound,
	ErrCodeStorage:           http.StatusInternalServerError,
	ErrCodeInvalidInput:      http.StatusBadRequest,
	ErrCodeInternal:          http.StatusInternalServerError,
}

// FromCode rebuilds an AppError from a code and message that crossed a
// serialization boundary, such as a per-chunk failure record carried inside
// a result. Unknown codes map to HTTP 500 and are not retryable.
func FromCode(code ErrorCode, message string) *AppError {
	status, ok := httpStatusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: status,
		Retryable:  IsRetryableCode(code),
	}
}

// --- Segmentation ---

// Decode creates a new AppError for audio bytes that cannot be parsed.
func Decode(format string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeDecode, Message: fmt.Sprintf("Audio data could not be decoded as %s.", format),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"format": format}, Cause: cause,
	}
}

// InvalidDuration creates a new AppError for a zero or negative audio duration.
func InvalidDuration(seconds float64) *AppError {
	return &AppError{
		Code: ErrCodeInvalidDuration, Message: "Audio duration must be positive.",
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"duration_seconds": seconds},
	}
}

// --- Chunk transcription ---

// ProviderTimeout creates a new AppError for a provider request that timed out
// awaiting the transcription response.
func ProviderTimeout(provider string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeProviderTimeout, Message: fmt.Sprintf("The request to %s timed out.", provider),
		HTTPStatus: http.StatusGatewayTimeout, Retryable: true,
		Details: map[string]any{"provider": provider}, Cause: cause,
	}
}

// ProviderHTTP creates a new AppError for a non-2xx provider response.
func ProviderHTTP(provider string, status int, body string) *AppError {
	return &AppError{
		Code: ErrCodeProviderHTTP, Message: fmt.Sprintf("%s returned HTTP %d.", provider, status),
		HTTPStatus: http.StatusBadGateway, Retryable: true,
		Details: map[string]any{"provider": provider, "status": status, "body": body},
	}
}

// ProviderRequest creates a new AppError for a request-level provider failure
// (connection refused, DNS, aborted transfer).
func ProviderRequest(provider string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeProviderRequest, Message: fmt.Sprintf("Error communicating with %s.", provider),
		HTTPStatus: http.StatusInternalServerError, Retryable: true,
		Details: map[string]any{"provider": provider}, Cause: cause,
	}
}

// MalformedResponse creates a new AppError for a 2xx provider payload that is
// missing a required field.
func MalformedResponse(provider, field string) *AppError {
	return &AppError{
		Code: ErrCodeMalformedResponse, Message: fmt.Sprintf("%s response is missing required field %q.", provider, field),
		HTTPStatus: http.StatusBadGateway, Retryable: false,
		Details: map[string]any{"provider": provider, "field": field},
	}
}

// --- Translation ---

// Translation creates a new AppError for a translation failure. Callers log
// this and degrade to an empty translation; it is never returned upstream.
func Translation(cause error) *AppError {
	return &AppError{
		Code: ErrCodeTranslation, Message: "Translation failed.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}

// --- Storage ---

// NotFound creates a new AppError for a missing storage object.
func NotFound(key string) *AppError {
	return &AppError{
		Code: ErrCodeNotFound, Message: "The requested object was not found.",
		HTTPStatus: http.StatusNotFound, Retryable: false,
		Details: map[string]any{"key": key},
	}
}

// Storage creates a new AppError for an object storage failure.
func Storage(cause error) *AppError {
	return &AppError{
		Code: ErrCodeStorage, Message: "An object storage error occurred.",
		HTTPStatus: http.StatusInternalServerError, Retryable: true, Cause: cause,
	}
}

// --- Generic ---

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false, Details: details,
	}
}

// Internal creates a new AppError for an unexpected internal error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}
