package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Segmentation errors
const (
	// ErrCodeDecode indicates the audio bytes could not be parsed in the declared format.
	ErrCodeDecode ErrorCode = "DECODE_ERROR"
	// ErrCodeInvalidDuration indicates the audio duration resolved to zero or negative.
	ErrCodeInvalidDuration ErrorCode = "INVALID_DURATION"
)

// Chunk transcription errors
const (
	// ErrCodeProviderTimeout indicates the speech-to-text provider did not answer in time.
	ErrCodeProviderTimeout ErrorCode = "PROVIDER_TIMEOUT"
	// ErrCodeProviderHTTP indicates the provider returned a non-2xx status.
	ErrCodeProviderHTTP ErrorCode = "PROVIDER_HTTP_ERROR"
	// ErrCodeProviderRequest indicates a request-level failure talking to the provider.
	ErrCodeProviderRequest ErrorCode = "PROVIDER_REQUEST_ERROR"
	// ErrCodeMalformedResponse indicates a 2xx provider payload missing required fields.
	ErrCodeMalformedResponse ErrorCode = "MALFORMED_RESPONSE"
)

// Translation errors
const (
	// ErrCodeTranslation indicates a translation failure. Translation is
	// best-effort enrichment; this code is logged, never propagated.
	ErrCodeTranslation ErrorCode = "TRANSLATION_ERROR"
)

// Storage errors
const (
	// ErrCodeNotFound indicates the requested object was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeStorage indicates an object storage failure.
	ErrCodeStorage ErrorCode = "STORAGE_ERROR"
)

// Generic errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeProviderTimeout: true,
	ErrCodeProviderHTTP:    true,
	ErrCodeProviderRequest: true,
	ErrCodeStorage:         true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
