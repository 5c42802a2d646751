package llm

import "fmt"

// SDKError is the base error type for all provider-layer errors.
type SDKError struct {
	Message string
	Cause   error
}

func (e *SDKError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *SDKError) Unwrap() error {
	return e.Cause
}

// ProviderError represents an error returned by an LLM backend.
type ProviderError struct {
	SDKError
	Provider   string
	StatusCode int
	Retryable  bool
	RetryAfter *float64
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("[%s] %s (status=%d, retryable=%v)", e.Provider, e.Message, e.StatusCode, e.Retryable)
}

// Concrete provider error types.

// AuthError is fatal: bad or missing credentials are never retried.
type AuthError struct{ ProviderError }

// RateLimitError is transient; RetryAfter may carry the server's hint.
type RateLimitError struct{ ProviderError }

// ServerError covers 5xx upstream failures; transient.
type ServerError struct{ ProviderError }

// InvalidRequestError covers 400/422 rejections; fatal for that call.
type InvalidRequestError struct{ ProviderError }

// NotFoundError covers unknown models or endpoints; fatal.
type NotFoundError struct{ ProviderError }

// ContextLengthError is returned when the conversation exceeds the
// model's context window; fatal.
type ContextLengthError struct{ ProviderError }

// Non-provider errors.

// MalformedResponseError means the backend's answer violates the
// normalized contract (e.g. neither text nor tool calls). Fatal for the
// call that produced it.
type MalformedResponseError struct{ SDKError }

// RequestTimeoutError is transient.
type RequestTimeoutError struct{ SDKError }

// NetworkError covers transport-level failures; transient.
type NetworkError struct{ SDKError }

// AbortError is produced when a call is cancelled via its context.
type AbortError struct{ SDKError }

// ConfigurationError is rejected before any run starts, never mid-run.
type ConfigurationError struct{ SDKError }

// ErrorFromStatusCode maps an HTTP status code to the appropriate error type.
func ErrorFromStatusCode(statusCode int, message, provider string, retryAfter *float64) error {
	pe := ProviderError{
		SDKError:   SDKError{Message: message},
		Provider:   provider,
		StatusCode: statusCode,
		RetryAfter: retryAfter,
	}

	switch statusCode {
	case 400, 422:
		return &InvalidRequestError{ProviderError: pe}
	case 401, 403:
		return &AuthError{ProviderError: pe}
	case 404:
		return &NotFoundError{ProviderError: pe}
	case 408:
		return &RequestTimeoutError{SDKError: SDKError{Message: message}}
	case 413:
		return &ContextLengthError{ProviderError: pe}
	case 429:
		pe.Retryable = true
		return &RateLimitError{ProviderError: pe}
	case 500, 502, 503, 504:
		pe.Retryable = true
		return &ServerError{ProviderError: pe}
	default:
		// Unknown status codes default to retryable.
		pe.Retryable = true
		return &pe
	}
}

// IsRetryable reports whether the error is a transient provider failure
// that is safe to retry. Auth, malformed-response, invalid-request,
// configuration, and abort errors are never retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	switch e := err.(type) {
	case *ProviderError:
		return e.Retryable
	case *RateLimitError, *ServerError, *NetworkError, *RequestTimeoutError:
		return true
	case *AuthError, *InvalidRequestError, *NotFoundError, *ContextLengthError,
		*MalformedResponseError, *ConfigurationError, *AbortError:
		return false
	default:
		// Unknown errors default to retryable.
		return true
	}
}

// IsAbort reports whether the error originated from context cancellation.
func IsAbort(err error) bool {
	_, ok := err.(*AbortError)
	return ok
}
