package llm

import (
	"errors"
	"testing"
)

func TestErrorFromStatusCode(t *testing.T) {
	cases := []struct {
		status    int
		wantType  string
		retryable bool
	}{
		{400, "*llm.InvalidRequestError", false},
		{401, "*llm.AuthError", false},
		{403, "*llm.AuthError", false},
		{404, "*llm.NotFoundError", false},
		{408, "*llm.RequestTimeoutError", true},
		{413, "*llm.ContextLengthError", false},
		{422, "*llm.InvalidRequestError", false},
		{429, "*llm.RateLimitError", true},
		{500, "*llm.ServerError", true},
		{502, "*llm.ServerError", true},
		{503, "*llm.ServerError", true},
		{504, "*llm.ServerError", true},
		{418, "*llm.ProviderError", true},
	}

	for _, tc := range cases {
		err := ErrorFromStatusCode(tc.status, "boom", "openai", nil)
		if got := typeName(err); got != tc.wantType {
			t.Errorf("status %d: expected %s, got %s", tc.status, tc.wantType, got)
		}
		if IsRetryable(err) != tc.retryable {
			t.Errorf("status %d: expected retryable=%v", tc.status, tc.retryable)
		}
	}
}

func typeName(err error) string {
	switch err.(type) {
	case *InvalidRequestError:
		return "*llm.InvalidRequestError"
	case *AuthError:
		return "*llm.AuthError"
	case *NotFoundError:
		return "*llm.NotFoundError"
	case *RequestTimeoutError:
		return "*llm.RequestTimeoutError"
	case *ContextLengthError:
		return "*llm.ContextLengthError"
	case *RateLimitError:
		return "*llm.RateLimitError"
	case *ServerError:
		return "*llm.ServerError"
	case *ProviderError:
		return "*llm.ProviderError"
	default:
		return "unknown"
	}
}

func TestIsRetryableFatalTypes(t *testing.T) {
	fatal := []error{
		&AuthError{},
		&InvalidRequestError{},
		&NotFoundError{},
		&ContextLengthError{},
		&MalformedResponseError{},
		&ConfigurationError{},
		&AbortError{},
	}
	for _, err := range fatal {
		if IsRetryable(err) {
			t.Errorf("%T should not be retryable", err)
		}
	}
}

func TestIsRetryableUnknownDefaultsTrue(t *testing.T) {
	if !IsRetryable(errors.New("mystery")) {
		t.Error("unknown errors should default to retryable")
	}
	if IsRetryable(nil) {
		t.Error("nil is not retryable")
	}
}

func TestSDKErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &NetworkError{SDKError: SDKError{Message: "connection reset", Cause: cause}}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
}

func TestRetryAfterHintPreserved(t *testing.T) {
	hint := 2.5
	err := ErrorFromStatusCode(429, "slow down", "openai", &hint)
	rl, ok := err.(*RateLimitError)
	if !ok {
		t.Fatalf("expected RateLimitError, got %T", err)
	}
	if rl.RetryAfter == nil || *rl.RetryAfter != 2.5 {
		t.Errorf("expected retry-after hint 2.5, got %v", rl.RetryAfter)
	}
}
