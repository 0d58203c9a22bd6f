package oracle

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ErrorCode classifies a failed oracle call.
type ErrorCode string

const (
	// CodeRateLimited is a quota or rate-limit rejection (HTTP 429, RESOURCE_EXHAUSTED).
	CodeRateLimited ErrorCode = "RATE_LIMITED"
	// CodeOverloaded is a temporary server-side overload (HTTP 503, UNAVAILABLE).
	CodeOverloaded ErrorCode = "OVERLOADED"
	// CodeInvalidOutput means the model answered but the output broke the contract.
	CodeInvalidOutput ErrorCode = "INVALID_OUTPUT"
	// CodeRequestFailed covers every other failure.
	CodeRequestFailed ErrorCode = "REQUEST_FAILED"
)

// Error is a classified oracle failure. Transient errors are retried, all others
// are terminal for the call.
type Error struct {
	Provider   string
	Code       ErrorCode
	StatusCode int
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s (status %d): %v", e.Provider, e.Code, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Transient reports whether the call may succeed if repeated.
func (e *Error) Transient() bool {
	return e.Code == CodeRateLimited || e.Code == CodeOverloaded
}

// IsTransient reports whether err carries a transient *Error.
func IsTransient(err error) bool {
	var oe *Error
	return errors.As(err, &oe) && oe.Transient()
}

// Classify maps an HTTP status and an optional provider status string to an ErrorCode.
func Classify(statusCode int, providerStatus string) ErrorCode {
	switch {
	case statusCode == http.StatusTooManyRequests || providerStatus == "RESOURCE_EXHAUSTED":
		return CodeRateLimited
	case statusCode == http.StatusServiceUnavailable || providerStatus == "UNAVAILABLE":
		return CodeOverloaded
	case statusCode == 529: // anthropic overloaded_error
		return CodeOverloaded
	default:
		return CodeRequestFailed
	}
}

// NewError builds a classified provider error. A transient error without a
// Retry-After hint defaults to 60s for circuit breaking.
func NewError(provider string, statusCode int, providerStatus string, retryAfter time.Duration, err error) *Error {
	e := &Error{
		Provider:   provider,
		Code:       Classify(statusCode, providerStatus),
		StatusCode: statusCode,
		RetryAfter: retryAfter,
		Err:        err,
	}
	if e.Transient() && e.RetryAfter <= 0 {
		e.RetryAfter = 60 * time.Second
	}
	return e
}

// InvalidOutput wraps a contract violation in the model output.
func InvalidOutput(provider string, err error) *Error {
	return &Error{Provider: provider, Code: CodeInvalidOutput, Err: err}
}

// ParseRetryAfterHeader parses a Retry-After header value given in seconds.
// Returns 0 if the value is empty or not a valid integer.
func ParseRetryAfterHeader(val string) time.Duration {
	if val == "" {
		return 0
	}
	secs, err := strconv.Atoi(val)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
