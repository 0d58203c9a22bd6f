package oracle_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pointake/internal/oracle"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		status   int
		provider string
		want     oracle.ErrorCode
	}{
		{http.StatusTooManyRequests, "", oracle.CodeRateLimited},
		{0, "RESOURCE_EXHAUSTED", oracle.CodeRateLimited},
		{http.StatusServiceUnavailable, "", oracle.CodeOverloaded},
		{0, "UNAVAILABLE", oracle.CodeOverloaded},
		{529, "", oracle.CodeOverloaded},
		{http.StatusBadRequest, "INVALID_ARGUMENT", oracle.CodeRequestFailed},
		{http.StatusInternalServerError, "", oracle.CodeRequestFailed},
		{0, "", oracle.CodeRequestFailed},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_%s", tt.status, tt.provider), func(t *testing.T) {
			assert.Equal(t, tt.want, oracle.Classify(tt.status, tt.provider))
		})
	}
}

func TestNewError_TransientDefaultsRetryAfter(t *testing.T) {
	err := oracle.NewError("gemini", http.StatusTooManyRequests, "", 0, errors.New("quota"))
	assert.True(t, err.Transient())
	assert.Equal(t, 60*time.Second, err.RetryAfter)

	err = oracle.NewError("gemini", http.StatusTooManyRequests, "", 5*time.Second, errors.New("quota"))
	assert.Equal(t, 5*time.Second, err.RetryAfter)
}

func TestNewError_HardFailureHasNoRetryAfter(t *testing.T) {
	err := oracle.NewError("openai", http.StatusUnauthorized, "", 0, errors.New("bad key"))
	assert.False(t, err.Transient())
	assert.Zero(t, err.RetryAfter)
	assert.Contains(t, err.Error(), "status 401")
}

func TestIsTransient_Wrapped(t *testing.T) {
	inner := oracle.NewError("claude", 529, "", 0, errors.New("overloaded"))
	wrapped := fmt.Errorf("extract lines: %w", inner)

	assert.True(t, oracle.IsTransient(wrapped))
	assert.False(t, oracle.IsTransient(errors.New("plain")))
	assert.False(t, oracle.IsTransient(oracle.InvalidOutput("m", errors.New("bad json"))))
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := oracle.NewError("gemini", 503, "", 0, cause)
	assert.ErrorIs(t, err, cause)
}

func TestParseRetryAfterHeader(t *testing.T) {
	assert.Equal(t, 30*time.Second, oracle.ParseRetryAfterHeader("30"))
	assert.Zero(t, oracle.ParseRetryAfterHeader(""))
	assert.Zero(t, oracle.ParseRetryAfterHeader("soon"))
	assert.Zero(t, oracle.ParseRetryAfterHeader("-4"))
}
