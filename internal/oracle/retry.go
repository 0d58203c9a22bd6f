package oracle

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"

	"pointake/internal/port"
)

// Backoff is the retry schedule for transient oracle failures: retry n waits
// BaseDelay * 2^n, for at most MaxRetries retries.
type Backoff struct {
	BaseDelay  time.Duration
	MaxRetries int
}

// DefaultBackoff waits 2s, 4s and 8s.
func DefaultBackoff() Backoff {
	return Backoff{BaseDelay: 2 * time.Second, MaxRetries: 3}
}

// Attempts is the total number of calls including the first.
func (b Backoff) Attempts() uint {
	if b.MaxRetries < 0 {
		return 1
	}
	return uint(b.MaxRetries) + 1
}

// Delay is the wait before retry n, counted from 0.
func (b Backoff) Delay(n uint) time.Duration {
	if n > 30 {
		n = 30
	}
	return b.BaseDelay << n
}

type retrying struct {
	next    port.Generator
	backoff Backoff
	logger  *zap.Logger
	timer   retry.Timer // nil uses retry-go's default
}

// WithRetry retries transient failures of next on the backoff schedule. Any other
// error is returned immediately; once retries are exhausted the last error is returned.
func WithRetry(next port.Generator, backoff Backoff, logger *zap.Logger) port.Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &retrying{next: next, backoff: backoff, logger: logger}
}

func (r *retrying) Generate(ctx context.Context, req port.GenerateRequest) (*port.GenerateResponse, error) {
	var resp *port.GenerateResponse
	opts := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(r.backoff.Attempts()),
		// retry-go counts the retry about to happen from 1.
		retry.DelayType(func(n uint, _ error, _ *retry.Config) time.Duration {
			if n == 0 {
				return r.backoff.Delay(0)
			}
			return r.backoff.Delay(n - 1)
		}),
		retry.RetryIf(IsTransient),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			if n+1 < r.backoff.Attempts() {
				r.logger.Warn("oracle.retrying.Generate: transient failure, backing off",
					zap.Uint("attempt", n+1), zap.Duration("delay", r.backoff.Delay(n)), zap.Error(err))
			}
		}),
	}
	if r.timer != nil {
		opts = append(opts, retry.WithTimer(r.timer))
	}
	err := retry.Do(
		func() error {
			out, err := r.next.Generate(ctx, req)
			if err != nil {
				return err
			}
			resp = out
			return nil
		},
		opts...,
	)
	if err != nil {
		return nil, err
	}
	return resp, nil
}
