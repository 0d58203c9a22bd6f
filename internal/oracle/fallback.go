package oracle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"pointake/internal/port"
)

// circuitState tracks backoff for a single provider after a transient failure.
type circuitState struct {
	mu      sync.RWMutex
	resetAt time.Time // zero value = closed (healthy)
}

func (c *circuitState) isOpenWithReset(now time.Time) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resetAt, !c.resetAt.IsZero() && now.Before(c.resetAt)
}

func (c *circuitState) open(resetAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetAt = resetAt
}

func (c *circuitState) close() {
	c.open(time.Time{})
}

// Fallback tries generators in order, skipping those with open circuits.
type Fallback struct {
	gens     []port.Generator
	circuits []*circuitState
	names    []string
	logger   *zap.Logger
	now      func() time.Time
}

// NewFallback creates a Fallback from an ordered list of generators and their names.
func NewFallback(gens []port.Generator, names []string, logger *zap.Logger) *Fallback {
	circuits := make([]*circuitState, len(gens))
	for i := range circuits {
		circuits[i] = &circuitState{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fallback{
		gens:     gens,
		circuits: circuits,
		names:    names,
		logger:   logger,
		now:      time.Now,
	}
}

// Generate tries each provider whose circuit is closed. When every circuit is open
// all providers are tried anyway, so callers never wait out a circuit without a call.
func (f *Fallback) Generate(ctx context.Context, req port.GenerateRequest) (*port.GenerateResponse, error) {
	now := f.now()
	var lastErr error
	allTransient := true
	var earliestReset time.Time

	order := f.closed(now)
	if len(order) == 0 {
		f.logger.Debug("oracle.Fallback.Generate: all circuits open, trying every provider")
		order = make([]int, len(f.gens))
		for i := range order {
			order[i] = i
		}
	}

	for _, i := range order {
		out, err := f.gens[i].Generate(ctx, req)
		if err == nil {
			f.circuits[i].close()
			return out, nil
		}

		f.logger.Warn("oracle.Fallback.Generate: provider failed",
			zap.String("provider", f.names[i]), zap.Error(err))
		lastErr = err

		var oe *Error
		if errors.As(err, &oe) && oe.Transient() {
			resetAt := now.Add(oe.RetryAfter)
			f.circuits[i].open(resetAt)
			if earliestReset.IsZero() || resetAt.Before(earliestReset) {
				earliestReset = resetAt
			}
		} else {
			allTransient = false
		}
	}

	if lastErr == nil {
		return nil, errors.New("no oracle providers")
	}
	if allTransient {
		retryAfter := earliestReset.Sub(f.now())
		if retryAfter < time.Second {
			retryAfter = time.Second
		}
		return nil, &Error{
			Provider:   "all",
			Code:       CodeRateLimited,
			RetryAfter: retryAfter,
			Err:        errors.New("all providers rate limited or overloaded"),
		}
	}

	return nil, fmt.Errorf("all providers failed: %w", lastErr)
}

// closed returns the indexes of providers whose circuit is closed at now, in order.
func (f *Fallback) closed(now time.Time) []int {
	idx := make([]int, 0, len(f.gens))
	for i := range f.gens {
		if resetAt, open := f.circuits[i].isOpenWithReset(now); open {
			f.logger.Debug("oracle.Fallback.Generate: skipping provider",
				zap.String("provider", f.names[i]), zap.Time("circuit_open_until", resetAt))
			continue
		}
		idx = append(idx, i)
	}
	return idx
}
