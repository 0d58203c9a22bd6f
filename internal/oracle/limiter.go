package oracle

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"pointake/internal/port"
)

type limited struct {
	limiter *rate.Limiter
	next    port.Generator
}

// WithRateLimit spaces calls to next to at most perMinute per minute.
// A non-positive perMinute disables limiting.
func WithRateLimit(next port.Generator, perMinute int) port.Generator {
	if perMinute <= 0 {
		return next
	}
	return &limited{
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
		next:    next,
	}
}

func (l *limited) Generate(ctx context.Context, req port.GenerateRequest) (*port.GenerateResponse, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return l.next.Generate(ctx, req)
}
