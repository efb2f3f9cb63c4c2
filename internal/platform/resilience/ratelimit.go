package resilience

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter enforces a minimum delay between outbound calls shared by all
// fetch workers talking to the same host.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter returns a limiter that lets one call through per minDelay.
// A non-positive minDelay disables limiting.
func NewRateLimiter(minDelay time.Duration) *RateLimiter {
	if minDelay <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Every(minDelay), 1)}
}

func (l *RateLimiter) Wait(ctx context.Context) error {
	if l == nil || l.limiter == nil {
		return nil
	}
	return l.limiter.Wait(ctx)
}
