// Package ratelimit provides a token bucket limiter for outbound requests.
package ratelimit

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Limiter implements the token bucket algorithm for outbound calls.
// It keeps a remote API from being hit faster than it tolerates, e.g. when a
// user mashes refresh while a poll tick is also firing.
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a Limiter allowing requestsPerSecond sustained with the given
// burst. A non-positive rate disables limiting.
//
// Example:
//
//	limiter := ratelimit.New(2.0, 4) // 2 req/s with burst of 4
func New(requestsPerSecond float64, burst int) *Limiter {
	if requestsPerSecond <= 0 {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst)}
}

// Wait blocks until a token is available or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

// Allow reports whether a request may proceed now without waiting.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// Limit returns the configured sustained rate.
func (l *Limiter) Limit() float64 {
	return float64(l.limiter.Limit())
}

// Burst returns the configured burst size.
func (l *Limiter) Burst() int {
	return l.limiter.Burst()
}
