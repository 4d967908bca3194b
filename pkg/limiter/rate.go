package limiter

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter
// Specialized component to pace requests during crawling
// Responsibilities:
// - Keep one token bucket per hostname
// - Block a caller until its host allows another request
// - Never reorder or drop requests, only delay them
type RateLimiter interface {
	Wait(ctx context.Context, host string) error
}

// ConcurrentRateLimiter is safe for use by many fetch goroutines at once.
// A non-positive requestsPerSecond disables limiting entirely.
type ConcurrentRateLimiter struct {
	mu                sync.Mutex
	requestsPerSecond float64
	burst             int
	hostLimiters      map[string]*rate.Limiter
}

func NewConcurrentRateLimiter(requestsPerSecond float64, burst int) *ConcurrentRateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &ConcurrentRateLimiter{
		requestsPerSecond: requestsPerSecond,
		burst:             burst,
		hostLimiters:      make(map[string]*rate.Limiter),
	}
}

func (r *ConcurrentRateLimiter) Wait(ctx context.Context, host string) error {
	if r.requestsPerSecond <= 0 {
		return ctx.Err()
	}
	return r.limiterFor(host).Wait(ctx)
}

func (r *ConcurrentRateLimiter) limiterFor(host string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, exists := r.hostLimiters[host]
	if !exists {
		l = rate.NewLimiter(rate.Limit(r.requestsPerSecond), r.burst)
		r.hostLimiters[host] = l
	}
	return l
}

// HostCount returns how many hosts currently have a token bucket.
func (r *ConcurrentRateLimiter) HostCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.hostLimiters)
}

// RequestsPerSecond returns the configured per-host rate.
func (r *ConcurrentRateLimiter) RequestsPerSecond() float64 {
	return r.requestsPerSecond
}

// NoopRateLimiter never delays.
type NoopRateLimiter struct{}

func (NoopRateLimiter) Wait(ctx context.Context, host string) error {
	return ctx.Err()
}
