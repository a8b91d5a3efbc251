package notifier

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter implements token bucket algorithm for rate limiting.
// It prevents webhook APIs from being overwhelmed with too many requests.
type RateLimiter struct {
	rate    rate.Limit
	burst   int
	limiter *rate.Limiter
}

// NewRateLimiter creates a new RateLimiter with the specified rate and burst capacity.
//
// Parameters:
//   - requestsPerSecond: Maximum sustained request rate (e.g., 1.0 for one request per second)
//   - burst: Maximum number of requests that can be made in a burst
//
// The token bucket allows up to 'burst' requests immediately, then refills
// tokens at 'requestsPerSecond'.
func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	r := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		r = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		rate:    r,
		burst:   burst,
		limiter: rate.NewLimiter(r, burst),
	}
}

// Allow blocks until a token is available or the context is canceled.
func (r *RateLimiter) Allow(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// RateLimiters keeps one RateLimiter per webhook URL, so that topics sharing
// a webhook share its budget.
type RateLimiters struct {
	requestsPerSecond float64
	burst             int

	mu       sync.Mutex
	limiters map[string]*RateLimiter
}

// NewRateLimiters creates an empty set using the given rate and burst for
// every key.
func NewRateLimiters(requestsPerSecond float64, burst int) *RateLimiters {
	return &RateLimiters{
		requestsPerSecond: requestsPerSecond,
		burst:             burst,
		limiters:          make(map[string]*RateLimiter),
	}
}

// Allow waits for a token from key's limiter.
func (s *RateLimiters) Allow(ctx context.Context, key string) error {
	return s.get(key).Allow(ctx)
}

func (s *RateLimiters) get(key string) *RateLimiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.limiters[key]
	if !ok {
		l = NewRateLimiter(s.requestsPerSecond, s.burst)
		s.limiters[key] = l
	}
	return l
}
