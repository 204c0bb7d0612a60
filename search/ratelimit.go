package search

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiters holds one token-bucket limiter per provider name, so a slow
// or throttled provider never starves the others in a profile.
type RateLimiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      float64
	burst    int
}

// NewRateLimiters builds a limiter set using rps requests/second and burst
// for every provider's bucket; there is no per-provider override.
func NewRateLimiters(rps float64, burst int) *RateLimiters {
	if rps <= 0 {
		rps = 2
	}
	if burst <= 0 {
		burst = 4
	}
	return &RateLimiters{limiters: make(map[string]*rate.Limiter), rps: rps, burst: burst}
}

func (r *RateLimiters) forProvider(name string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.limiters[name]
	if !ok {
		l = rate.NewLimiter(rate.Limit(r.rps), r.burst)
		r.limiters[name] = l
	}
	return l
}

// Wait blocks until the named provider's bucket admits one more call, or
// ctx is done.
func (r *RateLimiters) Wait(ctx context.Context, provider string) error {
	return r.forProvider(provider).Wait(ctx)
}
