package requester

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimited decorates a Requester with a token-bucket cap on outbound
// request rate. Not used by core scheduling — the Admission Controller's
// FIFO semaphore bounds concurrent executions, a different axis from
// request throughput — this is an optional wrapper for scenarios whose
// steps target rate-limited third-party APIs. Grounded in Mulder90-maestro's
// internal/ratelimit.RateLimiter.
type RateLimited struct {
	next    Requester
	mu      sync.RWMutex
	limiter *rate.Limiter
}

// NewRateLimited wraps next with a limiter allowing rps requests/second,
// bursting up to rps.
func NewRateLimited(next Requester, rps int) *RateLimited {
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
	}
}

// SetRate adjusts the limit and burst together, for runtime reconfiguration.
func (r *RateLimited) SetRate(rps int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.limiter.SetLimit(rate.Limit(rps))
	r.limiter.SetBurst(rps)
}

// Perform blocks until a token is available (or ctx is cancelled), then
// delegates to next.
func (r *RateLimited) Perform(ctx context.Context, req Request) (*Response, error) {
	r.mu.RLock()
	limiter := r.limiter
	r.mu.RUnlock()

	if limiter.Limit() == 0 {
		return r.next.Perform(ctx, req)
	}
	if err := limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.next.Perform(ctx, req)
}
