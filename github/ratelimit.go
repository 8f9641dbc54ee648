package github

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultRequestsPerSecond keeps well under the authenticated quota of
	// 5000 requests per hour.
	DefaultRequestsPerSecond = 1.2

	// minRemaining is the number of requests held in reserve before waiting
	// for the quota to reset.
	minRemaining = 10

	headerRemaining = "X-RateLimit-Remaining"
	headerReset     = "X-RateLimit-Reset"
)

// RateLimiter throttles API calls with a token bucket and additionally waits
// for the quota reset once the remaining budget reported by the API is low.
type RateLimiter struct {
	bucket *rate.Limiter

	mu        sync.Mutex
	remaining int
	reset     time.Time
}

// NewRateLimiter returns a limiter allowing rps requests per second. A
// non-positive rps disables proactive throttling.
func NewRateLimiter(rps float64) *RateLimiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	return &RateLimiter{
		bucket:    rate.NewLimiter(limit, 1),
		remaining: -1,
	}
}

// Wait blocks until a request may be made or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if err := r.bucket.Wait(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	remaining, reset := r.remaining, r.reset
	r.mu.Unlock()

	if remaining < 0 || remaining >= minRemaining || !time.Now().Before(reset) {
		return nil
	}
	timer := time.NewTimer(time.Until(reset))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Update records the quota reported in response headers.
func (r *RateLimiter) Update(resp *http.Response) {
	if resp == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if v, err := strconv.Atoi(resp.Header.Get(headerRemaining)); err == nil {
		r.remaining = v
	}
	if v, err := strconv.ParseInt(resp.Header.Get(headerReset), 10, 64); err == nil {
		r.reset = time.Unix(v, 0)
	}
}

// Remaining returns the last reported remaining quota, or -1 if unknown.
func (r *RateLimiter) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remaining
}
