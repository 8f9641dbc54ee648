package crawl

import (
	"context"
	"net"
	"strings"
	"sync"

	"github.com/fwojciec/libdoc"
	"golang.org/x/time/rate"
)

var _ libdoc.DomainLimiter = (*DomainLimiter)(nil)

// DefaultRequestsPerSecond is the per-host request rate of a crawl.
const DefaultRequestsPerSecond = 5

// DomainLimiter provides per-host rate limiting using token buckets.
// Hosts are compared case-insensitively and without port, so
// "Docs.Example.com:443" and "docs.example.com" share one bucket.
type DomainLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      float64
}

// NewDomainLimiter returns a limiter allowing rps requests per second to
// each host with a burst of 1. A non-positive rps disables limiting.
func NewDomainLimiter(rps float64) *DomainLimiter {
	return &DomainLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
	}
}

// Wait blocks until the rate limit allows a request to the domain.
// Returns an error if the context is canceled before the wait completes.
func (d *DomainLimiter) Wait(ctx context.Context, domain string) error {
	key := limiterKey(domain)

	d.mu.Lock()
	limiter, ok := d.limiters[key]
	if !ok {
		limit := rate.Inf
		if d.rps > 0 {
			limit = rate.Limit(d.rps)
		}
		limiter = rate.NewLimiter(limit, 1)
		d.limiters[key] = limiter
	}
	d.mu.Unlock()

	return limiter.Wait(ctx)
}

func limiterKey(domain string) string {
	if host, _, err := net.SplitHostPort(domain); err == nil {
		domain = host
	}
	return strings.ToLower(domain)
}
