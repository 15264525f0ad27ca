package fetcher

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// domainLimiter applies a request-per-minute rate limit per target domain so
// concurrent jobs stay polite towards the same site
type domainLimiter struct {
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
	lastSeen map[string]time.Time
	mu       sync.Mutex
}

func newDomainLimiter(perMinute int) *domainLimiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	return &domainLimiter{
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    5,
		limiters: make(map[string]*rate.Limiter),
		lastSeen: make(map[string]time.Time),
	}
}

// Wait blocks until a request to the domain is allowed or the context is
// cancelled
func (dl *domainLimiter) Wait(ctx context.Context, domain string) error {
	dl.mu.Lock()
	limiter, ok := dl.limiters[domain]
	if !ok {
		limiter = rate.NewLimiter(dl.limit, dl.burst)
		dl.limiters[domain] = limiter
	}
	dl.lastSeen[domain] = time.Now()

	// Opportunistic cleanup of idle domains
	if len(dl.limiters) > 128 {
		cutoff := time.Now().Add(-10 * time.Minute)
		for d, seen := range dl.lastSeen {
			if seen.Before(cutoff) {
				delete(dl.limiters, d)
				delete(dl.lastSeen, d)
			}
		}
	}
	dl.mu.Unlock()

	return limiter.Wait(ctx)
}
