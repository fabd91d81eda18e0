// Package ratelimit paces outbound requests. A token bucket caps the
// sustained per-domain request rate, and a randomized inter-item pause keeps
// the traffic pattern from looking mechanical.
package ratelimit

import (
	"context"
	"math/rand"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DomainLimiter provides per-domain rate limiting using the token bucket
// algorithm. Each domain gets its own bucket so a slow host does not starve
// the others.
type DomainLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	perHost  rate.Limit
	burst    int
}

// NewDomainLimiter creates a limiter with the given per-host rate.
func NewDomainLimiter(requestsPerSecond float64, burst int) *DomainLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 0.5
	}
	if burst <= 0 {
		burst = 1
	}
	return &DomainLimiter{
		limiters: make(map[string]*rate.Limiter),
		perHost:  rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

// Wait blocks until a request for the given URL can proceed, or the context
// is cancelled.
func (dl *DomainLimiter) Wait(ctx context.Context, urlStr string) error {
	domain := extractDomain(urlStr)
	if domain == "" {
		// Invalid URL, let it proceed and fail at the fetch.
		return nil
	}
	return dl.getLimiter(domain).Wait(ctx)
}

// Allow reports whether a request for the URL can proceed immediately.
func (dl *DomainLimiter) Allow(urlStr string) bool {
	domain := extractDomain(urlStr)
	if domain == "" {
		return true
	}
	return dl.getLimiter(domain).Allow()
}

func (dl *DomainLimiter) getLimiter(domain string) *rate.Limiter {
	dl.mu.RLock()
	limiter, exists := dl.limiters[domain]
	dl.mu.RUnlock()
	if exists {
		return limiter
	}

	dl.mu.Lock()
	defer dl.mu.Unlock()
	if limiter, exists := dl.limiters[domain]; exists {
		return limiter
	}
	limiter = rate.NewLimiter(dl.perHost, dl.burst)
	dl.limiters[domain] = limiter
	return limiter
}

func extractDomain(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return u.Host
}

// Pacer sleeps a random duration between items so consecutive requests do
// not land on a fixed cadence.
type Pacer struct {
	min time.Duration
	max time.Duration
	rng *rand.Rand
	mu  sync.Mutex
}

// NewPacer creates a Pacer drawing pauses uniformly from [min, max]. A
// non-positive or inverted range collapses to a fixed min pause.
func NewPacer(min, max time.Duration) *Pacer {
	if min < 0 {
		min = 0
	}
	if max < min {
		max = min
	}
	return &Pacer{
		min: min,
		max: max,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Pause sleeps for the next randomized interval, returning early if the
// context is cancelled.
func (p *Pacer) Pause(ctx context.Context) error {
	d := p.next()
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pacer) next() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.max == p.min {
		return p.min
	}
	return p.min + time.Duration(p.rng.Int63n(int64(p.max-p.min)))
}
