// Package proxy rotates outbound requests across a set of proxies so a
// single egress IP does not accumulate the whole run's request pattern.
package proxy

import (
	"sync"
	"time"
)

// cooldown is how long a proxy sits out after a failure.
const cooldown = 5 * time.Minute

// Pool rotates proxies round-robin, skipping ones that failed recently.
type Pool struct {
	proxies []string
	index   int
	mu      sync.Mutex
	failed  map[string]time.Time
}

// NewPool creates a Pool. An empty list yields a pool that always returns "".
func NewPool(proxies []string) *Pool {
	return &Pool{
		proxies: proxies,
		failed:  make(map[string]time.Time),
	}
}

// Next returns the next healthy proxy URL, or "" when the pool is empty.
// When every proxy is cooling down, the current one is returned anyway so
// the fetch can still proceed.
func (p *Pool) Next() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.proxies) == 0 {
		return ""
	}

	start := p.index
	for {
		candidate := p.proxies[p.index]
		p.index = (p.index + 1) % len(p.proxies)

		if failedAt, ok := p.failed[candidate]; ok {
			if time.Since(failedAt) < cooldown {
				if p.index == start {
					return candidate
				}
				continue
			}
			delete(p.failed, candidate)
		}
		return candidate
	}
}

// MarkFailed benches a proxy for the cooldown period.
func (p *Pool) MarkFailed(proxyURL string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed[proxyURL] = time.Now()
}

// MarkHealthy clears a proxy's failure record.
func (p *Pool) MarkHealthy(proxyURL string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.failed, proxyURL)
}

// Size returns the number of configured proxies.
func (p *Pool) Size() int {
	return len(p.proxies)
}
