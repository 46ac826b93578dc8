// Package proxypool implements a fair checkout/release pool of proxy
// endpoints with per-endpoint usage accounting and cooldown on error.
package proxypool

import (
	"log/slog"
	"sync"
	"time"
)

// cooldownStep is the backoff unit applied per accumulated failure.
const cooldownStep = 5 * time.Second

// cooldownMax bounds the cooldown regardless of failure count.
const cooldownMax = 60 * time.Second

// Proxy represents a single proxy endpoint and its usage state.
type Proxy struct {
	// Endpoint is the raw proxy address as supplied by the caller
	Endpoint string `json:"endpoint"`
	// UseCount is the number of successful checkouts of this proxy
	UseCount int `json:"use_count"`
	// InUse indicates whether the proxy is currently checked out
	InUse bool `json:"in_use"`

	failures    int
	lastErrorAt time.Time
	cooldown    time.Time
}

// Pool is an insertion-ordered collection of proxies with a
// round-robin cursor. All operations are safe for concurrent use.
type Pool struct {
	proxies   []*Proxy
	cursor    int
	checkouts int
	releases  int
	failures  int
	m         sync.Mutex
	log       *slog.Logger
	now       func() time.Time
}

// New creates a pool from the given endpoint strings, preserving
// their order. An empty list is legal; Checkout then always returns nil.
// Parameters:
//   - endpoints: Proxy endpoint strings
//
// Returns:
//   - *Pool: The initialized pool
func New(endpoints []string) *Pool {
	p := &Pool{
		proxies: make([]*Proxy, 0, len(endpoints)),
		log:     slog.Default(),
		now:     time.Now,
	}
	for _, e := range endpoints {
		p.proxies = append(p.proxies, &Proxy{Endpoint: e})
	}
	return p
}

// Size returns the number of proxies in the pool.
// Returns:
//   - int: Number of proxies
func (p *Pool) Size() int {
	p.m.Lock()
	defer p.m.Unlock()
	return len(p.proxies)
}

// Checkout returns the next available proxy by round-robin order among
// entries that are not in use and not cooling down. It returns nil when
// the pool is empty or every entry is busy; callers treat nil as
// "run without a proxy".
// Returns:
//   - *Proxy: The checked-out proxy, or nil
func (p *Pool) Checkout() *Proxy {
	p.m.Lock()
	defer p.m.Unlock()

	n := len(p.proxies)
	if n == 0 {
		return nil
	}

	now := p.now()
	for i := 0; i < n; i++ {
		candidate := p.proxies[(p.cursor+i)%n]
		if candidate.InUse || now.Before(candidate.cooldown) {
			continue
		}

		p.cursor = (p.cursor + i + 1) % n
		candidate.InUse = true
		candidate.UseCount++
		p.checkouts++
		return candidate
	}

	return nil
}

// Release returns a proxy to the pool. With ok == false the proxy is
// put on cooldown proportional to its accumulated failures. A proxy
// the pool never issued is ignored; releasing an idle proxy is a no-op.
// Parameters:
//   - proxy: The proxy to release
//   - ok: Whether the holder finished without proxy-related errors
func (p *Pool) Release(proxy *Proxy, ok bool) {
	if proxy == nil {
		return
	}

	p.m.Lock()
	defer p.m.Unlock()

	if !p.owns(proxy) {
		p.log.Warn("release of unknown proxy ignored", "endpoint", proxy.Endpoint)
		return
	}
	if !proxy.InUse {
		p.log.Warn("double release ignored", "endpoint", proxy.Endpoint)
		return
	}

	proxy.InUse = false
	p.releases++

	if !ok {
		p.failures++
		proxy.failures++
		proxy.lastErrorAt = p.now()
		proxy.cooldown = proxy.lastErrorAt.Add(backoff(proxy.failures))
	}
}

// Stats returns a snapshot of pool counters and per-proxy state.
// Returns:
//   - map[string]any: Counters plus a per-proxy breakdown
func (p *Pool) Stats() map[string]any {
	p.m.Lock()
	defer p.m.Unlock()

	proxies := make([]map[string]any, 0, len(p.proxies))
	for _, proxy := range p.proxies {
		entry := map[string]any{
			"endpoint":  proxy.Endpoint,
			"use_count": proxy.UseCount,
			"in_use":    proxy.InUse,
		}
		if !proxy.lastErrorAt.IsZero() {
			entry["last_error_at"] = proxy.lastErrorAt
		}
		proxies = append(proxies, entry)
	}

	return map[string]any{
		"checkouts": p.checkouts,
		"releases":  p.releases,
		"failures":  p.failures,
		"proxies":   proxies,
	}
}

// InUseCount returns how many proxies are currently checked out.
// Returns:
//   - int: Number of proxies in use
func (p *Pool) InUseCount() int {
	p.m.Lock()
	defer p.m.Unlock()

	count := 0
	for _, proxy := range p.proxies {
		if proxy.InUse {
			count++
		}
	}
	return count
}

// owns reports whether the pool issued the given proxy instance.
func (p *Pool) owns(proxy *Proxy) bool {
	for _, candidate := range p.proxies {
		if candidate == proxy {
			return true
		}
	}
	return false
}

// backoff computes the cooldown for the given failure count. It is
// monotone non-decreasing and bounded by cooldownMax.
// Parameters:
//   - failures: Accumulated failure count for the proxy
//
// Returns:
//   - time.Duration: Cooldown duration
func backoff(failures int) time.Duration {
	d := time.Duration(failures) * cooldownStep
	if d > cooldownMax {
		return cooldownMax
	}
	return d
}
