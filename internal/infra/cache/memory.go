// Package cache implements the in-memory response cache backing GET
// endpoints. Entries are partitioned by requester identity through the cache
// key, expire after a per-entry TTL, and are dropped either lazily on lookup
// or by a background sweeper.
package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/TheVish04/CAprep/internal/core/port"
)

type entry struct {
	response  port.CachedResponse
	expiresAt time.Time
}

// Metrics counts cache traffic for the /metrics endpoint.
type Metrics struct {
	Hits      prometheus.Counter
	Misses    prometheus.Counter
	Evictions prometheus.Counter
}

// NewMetrics registers cache counters against the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "caprep",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Number of response cache hits.",
		}),
		Misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "caprep",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Number of response cache misses.",
		}),
		Evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "caprep",
			Subsystem: "cache",
			Name:      "evictions_total",
			Help:      "Number of entries removed by expiry or invalidation.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Hits, m.Misses, m.Evictions)
	}
	return m
}

// Memory is a process-local ResponseCache.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	metrics *Metrics
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemory builds a cache and starts its sweeper. sweepInterval <= 0
// disables background sweeping; expired entries are then only dropped on
// lookup.
func NewMemory(sweepInterval time.Duration, metrics *Metrics) *Memory {
	c := &Memory{
		entries: make(map[string]entry),
		metrics: metrics,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	if sweepInterval > 0 {
		go c.sweep(sweepInterval)
	}
	return c
}

// WithClock overrides the cache's time source. Test helper.
func (c *Memory) WithClock(now func() time.Time) *Memory {
	c.now = now
	return c
}

// Lookup returns the cached response for key if present and not expired.
// An expired entry is removed on the spot and reported as a miss.
func (c *Memory) Lookup(key string) (port.CachedResponse, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		c.miss()
		return port.CachedResponse{}, false
	}

	if !c.now().Before(e.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Store may have
		// replaced the entry since the read.
		if cur, still := c.entries[key]; still && !c.now().Before(cur.expiresAt) {
			delete(c.entries, key)
			c.evicted(1)
		}
		c.mu.Unlock()
		c.miss()
		return port.CachedResponse{}, false
	}

	c.hit()
	return e.response, true
}

// Store caches a response under key for ttl. A non-positive ttl stores
// nothing.
func (c *Memory) Store(key string, response port.CachedResponse, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[key] = entry{response: response, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
}

// Invalidate removes every entry whose path part starts with any of the
// given prefixes. Keys are "<identity>:<path>", so matching ignores the
// identity segment and clears the path across all users.
func (c *Memory) Invalidate(prefixes ...string) {
	if len(prefixes) == 0 {
		return
	}

	c.mu.Lock()
	removed := 0
	for key := range c.entries {
		path := key
		if i := strings.Index(key, ":"); i >= 0 {
			path = key[i+1:]
		}
		for _, prefix := range prefixes {
			if strings.HasPrefix(path, prefix) {
				delete(c.entries, key)
				removed++
				break
			}
		}
	}
	c.mu.Unlock()
	c.evicted(removed)
}

// Flush removes every entry.
func (c *Memory) Flush() {
	c.mu.Lock()
	removed := len(c.entries)
	c.entries = make(map[string]entry)
	c.mu.Unlock()
	c.evicted(removed)
}

// Len returns the number of stored entries, including any not yet swept.
func (c *Memory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the sweeper. The cache remains usable afterwards.
func (c *Memory) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Memory) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			now := c.now()
			c.mu.Lock()
			removed := 0
			for key, e := range c.entries {
				if !now.Before(e.expiresAt) {
					delete(c.entries, key)
					removed++
				}
			}
			c.mu.Unlock()
			c.evicted(removed)
		}
	}
}

func (c *Memory) hit() {
	if c.metrics != nil {
		c.metrics.Hits.Inc()
	}
}

func (c *Memory) miss() {
	if c.metrics != nil {
		c.metrics.Misses.Inc()
	}
}

func (c *Memory) evicted(n int) {
	if c.metrics != nil && n > 0 {
		c.metrics.Evictions.Add(float64(n))
	}
}
