package price

import (
	"sync"
	"time"
)

// Clock returns the current time. Injected so cache expiry is testable.
type Clock func() time.Time

type cacheEntry struct {
	price      float64
	observedAt time.Time
}

// Cache holds the last observed price per asset for a bounded freshness window.
type Cache struct {
	ttl   time.Duration
	clock Clock

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

func NewCache(ttl time.Duration, clock Clock) *Cache {
	if clock == nil {
		clock = time.Now
	}
	return &Cache{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the cached price if it is still within the freshness window.
func (c *Cache) Get(asset string) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, found := c.entries[asset]
	if !found || c.clock().Sub(entry.observedAt) >= c.ttl {
		return 0, false
	}
	return entry.price, true
}

// Put overwrites the cached price unconditionally.
func (c *Cache) Put(asset string, price float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[asset] = cacheEntry{price: price, observedAt: c.clock()}
}
