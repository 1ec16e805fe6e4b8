package offers

import (
	"sync"
	"time"

	"storefront/models"
)

// Cache memoizes aggregator results per normalized query. It is an explicit
// object owned by whoever wires the aggregator, with time- and size-based
// eviction; there is deliberately no package-level cache state.
type Cache struct {
	ttl time.Duration
	max int

	mu      sync.Mutex
	entries map[string]*cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	offers   []models.Offer
	expires  time.Time
	lastUsed time.Time
}

func NewCache(ttl time.Duration, maxEntries int) *Cache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &Cache{
		ttl:     ttl,
		max:     maxEntries,
		entries: make(map[string]*cacheEntry),
		now:     time.Now,
	}
}

func (c *Cache) Get(key string) ([]models.Offer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(e.expires) {
		delete(c.entries, key)
		return nil, false
	}
	e.lastUsed = c.now()
	return append([]models.Offer(nil), e.offers...), true
}

func (c *Cache) Put(key string, offers []models.Offer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	c.entries[key] = &cacheEntry{
		offers:   append([]models.Offer(nil), offers...),
		expires:  now.Add(c.ttl),
		lastUsed: now,
	}
	for len(c.entries) > c.max {
		c.evictOldest()
	}
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) evictOldest() {
	var (
		oldestKey string
		oldest    time.Time
		first     = true
	)
	for k, e := range c.entries {
		if first || e.lastUsed.Before(oldest) {
			first = false
			oldestKey = k
			oldest = e.lastUsed
		}
	}
	delete(c.entries, oldestKey)
}
