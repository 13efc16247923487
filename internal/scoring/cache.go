package scoring

import (
	"sync"
	"time"

	"mail_loader/internal/domain"
)

type cacheEntry struct {
	score    domain.RateScore
	storedAt time.Time
}

// Cache holds scores by record id for a fixed TTL. Expiry is checked on
// read only; expired entries stay in memory until overwritten.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

func (c *Cache) Get(id string) (domain.RateScore, bool) {
	c.mu.RLock()
	entry, ok := c.entries[id]
	c.mu.RUnlock()

	if !ok || c.now().Sub(entry.storedAt) >= c.ttl {
		return domain.RateScore{}, false
	}
	return entry.score, true
}

func (c *Cache) Put(id string, score domain.RateScore) {
	c.mu.Lock()
	c.entries[id] = cacheEntry{score: score, storedAt: c.now()}
	c.mu.Unlock()
}

// Len counts stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
