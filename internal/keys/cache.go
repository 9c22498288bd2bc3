package keys

import (
	"sync"
	"time"
)

type cacheEntry struct {
	appID     uint
	expiresAt time.Time
}

// ValidationCache is a process-local, time-bounded map from plaintext API
// key to resolved application id. Entries are derived data, never
// authoritative: expiry is checked at read time and there is no background
// sweep. Revocation does not touch the cache, so a revoked key stays
// resolvable for up to the TTL.
type ValidationCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration

	// now is overridable in tests.
	now func() time.Time
}

// NewValidationCache returns an empty cache whose entries live for ttl.
func NewValidationCache(ttl time.Duration) *ValidationCache {
	return &ValidationCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// get returns the cached application id for key, evicting the entry if it
// has expired.
func (c *ValidationCache) get(key string) (uint, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return 0, false
	}
	if !c.now().Before(e.expiresAt) {
		c.mu.Lock()
		// re-check under the write lock; a concurrent resolve may have
		// refreshed the entry in the meantime
		if cur, ok := c.entries[key]; ok && !c.now().Before(cur.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return 0, false
	}
	return e.appID, true
}

// put stores a whole-value entry expiring ttl from now.
func (c *ValidationCache) put(key string, appID uint) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{appID: appID, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// len reports the number of live and expired-but-unswept entries.
func (c *ValidationCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
