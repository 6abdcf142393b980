package verifier

import (
	"sync"
	"time"
)

// Cache remembers whether a domain had mail records, so repeat signups from
// the same domain skip DNS.
type Cache interface {
	Get(domain string) (hasRecord bool, ok bool)
	Set(domain string, hasRecord bool, ttl time.Duration)
}

const sweepThreshold = 1024

type cacheEntry struct {
	hasRecord bool
	expiresAt time.Time
}

type memoryCache struct {
	sync.RWMutex
	m   map[string]cacheEntry
	now func() time.Time
}

// NewMemoryCache returns a process-local Cache.
func NewMemoryCache() Cache {
	return &memoryCache{m: make(map[string]cacheEntry), now: time.Now}
}

// Get drops an expired entry on the way out.
func (c *memoryCache) Get(domain string) (bool, bool) {
	c.RLock()
	entry, ok := c.m[domain]
	c.RUnlock()
	if !ok {
		return false, false
	}
	if c.now().After(entry.expiresAt) {
		c.Lock()
		if cur, still := c.m[domain]; still && c.now().After(cur.expiresAt) {
			delete(c.m, domain)
		}
		c.Unlock()
		return false, false
	}
	return entry.hasRecord, true
}

// Set sweeps expired entries whenever the map reaches sweepThreshold.
func (c *memoryCache) Set(domain string, hasRecord bool, ttl time.Duration) {
	now := c.now()
	c.Lock()
	defer c.Unlock()
	if len(c.m) >= sweepThreshold {
		for k, e := range c.m {
			if now.After(e.expiresAt) {
				delete(c.m, k)
			}
		}
	}
	c.m[domain] = cacheEntry{hasRecord: hasRecord, expiresAt: now.Add(ttl)}
}

// KVStore is the subset of a byte store (such as cache.RedisStorage) that
// StorageCache needs. Get returns nil, nil for a missing key.
type KVStore interface {
	Get(key string) ([]byte, error)
	Set(key string, val []byte, exp time.Duration) error
}

// StorageCache keeps lookup outcomes in a shared KVStore so every instance
// sees the same answers. Store errors are treated as cache misses.
type StorageCache struct {
	store  KVStore
	prefix string
}

func NewStorageCache(store KVStore) *StorageCache {
	return &StorageCache{store: store, prefix: "mx:"}
}

func (c *StorageCache) Get(domain string) (bool, bool) {
	val, err := c.store.Get(c.prefix + domain)
	if err != nil || len(val) == 0 {
		return false, false
	}
	return val[0] == '1', true
}

func (c *StorageCache) Set(domain string, hasRecord bool, ttl time.Duration) {
	val := []byte{'0'}
	if hasRecord {
		val[0] = '1'
	}
	_ = c.store.Set(c.prefix+domain, val, ttl)
}
