package data

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"
)

type cacheEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is an in-memory TTL map. A nil *Cache is valid and never stores anything.
//
// Construct one per owner (a Fetcher, an API server); there is no process-wide instance.
type Cache[V any] struct {
	mu    sync.RWMutex
	store map[string]cacheEntry[V]
	ttl   time.Duration
	now   func() time.Time
}

// NewCache returns a cache whose entries live for ttl. ttl <= 0 disables caching.
func NewCache[V any](ttl time.Duration) *Cache[V] {
	if ttl <= 0 {
		return nil
	}
	return &Cache[V]{
		store: make(map[string]cacheEntry[V]),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get returns a live entry.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	if c == nil {
		return zero, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.store[key]
	if !ok || c.now().After(e.expiresAt) {
		return zero, false
	}
	return e.value, true
}

func (c *Cache[V]) Set(key string, v V) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = cacheEntry[V]{value: v, expiresAt: c.now().Add(c.ttl)}
}

// Len counts live entries.
func (c *Cache[V]) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	now := c.now()
	for _, e := range c.store {
		if !now.After(e.expiresAt) {
			n++
		}
	}
	return n
}

// Prune drops expired entries and returns how many were removed.
func (c *Cache[V]) Prune() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	now := c.now()
	for k, e := range c.store {
		if now.After(e.expiresAt) {
			delete(c.store, k)
			n++
		}
	}
	return n
}

func (c *Cache[V]) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = make(map[string]cacheEntry[V])
}

// CacheKey hashes the parts into a fixed-length key.
func CacheKey(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:])
}
