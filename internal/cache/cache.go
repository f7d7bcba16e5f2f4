// Package cache is a small in-process TTL cache for read-mostly values that
// may be a few seconds stale.
package cache

import (
	"sync"
	"time"
)

const defaultMaxEntries = 1024

// Cache holds at most maxEntries values. Expired entries are dropped on read
// and swept before a write that would grow past the bound.
type Cache[V any] struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	m          map[string]entry[V]
	now        func() time.Time
}

type entry[V any] struct {
	val V
	exp time.Time
}

func New[V any](ttl time.Duration, maxEntries int) *Cache[V] {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}

	return &Cache[V]{
		ttl:        ttl,
		maxEntries: maxEntries,
		m:          make(map[string]entry[V]),
		now:        time.Now,
	}
}

func (c *Cache[V]) Get(key string) (V, bool) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.m[key]
	if !ok {
		var zero V
		return zero, false
	}
	if now.After(e.exp) {
		delete(c.m, key)
		var zero V
		return zero, false
	}

	return e.val, true
}

func (c *Cache[V]) Set(key string, val V) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.m[key]; !exists && len(c.m) >= c.maxEntries {
		c.sweepLocked(now)
		if len(c.m) >= c.maxEntries {
			c.evictOldestLocked()
		}
	}
	c.m[key] = entry[V]{val: val, exp: now.Add(c.ttl)}
}

// Len counts stored entries, expired ones included.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}

func (c *Cache[V]) sweepLocked(now time.Time) {
	for k, e := range c.m {
		if now.After(e.exp) {
			delete(c.m, k)
		}
	}
}

// evictOldestLocked drops the entry closest to expiry. Every entry shares
// the same ttl, so that is the one written first.
func (c *Cache[V]) evictOldestLocked() {
	var (
		oldestKey string
		oldestExp time.Time
		found     bool
	)
	for k, e := range c.m {
		if !found || e.exp.Before(oldestExp) {
			oldestKey, oldestExp, found = k, e.exp, true
		}
	}
	if found {
		delete(c.m, oldestKey)
	}
}
