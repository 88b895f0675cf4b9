package catalog

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type cacheEntry[V any] struct {
	value   V
	expires time.Time
}

// Cache is a TTL cache in front of a loader. Concurrent misses for the same
// key share a single load. Invalidate drops every entry and prevents loads
// that were already in flight from repopulating the cache.
type Cache[V any] struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]cacheEntry[V]
	gen     uint64

	group singleflight.Group
}

// NewCache creates a cache whose entries live for ttl. A ttl of zero turns
// caching off; every call goes to the loader.
func NewCache[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry[V]),
	}
}

// GetOrLoad returns the cached value for key or calls load to fill it.
func (c *Cache[V]) GetOrLoad(ctx context.Context, key string, load func(context.Context) (V, error)) (V, error) {
	if c.ttl <= 0 {
		return load(ctx)
	}

	c.mu.RLock()
	e, ok := c.entries[key]
	gen := c.gen
	c.mu.RUnlock()
	if ok && c.now().Before(e.expires) {
		return e.value, nil
	}

	flightKey := strconv.FormatUint(gen, 10) + "|" + key
	v, err, _ := c.group.Do(flightKey, func() (any, error) {
		// The shared load must not be cancelled by whichever caller started it.
		value, err := load(context.WithoutCancel(ctx))
		if err != nil {
			return value, err
		}
		c.mu.Lock()
		if c.gen == gen {
			c.entries[key] = cacheEntry[V]{value: value, expires: c.now().Add(c.ttl)}
		}
		c.mu.Unlock()
		return value, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}

// Invalidate drops every cached entry.
func (c *Cache[V]) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry[V])
	c.gen++
	c.mu.Unlock()
}

// Len reports the number of cached entries, expired ones included.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
