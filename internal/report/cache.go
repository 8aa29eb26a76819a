package report

import (
	"context"
	"sync"
	"time"
)

// Cache stores serialised reports. Entries belong to a generation and
// Invalidate starts a new one. A Set for a superseded generation must never
// become visible to a Get for the current one.
type Cache interface {
	Generation(ctx context.Context) (int64, error)
	Get(ctx context.Context, gen int64, key string) ([]byte, bool, error)
	Set(ctx context.Context, gen int64, key string, val []byte, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

type cacheItem struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache is a process-local Cache for single-instance deployments.
type MemoryCache struct {
	mu    sync.RWMutex
	gen   int64
	items map[string]cacheItem
	now   func() time.Time
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string]cacheItem), now: time.Now}
}

func (c *MemoryCache) Generation(context.Context) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen, nil
}

func (c *MemoryCache) Get(_ context.Context, gen int64, key string) ([]byte, bool, error) {
	c.mu.RLock()
	item, ok := c.items[key]
	current := c.gen
	c.mu.RUnlock()
	if !ok || gen != current {
		return nil, false, nil
	}
	if c.now().After(item.expiresAt) {
		c.mu.Lock()
		if c.items[key].expiresAt.Equal(item.expiresAt) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return nil, false, nil
	}
	return item.value, true, nil
}

// Set drops val when gen is no longer current.
func (c *MemoryCache) Set(_ context.Context, gen int64, key string, val []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return nil
	}
	c.items[key] = cacheItem{value: val, expiresAt: c.now().Add(ttl)}
	return nil
}

func (c *MemoryCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	clear(c.items)
	return nil
}

// NopCache never stores anything.
type NopCache struct{}

func (NopCache) Generation(context.Context) (int64, error) { return 0, nil }
func (NopCache) Get(context.Context, int64, string) ([]byte, bool, error) { return nil, false, nil }
func (NopCache) Set(context.Context, int64, string, []byte, time.Duration) error { return nil }
func (NopCache) Invalidate(context.Context) error { return nil }
