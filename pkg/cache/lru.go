// Package cache caches rendered read-model responses (dashboard, results,
// auction listings) in process or in Redis.
package cache

import (
	"container/list"
	"context"
	"strings"
	"sync"
	"time"
)

// Store is a byte cache keyed by string.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Invalidate(ctx context.Context, key string) error
	InvalidatePrefix(ctx context.Context, prefix string) error
}

// Versioned is implemented by stores that count invalidations. A response
// rendered while an invalidation happened is stale, so SetAt stores it only
// if the generation read before rendering is still current.
type Versioned interface {
	Generation(ctx context.Context) (uint64, error)
	SetAt(ctx context.Context, key string, value []byte, gen uint64) (bool, error)
}

type entry struct {
	key       string
	value     []byte
	expiresAt time.Time
}

// LRUCache is a thread-safe in-memory cache with TTL and least-recently-used
// eviction. Expired entries are lazily evicted on Get.
type LRUCache struct {
	mu      sync.Mutex
	items   map[string]*list.Element
	order   *list.List // front = most recently used
	maxSize int
	ttl     time.Duration
	gen     uint64
	now     func() time.Time
}

// NewLRUCache creates a new LRU cache with the given maximum size and TTL.
// maxSize must be >= 1; ttl must be > 0.
func NewLRUCache(maxSize int, ttl time.Duration) *LRUCache {
	if maxSize < 1 {
		maxSize = 1
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &LRUCache{
		items:   make(map[string]*list.Element, maxSize),
		order:   list.New(),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the value for key and marks it recently used.
func (c *LRUCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return nil, false, nil
	}
	e := el.Value.(*entry)
	if c.now().After(e.expiresAt) {
		c.removeElement(el)
		return nil, false, nil
	}
	c.order.MoveToFront(el)
	return e.value, true, nil
}

// Set stores value, evicting the least recently used entry when full.
func (c *LRUCache) Set(_ context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set(key, value)
	return nil
}

// Generation returns the number of invalidations so far.
func (c *LRUCache) Generation(context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen, nil
}

// SetAt stores value unless the cache was invalidated after gen was read.
func (c *LRUCache) SetAt(_ context.Context, key string, value []byte, gen uint64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return false, nil
	}
	c.set(key, value)
	return true, nil
}

// set must be called with c.mu held.
func (c *LRUCache) set(key string, value []byte) {
	expiresAt := c.now().Add(c.ttl)
	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry)
		e.value = value
		e.expiresAt = expiresAt
		c.order.MoveToFront(el)
		return
	}

	if c.order.Len() >= c.maxSize {
		if oldest := c.order.Back(); oldest != nil {
			c.removeElement(oldest)
		}
	}
	c.items[key] = c.order.PushFront(&entry{key: key, value: value, expiresAt: expiresAt})
}

// Invalidate removes a specific key from the cache.
func (c *LRUCache) Invalidate(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	if el, ok := c.items[key]; ok {
		c.removeElement(el)
	}
	return nil
}

// InvalidatePrefix removes every key starting with prefix.
func (c *LRUCache) InvalidatePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	for key, el := range c.items {
		if strings.HasPrefix(key, prefix) {
			c.removeElement(el)
		}
	}
	return nil
}

// Size returns the number of entries currently in the cache, including
// expired ones not yet evicted.
func (c *LRUCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// removeElement must be called with c.mu held.
func (c *LRUCache) removeElement(el *list.Element) {
	c.order.Remove(el)
	delete(c.items, el.Value.(*entry).key)
}
