package cache

import (
	"context"
	"sync"
	"time"

	"github.com/bluele/gcache"
)

// MemoryCache implements Cache with a bounded LRU that honours per-entry TTLs
type MemoryCache struct {
	lru    gcache.Cache
	mu     sync.RWMutex
	closed bool
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache(config *CacheConfig) *MemoryCache {
	if config == nil {
		config = DefaultCacheConfig()
	}
	size := config.MaxEntries
	if size <= 0 {
		size = DefaultCacheConfig().MaxEntries
	}

	return &MemoryCache{
		lru: gcache.New(size).LRU().Build(),
	}
}

// Get retrieves a value from cache
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, ErrCacheDisabled
	}

	value, err := c.lru.Get(key)
	if err != nil {
		return nil, ErrKeyNotFound
	}
	stored := value.([]byte)
	result := make([]byte, len(stored))
	copy(result, stored)
	return result, nil
}

// Set stores a copy of value with expiration
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrCacheDisabled
	}

	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)
	if ttl <= 0 {
		return c.lru.Set(key, valueCopy)
	}
	return c.lru.SetWithExpire(key, valueCopy, ttl)
}

// Delete removes a value from cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.lru.Remove(key)
	return nil
}

// Exists checks if a live key exists in cache
func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false, ErrCacheDisabled
	}
	// Has skips expired entries without touching LRU order
	return c.lru.Has(key), nil
}

// Close drops every entry and rejects further use
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.lru.Purge()
	return nil
}
