package utils

import (
	"log"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CacheItem wraps a cached value with its expiry time.
type CacheItem struct {
	Data      interface{}
	ExpiresAt time.Time
}

// GlobalCache is a small in-process TTL cache on top of an LRU.
type GlobalCache struct {
	lruCache *lru.Cache[string, CacheItem]
}

var cacheInstance *GlobalCache

// GetCache returns the singleton cache instance.
func GetCache() *GlobalCache {
	if cacheInstance == nil {
		l, err := lru.New[string, CacheItem](500)
		if err != nil {
			log.Fatalf("Failed to create LRU cache: %v", err)
		}
		cacheInstance = &GlobalCache{
			lruCache: l,
		}
	}
	return cacheInstance
}

// Set stores a value with the given TTL.
func (c *GlobalCache) Set(key string, data interface{}, ttl time.Duration) {
	c.lruCache.Add(key, CacheItem{
		Data:      data,
		ExpiresAt: time.Now().Add(ttl),
	})
}

// Get returns the cached value, or nil if absent or expired.
func (c *GlobalCache) Get(key string) interface{} {
	val, ok := c.lruCache.Get(key)
	if !ok {
		return nil
	}

	if time.Now().After(val.ExpiresAt) {
		c.lruCache.Remove(key)
		return nil
	}

	return val.Data
}

// Delete removes a single key.
func (c *GlobalCache) Delete(key string) {
	c.lruCache.Remove(key)
}
