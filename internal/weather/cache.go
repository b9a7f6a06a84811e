package weather

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores fetched summaries for a bounded time so repeated checks
// of the same date do not hit the upstream provider. Implementations
// must be safe for concurrent use; the interface is deliberately small
// so a shared cache can replace the in-process one when the service
// runs as multiple instances.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

// MemoryCache is an in-process Cache with per-entry expiry. Expired
// entries are dropped lazily on read.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{value: value, expires: time.Now().Add(ttl)}
}

// RedisCache backs the Cache with a shared Redis instance so all
// service replicas see the same entries. Errors degrade to cache
// misses; the upstream fetch is the fallback either way.
type RedisCache struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisCache returns a RedisCache namespaced under the prefix.
func NewRedisCache(rdb *redis.Client, prefix string) *RedisCache {
	return &RedisCache{rdb: rdb, prefix: prefix}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	bs, err := c.rdb.Get(ctx, c.prefix+":"+key).Bytes()
	if err != nil {
		return nil, false
	}
	return bs, true
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	_ = c.rdb.SetEx(ctx, c.prefix+":"+key, value, ttl).Err()
}
