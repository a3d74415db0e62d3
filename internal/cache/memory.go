package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/xin285109136/AutoTicket/internal/models"
)

// MemoryCache is the default in-process backend. Expired entries are
// evicted lazily on read; no background sweeper runs.
type MemoryCache struct {
	store *gocache.Cache
}

func NewMemoryCache(defaultTTL time.Duration) *MemoryCache {
	// cleanup interval 0 disables the janitor goroutine
	return &MemoryCache{store: gocache.New(defaultTTL, 0)}
}

func (c *MemoryCache) Get(ctx context.Context, key string) ([]models.Offer, bool) {
	if val, found := c.store.Get(key); found {
		return val.([]models.Offer), true
	}
	return nil, false
}

func (c *MemoryCache) Set(ctx context.Context, key string, offers []models.Offer, ttl time.Duration) error {
	c.store.Set(key, offers, ttl)
	return nil
}

func (c *MemoryCache) Clear(ctx context.Context) error {
	c.store.Flush()
	return nil
}

func (c *MemoryCache) Close() error {
	return nil
}
