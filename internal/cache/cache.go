package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/xin285109136/AutoTicket/internal/models"
)

// Cache stores ranked offer lists keyed by search parameters. Only
// API-sourced searches go through it; scraper mode bypasses caching so the
// caller can observe a live browser session.
type Cache interface {
	Get(ctx context.Context, key string) ([]models.Offer, bool)
	Set(ctx context.Context, key string, offers []models.Offer, ttl time.Duration) error
	Clear(ctx context.Context) error
	Close() error
}

// Key derives the cache key from the parameters that define one search.
func Key(origin, destination, date string, adults int) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|%s|%s|%d", origin, destination, date, adults))
	return "offers:" + hex.EncodeToString(sum[:])
}

type NoOpCache struct{}

func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

func (c *NoOpCache) Get(ctx context.Context, key string) ([]models.Offer, bool) {
	return nil, false
}

func (c *NoOpCache) Set(ctx context.Context, key string, offers []models.Offer, ttl time.Duration) error {
	return nil
}

func (c *NoOpCache) Clear(ctx context.Context) error {
	return nil
}

func (c *NoOpCache) Close() error {
	return nil
}
