package cache

import (
	"context"
	"testing"
	"time"

	"github.com/xin285109136/AutoTicket/internal/models"
)

func sampleOffers() []models.Offer {
	return []models.Offer{
		{ID: "NH015", Source: models.SourceAmadeus, Price: 34000, Currency: "JPY"},
		{ID: "NH021", Source: models.SourceAmadeus, Price: 41000, Currency: "JPY"},
	}
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(5 * time.Minute)
	defer c.Close()

	key := Key("HND", "ITM", "2026-03-03", 1)
	if _, found := c.Get(ctx, key); found {
		t.Fatal("empty cache reported a hit")
	}

	if err := c.Set(ctx, key, sampleOffers(), 5*time.Minute); err != nil {
		t.Fatal(err)
	}

	got, found := c.Get(ctx, key)
	if !found {
		t.Fatal("expected hit immediately after set")
	}
	if len(got) != 2 || got[0].ID != "NH015" {
		t.Errorf("unexpected cached value: %+v", got)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)
	defer c.Close()

	key := Key("HND", "CTS", "2026-03-03", 2)
	if err := c.Set(ctx, key, sampleOffers(), 30*time.Millisecond); err != nil {
		t.Fatal(err)
	}

	time.Sleep(60 * time.Millisecond)

	if _, found := c.Get(ctx, key); found {
		t.Error("entry still returned after TTL elapsed")
	}
}

func TestMemoryCacheClear(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)
	defer c.Close()

	key := Key("HND", "FUK", "2026-03-03", 1)
	_ = c.Set(ctx, key, sampleOffers(), time.Minute)
	if err := c.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if _, found := c.Get(ctx, key); found {
		t.Error("entry survived Clear")
	}
}

func TestKeyIsParameterSensitive(t *testing.T) {
	base := Key("HND", "ITM", "2026-03-03", 1)
	if base == Key("HND", "ITM", "2026-03-03", 2) {
		t.Error("party size not part of the key")
	}
	if base == Key("HND", "ITM", "2026-03-04", 1) {
		t.Error("date not part of the key")
	}
	if base != Key("HND", "ITM", "2026-03-03", 1) {
		t.Error("key is not deterministic")
	}
}

func TestNoOpCacheNeverHits(t *testing.T) {
	ctx := context.Background()
	c := NewNoOpCache()
	key := Key("HND", "ITM", "2026-03-03", 1)
	if err := c.Set(ctx, key, sampleOffers(), time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, found := c.Get(ctx, key); found {
		t.Error("noop cache returned a hit")
	}
}
