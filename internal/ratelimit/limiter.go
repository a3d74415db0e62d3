package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// SourceLimiter holds one token bucket per upstream source (API providers,
// the AI completion endpoint, the scraped site).
type SourceLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	defaults Config
}

type Config struct {
	RequestsPerSecond float64
	BurstSize         int
}

func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 5,
		BurstSize:         10,
	}
}

func NewSourceLimiter(config Config) *SourceLimiter {
	return &SourceLimiter{
		limiters: make(map[string]*rate.Limiter),
		defaults: config,
	}
}

func NewSourceLimiterWithDefaults() *SourceLimiter {
	return NewSourceLimiter(DefaultConfig())
}

func (p *SourceLimiter) GetLimiter(source string) *rate.Limiter {
	p.mu.RLock()
	limiter, exists := p.limiters[source]
	p.mu.RUnlock()

	if exists {
		return limiter
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if limiter, exists = p.limiters[source]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(rate.Limit(p.defaults.RequestsPerSecond), p.defaults.BurstSize)
	p.limiters[source] = limiter
	return limiter
}

func (p *SourceLimiter) SetSourceLimit(source string, rps float64, burst int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.limiters[source] = rate.NewLimiter(rate.Limit(rps), burst)
}

func (p *SourceLimiter) Wait(ctx context.Context, source string) error {
	return p.GetLimiter(source).Wait(ctx)
}
