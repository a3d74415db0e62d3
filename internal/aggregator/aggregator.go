// Package aggregator fans a search out to the offer providers and merges
// their raw payloads. Individual provider failures degrade the result
// instead of failing it.
package aggregator

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/xin285109136/AutoTicket/internal/models"
	"github.com/xin285109136/AutoTicket/internal/providers"
	"github.com/xin285109136/AutoTicket/internal/ratelimit"
)

type Config struct {
	Timeout     time.Duration
	MaxRetries  int
	RetryDelays []time.Duration
	RateLimiter *ratelimit.SourceLimiter
}

func DefaultConfig() Config {
	return Config{
		Timeout:     45 * time.Second,
		MaxRetries:  2,
		RetryDelays: []time.Duration{500 * time.Millisecond, 2 * time.Second},
	}
}

type Aggregator struct {
	providers []providers.Provider
	config    Config
}

type Result struct {
	Offers             []models.RawOffer
	ProvidersQueried   int
	ProvidersSucceeded int
	ProvidersFailed    int
	FailedProviders    []string
}

func NewAggregator(providerList []providers.Provider, config Config) *Aggregator {
	return &Aggregator{
		providers: providerList,
		config:    config,
	}
}

func (a *Aggregator) Search(ctx context.Context, query providers.SearchQuery) (*Result, error) {
	searchCtx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	result := &Result{
		Offers:           make([]models.RawOffer, 0),
		ProvidersQueried: len(a.providers),
	}

	type providerResult struct {
		provider string
		offers   []models.RawOffer
		err      error
	}

	resultCh := make(chan providerResult, len(a.providers))
	var wg sync.WaitGroup

	for _, p := range a.providers {
		wg.Add(1)
		go func(provider providers.Provider) {
			defer wg.Done()

			if a.config.RateLimiter != nil {
				if err := a.config.RateLimiter.Wait(searchCtx, provider.Name()); err != nil {
					resultCh <- providerResult{
						provider: provider.Name(),
						err:      err,
					}
					return
				}
			}

			offers, err := a.searchWithRetry(searchCtx, provider, query)
			resultCh <- providerResult{
				provider: provider.Name(),
				offers:   offers,
				err:      err,
			}
		}(p)
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	for pr := range resultCh {
		if pr.err != nil {
			log.Printf("Provider %s failed: %v", pr.provider, pr.err)
			result.ProvidersFailed++
			result.FailedProviders = append(result.FailedProviders, pr.provider)
		} else {
			result.ProvidersSucceeded++
			result.Offers = append(result.Offers, pr.offers...)
		}
	}

	return result, nil
}

func (a *Aggregator) searchWithRetry(ctx context.Context, provider providers.Provider, query providers.SearchQuery) ([]models.RawOffer, error) {
	var lastErr error

	for attempt := 0; attempt <= a.config.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if attempt > 0 {
			delayIdx := attempt - 1
			if delayIdx >= len(a.config.RetryDelays) {
				delayIdx = len(a.config.RetryDelays) - 1
			}
			delay := a.config.RetryDelays[delayIdx]

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		offers, err := provider.Search(ctx, query)
		if err == nil {
			return offers, nil
		}

		lastErr = err
		log.Printf("Provider %s attempt %d failed: %v", provider.Name(), attempt+1, err)
	}

	return nil, lastErr
}
