// Package search orchestrates a flight search end to end: code resolution,
// acquisition through either the API providers or the browser scraper,
// normalization, filtering, ranking and result caching.
package search

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/xin285109136/AutoTicket/internal/aggregator"
	"github.com/xin285109136/AutoTicket/internal/cache"
	"github.com/xin285109136/AutoTicket/internal/filter"
	"github.com/xin285109136/AutoTicket/internal/models"
	"github.com/xin285109136/AutoTicket/internal/normalizer"
	"github.com/xin285109136/AutoTicket/internal/providers"
	"github.com/xin285109136/AutoTicket/internal/ranking"
	"github.com/xin285109136/AutoTicket/internal/resolver"
	"github.com/xin285109136/AutoTicket/internal/scraper"
)

const defaultCacheTTL = 5 * time.Minute

// Scraper runs one browser-driven acquisition. The concrete implementation
// lives in internal/scraper.
type Scraper interface {
	Scrape(ctx context.Context, req scraper.Request) ([]models.RawOffer, string, error)
}

// Aggregator fans a query out to the API providers.
type Aggregator interface {
	Search(ctx context.Context, query providers.SearchQuery) (*aggregator.Result, error)
}

type Service struct {
	resolver *resolver.Resolver
	agg      Aggregator
	scraper  Scraper
	cache    cache.Cache
	cacheTTL time.Duration
}

func NewService(res *resolver.Resolver, agg Aggregator, scr Scraper, c cache.Cache, ttl time.Duration) *Service {
	if c == nil {
		c = cache.NewNoOpCache()
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Service{
		resolver: res,
		agg:      agg,
		scraper:  scr,
		cache:    c,
		cacheTTL: ttl,
	}
}

// Search runs one search request. Acquisition failures degrade to an empty
// offer list with a warning; only invalid input or a dead context error out.
func (s *Service) Search(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	origin := s.resolver.Resolve(ctx, req.Origin)
	destination := s.resolver.Resolve(ctx, req.Destination)

	if req.SearchMode == models.ModeScraper {
		return s.searchScraper(ctx, req, origin, destination, start)
	}
	return s.searchAPI(ctx, req, origin, destination, start)
}

func (s *Service) searchAPI(ctx context.Context, req models.SearchRequest, origin, destination string, start time.Time) (*models.SearchResponse, error) {
	// The cache key ignores time_range and carrier preference, so the
	// cached list is always the full unfiltered set; filtering and ranking
	// happen per request on both the hit and miss paths.
	key := cache.Key(origin, destination, req.Date, req.Adults)
	if offers, ok := s.cache.Get(ctx, key); ok {
		log.Printf("search: cache hit for %s-%s on %s", origin, destination, req.Date)
		offers = filter.ByTimeRange(offers, req.TimeRange)
		return &models.SearchResponse{
			Offers:         s.rank(offers, req),
			LatencySeconds: time.Since(start).Seconds(),
			Cached:         true,
		}, nil
	}

	result, err := s.agg.Search(ctx, providers.SearchQuery{
		Origin:      origin,
		Destination: destination,
		Date:        req.Date,
		Adults:      req.Adults,
		TripType:    req.TripType,
	})
	if err != nil {
		return nil, err
	}

	var warning string
	if result.ProvidersFailed > 0 {
		warning = fmt.Sprintf("Some flight sources were unavailable: %s.", strings.Join(result.FailedProviders, ", "))
	}

	all := s.rank(normalizer.Normalize(result.Offers), req)
	if len(all) > 0 {
		if err := s.cache.Set(ctx, key, all, s.cacheTTL); err != nil {
			log.Printf("search: caching results: %v", err)
		}
	}

	return &models.SearchResponse{
		Offers:         filter.ByTimeRange(all, req.TimeRange),
		LatencySeconds: time.Since(start).Seconds(),
		Warning:        warning,
	}, nil
}

// searchScraper runs the browser acquisition on its own goroutine so a
// wedged browser never blocks the caller past its context. Scraper results
// are always fresh, never cached.
func (s *Service) searchScraper(ctx context.Context, req models.SearchRequest, origin, destination string, start time.Time) (*models.SearchResponse, error) {
	if s.scraper == nil {
		return nil, fmt.Errorf("scraper mode is not configured")
	}

	type outcome struct {
		raws    []models.RawOffer
		warning string
		err     error
	}
	ch := make(chan outcome, 1)

	go func() {
		raws, warning, err := s.scraper.Scrape(ctx, scraper.Request{
			Origin:         origin,
			Destination:    destination,
			Date:           req.Date,
			Adults:         req.Adults,
			TripType:       req.TripType,
			TimeRange:      req.TimeRange,
			FlexibleTicket: req.FlexibleTicket,
		})
		ch <- outcome{raws: raws, warning: warning, err: err}
	}()

	var out outcome
	select {
	case out = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if out.err != nil {
		return nil, out.err
	}

	offers := normalizer.Normalize(out.raws)
	offers = filter.ByTimeRange(offers, req.TimeRange)

	return &models.SearchResponse{
		Offers:         s.rank(offers, req),
		LatencySeconds: time.Since(start).Seconds(),
		Warning:        out.warning,
	}, nil
}

func (s *Service) rank(offers []models.Offer, req models.SearchRequest) []models.Offer {
	return ranking.Rank(offers, ranking.Preferences{Carrier: req.PreferredCarrier})
}
