package main

import (
	"flag"
	"log"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/xin285109136/AutoTicket/internal/aggregator"
	"github.com/xin285109136/AutoTicket/internal/ai"
	"github.com/xin285109136/AutoTicket/internal/browser"
	"github.com/xin285109136/AutoTicket/internal/cache"
	"github.com/xin285109136/AutoTicket/internal/config"
	"github.com/xin285109136/AutoTicket/internal/handler"
	"github.com/xin285109136/AutoTicket/internal/providers"
	"github.com/xin285109136/AutoTicket/internal/ratelimit"
	"github.com/xin285109136/AutoTicket/internal/resolver"
	"github.com/xin285109136/AutoTicket/internal/scraper"
	"github.com/xin285109136/AutoTicket/internal/search"
	"github.com/xin285109136/AutoTicket/internal/selector"
)

func main() {
	cfgFile := flag.String("config", "", "config file (default: ./autoticket.yaml)")
	flag.Parse()

	settings, err := config.Load(*cfgFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())

	offerCache := initCache(settings)
	defer offerCache.Close()

	aiClient, err := ai.NewClient(ai.Config{
		Provider:          settings.AIProvider,
		Model:             settings.AIModel,
		APIKey:            settings.AIAPIKey,
		BaseURL:           settings.AIBaseURL,
		Timeout:           30,
		MaxTokens:         settings.AIMaxTokens,
		USDJPYRate:        settings.USDJPYRate,
		RequestsPerSecond: settings.AIRatePerSec,
	})
	if err != nil {
		log.Fatalf("Failed to initialize AI client: %v", err)
	}
	if aiClient == nil {
		log.Println("AI disabled: fallback extraction, healing and explanations unavailable")
	} else {
		log.Printf("AI enabled via %s", aiClient.Name())
	}

	providerList, amadeus := initProviders(settings)
	log.Printf("Initialized %d flight providers", len(providerList))

	rateLimiter := ratelimit.NewSourceLimiterWithDefaults()
	rateLimiter.SetSourceLimit("serpapi", 2, 5)
	rateLimiter.SetSourceLimit("amadeus", 5, 10)

	aggCfg := aggregator.DefaultConfig()
	aggCfg.RateLimiter = rateLimiter
	agg := aggregator.NewAggregator(providerList, aggCfg)

	var lookup resolver.LocationClient
	if amadeus != nil {
		lookup = amadeus
	}
	codeResolver := resolver.New(lookup)

	selectorStore := selector.NewStore(settings.SelectorDir)

	var anaScraper search.Scraper
	if s := initScraper(settings, selectorStore, aiClient); s != nil {
		anaScraper = s
	}

	svc := search.NewService(codeResolver, agg, anaScraper, offerCache, settings.CacheTTL)

	searchHandler := handler.NewSearchHandler(svc, ai.NewExplainer(aiClient), selectorStore)
	searchHandler.Register(e)

	log.Printf("Starting flight search server on port %s", settings.Port)
	if err := e.Start(":" + settings.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func initCache(settings *config.Settings) cache.Cache {
	switch settings.CacheBackend {
	case "redis":
		redisCache, err := cache.NewRedisCache(cache.RedisConfig{
			Host: settings.RedisHost,
			Port: settings.RedisPort,
		})
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		log.Printf("Redis cache enabled (host: %s:%s, TTL: %v)", settings.RedisHost, settings.RedisPort, settings.CacheTTL)
		return redisCache
	case "none":
		log.Println("Result cache disabled")
		return cache.NewNoOpCache()
	default:
		log.Printf("In-memory cache enabled (TTL: %v)", settings.CacheTTL)
		return cache.NewMemoryCache(settings.CacheTTL)
	}
}

func initProviders(settings *config.Settings) ([]providers.Provider, *providers.AmadeusProvider) {
	var providerList []providers.Provider
	var amadeus *providers.AmadeusProvider

	if settings.SerpAPIKey != "" {
		providerList = append(providerList, providers.NewSerpAPIProvider(settings.SerpAPIKey))
	} else {
		log.Println("SerpAPI key missing, provider disabled")
	}

	if settings.AmadeusClientID != "" && settings.AmadeusClientSecret != "" {
		amadeus = providers.NewAmadeusProvider(settings.AmadeusClientID, settings.AmadeusClientSecret)
		providerList = append(providerList, amadeus)
	} else {
		log.Println("Amadeus credentials missing, provider and location lookup disabled")
	}

	return providerList, amadeus
}

func initScraper(settings *config.Settings, store *selector.Store, aiClient ai.Client) *scraper.ANAScraper {
	if err := browser.Install(); err != nil {
		log.Printf("Playwright install failed, scraper mode unavailable: %v", err)
		return nil
	}

	cfg := scraper.DefaultConfig()
	if settings.ScraperURL != "" {
		cfg.URL = settings.ScraperURL
	}
	cfg.AutoClose = settings.ScraperAutoClose
	cfg.KeepOpenGrace = time.Duration(settings.ScraperGraceSecond) * time.Second

	launcher := browser.NewPlaywrightLauncher(settings.ScraperHeadless)
	return scraper.NewANAScraper(launcher, store,
		ai.NewFallbackExtractor(aiClient), ai.NewHealer(aiClient, store), cfg, nil)
}
