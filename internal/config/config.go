// Package config loads runtime settings from an optional YAML file and
// AUTOTICKET_* environment variables.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Settings struct {
	Port string

	CacheBackend string // memory | redis | none
	CacheTTL     time.Duration
	RedisHost    string
	RedisPort    string

	AIProvider   string
	AIModel      string
	AIAPIKey     string
	AIBaseURL    string
	USDJPYRate   float64
	AIMaxTokens  int
	AIRatePerSec float64

	SerpAPIKey          string
	AmadeusClientID     string
	AmadeusClientSecret string

	ScraperURL         string
	ScraperHeadless    bool
	ScraperAutoClose   bool
	ScraperGraceSecond int
	SelectorDir        string
}

// Load reads the optional config file plus environment overrides. A missing
// file is not an error; every setting has a default.
func Load(cfgFile string) (*Settings, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName("autoticket")
	}

	v.SetEnvPrefix("AUTOTICKET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", "8000")
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")

	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.base_url", "")
	v.SetDefault("ai.max_tokens", 2000)
	v.SetDefault("ai.rate_per_sec", 1.0)
	v.SetDefault("usd_jpy_rate", 150.0)

	v.SetDefault("scraper.url", "")
	v.SetDefault("scraper.headless", true)
	v.SetDefault("scraper.auto_close", true)
	v.SetDefault("scraper.grace_seconds", 30)
	v.SetDefault("selector.dir", ".")

	// the conventional unprefixed names also work for credentials
	_ = v.BindEnv("ai.api_key", "AUTOTICKET_AI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("serpapi.key", "AUTOTICKET_SERPAPI_KEY", "SERPAPI_KEY")
	_ = v.BindEnv("amadeus.client_id", "AUTOTICKET_AMADEUS_CLIENT_ID", "AMADEUS_CLIENT_ID")
	_ = v.BindEnv("amadeus.client_secret", "AUTOTICKET_AMADEUS_CLIENT_SECRET", "AMADEUS_CLIENT_SECRET")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			return nil, err
		}
	}

	return &Settings{
		Port:         v.GetString("port"),
		CacheBackend: v.GetString("cache.backend"),
		CacheTTL:     v.GetDuration("cache.ttl"),
		RedisHost:    v.GetString("redis.host"),
		RedisPort:    v.GetString("redis.port"),

		AIProvider:   v.GetString("ai.provider"),
		AIModel:      v.GetString("ai.model"),
		AIAPIKey:     v.GetString("ai.api_key"),
		AIBaseURL:    v.GetString("ai.base_url"),
		USDJPYRate:   v.GetFloat64("usd_jpy_rate"),
		AIMaxTokens:  v.GetInt("ai.max_tokens"),
		AIRatePerSec: v.GetFloat64("ai.rate_per_sec"),

		SerpAPIKey:          v.GetString("serpapi.key"),
		AmadeusClientID:     v.GetString("amadeus.client_id"),
		AmadeusClientSecret: v.GetString("amadeus.client_secret"),

		ScraperURL:         v.GetString("scraper.url"),
		ScraperHeadless:    v.GetBool("scraper.headless"),
		ScraperAutoClose:   v.GetBool("scraper.auto_close"),
		ScraperGraceSecond: v.GetInt("scraper.grace_seconds"),
		SelectorDir:        v.GetString("selector.dir"),
	}, nil
}
