package resolver

import (
	"context"
	"log"
	"strings"

	gocache "github.com/patrickmn/go-cache"
)

// LocationClient is the external location-search capability used as the
// last resolution step. Implemented by the Amadeus provider.
type LocationClient interface {
	LookupCode(ctx context.Context, keyword string) (string, error)
}

// cityTable maps common free-text city and airport names to IATA codes.
var cityTable = map[string]string{
	// Japan
	"東京": "TYO", "TOKYO": "TYO", "TYO": "TYO",
	"羽田": "HND", "HANEDA": "HND", "HND": "HND",
	"成田": "NRT", "NARITA": "NRT", "NRT": "NRT",
	"大阪": "OSA", "OSAKA": "OSA", "OSA": "OSA",
	"関西": "KIX", "KIX": "KIX",
	"伊丹": "ITM", "ITAMI": "ITM", "ITM": "ITM",
	"札幌": "SPK", "SAPPORO": "SPK", "SPK": "SPK",
	"千歳": "CTS", "CTS": "CTS",
	"福岡": "FUK", "FUKUOKA": "FUK", "FUK": "FUK",
	"広島": "HIJ", "HIROSHIMA": "HIJ", "HIJ": "HIJ",
	"沖縄": "OKA", "OKINAWA": "OKA", "OKA": "OKA", "那覇": "OKA",
	"名古屋": "NGO", "NAGOYA": "NGO", "NGO": "NGO",

	// International (common)
	"LOS ANGELES": "LAX", "LAX": "LAX", "ロサンゼルス": "LAX",
	"NEW YORK": "NYC", "NYC": "NYC", "ニューヨーク": "NYC",
	"LONDON": "LON", "ロンドン": "LON",
	"PARIS": "PAR", "パリ": "PAR",
	"HONOLULU": "HNL", "ホノルル": "HNL",
}

// Resolver maps free-text origin/destination input to an IATA code.
// The lookup cache lives for the process lifetime with no expiration and is
// injected so tests can build isolated instances.
type Resolver struct {
	cache  *gocache.Cache
	lookup LocationClient
}

func New(lookup LocationClient) *Resolver {
	return &Resolver{
		cache:  gocache.New(gocache.NoExpiration, 0),
		lookup: lookup,
	}
}

// Resolve is best-effort and never fails: static table, then the runtime
// cache, then one external location search. If everything misses, the
// normalized input is assumed to already be a code.
func (r *Resolver) Resolve(ctx context.Context, input string) string {
	if input == "" {
		return ""
	}

	clean := strings.ToUpper(strings.TrimSpace(input))

	if code, ok := cityTable[clean]; ok {
		return code
	}

	if cached, ok := r.cache.Get(clean); ok {
		return cached.(string)
	}

	if r.lookup != nil {
		log.Printf("resolver: looking up unknown city %q via location API", clean)
		code, err := r.lookup.LookupCode(ctx, clean)
		if err != nil {
			log.Printf("resolver: location lookup for %q failed: %v", clean, err)
		} else if code != "" {
			r.cache.Set(clean, code, gocache.NoExpiration)
			return code
		}
	}

	return clean
}
