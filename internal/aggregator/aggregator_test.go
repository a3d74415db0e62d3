package aggregator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xin285109136/AutoTicket/internal/models"
	"github.com/xin285109136/AutoTicket/internal/providers"
)

type fakeProvider struct {
	name   string
	offers []models.RawOffer
	errs   []error // consumed per call; nil entry means success
	calls  int
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Search(ctx context.Context, q providers.SearchQuery) ([]models.RawOffer, error) {
	p.calls++
	if len(p.errs) > 0 {
		err := p.errs[0]
		p.errs = p.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return p.offers, nil
}

func testConfig() Config {
	return Config{
		Timeout:     5 * time.Second,
		MaxRetries:  2,
		RetryDelays: []time.Duration{time.Millisecond, time.Millisecond},
	}
}

func TestSearchMergesAllProviders(t *testing.T) {
	a := NewAggregator([]providers.Provider{
		&fakeProvider{name: "serpapi", offers: []models.RawOffer{{"id": "s1"}, {"id": "s2"}}},
		&fakeProvider{name: "amadeus", offers: []models.RawOffer{{"id": "a1"}}},
	}, testConfig())

	result, err := a.Search(context.Background(), providers.SearchQuery{Origin: "HND", Destination: "ITM"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(result.Offers) != 3 {
		t.Errorf("got %d offers, want 3", len(result.Offers))
	}
	if result.ProvidersQueried != 2 || result.ProvidersSucceeded != 2 || result.ProvidersFailed != 0 {
		t.Errorf("counts = %d/%d/%d", result.ProvidersQueried, result.ProvidersSucceeded, result.ProvidersFailed)
	}
}

func TestSearchKeepsPartialResultsOnFailure(t *testing.T) {
	failing := &fakeProvider{name: "amadeus", errs: []error{
		errors.New("boom"), errors.New("boom"), errors.New("boom"),
	}}
	a := NewAggregator([]providers.Provider{
		&fakeProvider{name: "serpapi", offers: []models.RawOffer{{"id": "s1"}}},
		failing,
	}, testConfig())

	result, err := a.Search(context.Background(), providers.SearchQuery{Origin: "HND", Destination: "ITM"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(result.Offers) != 1 {
		t.Errorf("got %d offers, want the surviving provider's 1", len(result.Offers))
	}
	if result.ProvidersFailed != 1 {
		t.Errorf("ProvidersFailed = %d, want 1", result.ProvidersFailed)
	}
	if len(result.FailedProviders) != 1 || result.FailedProviders[0] != "amadeus" {
		t.Errorf("FailedProviders = %v", result.FailedProviders)
	}
	// initial attempt plus MaxRetries
	if failing.calls != 3 {
		t.Errorf("failing provider called %d times, want 3", failing.calls)
	}
}

func TestSearchRetriesTransientFailure(t *testing.T) {
	flaky := &fakeProvider{
		name:   "serpapi",
		offers: []models.RawOffer{{"id": "s1"}},
		errs:   []error{errors.New("timeout"), nil},
	}
	a := NewAggregator([]providers.Provider{flaky}, testConfig())

	result, err := a.Search(context.Background(), providers.SearchQuery{Origin: "HND", Destination: "ITM"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if result.ProvidersSucceeded != 1 {
		t.Errorf("ProvidersSucceeded = %d, want 1 after retry", result.ProvidersSucceeded)
	}
	if flaky.calls != 2 {
		t.Errorf("provider called %d times, want 2", flaky.calls)
	}
}
