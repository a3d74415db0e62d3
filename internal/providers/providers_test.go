package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/xin285109136/AutoTicket/internal/models"
)

func TestSerpAPISearchMergesFlightGroups(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("engine") != "google_flights" {
			t.Errorf("engine = %q", q.Get("engine"))
		}
		if q.Get("departure_id") != "HND" || q.Get("arrival_id") != "ITM" {
			t.Errorf("route = %s-%s", q.Get("departure_id"), q.Get("arrival_id"))
		}
		if q.Get("type") != "2" {
			t.Errorf("type = %q, want 2 for one-way", q.Get("type"))
		}
		if q.Get("currency") != "JPY" {
			t.Errorf("currency = %q", q.Get("currency"))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"best_flights":  []map[string]any{{"price": 34000.0}},
			"other_flights": []map[string]any{{"price": 41000.0}, {"price": 52000.0}},
		})
	}))
	defer srv.Close()

	p := NewSerpAPIProvider("key")
	p.baseURL = srv.URL

	offers, err := p.Search(context.Background(), SearchQuery{
		Origin: "HND", Destination: "ITM", Date: "2026-09-01", Adults: 1, TripType: models.TripOneWay,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(offers) != 3 {
		t.Fatalf("got %d offers, want 3", len(offers))
	}
	for _, offer := range offers {
		if offer.Source() != models.SourceSerpAPI {
			t.Errorf("source = %q, want %q", offer.Source(), models.SourceSerpAPI)
		}
	}
}

func TestSerpAPISearchSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"error": "Invalid API key"})
	}))
	defer srv.Close()

	p := NewSerpAPIProvider("bad")
	p.baseURL = srv.URL

	_, err := p.Search(context.Background(), SearchQuery{Origin: "HND", Destination: "ITM", Date: "2026-09-01", Adults: 1})
	if err == nil {
		t.Fatal("expected error")
	}
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("error %T is not a ProviderError", err)
	}
	if perr.Provider != models.SourceSerpAPI {
		t.Errorf("provider = %q", perr.Provider)
	}
}

func TestAmadeusSearchReusesToken(t *testing.T) {
	tokenCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/security/oauth2/token":
			tokenCalls++
			if r.Method != http.MethodPost {
				t.Errorf("token method = %s", r.Method)
			}
			if err := r.ParseForm(); err == nil && r.PostForm.Get("grant_type") != "client_credentials" {
				t.Errorf("grant_type = %q", r.PostForm.Get("grant_type"))
			}
			json.NewEncoder(w).Encode(map[string]any{"access_token": "tok123", "expires_in": 1799})
		case "/v2/shopping/flight-offers":
			if got := r.Header.Get("Authorization"); got != "Bearer tok123" {
				t.Errorf("auth header = %q", got)
			}
			if r.URL.Query().Get("currencyCode") != "JPY" {
				t.Errorf("currencyCode = %q", r.URL.Query().Get("currencyCode"))
			}
			json.NewEncoder(w).Encode(map[string]any{
				"data": []map[string]any{{"id": "1"}, {"id": "2"}},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	p := NewAmadeusProvider("id", "secret")
	p.baseURL = srv.URL

	for i := 0; i < 2; i++ {
		offers, err := p.Search(context.Background(), SearchQuery{Origin: "HND", Destination: "OKA", Date: "2026-09-01", Adults: 1})
		if err != nil {
			t.Fatalf("Search #%d: %v", i+1, err)
		}
		if len(offers) != 2 {
			t.Fatalf("got %d offers, want 2", len(offers))
		}
		if offers[0].Source() != models.SourceAmadeus {
			t.Errorf("source = %q", offers[0].Source())
		}
	}
	if tokenCalls != 1 {
		t.Errorf("token fetched %d times, want 1", tokenCalls)
	}
}

func TestAmadeusLookupCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/security/oauth2/token":
			json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "expires_in": 1799})
		case "/v1/reference-data/locations":
			if r.URL.Query().Get("keyword") != "札幌" {
				t.Errorf("keyword = %q", r.URL.Query().Get("keyword"))
			}
			json.NewEncoder(w).Encode(map[string]any{
				"data": []map[string]any{{"iataCode": "CTS"}, {"iataCode": "OKD"}},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	p := NewAmadeusProvider("id", "secret")
	p.baseURL = srv.URL

	code, err := p.LookupCode(context.Background(), "札幌")
	if err != nil {
		t.Fatalf("LookupCode: %v", err)
	}
	if code != "CTS" {
		t.Errorf("code = %q, want CTS", code)
	}
}

func TestAmadeusLookupCodeNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/security/oauth2/token":
			json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "expires_in": 1799})
		default:
			json.NewEncoder(w).Encode(map[string]any{"data": []map[string]any{}})
		}
	}))
	defer srv.Close()

	p := NewAmadeusProvider("id", "secret")
	p.baseURL = srv.URL

	if _, err := p.LookupCode(context.Background(), "nowhere"); err == nil {
		t.Fatal("expected error for empty result")
	}
}
