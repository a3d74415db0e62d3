package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/xin285109136/AutoTicket/internal/models"
)

const serpapiBaseURL = "https://serpapi.com/search"

// SerpAPIProvider queries the Google Flights engine through SerpAPI.
type SerpAPIProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewSerpAPIProvider(apiKey string) *SerpAPIProvider {
	return &SerpAPIProvider{
		apiKey:  apiKey,
		baseURL: serpapiBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *SerpAPIProvider) Name() string {
	return models.SourceSerpAPI
}

func (p *SerpAPIProvider) Search(ctx context.Context, query SearchQuery) ([]models.RawOffer, error) {
	params := url.Values{}
	params.Set("engine", "google_flights")
	params.Set("api_key", p.apiKey)
	params.Set("departure_id", query.Origin)
	params.Set("arrival_id", query.Destination)
	params.Set("outbound_date", query.Date)
	params.Set("adults", strconv.Itoa(query.Adults))
	params.Set("currency", "JPY")
	params.Set("hl", "ja")
	if query.TripType == models.TripRoundTrip {
		params.Set("type", "1")
	} else {
		params.Set("type", "2")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, NewProviderError(p.Name(), err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, NewProviderError(p.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, NewProviderError(p.Name(), fmt.Errorf("status %d: %s", resp.StatusCode, body))
	}

	var payload struct {
		BestFlights  []map[string]any `json:"best_flights"`
		OtherFlights []map[string]any `json:"other_flights"`
		Error        string           `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, NewProviderError(p.Name(), err)
	}
	if payload.Error != "" {
		return nil, NewProviderError(p.Name(), fmt.Errorf("%s", payload.Error))
	}

	var results []models.RawOffer
	for _, group := range [][]map[string]any{payload.BestFlights, payload.OtherFlights} {
		for _, raw := range group {
			offer := models.RawOffer(raw)
			offer["_source"] = models.SourceSerpAPI
			results = append(results, offer)
		}
	}
	return results, nil
}
