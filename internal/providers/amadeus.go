package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/xin285109136/AutoTicket/internal/models"
)

const amadeusBaseURL = "https://test.api.amadeus.com"

// AmadeusProvider talks to the Amadeus flight-offers API. Tokens come from
// the client-credentials grant and are refreshed shortly before expiry.
type AmadeusProvider struct {
	clientID     string
	clientSecret string
	baseURL      string
	client       *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewAmadeusProvider(clientID, clientSecret string) *AmadeusProvider {
	return &AmadeusProvider{
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      amadeusBaseURL,
		client:       &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *AmadeusProvider) Name() string {
	return models.SourceAmadeus
}

func (p *AmadeusProvider) token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.accessToken != "" && time.Now().Before(p.tokenExpiry) {
		return p.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", p.clientID)
	form.Set("client_secret", p.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/v1/security/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("token request: status %d: %s", resp.StatusCode, body)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("token request: empty access_token")
	}

	p.accessToken = payload.AccessToken
	// refresh a minute early so in-flight requests never race expiry
	p.tokenExpiry = time.Now().Add(time.Duration(payload.ExpiresIn-60) * time.Second)
	return p.accessToken, nil
}

func (p *AmadeusProvider) get(ctx context.Context, path string, params url.Values, out any) error {
	token, err := p.token(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: status %d: %s", path, resp.StatusCode, body)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (p *AmadeusProvider) Search(ctx context.Context, query SearchQuery) ([]models.RawOffer, error) {
	params := url.Values{}
	params.Set("originLocationCode", query.Origin)
	params.Set("destinationLocationCode", query.Destination)
	params.Set("departureDate", query.Date)
	params.Set("adults", strconv.Itoa(query.Adults))
	params.Set("currencyCode", "JPY")
	params.Set("max", "50")

	var payload struct {
		Data []map[string]any `json:"data"`
	}
	if err := p.get(ctx, "/v2/shopping/flight-offers", params, &payload); err != nil {
		return nil, NewProviderError(p.Name(), err)
	}

	results := make([]models.RawOffer, 0, len(payload.Data))
	for _, raw := range payload.Data {
		offer := models.RawOffer(raw)
		offer["_source"] = models.SourceAmadeus
		results = append(results, offer)
	}
	return results, nil
}

// LookupCode resolves a free-text place name to its IATA code via the
// Amadeus locations API. The first match wins.
func (p *AmadeusProvider) LookupCode(ctx context.Context, keyword string) (string, error) {
	params := url.Values{}
	params.Set("keyword", keyword)
	params.Set("subType", "CITY,AIRPORT")

	var payload struct {
		Data []struct {
			IATACode string `json:"iataCode"`
		} `json:"data"`
	}
	if err := p.get(ctx, "/v1/reference-data/locations", params, &payload); err != nil {
		return "", err
	}
	for _, loc := range payload.Data {
		if loc.IATACode != "" {
			return loc.IATACode, nil
		}
	}
	return "", fmt.Errorf("no location matched %q", keyword)
}
