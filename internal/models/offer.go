package models

import "time"

type Segment struct {
	DepartureIATA   string    `json:"departure_iata"`
	ArrivalIATA     string    `json:"arrival_iata"`
	DepartureTime   time.Time `json:"departure_time"`
	ArrivalTime     time.Time `json:"arrival_time"`
	CarrierCode     string    `json:"carrier_code"`
	FlightNumber    string    `json:"flight_number"`
	DurationMinutes int       `json:"duration_minutes"`
	CabinClass      string    `json:"cabin_class,omitempty"`
	Aircraft        *string   `json:"aircraft,omitempty"`
	Terminal        *string   `json:"terminal,omitempty"`
	SeatsAvailable  *int      `json:"seats_available,omitempty"`
	CarrierName     *string   `json:"carrier_name,omitempty"`
}

type Offer struct {
	ID                   string            `json:"id"`
	Source               string            `json:"source"`
	Price                float64           `json:"price"`
	Currency             string            `json:"currency"`
	TotalDurationMinutes int               `json:"total_duration_minutes"`
	Segments             []Segment         `json:"segments"`
	CarrierMain          string            `json:"carrier_main"`
	Stops                int               `json:"stops"`
	Score                float64           `json:"score,omitempty"`
	ScoreBreakdown       map[string]string `json:"score_breakdown,omitempty"`
}

// RawOffer is an unnormalized payload as emitted by one acquisition path.
// The "_source" key selects the conversion rule during normalization.
type RawOffer map[string]any

const (
	SourceAmadeus    = "amadeus"
	SourceSerpAPI    = "serpapi"
	SourceANAScraper = "ana_scraper"
	SourceAIFallback = "ai_fallback"
)

func (r RawOffer) Source() string {
	s, _ := r["_source"].(string)
	return s
}
