package normalizer

import (
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xin285109136/AutoTicket/internal/models"
	"github.com/xin285109136/AutoTicket/internal/timezone"
)

// Normalize converts every raw payload into the canonical Offer shape.
// It is total over the batch: a malformed record is logged and skipped so
// one bad payload cannot drop its siblings.
func Normalize(raws []models.RawOffer) []models.Offer {
	offers := make([]models.Offer, 0, len(raws))
	for _, raw := range raws {
		offer, err := normalizeOne(raw)
		if err != nil {
			log.Printf("normalizer: skipping %s record: %v", raw.Source(), err)
			continue
		}
		offers = append(offers, offer)
	}
	return offers
}

func normalizeOne(raw models.RawOffer) (models.Offer, error) {
	switch raw.Source() {
	case models.SourceAmadeus:
		return normalizeAPIOffer(raw, models.SourceAmadeus)
	case models.SourceANAScraper:
		// the site scraper pre-shapes its rows API-compatible
		return normalizeAPIOffer(raw, models.SourceANAScraper)
	case models.SourceSerpAPI:
		return normalizeSerpAPIOffer(raw)
	case models.SourceAIFallback:
		return normalizeAIOffer(raw)
	default:
		return models.Offer{}, fmt.Errorf("unknown source tag %q", raw.Source())
	}
}

// normalizeAPIOffer handles Amadeus-shaped payloads: itineraries of
// segments with ISO timestamps and PT durations.
func normalizeAPIOffer(raw models.RawOffer, source string) (models.Offer, error) {
	itineraries := asSlice(raw["itineraries"])
	if len(itineraries) == 0 {
		return models.Offer{}, fmt.Errorf("no itineraries")
	}
	if len(itineraries) > 1 {
		// Return legs would be silently dropped otherwise; reject loudly.
		return models.Offer{}, fmt.Errorf("round-trip itineraries unsupported (%d present)", len(itineraries))
	}

	itinerary := asMap(itineraries[0])
	totalDuration := parsePTDuration(asString(itinerary["duration"]))

	var segments []models.Segment
	for _, s := range asSlice(itinerary["segments"]) {
		seg := asMap(s)
		departure := asMap(seg["departure"])
		arrival := asMap(seg["arrival"])

		depAt, err := parseTimestamp(asString(departure["at"]))
		if err != nil {
			return models.Offer{}, fmt.Errorf("segment departure time: %w", err)
		}
		arrAt, err := parseTimestamp(asString(arrival["at"]))
		if err != nil {
			return models.Offer{}, fmt.Errorf("segment arrival time: %w", err)
		}

		segment := models.Segment{
			DepartureIATA:   asString(departure["iataCode"]),
			ArrivalIATA:     asString(arrival["iataCode"]),
			DepartureTime:   depAt,
			ArrivalTime:     arrAt,
			CarrierCode:     asString(seg["carrierCode"]),
			FlightNumber:    asString(seg["number"]),
			DurationMinutes: parsePTDuration(asString(seg["duration"])),
			CabinClass:      extractCabin(raw),
		}
		if terminal := asString(departure["terminal"]); terminal != "" {
			segment.Terminal = &terminal
		}
		if ac := asString(asMap(seg["aircraft"])["code"]); ac != "" {
			segment.Aircraft = &ac
		}
		if seats, ok := asInt(raw["numberOfBookableSeats"]); ok {
			segment.SeatsAvailable = &seats
		}
		segments = append(segments, segment)
	}

	if len(segments) == 0 {
		return models.Offer{}, fmt.Errorf("no segments")
	}

	price := asMap(raw["price"])
	amount, err := strconv.ParseFloat(asString(price["total"]), 64)
	if err != nil {
		return models.Offer{}, fmt.Errorf("price: %w", err)
	}

	carrierMain := segments[0].CarrierCode
	if codes := asSlice(raw["validatingAirlineCodes"]); len(codes) > 0 {
		if code := asString(codes[0]); code != "" {
			carrierMain = code
		}
	}

	return models.Offer{
		ID:                   asString(raw["id"]),
		Source:               source,
		Price:                amount,
		Currency:             asString(price["currency"]),
		TotalDurationMinutes: totalDuration,
		Segments:             segments,
		CarrierMain:          carrierMain,
		Stops:                len(segments) - 1,
	}, nil
}

// normalizeSerpAPIOffer handles Google-Flights-shaped payloads: a flights
// array with pre-parsed local time strings. An unparseable timestamp fails
// the record; substituting the current wall clock would silently fabricate
// flight times.
func normalizeSerpAPIOffer(raw models.RawOffer) (models.Offer, error) {
	if _, ok := raw["price"]; !ok {
		return models.Offer{}, fmt.Errorf("missing price")
	}
	price, ok := asFloat(raw["price"])
	if !ok {
		return models.Offer{}, fmt.Errorf("price is not numeric")
	}

	var segments []models.Segment
	for _, f := range asSlice(raw["flights"]) {
		flight := asMap(f)

		depAt, err := time.Parse("2006-01-02 15:04", asString(flight["departure_time"]))
		if err != nil {
			return models.Offer{}, fmt.Errorf("flight departure time: %w", err)
		}
		arrAt, err := time.Parse("2006-01-02 15:04", asString(flight["arrival_time"]))
		if err != nil {
			return models.Offer{}, fmt.Errorf("flight arrival time: %w", err)
		}

		duration, _ := asInt(flight["duration"])
		segment := models.Segment{
			DepartureIATA:   asString(asMap(flight["departure_airport"])["id"]),
			ArrivalIATA:     asString(asMap(flight["arrival_airport"])["id"]),
			DepartureTime:   depAt,
			ArrivalTime:     arrAt,
			CarrierCode:     asString(flight["airline_code"]),
			FlightNumber:    asString(flight["flight_number"]),
			DurationMinutes: duration,
			CabinClass:      asString(flight["travel_class"]),
		}
		if name := asString(flight["airline"]); name != "" {
			segment.CarrierName = &name
		}
		segments = append(segments, segment)
	}

	if len(segments) == 0 {
		return models.Offer{}, fmt.Errorf("no flights in payload")
	}

	id := asString(raw["token"])
	if id == "" {
		id = fmt.Sprintf("serp_%.0f", price)
	}

	totalDuration, _ := asInt(raw["total_duration"])

	return models.Offer{
		ID:                   id,
		Source:               models.SourceSerpAPI,
		Price:                price,
		Currency:             "JPY", // forced by the search parameters
		TotalDurationMinutes: totalDuration,
		Segments:             segments,
		CarrierMain:          segments[0].CarrierCode,
		Stops:                len(segments) - 1,
	}, nil
}

// normalizeAIOffer handles rows the fallback extractor pulled out of HTML:
// bare HH:MM times composed onto the request date in the airport's zone.
func normalizeAIOffer(raw models.RawOffer) (models.Offer, error) {
	price, ok := asFloat(raw["price"])
	if !ok {
		return models.Offer{}, fmt.Errorf("missing or non-numeric price")
	}

	origin := asString(raw["origin"])
	dest := asString(raw["destination"])
	date := asString(raw["date"])

	depAt, err := composeTime(date, asString(raw["departure_time"]), origin)
	if err != nil {
		return models.Offer{}, fmt.Errorf("departure time: %w", err)
	}
	arrAt, err := composeTime(date, asString(raw["arrival_time"]), dest)
	if err != nil {
		return models.Offer{}, fmt.Errorf("arrival time: %w", err)
	}
	// overnight arrival
	if arrAt.Before(depAt) {
		arrAt = arrAt.Add(24 * time.Hour)
	}

	duration := int(arrAt.Sub(depAt).Minutes())
	carrier := asString(raw["airline"])
	if carrier == "" {
		carrier = "NH"
	}

	segment := models.Segment{
		DepartureIATA:   origin,
		ArrivalIATA:     dest,
		DepartureTime:   depAt,
		ArrivalTime:     arrAt,
		CarrierCode:     carrier,
		FlightNumber:    asString(raw["flight_number"]),
		DurationMinutes: duration,
		CabinClass:      "ECONOMY",
	}

	return models.Offer{
		ID:                   asString(raw["id"]),
		Source:               models.SourceAIFallback,
		Price:                price,
		Currency:             "JPY",
		TotalDurationMinutes: duration,
		Segments:             []models.Segment{segment},
		CarrierMain:          carrier,
		Stops:                0,
	}, nil
}

var ptDurationRe = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?$`)

// parsePTDuration converts an ISO-8601 duration token (PT1H30M) to minutes.
func parsePTDuration(s string) int {
	m := ptDurationRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	return hours*60 + minutes
}

func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func composeTime(date, hhmm, airport string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", date+" "+hhmm, timezone.LocationFor(airport))
}

func extractCabin(raw models.RawOffer) string {
	tps := asSlice(raw["travelerPricings"])
	if len(tps) == 0 {
		return "ECONOMY"
	}
	fds := asSlice(asMap(tps[0])["fareDetailsBySegment"])
	if len(fds) == 0 {
		return "ECONOMY"
	}
	if cabin := asString(asMap(fds[0])["cabin"]); cabin != "" {
		return cabin
	}
	return "ECONOMY"
}

// map navigation helpers; raw payloads arrive as encoding/json generic maps

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(n, ",", ""), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func asInt(v any) (int, bool) {
	f, ok := asFloat(v)
	return int(f), ok
}
