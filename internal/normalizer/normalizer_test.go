package normalizer

import (
	"testing"

	"github.com/xin285109136/AutoTicket/internal/models"
)

func amadeusPayload(segments ...map[string]any) models.RawOffer {
	segs := make([]any, 0, len(segments))
	for _, s := range segments {
		segs = append(segs, s)
	}
	return models.RawOffer{
		"_source": models.SourceAmadeus,
		"id":      "1",
		"price":   map[string]any{"total": "34000", "currency": "JPY"},
		"itineraries": []any{
			map[string]any{
				"duration": "PT1H15M",
				"segments": segs,
			},
		},
		"validatingAirlineCodes": []any{"NH"},
		"numberOfBookableSeats":  float64(9),
	}
}

func segment(dep, arr, depAt, arrAt string) map[string]any {
	return map[string]any{
		"departure":   map[string]any{"iataCode": dep, "at": depAt, "terminal": "2"},
		"arrival":     map[string]any{"iataCode": arr, "at": arrAt},
		"carrierCode": "NH",
		"number":      "015",
		"duration":    "PT1H15M",
		"aircraft":    map[string]any{"code": "B789"},
	}
}

func TestNormalizeAmadeusStopsInvariant(t *testing.T) {
	raw := amadeusPayload(
		segment("HND", "CTS", "2026-03-03T10:00:00", "2026-03-03T11:35:00"),
		segment("CTS", "OKA", "2026-03-03T13:00:00", "2026-03-03T16:40:00"),
	)

	offers := Normalize([]models.RawOffer{raw})
	if len(offers) != 1 {
		t.Fatalf("got %d offers", len(offers))
	}

	o := offers[0]
	if o.Stops != len(o.Segments)-1 {
		t.Errorf("stops = %d, segments = %d", o.Stops, len(o.Segments))
	}
	if o.CarrierMain != "NH" {
		t.Errorf("carrier = %q", o.CarrierMain)
	}
	if o.TotalDurationMinutes != 75 {
		t.Errorf("duration = %d, want 75", o.TotalDurationMinutes)
	}
	if o.Price != 34000 || o.Currency != "JPY" {
		t.Errorf("price = %v %s", o.Price, o.Currency)
	}
	seg := o.Segments[0]
	if seg.Terminal == nil || *seg.Terminal != "2" {
		t.Error("terminal not extracted")
	}
	if seg.Aircraft == nil || *seg.Aircraft != "B789" {
		t.Error("aircraft not extracted")
	}
	if seg.SeatsAvailable == nil || *seg.SeatsAvailable != 9 {
		t.Error("seats not extracted")
	}
	if o.Score != 0 || o.ScoreBreakdown != nil {
		t.Error("score fields must stay zero until ranking")
	}
}

func TestNormalizeRejectsRoundTripItineraries(t *testing.T) {
	raw := amadeusPayload(segment("HND", "ITM", "2026-03-03T10:00:00", "2026-03-03T11:15:00"))
	raw["itineraries"] = append(asSlice(raw["itineraries"]), map[string]any{
		"duration": "PT1H10M",
		"segments": []any{segment("ITM", "HND", "2026-03-05T18:00:00", "2026-03-05T19:10:00")},
	})

	if offers := Normalize([]models.RawOffer{raw}); len(offers) != 0 {
		t.Errorf("multi-itinerary record should be rejected, got %d offers", len(offers))
	}
}

func TestNormalizeSkipsBadRecordKeepsSiblings(t *testing.T) {
	good := amadeusPayload(segment("HND", "ITM", "2026-03-03T10:00:00", "2026-03-03T11:15:00"))

	missingPrice := models.RawOffer{
		"_source": models.SourceSerpAPI,
		"flights": []any{map[string]any{
			"departure_time": "2026-03-03 10:00",
			"arrival_time":   "2026-03-03 11:15",
		}},
	}

	unknownSource := models.RawOffer{"_source": "mystery"}

	offers := Normalize([]models.RawOffer{missingPrice, good, unknownSource})
	if len(offers) != 1 {
		t.Fatalf("got %d offers, want only the valid sibling", len(offers))
	}
	if offers[0].Source != models.SourceAmadeus {
		t.Errorf("kept record source = %s", offers[0].Source)
	}
}

func TestNormalizeSerpAPI(t *testing.T) {
	raw := models.RawOffer{
		"_source":        models.SourceSerpAPI,
		"price":          float64(21000),
		"total_duration": float64(70),
		"flights": []any{map[string]any{
			"departure_airport": map[string]any{"id": "HND"},
			"arrival_airport":   map[string]any{"id": "ITM"},
			"departure_time":    "2026-03-03 10:00",
			"arrival_time":      "2026-03-03 11:10",
			"airline_code":      "JL",
			"airline":           "Japan Airlines",
			"flight_number":     "JL111",
			"duration":          float64(70),
			"travel_class":      "Economy",
		}},
	}

	offers := Normalize([]models.RawOffer{raw})
	if len(offers) != 1 {
		t.Fatalf("got %d offers", len(offers))
	}
	o := offers[0]
	if o.CarrierMain != "JL" || o.Stops != 0 || o.Currency != "JPY" {
		t.Errorf("unexpected offer: %+v", o)
	}
	if o.ID != "serp_21000" {
		t.Errorf("generated id = %q", o.ID)
	}
	if o.Segments[0].CarrierName == nil || *o.Segments[0].CarrierName != "Japan Airlines" {
		t.Error("carrier name not extracted")
	}
}

func TestNormalizeSerpAPIBadTimestampFailsRecord(t *testing.T) {
	raw := models.RawOffer{
		"_source": models.SourceSerpAPI,
		"price":   float64(21000),
		"flights": []any{map[string]any{
			"departure_time": "sometime tomorrow",
			"arrival_time":   "2026-03-03 11:10",
		}},
	}

	// The record must be dropped, never defaulted to the current wall clock.
	if offers := Normalize([]models.RawOffer{raw}); len(offers) != 0 {
		t.Errorf("record with unparseable time survived: %+v", offers)
	}
}

func TestNormalizeAIFallbackOvernightArrival(t *testing.T) {
	raw := models.RawOffer{
		"_source":        models.SourceAIFallback,
		"id":             "AI_0_NH99",
		"flight_number":  "NH99",
		"departure_time": "23:30",
		"arrival_time":   "00:45",
		"price":          float64(18000),
		"airline":        "NH",
		"origin":         "HND",
		"destination":    "ITM",
		"date":           "2026-03-03",
	}

	offers := Normalize([]models.RawOffer{raw})
	if len(offers) != 1 {
		t.Fatalf("got %d offers", len(offers))
	}
	o := offers[0]
	if !o.Segments[0].ArrivalTime.After(o.Segments[0].DepartureTime) {
		t.Error("overnight arrival not rolled to the next day")
	}
	if o.TotalDurationMinutes != 75 {
		t.Errorf("duration = %d, want 75", o.TotalDurationMinutes)
	}
}

func TestNormalizeScraperSharesAPIShape(t *testing.T) {
	raw := amadeusPayload(segment("HND", "ITM", "2026-03-03T10:00:00", "2026-03-03T11:15:00"))
	raw["_source"] = models.SourceANAScraper

	offers := Normalize([]models.RawOffer{raw})
	if len(offers) != 1 {
		t.Fatalf("got %d offers", len(offers))
	}
	if offers[0].Source != models.SourceANAScraper {
		t.Errorf("source = %s", offers[0].Source)
	}
}

func TestParsePTDuration(t *testing.T) {
	cases := map[string]int{
		"PT1H15M": 75,
		"PT2H":    120,
		"PT45M":   45,
		"PT0H0M":  0,
		"1h15m":   0,
		"":        0,
	}
	for in, want := range cases {
		if got := parsePTDuration(in); got != want {
			t.Errorf("parsePTDuration(%q) = %d, want %d", in, got, want)
		}
	}
}
