package timezone

import (
	"strings"
	"time"
)

var (
	JST *time.Location // UTC+9 - all Japanese domestic airports
	HST *time.Location // UTC-10 - Honolulu
	PST *time.Location // UTC-8 - US west coast (standard time)
	EST *time.Location // UTC-5 - US east coast (standard time)
)

var airportZones map[string]*time.Location

func init() {
	JST = time.FixedZone("JST", 9*60*60)
	HST = time.FixedZone("HST", -10*60*60)
	PST = time.FixedZone("PST", -8*60*60)
	EST = time.FixedZone("EST", -5*60*60)

	airportZones = map[string]*time.Location{
		// Japan
		"TYO": JST, "HND": JST, "NRT": JST,
		"OSA": JST, "KIX": JST, "ITM": JST,
		"SPK": JST, "CTS": JST,
		"FUK": JST, "HIJ": JST, "OKA": JST, "NGO": JST,

		// Common international destinations
		"HNL": HST,
		"LAX": PST, "SFO": PST,
		"NYC": EST, "JFK": EST,
	}
}

// LocationFor returns the local time zone of an airport. Unknown codes
// default to JST since the scraped network is Japanese domestic.
func LocationFor(code string) *time.Location {
	if loc, ok := airportZones[strings.ToUpper(code)]; ok {
		return loc
	}
	return JST
}
