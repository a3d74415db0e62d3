package models

const (
	ModeScraper = "scraper"
	ModeAPI     = "api"

	TripOneWay    = "oneway"
	TripRoundTrip = "roundtrip"
)

type SearchRequest struct {
	Origin           string `json:"origin"`
	Destination      string `json:"destination"`
	Date             string `json:"date"`
	Adults           int    `json:"adults"`
	SearchMode       string `json:"searchMode"`
	TripType         string `json:"trip_type,omitempty"`
	TimeRange        string `json:"time_range,omitempty"`
	FlexibleTicket   bool   `json:"flexible_ticket,omitempty"`
	PreferredCarrier string `json:"preferred_carrier,omitempty"`
}

func (r *SearchRequest) Validate() error {
	if r.Origin == "" {
		return ErrMissingOrigin
	}
	if r.Destination == "" {
		return ErrMissingDestination
	}
	if r.Date == "" {
		return ErrMissingDate
	}
	if r.Adults <= 0 {
		r.Adults = 1
	}
	if r.SearchMode == "" {
		r.SearchMode = ModeAPI
	}
	if r.SearchMode != ModeScraper && r.SearchMode != ModeAPI {
		return ErrInvalidSearchMode
	}
	if r.TripType == "" {
		r.TripType = TripOneWay
	}
	if r.TripType != TripOneWay && r.TripType != TripRoundTrip {
		return ErrInvalidTripType
	}
	return nil
}

type ValidationError string

func (e ValidationError) Error() string {
	return string(e)
}

const (
	ErrMissingOrigin      ValidationError = "origin is required"
	ErrMissingDestination ValidationError = "destination is required"
	ErrMissingDate        ValidationError = "date is required"
	ErrInvalidSearchMode  ValidationError = "searchMode must be 'scraper' or 'api'"
	ErrInvalidTripType    ValidationError = "trip_type must be 'oneway' or 'roundtrip'"
)
