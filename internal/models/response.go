package models

type SearchResponse struct {
	Offers         []Offer `json:"offers"`
	LatencySeconds float64 `json:"latency_seconds"`
	Cached         bool    `json:"cached"`
	Warning        string  `json:"warning,omitempty"`
}

type ExplainRequest struct {
	TargetOffer     Offer  `json:"target_offer"`
	ComparisonOffer *Offer `json:"comparison_offer,omitempty"`
}

type AnalyzeRequest struct {
	Offers []Offer `json:"offers"`
}

type ScraperConfigResponse struct {
	Config     map[string]any    `json:"config"`
	Suggestion map[string]string `json:"suggestion,omitempty"`
}

type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
