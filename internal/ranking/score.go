package ranking

import (
	"fmt"
	"sort"

	"github.com/xin285109136/AutoTicket/internal/models"
	"github.com/xin285109136/AutoTicket/pkg/currency"
)

const (
	baseScore       = 1000.0
	pricePerPoint   = 1000.0 // 1 point per 1000 currency units
	minutesPerPoint = 10.0   // 1 point per 10 minutes
	stopPenalty     = 50.0
	carrierBonus    = 100.0
)

type Preferences struct {
	Carrier string
}

// Score assigns a deterministic value score to one offer and records every
// deduction and addition in the breakdown map. Higher is better.
func Score(offer *models.Offer, prefs Preferences) float64 {
	score := baseScore
	breakdown := make(map[string]string, 4)

	pricePenalty := offer.Price / pricePerPoint
	score -= pricePenalty
	breakdown["price"] = fmt.Sprintf("-%.1f (price: %s)", pricePenalty, currency.FormatJPY(offer.Price))

	durationPenalty := float64(offer.TotalDurationMinutes) / minutesPerPoint
	score -= durationPenalty
	breakdown["duration"] = fmt.Sprintf("-%.1f (duration: %dm)", durationPenalty, offer.TotalDurationMinutes)

	stopsPenalty := float64(offer.Stops) * stopPenalty
	score -= stopsPenalty
	breakdown["stops"] = fmt.Sprintf("-%.1f (%d stops)", stopsPenalty, offer.Stops)

	if prefs.Carrier != "" && offer.CarrierMain == prefs.Carrier {
		score += carrierBonus
		breakdown["carrier"] = fmt.Sprintf("+%.0f (preferred: %s)", carrierBonus, prefs.Carrier)
	}

	offer.Score = score
	offer.ScoreBreakdown = breakdown
	return score
}

// Rank scores every offer and returns them sorted by score descending.
// Ties keep the input order.
func Rank(offers []models.Offer, prefs Preferences) []models.Offer {
	ranked := make([]models.Offer, len(offers))
	copy(ranked, offers)

	for i := range ranked {
		Score(&ranked[i], prefs)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}
