package filter

import (
	"strconv"
	"strings"

	"github.com/xin285109136/AutoTicket/internal/models"
)

const (
	BucketMorning   = "morning"
	BucketAfternoon = "afternoon"
	BucketEvening   = "evening"
)

// InBucket reports whether an HH:MM departure time falls inside a coarse
// time-of-day bucket. Unknown buckets and unparseable times match nothing.
func InBucket(depTime, bucket string) bool {
	hourStr, _, ok := strings.Cut(depTime, ":")
	if !ok {
		return false
	}
	hour, err := strconv.Atoi(hourStr)
	if err != nil {
		return false
	}

	switch bucket {
	case BucketMorning:
		return hour < 12
	case BucketAfternoon:
		return hour >= 12 && hour < 18
	case BucketEvening:
		return hour >= 18
	default:
		return false
	}
}

// ByTimeRange keeps offers whose first segment departs inside the bucket.
// An empty bucket keeps everything.
func ByTimeRange(offers []models.Offer, bucket string) []models.Offer {
	if bucket == "" {
		return offers
	}

	result := make([]models.Offer, 0, len(offers))
	for _, o := range offers {
		if len(o.Segments) == 0 {
			continue
		}
		dep := o.Segments[0].DepartureTime.Format("15:04")
		if InBucket(dep, bucket) {
			result = append(result, o)
		}
	}
	return result
}
