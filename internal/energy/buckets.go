package energy

import "powerpay/internal/models"

// Time-of-day boundaries, local wall-clock hours. Morning is [4,11),
// afternoon [11,17), everything else is night.
const (
	morningStartHour   = 4
	afternoonStartHour = 11
	nightStartHour     = 17
)

// TimeBuckets holds energy totals per meal window.
type TimeBuckets struct {
	MorningKWh   float64 `json:"morning_kwh"`
	AfternoonKWh float64 `json:"afternoon_kwh"`
	NightKWh     float64 `json:"night_kwh"`
}

// Total is the sum across all three windows.
func (b TimeBuckets) Total() float64 {
	return b.MorningKWh + b.AfternoonKWh + b.NightKWh
}

// BucketByTimeOfDay sums reading energy into morning/afternoon/night
// windows by the local hour encoded in each txtime. All devices count,
// the sentinel included. Energy values are not sanitized here: negative
// sensor noise flows straight into the buckets, so pre-filter if that
// matters. A malformed txtime fails the whole call with *ParseError.
func BucketByTimeOfDay(readings []models.Reading) (TimeBuckets, error) {
	var buckets TimeBuckets
	parsed, err := parseAll(readings)
	if err != nil {
		return TimeBuckets{}, err
	}
	for _, r := range parsed {
		switch hour := r.at.Hour(); {
		case hour >= morningStartHour && hour < afternoonStartHour:
			buckets.MorningKWh += r.kwh
		case hour >= afternoonStartHour && hour < nightStartHour:
			buckets.AfternoonKWh += r.kwh
		default:
			buckets.NightKWh += r.kwh
		}
	}
	return buckets, nil
}
