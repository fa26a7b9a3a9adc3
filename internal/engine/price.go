package engine

import "time"

// PriceAt returns the market price of the interval containing target
// (inclusive start, exclusive end). Returns 0 when no interval covers the
// target; callers must treat that as missing data, not a free hour — a
// market reporting a genuine zero or negative price is indistinguishable
// from a miss here.
func PriceAt(periods []PricePeriod, target time.Time) float64 {
	for _, p := range periods {
		if !target.Before(p.Start) && target.Before(p.End) {
			return p.Price
		}
	}
	return 0
}
