package engine

import "time"

// EvaluateSlots scores every feasible start hour within the search window.
// A start offset h is feasible when all LoadDurationHours consecutive hours
// from h fit inside [0, SearchWindowHours); slots with incomplete coverage
// are dropped rather than emitted partially scored. Returns an empty slice
// when no slot can be formed, including when the window is shorter than the
// load duration.
func EvaluateSlots(now time.Time, samples []SolarSample, periods []PricePeriod, prefs Preferences) []Slot {
	duration := prefs.LoadDurationHours
	window := prefs.SearchWindowHours
	if duration < 1 || window < duration {
		return nil
	}

	maxStart := window - duration + 1

	slots := make([]Slot, 0, maxStart)
	for h := 0; h < maxStart; h++ {
		startTime := now.Add(time.Duration(h) * time.Hour)

		totalSolar := 0.0
		totalPrice := 0.0
		validHours := 0

		for i := 0; i < duration; i++ {
			offset := h + i
			if offset < 0 || offset >= window {
				continue
			}
			target := now.Add(time.Duration(offset) * time.Hour)
			totalSolar += ProductionAt(samples, target, prefs)
			totalPrice += PriceAt(periods, target)
			validHours++
		}

		if validHours != duration {
			continue
		}

		avgSolar := totalSolar / float64(validHours)
		avgPrice := totalPrice / float64(validHours)

		slots = append(slots, Slot{
			StartTime:      startTime,
			AvgSolarWh:     avgSolar,
			AvgPrice:       avgPrice,
			SolarQualifies: avgSolar >= prefs.MinQualifyingWh,
		})
	}

	return slots
}
