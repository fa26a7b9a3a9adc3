package engine

import "time"

// SelectBest applies the two-tier preference policy over evaluated slots:
// among solar-qualified slots pick the highest average production, otherwise
// pick the cheapest slot overall. Ties keep the first slot in chronological
// order, which keeps the output stable across re-evaluations. The chosen
// start is then normalized onto a whole-hour boundary. Returns false when
// slots is empty.
func SelectBest(now time.Time, slots []Slot) (Result, bool) {
	if len(slots) == 0 {
		return Result{}, false
	}

	var best Slot
	var reason Reason

	qualified := make([]Slot, 0, len(slots))
	for _, s := range slots {
		if s.SolarQualifies {
			qualified = append(qualified, s)
		}
	}

	if len(qualified) > 0 {
		best = qualified[0]
		for _, s := range qualified[1:] {
			if s.AvgSolarWh > best.AvgSolarWh {
				best = s
			}
		}
		reason = ReasonSolar
	} else {
		best = slots[0]
		for _, s := range slots[1:] {
			if s.AvgPrice < best.AvgPrice {
				best = s
			}
		}
		reason = ReasonPrice
	}

	bestTime, avgSolar, avgPrice := normalizeToFullHour(now, best, slots)

	return Result{
		BestTime:   bestTime,
		Reason:     reason,
		AvgSolarWh: avgSolar,
		AvgPrice:   avgPrice,
	}, true
}

// normalizeToFullHour snaps the chosen slot's start onto the better of the
// two adjacent whole hours. Slot starts are computed relative to a moving
// "now", so without this step the recommendation would drift across minute
// boundaries on every re-evaluation.
func normalizeToFullHour(now time.Time, best Slot, slots []Slot) (time.Time, float64, float64) {
	currentHour := truncateToHour(best.StartTime)
	nextHour := currentHour.Add(time.Hour)

	currentSlot, hasCurrent := slotInHour(slots, currentHour)
	nextSlot, hasNext := slotInHour(slots, nextHour)

	// A truncated hour already in the past cannot be recommended
	if currentHour.Before(now) {
		if hasNext {
			return nextHour, nextSlot.AvgSolarWh, nextSlot.AvgPrice
		}
		return best.StartTime, best.AvgSolarWh, best.AvgPrice
	}

	if !hasCurrent && !hasNext {
		return currentHour, best.AvgSolarWh, best.AvgPrice
	}
	if !hasNext {
		return currentHour, best.AvgSolarWh, best.AvgPrice
	}
	if !hasCurrent {
		return nextHour, nextSlot.AvgSolarWh, nextSlot.AvgPrice
	}

	// Under a solar-qualified selection prefer the hour producing more,
	// otherwise the cheaper hour. Ties favor the current hour.
	if best.SolarQualifies {
		if currentSlot.AvgSolarWh >= nextSlot.AvgSolarWh {
			return currentHour, currentSlot.AvgSolarWh, currentSlot.AvgPrice
		}
		return nextHour, nextSlot.AvgSolarWh, nextSlot.AvgPrice
	}
	if currentSlot.AvgPrice <= nextSlot.AvgPrice {
		return currentHour, currentSlot.AvgSolarWh, currentSlot.AvgPrice
	}
	return nextHour, nextSlot.AvgSolarWh, nextSlot.AvgPrice
}

// truncateToHour zeroes minutes and seconds on the wall clock
func truncateToHour(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}

// slotInHour finds the evaluated slot whose start falls in the given local
// clock hour
func slotInHour(slots []Slot, hour time.Time) (Slot, bool) {
	for _, s := range slots {
		if s.StartTime.Hour() == hour.Hour() && s.StartTime.Day() == hour.Day() {
			return s, true
		}
	}
	return Slot{}, false
}
