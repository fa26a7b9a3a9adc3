package engine

import "sort"

const topSlotCount = 3

// RankSlots produces the diagnostic top-3 views: slots ranked by average
// solar production descending and by average price ascending. Start times
// are reported raw, without full-hour normalization.
func RankSlots(slots []Slot) TopSlots {
	bySolar := make([]Slot, len(slots))
	copy(bySolar, slots)
	sort.SliceStable(bySolar, func(i, j int) bool {
		return bySolar[i].AvgSolarWh > bySolar[j].AvgSolarWh
	})

	byPrice := make([]Slot, len(slots))
	copy(byPrice, slots)
	sort.SliceStable(byPrice, func(i, j int) bool {
		return byPrice[i].AvgPrice < byPrice[j].AvgPrice
	})

	return TopSlots{
		Solar: truncateSlots(bySolar),
		Price: truncateSlots(byPrice),
	}
}

func truncateSlots(slots []Slot) []Slot {
	if len(slots) > topSlotCount {
		return slots[:topSlotCount]
	}
	return slots
}
