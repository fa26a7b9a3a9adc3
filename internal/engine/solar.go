package engine

import (
	"sort"
	"time"
)

// derateFactor compensates for the forecast provider's optimism bias
const derateFactor = 0.7

// morningShadingFactor halves estimates before the configured shading end hour
const morningShadingFactor = 0.5

// seriesLayouts are the timestamp formats the solar provider has been
// observed to use. Parsed in local time when the string carries no zone.
var seriesLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.RFC3339,
}

// ParseSeries converts a SolarSeries into samples sorted ascending by time.
// Entries with unparseable timestamps are skipped.
func ParseSeries(series SolarSeries) []SolarSample {
	samples := make([]SolarSample, 0, len(series))
	for ts, wh := range series {
		t, ok := parseSeriesTime(ts)
		if !ok {
			continue
		}
		samples = append(samples, SolarSample{
			Time:         t,
			CumulativeWh: wh,
			Day:          t.Format("2006-01-02"),
		})
	}
	sort.Slice(samples, func(i, j int) bool {
		return samples[i].Time.Before(samples[j].Time)
	})
	return samples
}

func parseSeriesTime(ts string) (time.Time, bool) {
	for _, layout := range seriesLayouts {
		var t time.Time
		var err error
		if layout == time.RFC3339 {
			t, err = time.Parse(layout, ts)
		} else {
			t, err = time.ParseInLocation(layout, ts, time.Local)
		}
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ProductionAt estimates the watt-hours produced during the single hour
// starting at target, by differencing the cumulative series. The series
// resets at midnight, so both bracketing samples must fall on the same
// calendar day; otherwise the estimate is 0. No extrapolation is done past
// the last sample of a day.
func ProductionAt(samples []SolarSample, target time.Time, prefs Preferences) float64 {
	if len(samples) == 0 {
		return 0
	}

	before := -1
	after := -1
	for i := range samples {
		if !samples[i].Time.After(target) {
			before = i
		} else {
			after = i
			break
		}
	}

	// Target precedes all known data
	if before == -1 {
		return 0
	}

	if after == -1 {
		// No later sample at all; look for the next sample on the same day
		for i := before + 1; i < len(samples); i++ {
			if samples[i].Day == samples[before].Day {
				after = i
				break
			}
		}
	}

	if after == -1 || after <= before {
		return 0
	}

	// Cumulative values reset at midnight, a cross-day delta is meaningless
	if samples[before].Day != samples[after].Day {
		return 0
	}

	hours := samples[after].Time.Sub(samples[before].Time).Hours()
	if hours <= 0 {
		return 0
	}

	hourlyWh := (samples[after].CumulativeWh - samples[before].CumulativeWh) / hours
	if hourlyWh < 0 {
		hourlyWh = 0
	}

	hourlyWh *= derateFactor

	if prefs.MorningShading && target.Hour() < prefs.ShadingEndHour {
		hourlyWh *= morningShadingFactor
	}

	return hourlyWh
}
