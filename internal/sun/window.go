// Package sun resolves a search-window specification into a whole number of
// hours. Besides fixed hour counts it supports a window bounded by the end
// of the local day and one bounded by sunset at the user's location.
package sun

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/sixdouglas/suncalc"
)

const (
	// WindowEndOfDay bounds the search at local midnight
	WindowEndOfDay = "eod"
	// WindowSunset bounds the search at today's sunset
	WindowSunset = "sunset"
)

// ResolveWindow converts a window spec ("24", "eod", "sunset") into hours.
// The result is never below 1 so a request placed just before the bound
// still evaluates the current hour.
func ResolveWindow(spec string, now time.Time, lat, lon float64) (int, error) {
	switch spec {
	case WindowEndOfDay:
		return hoursUntil(now, endOfDay(now)), nil
	case WindowSunset:
		sunset := suncalc.GetTimes(now, lat, lon)["sunset"].Value
		return hoursUntil(now, sunset), nil
	default:
		hours, err := strconv.Atoi(spec)
		if err != nil {
			return 0, fmt.Errorf("invalid search window %q: %w", spec, err)
		}
		if hours < 1 {
			return 0, fmt.Errorf("search window must be at least 1 hour, got %d", hours)
		}
		return hours, nil
	}
}

func endOfDay(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
}

func hoursUntil(now, bound time.Time) int {
	hours := int(math.Ceil(bound.Sub(now).Hours()))
	if hours < 1 {
		hours = 1
	}
	return hours
}
