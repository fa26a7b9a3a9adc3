package engine

import "time"

// SolarSeries maps forecast timestamps to cumulative watt-hours produced
// since the daily reset. Keys are the provider's timestamp strings; values
// are non-decreasing within a calendar day.
type SolarSeries map[string]float64

// SolarSample is one parsed point of a SolarSeries
type SolarSample struct {
	Time         time.Time
	CumulativeWh float64
	Day          string // calendar day, used to detect the midnight reset
}

// PricePeriod represents one fixed-width market pricing interval,
// inclusive start and exclusive end
type PricePeriod struct {
	Start time.Time
	End   time.Time
	Price float64 // EUR/MWh
}

// PanelConfig identifies which solar forecast is valid for the installation
type PanelConfig struct {
	AzimuthDeg float64 // compass convention, 0-360, 180 = south
	TiltDeg    float64 // 0-90
	CapacityKw float64 // peak capacity in kWp
}

// Preferences holds the user-adjustable scheduling parameters
type Preferences struct {
	LoadDurationHours int
	SearchWindowHours int
	MinQualifyingWh   float64
	MorningShading    bool
	ShadingEndHour    int // local hour before which morning shading applies
}

// Slot is a candidate contiguous block of LoadDurationHours hours,
// recomputed on every evaluation pass
type Slot struct {
	StartTime      time.Time `json:"startTime"`
	AvgSolarWh     float64   `json:"avgSolarProduction"`
	AvgPrice       float64   `json:"avgPrice"`
	SolarQualifies bool      `json:"solarQualifies"`
}

// Reason explains which tier of the selection policy chose the slot
type Reason string

const (
	ReasonSolar Reason = "solar"
	ReasonPrice Reason = "price"
)

// Result is the single recommendation
type Result struct {
	BestTime   time.Time `json:"bestTime"`
	Reason     Reason    `json:"reason"`
	AvgSolarWh float64   `json:"avgSolarProduction"`
	AvgPrice   float64   `json:"avgPrice"`
}

// TopSlots holds the ranked diagnostic views over one evaluation pass
type TopSlots struct {
	Solar []Slot `json:"topSolarSlots"`
	Price []Slot `json:"topPriceSlots"`
}
