package engine

import (
	"testing"
	"time"
)

func TestPriceAt(t *testing.T) {
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	periods := []PricePeriod{
		{Start: base, End: base.Add(time.Hour), Price: 50},
		{Start: base.Add(time.Hour), End: base.Add(2 * time.Hour), Price: 30},
	}

	tests := []struct {
		name   string
		target time.Time
		want   float64
	}{
		{"inside first interval", base.Add(30 * time.Minute), 50},
		{"exactly at interval start", base, 50},
		{"shared boundary resolves to the next interval", base.Add(time.Hour), 30},
		{"inside second interval", base.Add(90 * time.Minute), 30},
		{"before all intervals", base.Add(-time.Minute), 0},
		{"at the exclusive end of the last interval", base.Add(2 * time.Hour), 0},
		{"far outside", base.Add(10 * time.Hour), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PriceAt(periods, tt.target); got != tt.want {
				t.Errorf("PriceAt(%s) = %v, want %v", tt.target, got, tt.want)
			}
		})
	}
}

func TestPriceAtEmpty(t *testing.T) {
	if got := PriceAt(nil, time.Now()); got != 0 {
		t.Errorf("PriceAt(nil) = %v, want 0", got)
	}
}
