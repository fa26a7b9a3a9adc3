package sun

import (
	"testing"
	"time"
)

func TestResolveWindowFixedHours(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.Local)

	tests := []struct {
		spec    string
		want    int
		wantErr bool
	}{
		{"24", 24, false},
		{"6", 6, false},
		{"1", 1, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ResolveWindow(tt.spec, now, 52.52, 13.38)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ResolveWindow(%q): expected error", tt.spec)
			}
			continue
		}
		if err != nil {
			t.Errorf("ResolveWindow(%q): %v", tt.spec, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ResolveWindow(%q) = %d, want %d", tt.spec, got, tt.want)
		}
	}
}

func TestResolveWindowEndOfDay(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"mid-morning", time.Date(2024, 6, 1, 10, 0, 0, 0, time.Local), 14},
		{"partial hour rounds up", time.Date(2024, 6, 1, 22, 30, 0, 0, time.Local), 2},
		{"just before midnight clamps to one hour", time.Date(2024, 6, 1, 23, 59, 0, 0, time.Local), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveWindow(WindowEndOfDay, tt.now, 52.52, 13.38)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %d hours, want %d", got, tt.want)
			}
		})
	}
}

func TestResolveWindowSunset(t *testing.T) {
	// Noon in Berlin in June; sunset is hours away but well under 12
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	got, err := ResolveWindow(WindowSunset, now, 52.52, 13.38)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got < 1 || got > 12 {
		t.Errorf("got %d hours until sunset, want within (0, 12]", got)
	}

	// After sunset the window clamps to the minimum
	late := time.Date(2024, 6, 1, 23, 0, 0, 0, time.UTC)
	got, err = ResolveWindow(WindowSunset, late, 52.52, 13.38)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1 {
		t.Errorf("got %d, want the 1 hour floor", got)
	}
}
