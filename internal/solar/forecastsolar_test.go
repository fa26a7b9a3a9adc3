package solar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/F1nal04/wattlyzer/internal/engine"
	"github.com/rs/zerolog"
)

func TestAPIAzimuth(t *testing.T) {
	tests := []struct {
		compass float64
		want    float64
	}{
		{180, 0},   // south
		{0, -180},  // north
		{360, -180},
		{90, -90},  // east
		{270, 90},  // west
		{200, 20},
	}

	for _, tt := range tests {
		if got := APIAzimuth(tt.compass); got != tt.want {
			t.Errorf("APIAzimuth(%v) = %v, want %v", tt.compass, got, tt.want)
		}
	}
}

func TestEstimate(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{
			"result": {
				"2024-06-01 10:00:00": 500,
				"2024-06-01 11:00:00": 1500
			},
			"message": {
				"code": 0,
				"type": "success",
				"info": {"place": "Berlin, Germany", "timezone": "Europe/Berlin"}
			}
		}`))
	}))
	defer ts.Close()

	client := NewClientWithBaseURL(ts.URL, zerolog.Nop())

	panel := engine.PanelConfig{AzimuthDeg: 180, TiltDeg: 45, CapacityKw: 5}
	data, err := client.Estimate(context.Background(), 52.52, 13.38, panel)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/estimate/watthours/52.52/13.38/45/0/5" {
		t.Errorf("request path = %q", gotPath)
	}
	if len(data.Result) != 2 {
		t.Errorf("got %d series entries, want 2", len(data.Result))
	}
	if data.Result["2024-06-01 11:00:00"] != 1500 {
		t.Errorf("series value = %v, want 1500", data.Result["2024-06-01 11:00:00"])
	}
	if data.Message.Info.Place != "Berlin, Germany" {
		t.Errorf("place = %q", data.Message.Info.Place)
	}
}

func TestEstimateUpstreamError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer ts.Close()

	client := NewClientWithBaseURL(ts.URL, zerolog.Nop())

	_, err := client.Estimate(context.Background(), 52.52, 13.38, engine.PanelConfig{TiltDeg: 45, CapacityKw: 5, AzimuthDeg: 180})
	if err == nil {
		t.Fatal("expected an error for a non-2xx response")
	}
}
