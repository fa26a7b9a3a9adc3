// Package solar fetches cumulative production forecasts from the
// forecast.solar public API.
package solar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/F1nal04/wattlyzer/internal/engine"
	"github.com/rs/zerolog"
)

const forecastSolarAPIBase = "https://api.forecast.solar"

// Client fetches watt-hour forecasts from forecast.solar
type Client struct {
	httpClient *http.Client
	baseURL    string
	log        zerolog.Logger
}

// NewClient creates a new forecast.solar client
func NewClient(log zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    forecastSolarAPIBase,
		log:        log,
	}
}

// NewClientWithBaseURL creates a client against a non-default endpoint,
// used by tests
func NewClientWithBaseURL(baseURL string, log zerolog.Logger) *Client {
	c := NewClient(log)
	c.baseURL = baseURL
	return c
}

// Data is the forecast.solar estimate response
type Data struct {
	Result  engine.SolarSeries `json:"result"`
	Message Message            `json:"message"`
}

// Message carries response metadata, including the resolved place
type Message struct {
	Code int         `json:"code"`
	Type string      `json:"type"`
	Text string      `json:"text"`
	Info MessageInfo `json:"info"`
}

type MessageInfo struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Distance  float64 `json:"distance"`
	Place     string  `json:"place"`
	Timezone  string  `json:"timezone"`
}

// Estimate fetches the cumulative watt-hour forecast for a panel at a
// location. Hours missing from the returned series are a valid outcome,
// not an error.
func (c *Client) Estimate(ctx context.Context, lat, lon float64, panel engine.PanelConfig) (*Data, error) {
	url := fmt.Sprintf("%s/estimate/watthours/%v/%v/%v/%v/%v",
		c.baseURL, lat, lon, panel.TiltDeg, APIAzimuth(panel.AzimuthDeg), panel.CapacityKw)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching solar forecast: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("solar API returned status %d: %s", resp.StatusCode, string(body))
	}

	var data Data
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decoding solar response: %w", err)
	}

	c.log.Debug().
		Int("samples", len(data.Result)).
		Str("place", data.Message.Info.Place).
		Msg("fetched solar forecast")

	return &data, nil
}

// APIAzimuth converts a compass azimuth (0-360, 180 = south) to the
// forecast.solar convention (-180..180, 0 = south)
func APIAzimuth(compassDeg float64) float64 {
	return math.Mod(compassDeg, 360) - 180
}
