// Package prices fetches day-ahead market prices from the aWATTar public
// API.
package prices

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/F1nal04/wattlyzer/internal/engine"
	"github.com/rs/zerolog"
)

const awattarAPIBase = "https://api.awattar.de/v1"

// Client fetches electricity market prices from aWATTar
type Client struct {
	httpClient *http.Client
	baseURL    string
	log        zerolog.Logger
}

// NewClient creates a new aWATTar client
func NewClient(log zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    awattarAPIBase,
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

// awattarResponse represents the API response structure
type awattarResponse struct {
	Object string       `json:"object"`
	Data   []resultItem `json:"data"`
	URL    string       `json:"url"`
}

type resultItem struct {
	StartTimestamp int64   `json:"start_timestamp"` // epoch milliseconds
	EndTimestamp   int64   `json:"end_timestamp"`
	Marketprice    float64 `json:"marketprice"` // EUR/MWh
	Unit           string  `json:"unit"`
}

// MarketData fetches the published market price intervals. The market is
// country-wide, so there is no location parameter.
func (c *Client) MarketData(ctx context.Context) ([]engine.PricePeriod, error) {
	url := c.baseURL + "/marketdata"

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching market data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("market API returned status %d: %s", resp.StatusCode, string(body))
	}

	var awResp awattarResponse
	if err := json.NewDecoder(resp.Body).Decode(&awResp); err != nil {
		return nil, fmt.Errorf("decoding market response: %w", err)
	}

	periods := make([]engine.PricePeriod, 0, len(awResp.Data))
	for _, item := range awResp.Data {
		periods = append(periods, engine.PricePeriod{
			Start: time.UnixMilli(item.StartTimestamp),
			End:   time.UnixMilli(item.EndTimestamp),
			Price: item.Marketprice,
		})
	}

	sort.Slice(periods, func(i, j int) bool {
		return periods[i].Start.Before(periods[j].Start)
	})

	c.log.Debug().Int("periods", len(periods)).Msg("fetched market data")

	return periods, nil
}
