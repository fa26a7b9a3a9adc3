// Package sched orchestrates the scheduling pipeline: cache-first fetching
// of the two upstream series, gating evaluation on both being present, and
// running the engine over the snapshots.
package sched

import (
	"context"
	"time"

	"github.com/F1nal04/wattlyzer/internal/cache"
	"github.com/F1nal04/wattlyzer/internal/engine"
	"github.com/F1nal04/wattlyzer/internal/solar"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// SolarProvider supplies cumulative production forecasts
type SolarProvider interface {
	Estimate(ctx context.Context, lat, lon float64, panel engine.PanelConfig) (*solar.Data, error)
}

// MarketProvider supplies market price intervals
type MarketProvider interface {
	MarketData(ctx context.Context) ([]engine.PricePeriod, error)
}

// Scheduler coordinates cache, upstream fetches and the scheduling engine.
// Concurrent requests for the same fingerprint share a single in-flight
// fetch; a fingerprint change (say, the user adjusts panel tilt) starts a
// fresh fetch under a new key, and the old in-flight result can only land
// in the cache slot of the fingerprint that requested it.
type Scheduler struct {
	cache  *cache.Cache
	solar  SolarProvider
	market MarketProvider
	group  singleflight.Group
	log    zerolog.Logger
}

// New creates a scheduler
func New(c *cache.Cache, solarClient SolarProvider, marketClient MarketProvider, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cache:  c,
		solar:  solarClient,
		market: marketClient,
		log:    log,
	}
}

// Recommendation bundles one evaluation pass over fresh snapshots
type Recommendation struct {
	Result    engine.Result   `json:"result"`
	HasResult bool            `json:"hasResult"`
	Slots     []engine.Slot   `json:"slots"`
	Top       engine.TopSlots `json:"top"`
}

// SolarSeries returns the cumulative forecast for the location and panel,
// from cache when fresh, fetching otherwise
func (s *Scheduler) SolarSeries(ctx context.Context, lat, lon float64, panel engine.PanelConfig) (engine.SolarSeries, error) {
	fp := cache.SolarFingerprint(lat, lon, panel.TiltDeg, panel.AzimuthDeg, panel.CapacityKw)

	var series engine.SolarSeries
	if s.cache.Get(cache.NamespaceSolar, fp, &series) {
		s.log.Debug().Str("fingerprint", fp).Msg("solar cache hit")
		return series, nil
	}

	v, err, _ := s.group.Do("solar:"+fp, func() (any, error) {
		data, err := s.solar.Estimate(ctx, lat, lon, panel)
		if err != nil {
			return nil, err
		}
		s.cache.Put(cache.NamespaceSolar, fp, data.Result)
		return data.Result, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(engine.SolarSeries), nil
}

// MarketSeries returns the price intervals, from cache when fresh
func (s *Scheduler) MarketSeries(ctx context.Context) ([]engine.PricePeriod, error) {
	var periods []engine.PricePeriod
	if s.cache.Get(cache.NamespaceMarket, cache.MarketFingerprint, &periods) {
		s.log.Debug().Msg("market cache hit")
		return periods, nil
	}

	v, err, _ := s.group.Do("market", func() (any, error) {
		fetched, err := s.market.MarketData(ctx)
		if err != nil {
			return nil, err
		}
		s.cache.Put(cache.NamespaceMarket, cache.MarketFingerprint, fetched)
		return fetched, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]engine.PricePeriod), nil
}

// Recommend fetches both series (independently, in parallel) and evaluates
// the scheduling engine over them. Fetch failures propagate; insufficient
// data does not, it yields HasResult=false.
func (s *Scheduler) Recommend(ctx context.Context, now time.Time, lat, lon float64, panel engine.PanelConfig, prefs engine.Preferences) (Recommendation, error) {
	var series engine.SolarSeries
	var periods []engine.PricePeriod

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		series, err = s.SolarSeries(gctx, lat, lon, panel)
		return err
	})
	g.Go(func() error {
		var err error
		periods, err = s.MarketSeries(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Recommendation{}, err
	}

	samples := engine.ParseSeries(series)
	slots := engine.EvaluateSlots(now, samples, periods, prefs)
	result, ok := engine.SelectBest(now, slots)

	s.log.Info().
		Int("slots", len(slots)).
		Bool("hasResult", ok).
		Msg("evaluated schedule")

	return Recommendation{
		Result:    result,
		HasResult: ok,
		Slots:     slots,
		Top:       engine.RankSlots(slots),
	}, nil
}

// CacheInfo reports per-namespace cache diagnostics for the given request
// parameters
func (s *Scheduler) CacheInfo(lat, lon float64, panel engine.PanelConfig) map[string]cache.Info {
	fp := cache.SolarFingerprint(lat, lon, panel.TiltDeg, panel.AzimuthDeg, panel.CapacityKw)
	return map[string]cache.Info{
		cache.NamespaceSolar:  s.cache.Inspect(cache.NamespaceSolar, fp),
		cache.NamespaceMarket: s.cache.Inspect(cache.NamespaceMarket, cache.MarketFingerprint),
	}
}

// ClearCache drops all cached series
func (s *Scheduler) ClearCache() {
	s.cache.Clear()
}
