package sched

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/F1nal04/wattlyzer/internal/cache"
	"github.com/F1nal04/wattlyzer/internal/engine"
	"github.com/F1nal04/wattlyzer/internal/solar"
	"github.com/rs/zerolog"
)

type memBackend struct {
	m map[string]string
}

func (b *memBackend) Get(key string) (string, bool, error) {
	v, ok := b.m[key]
	return v, ok, nil
}
func (b *memBackend) Set(key, value string) error { b.m[key] = value; return nil }
func (b *memBackend) Delete(key string) error     { delete(b.m, key); return nil }
func (b *memBackend) Clear() error                { b.m = map[string]string{}; return nil }

type fakeSolar struct {
	calls  int
	series engine.SolarSeries
	err    error
}

func (f *fakeSolar) Estimate(ctx context.Context, lat, lon float64, panel engine.PanelConfig) (*solar.Data, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &solar.Data{Result: f.series}, nil
}

type fakeMarket struct {
	calls   int
	periods []engine.PricePeriod
	err     error
}

func (f *fakeMarket) MarketData(ctx context.Context) ([]engine.PricePeriod, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.periods, nil
}

func testScheduler(solarClient *fakeSolar, marketClient *fakeMarket) *Scheduler {
	c := cache.New(&memBackend{m: map[string]string{}})
	return New(c, solarClient, marketClient, zerolog.Nop())
}

func testPanel() engine.PanelConfig {
	return engine.PanelConfig{AzimuthDeg: 180, TiltDeg: 45, CapacityKw: 5}
}

func TestRecommend(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.Local)
	key := now.Format("2006-01-02 15:04:05")
	nextKey := now.Add(time.Hour).Format("2006-01-02 15:04:05")

	solarClient := &fakeSolar{series: engine.SolarSeries{key: 0, nextKey: 1000}}
	marketClient := &fakeMarket{periods: []engine.PricePeriod{
		{Start: now, End: now.Add(time.Hour), Price: 50},
		{Start: now.Add(time.Hour), End: now.Add(2 * time.Hour), Price: 30},
	}}
	s := testScheduler(solarClient, marketClient)

	prefs := engine.Preferences{
		LoadDurationHours: 1,
		SearchWindowHours: 2,
		MinQualifyingWh:   500,
	}

	rec, err := s.Recommend(context.Background(), now, 52.52, 13.38, testPanel(), prefs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rec.HasResult {
		t.Fatal("expected a recommendation")
	}
	if rec.Result.Reason != engine.ReasonSolar {
		t.Errorf("reason = %q, want solar", rec.Result.Reason)
	}
	if len(rec.Slots) != 2 {
		t.Errorf("got %d slots, want 2", len(rec.Slots))
	}
	if len(rec.Top.Price) != 2 {
		t.Errorf("got %d top price slots, want 2", len(rec.Top.Price))
	}
}

func TestRecommendUsesCache(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.Local)
	solarClient := &fakeSolar{series: engine.SolarSeries{}}
	marketClient := &fakeMarket{}
	s := testScheduler(solarClient, marketClient)

	prefs := engine.Preferences{LoadDurationHours: 1, SearchWindowHours: 2}

	for i := 0; i < 3; i++ {
		if _, err := s.Recommend(context.Background(), now, 52.52, 13.38, testPanel(), prefs); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if solarClient.calls != 1 {
		t.Errorf("solar fetched %d times, want 1 (cache)", solarClient.calls)
	}
	if marketClient.calls != 1 {
		t.Errorf("market fetched %d times, want 1 (cache)", marketClient.calls)
	}
}

func TestRecommendRefetchesOnFingerprintChange(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.Local)
	solarClient := &fakeSolar{series: engine.SolarSeries{}}
	marketClient := &fakeMarket{}
	s := testScheduler(solarClient, marketClient)

	prefs := engine.Preferences{LoadDurationHours: 1, SearchWindowHours: 2}

	if _, err := s.Recommend(context.Background(), now, 52.52, 13.38, testPanel(), prefs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Changing the panel tilt changes the fingerprint, which must bypass
	// the cached series
	panel := testPanel()
	panel.TiltDeg = 30
	if _, err := s.Recommend(context.Background(), now, 52.52, 13.38, panel, prefs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if solarClient.calls != 2 {
		t.Errorf("solar fetched %d times, want 2", solarClient.calls)
	}
	if marketClient.calls != 1 {
		t.Errorf("market fetched %d times, want 1", marketClient.calls)
	}
}

func TestRecommendPropagatesFetchErrors(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.Local)
	solarClient := &fakeSolar{err: errors.New("api error: 429")}
	marketClient := &fakeMarket{}
	s := testScheduler(solarClient, marketClient)

	prefs := engine.Preferences{LoadDurationHours: 1, SearchWindowHours: 2}

	if _, err := s.Recommend(context.Background(), now, 52.52, 13.38, testPanel(), prefs); err == nil {
		t.Fatal("expected the upstream error to propagate")
	}
}

func TestRecommendInsufficientData(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.Local)
	solarClient := &fakeSolar{series: engine.SolarSeries{}}
	marketClient := &fakeMarket{}
	s := testScheduler(solarClient, marketClient)

	// Window shorter than duration yields no slots, which is not an error
	prefs := engine.Preferences{LoadDurationHours: 5, SearchWindowHours: 2}

	rec, err := s.Recommend(context.Background(), now, 52.52, 13.38, testPanel(), prefs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.HasResult {
		t.Error("expected no result for an undersized window")
	}
	if len(rec.Slots) != 0 {
		t.Errorf("got %d slots, want 0", len(rec.Slots))
	}
}

func TestCacheInfo(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.Local)
	solarClient := &fakeSolar{series: engine.SolarSeries{}}
	marketClient := &fakeMarket{}
	s := testScheduler(solarClient, marketClient)

	info := s.CacheInfo(52.52, 13.38, testPanel())
	if info[cache.NamespaceSolar].Exists || info[cache.NamespaceMarket].Exists {
		t.Error("expected empty cache before any fetch")
	}

	prefs := engine.Preferences{LoadDurationHours: 1, SearchWindowHours: 2}
	if _, err := s.Recommend(context.Background(), now, 52.52, 13.38, testPanel(), prefs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	info = s.CacheInfo(52.52, 13.38, testPanel())
	if !info[cache.NamespaceSolar].Exists || !info[cache.NamespaceMarket].Exists {
		t.Error("expected both namespaces cached after a recommendation")
	}

	s.ClearCache()
	info = s.CacheInfo(52.52, 13.38, testPanel())
	if info[cache.NamespaceSolar].Exists || info[cache.NamespaceMarket].Exists {
		t.Error("expected empty cache after clear")
	}
}
