// Package cache implements the freshness cache in front of the upstream
// data providers. Each namespace holds a single entry validated by age and
// by a parameter fingerprint; a new fingerprint evicts the old entry rather
// than coexisting with it. Storage failures are swallowed and treated as
// cache misses so an unavailable or corrupt store can never break
// scheduling.
package cache

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

const (
	// FreshnessWindow is how long a fetched series stays valid
	FreshnessWindow = time.Hour

	// NamespaceSolar and NamespaceMarket are the two cached data kinds
	NamespaceSolar  = "solar"
	NamespaceMarket = "market"

	// MarketFingerprint is constant because market prices are
	// location-independent
	MarketFingerprint = "market"
)

// Backend is the persistent key-value store under the cache. The SQLite
// store satisfies this; tests use an in-memory map.
type Backend interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
	Clear() error
}

type entry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"` // epoch milliseconds
	Key       string          `json:"key"`       // fingerprint at write time
}

// Info describes the state of a cached entry without affecting it
type Info struct {
	Exists    bool            `json:"exists"`
	Timestamp int64           `json:"timestamp,omitempty"`
	AgeMs     int64           `json:"age,omitempty"`
	IsExpired bool            `json:"isExpired"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Cache is a single-slot-per-namespace freshness cache
type Cache struct {
	backend Backend
	now     func() time.Time
}

// New creates a cache over the given backend
func New(backend Backend) *Cache {
	return &Cache{backend: backend, now: time.Now}
}

// NewWithClock creates a cache with an injected clock, for tests
func NewWithClock(backend Backend, now func() time.Time) *Cache {
	return &Cache{backend: backend, now: now}
}

// Put stores data under the namespace, stamped with the current time and
// the fingerprint. Any prior entry for the namespace is overwritten,
// whatever its fingerprint. Storage errors are ignored.
func (c *Cache) Put(namespace, fingerprint string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		return
	}
	e := entry{
		Data:      raw,
		Timestamp: c.now().UnixMilli(),
		Key:       fingerprint,
	}
	encoded, err := json.Marshal(e)
	if err != nil {
		return
	}
	_ = c.backend.Set(namespace, string(encoded))
}

// Get unmarshals the cached data into out and reports whether a valid entry
// was found. An entry is valid when it exists, is at most FreshnessWindow
// old and its stored fingerprint equals the requested one. An expired entry
// is deleted on the way out. Any storage or decode failure is a miss.
func (c *Cache) Get(namespace, fingerprint string, out any) bool {
	raw, ok, err := c.backend.Get(namespace)
	if err != nil || !ok {
		return false
	}

	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return false
	}

	age := c.now().UnixMilli() - e.Timestamp
	if age > FreshnessWindow.Milliseconds() {
		_ = c.backend.Delete(namespace)
		return false
	}

	if e.Key != fingerprint {
		return false
	}

	return json.Unmarshal(e.Data, out) == nil
}

// Inspect reports the entry's raw age, timestamp and validity verdict for
// diagnostics. Unlike Get it never mutates the store.
func (c *Cache) Inspect(namespace, fingerprint string) Info {
	raw, ok, err := c.backend.Get(namespace)
	if err != nil || !ok {
		return Info{}
	}

	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return Info{}
	}

	age := c.now().UnixMilli() - e.Timestamp
	expired := age > FreshnessWindow.Milliseconds()

	info := Info{
		Exists:    true,
		Timestamp: e.Timestamp,
		AgeMs:     age,
		IsExpired: expired,
	}
	if !expired && e.Key == fingerprint {
		info.Data = e.Data
	}
	return info
}

// Clear removes every namespace unconditionally
func (c *Cache) Clear() {
	_ = c.backend.Clear()
}

// SolarFingerprint derives the cache fingerprint for a solar series request.
// Coordinates are rounded to two decimals (~1 km) so GPS jitter between
// evaluations does not defeat the cache.
func SolarFingerprint(lat, lon, tiltDeg, azimuthDeg, capacityKw float64) string {
	return fmt.Sprintf("%g,%g,%g,%g,%g",
		roundCoordinate(lat), roundCoordinate(lon), tiltDeg, azimuthDeg, capacityKw)
}

func roundCoordinate(coord float64) float64 {
	return math.Round(coord*100) / 100
}
