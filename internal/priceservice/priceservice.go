// Package priceservice abstracts the historical price database behind the
// three operations the backtest and Monte Carlo engines need: the trading-day
// calendar, bulk price lookups, and month-boundary detection.
package priceservice

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// AssetDay keys a single (asset, trading day) price point.
type AssetDay struct {
	AssetID int64
	Day     time.Time
}

// Lookup is a bulk-materialised (asset, day) -> adjusted close map.
// Absence must be treated explicitly: Get never substitutes zero or a
// stale close for a missing observation.
type Lookup struct {
	prices map[AssetDay]decimal.Decimal
}

// NewLookup wraps a prepared price map.
func NewLookup(prices map[AssetDay]decimal.Decimal) Lookup {
	return Lookup{prices: prices}
}

// Get returns the adjusted close for asset on day, or false if absent.
func (l Lookup) Get(assetID int64, day time.Time) (decimal.Decimal, bool) {
	p, ok := l.prices[AssetDay{AssetID: assetID, Day: normalize(day)}]
	return p, ok
}

func normalize(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Store is satisfied by anything that can answer trading-day and price
// questions for a set of assets. PostgresStore backs it with the real
// schema; StaticStore backs it with an in-memory series for tests.
type Store interface {
	TradingDays(ctx context.Context, start, end time.Time) ([]time.Time, error)
	PriceLookup(ctx context.Context, assetIDs []int64, start, end time.Time) (Lookup, error)
	AssetAvailability(ctx context.Context, assetID int64) (first, last time.Time, ok bool, err error)
}

// Service wraps a Store with the per-run single-point memoisation cache:
// repeated single lookups during a run cost nothing
// beyond the first. The cache is owned by the Service instance and must not
// be shared across runs.
type Service struct {
	store Store
	cache map[AssetDay]decimal.Decimal
}

// New creates a Service backed by store. Each call site should construct
// its own Service for a fresh run — the cache is not goroutine-shared
// run-to-run state.
func New(store Store) *Service {
	return &Service{
		store: store,
		cache: make(map[AssetDay]decimal.Decimal),
	}
}

// TradingDays returns all distinct dates with at least one price observation
// for any asset in the universe, inclusive of both endpoints, ascending.
func (s *Service) TradingDays(ctx context.Context, start, end time.Time) ([]time.Time, error) {
	return s.store.TradingDays(ctx, start, end)
}

// AssetAvailability reports the first and last dates for which assetID has a
// price observation. ok is false if the asset has no price history at all.
func (s *Service) AssetAvailability(ctx context.Context, assetID int64) (first, last time.Time, ok bool, err error) {
	return s.store.AssetAvailability(ctx, assetID)
}

// PriceLookup materialises the bulk price map once per run. Subsequent
// single-point lookups via CachedPrice are served from the per-instance
// cache without another round trip.
func (s *Service) PriceLookup(ctx context.Context, assetIDs []int64, start, end time.Time) (Lookup, error) {
	lookup, err := s.store.PriceLookup(ctx, assetIDs, start, end)
	if err != nil {
		return Lookup{}, err
	}
	for k, v := range lookup.prices {
		s.cache[k] = v
	}
	return lookup, nil
}

// CachedPrice serves a single (asset, day) lookup from the in-memory cache
// built up by prior PriceLookup calls, avoiding repeat round trips within a run.
func (s *Service) CachedPrice(assetID int64, day time.Time) (decimal.Decimal, bool) {
	p, ok := s.cache[AssetDay{AssetID: assetID, Day: normalize(day)}]
	return p, ok
}

// IsFirstTradingDayOfMonth reports whether day is present in tradingDays and
// no day in tradingDays strictly precedes it within the same calendar month.
func IsFirstTradingDayOfMonth(day time.Time, tradingDays []time.Time) bool {
	day = normalize(day)
	found := false
	for _, d := range tradingDays {
		d = normalize(d)
		if d.Equal(day) {
			found = true
			continue
		}
		if d.Year() == day.Year() && d.Month() == day.Month() && d.Before(day) {
			return false
		}
	}
	return found
}

// SortDays returns a new ascending-sorted copy of days.
func SortDays(days []time.Time) []time.Time {
	out := make([]time.Time, len(days))
	copy(out, days)
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
