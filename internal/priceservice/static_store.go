package priceservice

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// StaticStore is an in-memory Store built from a pre-loaded series. It backs
// the engine-level unit tests, which need no Postgres.
type StaticStore struct {
	days   []time.Time
	prices map[AssetDay]decimal.Decimal
}

// NewStaticStore builds a StaticStore from a flat list of price points.
type PricePoint struct {
	AssetID int64
	Day     time.Time
	Close   decimal.Decimal
}

func NewStaticStore(points []PricePoint) *StaticStore {
	daySet := make(map[time.Time]struct{})
	prices := make(map[AssetDay]decimal.Decimal, len(points))
	for _, p := range points {
		day := normalize(p.Day)
		prices[AssetDay{AssetID: p.AssetID, Day: day}] = p.Close
		daySet[day] = struct{}{}
	}
	days := make([]time.Time, 0, len(daySet))
	for d := range daySet {
		days = append(days, d)
	}
	return &StaticStore{days: SortDays(days), prices: prices}
}

func (s *StaticStore) TradingDays(_ context.Context, start, end time.Time) ([]time.Time, error) {
	start, end = normalize(start), normalize(end)
	var out []time.Time
	for _, d := range s.days {
		if !d.Before(start) && !d.After(end) {
			out = append(out, d)
		}
	}
	return out, nil
}

// AssetAvailability scans the loaded points for assetID's earliest/latest day.
func (s *StaticStore) AssetAvailability(_ context.Context, assetID int64) (time.Time, time.Time, bool, error) {
	var first, last time.Time
	found := false
	for k := range s.prices {
		if k.AssetID != assetID {
			continue
		}
		if !found || k.Day.Before(first) {
			first = k.Day
		}
		if !found || k.Day.After(last) {
			last = k.Day
		}
		found = true
	}
	return first, last, found, nil
}

func (s *StaticStore) PriceLookup(_ context.Context, assetIDs []int64, start, end time.Time) (Lookup, error) {
	start, end = normalize(start), normalize(end)
	want := make(map[int64]struct{}, len(assetIDs))
	for _, id := range assetIDs {
		want[id] = struct{}{}
	}
	out := make(map[AssetDay]decimal.Decimal)
	for k, v := range s.prices {
		if _, ok := want[k.AssetID]; !ok {
			continue
		}
		if k.Day.Before(start) || k.Day.After(end) {
			continue
		}
		out[k] = v
	}
	return NewLookup(out), nil
}
