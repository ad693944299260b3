package priceservice

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func TestStaticStoreTradingDaysFiltersRange(t *testing.T) {
	store := NewStaticStore([]PricePoint{
		{AssetID: 1, Day: d(2025, 1, 1), Close: decimal.NewFromInt(10)},
		{AssetID: 1, Day: d(2025, 1, 5), Close: decimal.NewFromInt(11)},
		{AssetID: 1, Day: d(2025, 2, 1), Close: decimal.NewFromInt(12)},
	})
	days, err := store.TradingDays(context.Background(), d(2025, 1, 1), d(2025, 1, 31))
	if err != nil {
		t.Fatalf("TradingDays error: %v", err)
	}
	if len(days) != 2 {
		t.Fatalf("got %d days, want 2", len(days))
	}
}

func TestLookupGetMissingIsExplicit(t *testing.T) {
	lookup := NewLookup(map[AssetDay]decimal.Decimal{
		{AssetID: 1, Day: d(2025, 1, 1)}: decimal.NewFromInt(100),
	})
	if _, ok := lookup.Get(1, d(2025, 1, 2)); ok {
		t.Error("expected Get to report absence for a day with no observation")
	}
	if _, ok := lookup.Get(2, d(2025, 1, 1)); ok {
		t.Error("expected Get to report absence for an asset with no observation")
	}
	price, ok := lookup.Get(1, d(2025, 1, 1))
	if !ok || !price.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Get(1, 2025-01-01) = %v, %v, want 100, true", price, ok)
	}
}

func TestIsFirstTradingDayOfMonth(t *testing.T) {
	tradingDays := []time.Time{d(2025, 1, 2), d(2025, 1, 3), d(2025, 2, 3)}
	if !IsFirstTradingDayOfMonth(d(2025, 1, 2), tradingDays) {
		t.Error("expected Jan 2 to be the first trading day of January")
	}
	if IsFirstTradingDayOfMonth(d(2025, 1, 3), tradingDays) {
		t.Error("Jan 3 should not be the first trading day of January")
	}
	if !IsFirstTradingDayOfMonth(d(2025, 2, 3), tradingDays) {
		t.Error("expected Feb 3 to be the first trading day of February")
	}
}

func TestAssetAvailability(t *testing.T) {
	store := NewStaticStore([]PricePoint{
		{AssetID: 1, Day: d(2025, 1, 1), Close: decimal.NewFromInt(10)},
		{AssetID: 1, Day: d(2025, 3, 1), Close: decimal.NewFromInt(11)},
	})
	first, last, ok, err := store.AssetAvailability(context.Background(), 1)
	if err != nil {
		t.Fatalf("AssetAvailability error: %v", err)
	}
	if !ok {
		t.Fatal("expected ok=true for an asset with price data")
	}
	if !first.Equal(d(2025, 1, 1)) || !last.Equal(d(2025, 3, 1)) {
		t.Errorf("first=%v last=%v, want 2025-01-01 / 2025-03-01", first, last)
	}

	_, _, ok, err = store.AssetAvailability(context.Background(), 999)
	if err != nil {
		t.Fatalf("AssetAvailability error: %v", err)
	}
	if ok {
		t.Error("expected ok=false for an asset with no price data")
	}
}

func TestServiceCachesPriceLookupForSinglePointReads(t *testing.T) {
	store := NewStaticStore([]PricePoint{
		{AssetID: 1, Day: d(2025, 1, 1), Close: decimal.NewFromInt(42)},
	})
	svc := New(store)
	if _, err := svc.PriceLookup(context.Background(), []int64{1}, d(2025, 1, 1), d(2025, 1, 1)); err != nil {
		t.Fatalf("PriceLookup error: %v", err)
	}
	price, ok := svc.CachedPrice(1, d(2025, 1, 1))
	if !ok || !price.Equal(decimal.NewFromInt(42)) {
		t.Errorf("CachedPrice = %v, %v, want 42, true", price, ok)
	}
}
