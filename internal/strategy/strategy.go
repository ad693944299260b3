// Package strategy defines the Strategy capability set the backtest engine
// drives day by day, and its three concrete implementations: Buy-and-Hold,
// Dollar-Cost Averaging, and Value Averaging.
package strategy

import (
	"time"

	"github.com/shopspring/decimal"
)

// ActionKind tags the Action sum type.
type ActionKind int

const (
	// Buy spends a dollar amount on an asset at the day's price.
	Buy ActionKind = iota
	// Sell liquidates a share quantity of an asset at the day's price.
	Sell
)

// Action is a tagged Buy|Sell variant the engine dispatches by Kind,
// replacing what would otherwise be a small class hierarchy.
type Action struct {
	Kind         ActionKind
	AssetID      int64
	DollarAmount decimal.Decimal // set for Buy
	Quantity     decimal.Decimal // set for Sell
}

// BuyAction constructs a Buy action.
func BuyAction(assetID int64, dollarAmount decimal.Decimal) Action {
	return Action{Kind: Buy, AssetID: assetID, DollarAmount: dollarAmount}
}

// SellAction constructs a Sell action.
func SellAction(assetID int64, quantity decimal.Decimal) Action {
	return Action{Kind: Sell, AssetID: assetID, Quantity: quantity}
}

// Snapshot is the minimal history shape strategies read — the engine passes
// a copy of history-so-far via DayContext and strategies must not mutate it.
type Snapshot struct {
	Date  time.Time
	Value decimal.Decimal
}

// DayContext carries everything a strategy needs to decide today's actions.
// Holdings and History are copies; strategies must treat them read-only.
type DayContext struct {
	CurrentDate time.Time
	Holdings    map[int64]decimal.Decimal
	PriceLookup PriceLookup
	History     []Snapshot
}

// PriceLookup is the minimal read interface DayContext exposes over the
// engine's bulk price map, so this package doesn't import priceservice.
type PriceLookup interface {
	Get(assetID int64, day time.Time) (decimal.Decimal, bool)
}

// Strategy is the capability set every variant implements. OnDay is called
// once per trading day; strategies may keep private state across calls
// within a single run but must not mutate ctx.
type Strategy interface {
	OnDay(ctx DayContext) []Action
	AssetIDs() []int64
	Parameters() map[string]any
}
