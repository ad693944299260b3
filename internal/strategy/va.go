package strategy

import (
	"time"

	"github.com/epeers/portfolio/internal/priceservice"
	"github.com/shopspring/decimal"
)

// ValueAveraging tops up a single asset on the first trading day of each
// calendar month so portfolio value tracks a linearly growing target. It
// only buys — it never sheds value above target, a deliberate
// simplification — and a non-positive shortfall leaves period_number
// unchanged.
type ValueAveraging struct {
	assetID               int64
	initialInvestment     decimal.Decimal
	targetIncrementAmount decimal.Decimal
	tradingDays           []time.Time
	periodNumber          int64
}

// NewValueAveraging builds a Value Averaging strategy. tradingDays is
// injected so the strategy can detect month boundaries without querying
// the price store itself.
func NewValueAveraging(assetID int64, initialInvestment, targetIncrementAmount decimal.Decimal, tradingDays []time.Time) *ValueAveraging {
	return &ValueAveraging{
		assetID:               assetID,
		initialInvestment:     initialInvestment,
		targetIncrementAmount: targetIncrementAmount,
		tradingDays:           tradingDays,
	}
}

func (s *ValueAveraging) OnDay(ctx DayContext) []Action {
	if !priceservice.IsFirstTradingDayOfMonth(ctx.CurrentDate, s.tradingDays) {
		return nil
	}

	target := s.initialInvestment.Add(s.targetIncrementAmount.Mul(decimal.NewFromInt(s.periodNumber)))

	var currentValue decimal.Decimal
	if len(ctx.History) > 0 {
		currentValue = ctx.History[len(ctx.History)-1].Value
	}

	shortfall := target.Sub(currentValue)
	if shortfall.IsPositive() {
		s.periodNumber++
		return []Action{BuyAction(s.assetID, shortfall)}
	}
	return nil
}

func (s *ValueAveraging) AssetIDs() []int64 {
	return []int64{s.assetID}
}

func (s *ValueAveraging) Parameters() map[string]any {
	return map[string]any{
		"strategy":                "va",
		"asset_id":                s.assetID,
		"initial_investment":      s.initialInvestment,
		"target_increment_amount": s.targetIncrementAmount,
	}
}
