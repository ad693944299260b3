package strategy

import "github.com/shopspring/decimal"

// BuyAndHold invests a lump sum across a fixed allocation on its first
// invocation and never trades again.
type BuyAndHold struct {
	allocation        map[int64]decimal.Decimal // weights sum to 1
	initialInvestment decimal.Decimal
	alreadyInvested   bool
}

// NewBuyAndHold builds a Buy-and-Hold strategy. If allocation is empty and
// onlyAsset is non-zero, it defaults to a single-asset 100% allocation.
func NewBuyAndHold(allocation map[int64]decimal.Decimal, initialInvestment decimal.Decimal, onlyAsset int64) *BuyAndHold {
	if len(allocation) == 0 && onlyAsset != 0 {
		allocation = map[int64]decimal.Decimal{onlyAsset: decimal.NewFromInt(1)}
	}
	return &BuyAndHold{allocation: allocation, initialInvestment: initialInvestment}
}

func (s *BuyAndHold) OnDay(ctx DayContext) []Action {
	if s.alreadyInvested {
		return nil
	}
	s.alreadyInvested = true

	actions := make([]Action, 0, len(s.allocation))
	for assetID, weight := range s.allocation {
		amount := s.initialInvestment.Mul(weight)
		actions = append(actions, BuyAction(assetID, amount))
	}
	return actions
}

func (s *BuyAndHold) AssetIDs() []int64 {
	ids := make([]int64, 0, len(s.allocation))
	for id := range s.allocation {
		ids = append(ids, id)
	}
	return ids
}

func (s *BuyAndHold) Parameters() map[string]any {
	return map[string]any{
		"strategy":           "buy_and_hold",
		"allocation":         s.allocation,
		"initial_investment": s.initialInvestment,
	}
}
