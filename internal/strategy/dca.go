package strategy

import (
	"time"

	"github.com/shopspring/decimal"
)

// Frequency is the DCA investment cadence, an enum backed by a string.
type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

// DCA buys initialInvestment on its first invocation, then amountPerPeriod
// every time the configured cadence has elapsed. An unknown frequency still
// makes the initial investment but never fires a periodic buy.
type DCA struct {
	assetID              int64
	initialInvestment    decimal.Decimal
	amountPerPeriod      decimal.Decimal
	frequency            Frequency
	alreadyInvestedInitial bool
	lastInvestmentDate   time.Time
	hasLastInvestment    bool
}

// NewDCA builds a Dollar-Cost Averaging strategy.
func NewDCA(assetID int64, initialInvestment, amountPerPeriod decimal.Decimal, frequency Frequency) *DCA {
	return &DCA{
		assetID:           assetID,
		initialInvestment: initialInvestment,
		amountPerPeriod:   amountPerPeriod,
		frequency:         frequency,
	}
}

func (s *DCA) OnDay(ctx DayContext) []Action {
	shouldInvest := s.shouldInvestToday(ctx.CurrentDate)

	if shouldInvest && !s.alreadyInvestedInitial {
		s.alreadyInvestedInitial = true
		return []Action{BuyAction(s.assetID, s.initialInvestment)}
	}
	if shouldInvest {
		return []Action{BuyAction(s.assetID, s.amountPerPeriod)}
	}
	return nil
}

func (s *DCA) shouldInvestToday(current time.Time) bool {
	if !s.hasLastInvestment {
		s.lastInvestmentDate = current
		s.hasLastInvestment = true
		return true
	}

	var shouldInvest bool
	switch s.frequency {
	case Daily:
		shouldInvest = true
	case Weekly:
		shouldInvest = current.Sub(s.lastInvestmentDate).Hours()/24 >= 7
	case Monthly:
		shouldInvest = current.Year() != s.lastInvestmentDate.Year() || current.Month() != s.lastInvestmentDate.Month()
	default:
		shouldInvest = false
	}

	if shouldInvest {
		s.lastInvestmentDate = current
	}
	return shouldInvest
}

func (s *DCA) AssetIDs() []int64 {
	return []int64{s.assetID}
}

func (s *DCA) Parameters() map[string]any {
	return map[string]any{
		"strategy":            "dollar_cost_averaging",
		"asset_id":            s.assetID,
		"initial_investment":  s.initialInvestment,
		"amount_per_period":   s.amountPerPeriod,
		"frequency":           s.frequency,
	}
}
