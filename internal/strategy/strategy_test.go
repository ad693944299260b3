package strategy

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBuyAndHoldInvestsOnceOnFirstDay(t *testing.T) {
	s := NewBuyAndHold(nil, decimal.NewFromInt(1000), 1)

	first := s.OnDay(DayContext{CurrentDate: date(2025, 1, 2)})
	if len(first) != 1 {
		t.Fatalf("expected 1 action on first day, got %d", len(first))
	}
	if !first[0].DollarAmount.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("DollarAmount = %s, want 1000", first[0].DollarAmount)
	}

	second := s.OnDay(DayContext{CurrentDate: date(2025, 1, 3)})
	if len(second) != 0 {
		t.Errorf("expected no actions on subsequent days, got %d", len(second))
	}
}

func TestDCAMonthlyCadence(t *testing.T) {
	s := NewDCA(1, decimal.NewFromInt(1000), decimal.NewFromInt(100), Monthly)

	cases := []struct {
		day      time.Time
		wantBuy  bool
		wantAmt  decimal.Decimal
	}{
		{date(2025, 1, 15), true, decimal.NewFromInt(1000)},
		{date(2025, 1, 20), false, decimal.Zero},
		{date(2025, 2, 1), true, decimal.NewFromInt(100)},
		{date(2025, 2, 28), false, decimal.Zero},
		{date(2025, 3, 5), true, decimal.NewFromInt(100)},
	}

	for _, c := range cases {
		actions := s.OnDay(DayContext{CurrentDate: c.day})
		if c.wantBuy && len(actions) != 1 {
			t.Fatalf("day %s: expected a buy, got %d actions", c.day.Format("2006-01-02"), len(actions))
		}
		if !c.wantBuy && len(actions) != 0 {
			t.Fatalf("day %s: expected no actions, got %d", c.day.Format("2006-01-02"), len(actions))
		}
		if c.wantBuy && !actions[0].DollarAmount.Equal(c.wantAmt) {
			t.Errorf("day %s: amount = %s, want %s", c.day.Format("2006-01-02"), actions[0].DollarAmount, c.wantAmt)
		}
	}
}

func TestValueAveragingTargetCalculus(t *testing.T) {
	tradingDays := []time.Time{date(2025, 1, 2), date(2025, 2, 3), date(2025, 3, 3)}
	s := NewValueAveraging(1, decimal.NewFromInt(1000), decimal.NewFromInt(100), tradingDays)

	// Period 0: value before buy = 0, target = 1000, shortfall = 1000.
	actions := s.OnDay(DayContext{CurrentDate: date(2025, 1, 2), History: nil})
	if len(actions) != 1 || !actions[0].DollarAmount.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("period 0: got %+v, want buy of 1000", actions)
	}

	// Period 1: value = 1050, target = 1100, shortfall = 50.
	history := []Snapshot{{Date: date(2025, 1, 2), Value: decimal.NewFromInt(1050)}}
	actions = s.OnDay(DayContext{CurrentDate: date(2025, 2, 3), History: history})
	if len(actions) != 1 || !actions[0].DollarAmount.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("period 1: got %+v, want buy of 50", actions)
	}

	// Period 2: value = 1300, target = 1200, shortfall = -100 -> no action,
	// period_number stays at 2 (does not advance on non-positive shortfall).
	history = []Snapshot{{Date: date(2025, 2, 3), Value: decimal.NewFromInt(1300)}}
	actions = s.OnDay(DayContext{CurrentDate: date(2025, 3, 3), History: history})
	if len(actions) != 0 {
		t.Fatalf("period 2: got %+v, want no action", actions)
	}
	if s.periodNumber != 2 {
		t.Errorf("periodNumber = %d, want 2 (unchanged)", s.periodNumber)
	}
}

func TestValueAveragingSkipsNonFirstTradingDayOfMonth(t *testing.T) {
	tradingDays := []time.Time{date(2025, 1, 2), date(2025, 1, 3)}
	s := NewValueAveraging(1, decimal.NewFromInt(1000), decimal.NewFromInt(100), tradingDays)

	actions := s.OnDay(DayContext{CurrentDate: date(2025, 1, 3)})
	if len(actions) != 0 {
		t.Errorf("expected no action on a non-first trading day of the month, got %+v", actions)
	}
}
