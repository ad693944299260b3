package backtest

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/epeers/portfolio/internal/priceservice"
	"github.com/epeers/portfolio/internal/strategy"
	"github.com/shopspring/decimal"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newCalendar(points []priceservice.PricePoint) *priceservice.Service {
	return priceservice.New(priceservice.NewStaticStore(points))
}

// oneShotBuy invests amount entirely in assetID on its first
// invocation and never trades again, mirroring a single-asset BuyAndHold.
type oneShotBuy struct {
	assetID int64
	amount  decimal.Decimal
	done    bool
}

func (s *oneShotBuy) OnDay(ctx strategy.DayContext) []strategy.Action {
	if s.done {
		return nil
	}
	s.done = true
	return []strategy.Action{strategy.BuyAction(s.assetID, s.amount)}
}
func (s *oneShotBuy) AssetIDs() []int64          { return []int64{s.assetID} }
func (s *oneShotBuy) Parameters() map[string]any { return nil }

// fixedActions replays a pre-scripted sequence of actions, one slice per
// call to OnDay, used to drive scenarios S2/S3/S6 precisely.
type fixedActions struct {
	assetID int64
	perDay  [][]strategy.Action
	idx     int
}

func (s *fixedActions) OnDay(ctx strategy.DayContext) []strategy.Action {
	if s.idx >= len(s.perDay) {
		return nil
	}
	actions := s.perDay[s.idx]
	s.idx++
	return actions
}
func (s *fixedActions) AssetIDs() []int64          { return []int64{s.assetID} }
func (s *fixedActions) Parameters() map[string]any { return nil }

// randomStrategy issues a random buy or a sell bounded by the asset's current
// holdings (read from ctx, never more than owned) each day, used to fuzz the
// holdings-non-negative and cash-flow-conservation invariants.
type randomStrategy struct {
	assetIDs []int64
	rng      *rand.Rand
}

func (s *randomStrategy) OnDay(ctx strategy.DayContext) []strategy.Action {
	var actions []strategy.Action
	for _, id := range s.assetIDs {
		switch s.rng.Intn(3) {
		case 0:
			amount := decimal.NewFromFloat(s.rng.Float64() * 100)
			actions = append(actions, strategy.BuyAction(id, amount))
		case 1:
			held, ok := ctx.Holdings[id]
			if ok && held.IsPositive() {
				qty := held.Mul(decimal.NewFromFloat(s.rng.Float64()))
				actions = append(actions, strategy.SellAction(id, qty))
			}
		}
	}
	return actions
}
func (s *randomStrategy) AssetIDs() []int64          { return s.assetIDs }
func (s *randomStrategy) Parameters() map[string]any { return nil }

func TestFuzzedHoldingsNeverNegativeAndCashFlowConserves(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	assetIDs := []int64{1, 2}
	const numDays = 40
	start := day(2024, 1, 1)

	var points []priceservice.PricePoint
	for d := 0; d < numDays; d++ {
		date := start.AddDate(0, 0, d)
		for _, id := range assetIDs {
			price := 50 + rng.Float64()*50
			points = append(points, priceservice.PricePoint{AssetID: id, Day: date, Close: decimal.NewFromFloat(price)})
		}
	}
	calendar := newCalendar(points)
	engine := New(calendar)

	for trial := 0; trial < 25; trial++ {
		strat := &randomStrategy{assetIDs: assetIDs, rng: rng}

		result, err := engine.Run(context.Background(), strat, start, start.AddDate(0, 0, numDays-1), decimal.NewFromInt(1000))
		if err != nil {
			t.Fatalf("trial %d: Run returned error: %v", trial, err)
		}

		var cashFlowSum decimal.Decimal
		for _, snap := range result.History {
			for assetID, shares := range snap.Holdings {
				if shares.IsNegative() {
					t.Fatalf("trial %d: negative holding for asset %d on %s: %s", trial, assetID, snap.Date.Format("2006-01-02"), shares)
				}
			}
			cashFlowSum = cashFlowSum.Add(snap.CashFlowToday)
		}

		wantInvested := cashFlowSum
		if wantInvested.IsZero() {
			wantInvested = decimal.NewFromInt(1000)
		}
		if !result.TotalInvested.Equal(wantInvested) {
			t.Fatalf("trial %d: total_invested = %s, want %s (sum of cash flows, or initial_cash when that sum is 0)",
				trial, result.TotalInvested, wantInvested)
		}
	}
}

func TestBuyAndHoldRisingMarket(t *testing.T) {
	calendar := newCalendar([]priceservice.PricePoint{
		{AssetID: 1, Day: day(2025, 1, 1), Close: decimal.NewFromInt(100)},
		{AssetID: 1, Day: day(2025, 1, 2), Close: decimal.NewFromInt(110)},
		{AssetID: 1, Day: day(2025, 1, 3), Close: decimal.NewFromInt(120)},
	})
	engine := New(calendar)
	strat := &oneShotBuy{assetID: 1, amount: decimal.NewFromInt(1000)}

	result, err := engine.Run(context.Background(), strat, day(2025, 1, 1), day(2025, 1, 3), decimal.NewFromInt(1000))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(result.History) != 3 {
		t.Fatalf("days_analysed = %d, want 3", len(result.History))
	}
	wantValues := []string{"1000", "1100", "1200"}
	for i, s := range result.History {
		if s.TotalValue.StringFixed(0) != wantValues[i] {
			t.Errorf("day %d value = %s, want %s", i, s.TotalValue, wantValues[i])
		}
	}
	if result.TotalReturnAbs.StringFixed(0) != "200" {
		t.Errorf("total_return_abs = %s, want 200", result.TotalReturnAbs)
	}
	if want := 0.20; result.TotalReturnPct < want-1e-9 || result.TotalReturnPct > want+1e-9 {
		t.Errorf("total_return_pct = %v, want 0.20", result.TotalReturnPct)
	}
	if result.Metrics.InvestmentsMade != 1 {
		t.Errorf("investments_made = %d, want 1", result.Metrics.InvestmentsMade)
	}
	if result.Metrics.DaysAnalysed != 3 {
		t.Errorf("days_analysed = %d, want 3", result.Metrics.DaysAnalysed)
	}
}

func TestOversellIsFatal(t *testing.T) {
	calendar := newCalendar([]priceservice.PricePoint{
		{AssetID: 1, Day: day(2025, 1, 1), Close: decimal.NewFromInt(100)},
	})
	engine := New(calendar)
	strat := &fixedActions{
		assetID: 1,
		perDay:  [][]strategy.Action{{strategy.SellAction(1, decimal.NewFromInt(10))}},
	}

	_, err := engine.Run(context.Background(), strat, day(2025, 1, 1), day(2025, 1, 1), decimal.Zero)
	if !errors.Is(err, ErrOversell) {
		t.Fatalf("err = %v, want ErrOversell", err)
	}
}

func TestMissingPriceSkipsAction(t *testing.T) {
	// Asset 2 has no price data at all; the engine's trading-day calendar is
	// driven by asset 1 so the run still has a day to iterate over.
	calendar := newCalendar([]priceservice.PricePoint{
		{AssetID: 1, Day: day(2025, 1, 1), Close: decimal.NewFromInt(100)},
	})
	engine := New(calendar)
	strat := &fixedActions{
		assetID: 2,
		perDay:  [][]strategy.Action{{strategy.BuyAction(2, decimal.NewFromInt(1000))}},
	}

	result, err := engine.Run(context.Background(), strat, day(2025, 1, 1), day(2025, 1, 1), decimal.Zero)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(result.History) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(result.History))
	}
	if !result.History[0].TotalValue.IsZero() {
		t.Errorf("value = %s, want 0", result.History[0].TotalValue)
	}
	if !result.History[0].CashFlowToday.IsZero() {
		t.Errorf("cash_flow = %s, want 0", result.History[0].CashFlowToday)
	}
}

func TestDailyReturnExcludesCashFlow(t *testing.T) {
	calendar := newCalendar([]priceservice.PricePoint{
		{AssetID: 1, Day: day(2025, 1, 1), Close: decimal.NewFromInt(1000)},
		{AssetID: 1, Day: day(2025, 1, 2), Close: decimal.NewFromInt(1050)},
	})
	engine := New(calendar)
	// Day 1: buy $1000 of asset 1 at $1000/share -> 1 share, value 1000.
	// Day 2: buy $100 more at $1050/share -> value = 1*1050 + 100 = 1150,
	// cash_flow_today = 100, so start_of_day = 1000 + 100 = 1100,
	// daily_return_abs = 1150 - 1100 = 50, daily_return_pct = 50/1100.
	// 100/1050 shares is a non-terminating decimal, so value and
	// daily_return_abs are compared to the cent.
	strat := &fixedActions{
		assetID: 1,
		perDay: [][]strategy.Action{
			{strategy.BuyAction(1, decimal.NewFromInt(1000))},
			{strategy.BuyAction(1, decimal.NewFromInt(100))},
		},
	}

	result, err := engine.Run(context.Background(), strat, day(2025, 1, 1), day(2025, 1, 2), decimal.Zero)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(result.History) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(result.History))
	}
	day2 := result.History[1]
	if day2.CashFlowToday.StringFixed(0) != "100" {
		t.Fatalf("day 2 cash_flow = %s, want 100", day2.CashFlowToday)
	}
	if !day2.TotalValue.Round(2).Equal(decimal.NewFromInt(1150)) {
		t.Fatalf("day 2 value = %s, want 1150", day2.TotalValue)
	}
	wantAbs := decimal.NewFromInt(50)
	if !day2.DailyReturnAbs.Round(2).Equal(wantAbs) {
		t.Errorf("daily_return_abs = %s, want %s", day2.DailyReturnAbs, wantAbs)
	}
	wantPct := 50.0 / 1100.0
	if math.Abs(day2.DailyReturnPct-wantPct) > 1e-9 {
		t.Errorf("daily_return_pct = %v, want %v (≈0.04545)", day2.DailyReturnPct, wantPct)
	}
}

func TestRunRespectsCancellation(t *testing.T) {
	calendar := newCalendar([]priceservice.PricePoint{
		{AssetID: 1, Day: day(2025, 1, 1), Close: decimal.NewFromInt(100)},
		{AssetID: 1, Day: day(2025, 1, 2), Close: decimal.NewFromInt(100)},
	})
	engine := New(calendar)
	strat := &oneShotBuy{assetID: 1, amount: decimal.NewFromInt(100)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Run(ctx, strat, day(2025, 1, 1), day(2025, 1, 2), decimal.Zero)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}
}
