// Package backtest drives a Strategy day by day through the trading-day
// calendar, executing its actions against a running holdings map and
// recording a daily snapshot, then derives aggregate returns and metrics.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/epeers/portfolio/internal/metrics"
	"github.com/epeers/portfolio/internal/priceservice"
	"github.com/epeers/portfolio/internal/strategy"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// ErrOversell is raised when a Sell action's quantity exceeds current
// holdings for that asset. It is fatal for the run.
var ErrOversell = errors.New("backtest: cannot sell more than owned")

// ErrCancelled is returned when the run's context is cancelled between
// trading days. No partial result is ever returned alongside it.
var ErrCancelled = errors.New("backtest: run cancelled")

// Snapshot is the per-trading-day record of portfolio state.
type Snapshot struct {
	Date           time.Time
	TotalValue     decimal.Decimal
	Holdings       map[int64]decimal.Decimal
	CashFlowToday  decimal.Decimal
	DailyReturnPct float64
	DailyReturnAbs decimal.Decimal
}

// Metrics bundles the backtest-specific fields beyond the shared metrics
// kernel: counts and the peak/trough values observed during the run.
type Metrics struct {
	Sharpe                  float64
	MaxDrawdown             float64
	MaxDrawdownDurationDays int64
	Volatility              float64
	DaysAnalysed            int
	InvestmentsMade         int
	PeakValue               decimal.Decimal
	TroughValue             decimal.Decimal
}

// Result is the full output of a backtest run.
type Result struct {
	StartDate       time.Time
	EndDate         time.Time
	TotalInvested   decimal.Decimal
	FinalValue      decimal.Decimal
	TotalReturnPct  float64
	TotalReturnAbs  decimal.Decimal
	AvgDailyReturn  float64
	Metrics         Metrics
	History         []Snapshot
}

// PriceLookup is the subset of priceservice.Lookup the engine depends on.
type PriceLookup interface {
	Get(assetID int64, day time.Time) (decimal.Decimal, bool)
}

// TradingDayCalendar supplies the day-by-day schedule and bulk price map
// for a run; priceservice.Service satisfies it.
type TradingDayCalendar interface {
	TradingDays(ctx context.Context, start, end time.Time) ([]time.Time, error)
	PriceLookup(ctx context.Context, assetIDs []int64, start, end time.Time) (priceservice.Lookup, error)
}

// Engine runs a single backtest against a trading-day calendar.
type Engine struct {
	calendar TradingDayCalendar
}

// New creates an Engine backed by calendar.
func New(calendar TradingDayCalendar) *Engine {
	return &Engine{calendar: calendar}
}

// Run executes strategy day by day from start to end inclusive. The engine
// is single-threaded and cooperative: holdings carry forward across days
// and the day loop may not be parallelised. ctx is checked for cancellation
// at the top of each day's iteration.
func (e *Engine) Run(ctx context.Context, strat strategy.Strategy, start, end time.Time, initialCash decimal.Decimal) (*Result, error) {
	tradingDays, err := e.calendar.TradingDays(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("backtest: failed to load trading days: %w", err)
	}
	prices, err := e.calendar.PriceLookup(ctx, strat.AssetIDs(), start, end)
	if err != nil {
		return nil, fmt.Errorf("backtest: failed to load price lookup: %w", err)
	}

	holdings := make(map[int64]decimal.Decimal)
	var history []strategy.Snapshot // used for DayContext only
	var snapshots []Snapshot
	investmentsMade := 0

	for _, day := range tradingDays {
		select {
		case <-ctx.Done():
			return nil, ErrCancelled
		default:
		}

		dayCtx := strategy.DayContext{
			CurrentDate: day,
			Holdings:    copyHoldings(holdings),
			PriceLookup: prices,
			History:     copyHistory(history),
		}
		actions := strat.OnDay(dayCtx)
		investmentsMade += len(actions)

		cashFlow, err := executeActions(actions, day, holdings, prices)
		if err != nil {
			return nil, err
		}

		value := valueOf(holdings, day, prices)
		snapshots = append(snapshots, Snapshot{
			Date:          day,
			TotalValue:    value,
			Holdings:      copyHoldings(holdings),
			CashFlowToday: cashFlow,
		})
		history = append(history, strategy.Snapshot{Date: day, Value: value})
	}

	computeDailyReturns(snapshots)

	result := &Result{
		StartDate: start,
		EndDate:   end,
		History:   snapshots,
		Metrics:   computeMetrics(snapshots, investmentsMade),
	}

	totalInvested := decimal.Zero
	for _, s := range snapshots {
		totalInvested = totalInvested.Add(s.CashFlowToday)
	}
	if totalInvested.IsZero() {
		totalInvested = initialCash
		log.Debugf("backtest: no net cash flow recorded, using nominal initial_cash=%s", initialCash)
	}
	result.TotalInvested = totalInvested

	if len(snapshots) > 0 {
		result.FinalValue = snapshots[len(snapshots)-1].TotalValue
	}
	result.TotalReturnAbs = result.FinalValue.Sub(totalInvested)
	if !totalInvested.IsZero() {
		result.TotalReturnPct, _ = result.TotalReturnAbs.Div(totalInvested).Float64()
	}
	if len(snapshots) > 0 {
		result.AvgDailyReturn = result.TotalReturnPct / float64(len(snapshots))
	}

	return result, nil
}

func executeActions(actions []strategy.Action, day time.Time, holdings map[int64]decimal.Decimal, prices PriceLookup) (decimal.Decimal, error) {
	cashFlow := decimal.Zero
	for _, action := range actions {
		price, ok := prices.Get(action.AssetID, day)
		if !ok {
			// Missing price: silently skip the action. Not an error — see
			// the missing-price policy in the orchestration layer.
			continue
		}

		switch action.Kind {
		case strategy.Buy:
			shares := action.DollarAmount.Div(price)
			holdings[action.AssetID] = holdings[action.AssetID].Add(shares)
			cashFlow = cashFlow.Add(action.DollarAmount)

		case strategy.Sell:
			current := holdings[action.AssetID]
			if action.Quantity.GreaterThan(current) {
				return decimal.Zero, fmt.Errorf("%w: asset %d, have %s, want to sell %s", ErrOversell, action.AssetID, current, action.Quantity)
			}
			holdings[action.AssetID] = current.Sub(action.Quantity)
			cashFlow = cashFlow.Sub(action.Quantity.Mul(price))
		}
	}
	return cashFlow, nil
}

func valueOf(holdings map[int64]decimal.Decimal, day time.Time, prices PriceLookup) decimal.Decimal {
	total := decimal.Zero
	for assetID, shares := range holdings {
		price, ok := prices.Get(assetID, day)
		if !ok {
			continue
		}
		total = total.Add(shares.Mul(price))
	}
	return total
}

// computeDailyReturns fills DailyReturnAbs/Pct in place. Cash flows are
// treated as occurring at the start of day D, before market movement:
// start_of_day_value = history[i-1].value + history[i].cash_flow.
func computeDailyReturns(history []Snapshot) {
	if len(history) == 0 {
		return
	}
	for i := 1; i < len(history); i++ {
		startOfDay := history[i-1].TotalValue.Add(history[i].CashFlowToday)
		abs := history[i].TotalValue.Sub(startOfDay)
		history[i].DailyReturnAbs = abs
		if startOfDay.IsPositive() {
			history[i].DailyReturnPct, _ = abs.Div(startOfDay).Float64()
		}
	}
}

func computeMetrics(history []Snapshot, investmentsMade int) Metrics {
	m := Metrics{DaysAnalysed: len(history), InvestmentsMade: investmentsMade}
	if len(history) == 0 {
		return m
	}

	returns := make([]float64, 0, len(history)-1)
	values := make([]metrics.ValuePoint, 0, len(history))
	peak, trough := history[0].TotalValue, history[0].TotalValue
	for i, s := range history {
		if i > 0 {
			returns = append(returns, s.DailyReturnPct)
		}
		values = append(values, metrics.ValuePoint{Date: s.Date, Value: toFloat(s.TotalValue)})
		if s.TotalValue.GreaterThan(peak) {
			peak = s.TotalValue
		}
		if s.TotalValue.LessThan(trough) {
			trough = s.TotalValue
		}
	}

	if len(history) < 2 {
		m.PeakValue, m.TroughValue = peak, trough
		return m
	}

	dd := metrics.MaxDrawdown(values)
	m.Sharpe = metrics.Sharpe(returns)
	m.Volatility = metrics.Volatility(returns)
	m.MaxDrawdown = dd.MaxDrawdown
	m.MaxDrawdownDurationDays = dd.DurationDays
	m.PeakValue = peak
	m.TroughValue = trough
	return m
}

func copyHoldings(h map[int64]decimal.Decimal) map[int64]decimal.Decimal {
	out := make(map[int64]decimal.Decimal, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

func copyHistory(h []strategy.Snapshot) []strategy.Snapshot {
	out := make([]strategy.Snapshot, len(h))
	copy(out, h)
	return out
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
