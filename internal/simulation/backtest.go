package simulation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/epeers/portfolio/internal/backtest"
	"github.com/epeers/portfolio/internal/models"
	"github.com/epeers/portfolio/internal/priceservice"
	"github.com/epeers/portfolio/internal/repository"
	"github.com/epeers/portfolio/internal/strategy"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// AssetUniverse resolves asset ids against the security dimension table.
// repository.SecurityRepository satisfies this.
type AssetUniverse interface {
	GetMultipleByIDs(ctx context.Context, ids []int64) (map[int64]*models.Security, error)
}

// BacktestOrchestrator validates a backtest request, builds
// the requested strategy, drives backtest.Engine, and shapes the response.
// History persistence is best-effort: a nil historyRepo disables it.
type BacktestOrchestrator struct {
	store       priceservice.Store
	assets      AssetUniverse
	historyRepo *repository.BacktestHistoryRepository
	now         func() time.Time
}

// NewBacktestOrchestrator builds a BacktestOrchestrator. historyRepo may be
// nil to skip persistence entirely.
func NewBacktestOrchestrator(store priceservice.Store, assets AssetUniverse, historyRepo *repository.BacktestHistoryRepository) *BacktestOrchestrator {
	return &BacktestOrchestrator{store: store, assets: assets, historyRepo: historyRepo, now: time.Now}
}

// RunBacktest validates req, runs the backtest, and returns the API
// envelope. Persistence failures are logged and never surface to the caller.
func (o *BacktestOrchestrator) RunBacktest(ctx context.Context, req models.BacktestRequest) (*models.BacktestResponse, error) {
	start, end := req.StartDate.Time, req.EndDate.Time

	if err := o.validate(ctx, req); err != nil {
		return nil, err
	}

	svc := priceservice.New(o.store)
	tradingDays, err := svc.TradingDays(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("simulation: failed to load trading days: %w", err)
	}

	strat, err := buildStrategy(req, tradingDays)
	if err != nil {
		return nil, err
	}

	lookup, err := svc.PriceLookup(ctx, strat.AssetIDs(), start, end)
	if err != nil {
		return nil, fmt.Errorf("simulation: failed to load price lookup: %w", err)
	}
	warnings := missingPriceWarnings(strat.AssetIDs(), tradingDays, lookup)

	engine := backtest.New(svc)
	result, err := engine.Run(ctx, strat, start, end, decimal.NewFromFloat(req.InitialCash))
	if err != nil {
		return nil, err
	}

	// strat.Parameters() is the canonical parameter set (defaults filled in,
	// types normalised) rather than the raw request body, so both the
	// response envelope and the history row reflect what actually ran.
	params := strat.Parameters()

	backtestID := uuid.NewString()
	response := toBacktestResponse(backtestID, req.Strategy, params, result)
	response.Warnings = warnings

	o.persist(ctx, backtestID, req, params, result)

	return response, nil
}

func (o *BacktestOrchestrator) persist(ctx context.Context, backtestID string, req models.BacktestRequest, params map[string]interface{}, result *backtest.Result) {
	if o.historyRepo == nil {
		return
	}
	finalValue, _ := result.FinalValue.Float64()
	rec := repository.Record{
		BacktestID: backtestID,
		Strategy:   req.Strategy,
		Parameters: params,
		StartDate:  req.StartDate.Time,
		EndDate:    req.EndDate.Time,
		FinalValue: finalValue,
		RanAt:      o.now(),
	}
	if err := o.historyRepo.Insert(ctx, rec); err != nil {
		log.Warnf("simulation: failed to persist backtest history for %s: %v", backtestID, err)
	}
}

func (o *BacktestOrchestrator) validate(ctx context.Context, req models.BacktestRequest) error {
	if len(req.AssetIDs) == 0 {
		return ErrNoAssets
	}

	start, end := req.StartDate.Time, req.EndDate.Time
	if !start.Before(end) {
		return ErrDateRangeInvalid
	}

	now := o.now()
	if !start.Before(now) || !end.Before(now) {
		return ErrDateRangeNotPast
	}

	span := end.Sub(start)
	if span < minBacktestRange {
		return fmt.Errorf("%w: got %s", ErrDateRangeTooShort, span)
	}
	if span > maxBacktestRange {
		return fmt.Errorf("%w: got %s", ErrDateRangeTooLong, span)
	}

	securities, err := o.assets.GetMultipleByIDs(ctx, req.AssetIDs)
	if err != nil {
		return fmt.Errorf("simulation: failed to resolve assets: %w", err)
	}

	for _, id := range req.AssetIDs {
		if _, ok := securities[id]; !ok {
			return fmt.Errorf("%w: %d", ErrUnknownAsset, id)
		}

		first, last, ok, err := o.store.AssetAvailability(ctx, id)
		if err != nil {
			return fmt.Errorf("simulation: failed to check asset availability for %d: %w", id, err)
		}
		if !ok || start.Before(first) || end.After(last) {
			return fmt.Errorf("%w: asset %d has price data from %s to %s, requested %s to %s",
				ErrAssetDataUnavailable, id,
				first.Format("2006-01-02"), last.Format("2006-01-02"),
				start.Format("2006-01-02"), end.Format("2006-01-02"))
		}
	}
	return nil
}

// buildStrategy dispatches on req.Strategy and extracts the variant's
// required parameters from req.Parameters.
func buildStrategy(req models.BacktestRequest, tradingDays []time.Time) (strategy.Strategy, error) {
	initialCash := decimal.NewFromFloat(req.InitialCash)

	switch req.Strategy {
	case "buy_and_hold":
		allocation := make(map[int64]decimal.Decimal)
		if raw, ok := req.Parameters["allocation"].(map[string]interface{}); ok {
			for key, v := range raw {
				assetID, err := strconv.ParseInt(key, 10, 64)
				if err != nil {
					return nil, fmt.Errorf("%w: allocation key %q is not an asset id", ErrMissingParameter, key)
				}
				weight, err := toFloat(v)
				if err != nil {
					return nil, err
				}
				allocation[assetID] = decimal.NewFromFloat(weight)
			}
		}
		var onlyAsset int64
		if len(req.AssetIDs) == 1 {
			onlyAsset = req.AssetIDs[0]
		}
		return strategy.NewBuyAndHold(allocation, initialCash, onlyAsset), nil

	case "dca":
		if len(req.AssetIDs) != 1 {
			return nil, fmt.Errorf("simulation: dca requires exactly one asset_id")
		}
		amountRaw, ok := req.Parameters["amount_per_period"]
		if !ok {
			return nil, fmt.Errorf("%w: amount_per_period", ErrMissingParameter)
		}
		amount, err := toFloat(amountRaw)
		if err != nil {
			return nil, err
		}
		freqRaw, _ := req.Parameters["frequency"].(string)
		freq := strategy.Frequency(freqRaw)
		if freq != strategy.Daily && freq != strategy.Weekly && freq != strategy.Monthly {
			return nil, fmt.Errorf("%w: frequency must be daily, weekly, or monthly", ErrMissingParameter)
		}
		return strategy.NewDCA(req.AssetIDs[0], initialCash, decimal.NewFromFloat(amount), freq), nil

	case "va":
		if len(req.AssetIDs) != 1 {
			return nil, fmt.Errorf("simulation: va requires exactly one asset_id")
		}
		incrementRaw, ok := req.Parameters["target_increment_amount"]
		if !ok {
			return nil, fmt.Errorf("%w: target_increment_amount", ErrMissingParameter)
		}
		increment, err := toFloat(incrementRaw)
		if err != nil {
			return nil, err
		}
		return strategy.NewValueAveraging(req.AssetIDs[0], initialCash, decimal.NewFromFloat(increment), tradingDays), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, req.Strategy)
	}
}

func toFloat(v interface{}) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrMissingParameter, x)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: expected a number, got %T", ErrMissingParameter, v)
	}
}

func missingPriceWarnings(assetIDs []int64, tradingDays []time.Time, lookup priceservice.Lookup) []models.Warning {
	var warnings []models.Warning
	for _, id := range assetIDs {
		missing := 0
		for _, d := range tradingDays {
			if _, ok := lookup.Get(id, d); !ok {
				missing++
			}
		}
		if missing > 0 {
			warnings = append(warnings, models.Warning{
				Code:    models.WarnMissingPriceData,
				Message: fmt.Sprintf("asset %d missing price data for %d of %d trading days, actions skipped those days", id, missing, len(tradingDays)),
			})
		}
	}
	return warnings
}

func toBacktestResponse(backtestID, strat string, params map[string]interface{}, r *backtest.Result) *models.BacktestResponse {
	history := make([]models.BacktestSnapshot, len(r.History))
	for i, s := range r.History {
		holdings := make(map[int64]float64, len(s.Holdings))
		for assetID, shares := range s.Holdings {
			holdings[assetID] = toFloat64(shares)
		}
		history[i] = models.BacktestSnapshot{
			Date:           s.Date.Format("2006-01-02"),
			TotalValue:     toFloat64(s.TotalValue),
			HoldingsCopy:   holdings,
			CashFlowToday:  toFloat64(s.CashFlowToday),
			DailyReturnPct: s.DailyReturnPct,
			DailyReturnAbs: toFloat64(s.DailyReturnAbs),
		}
	}

	data := models.BacktestData{
		StartDate:      r.StartDate.Format("2006-01-02"),
		EndDate:        r.EndDate.Format("2006-01-02"),
		TotalInvested:  toFloat64(r.TotalInvested),
		FinalValue:     toFloat64(r.FinalValue),
		TotalReturnPct: r.TotalReturnPct,
		TotalReturnAbs: toFloat64(r.TotalReturnAbs),
		AvgDailyReturn: r.AvgDailyReturn,
		Metrics: models.BacktestMetrics{
			Sharpe:                  r.Metrics.Sharpe,
			MaxDrawdown:             r.Metrics.MaxDrawdown,
			MaxDrawdownDurationDays: r.Metrics.MaxDrawdownDurationDays,
			Volatility:              r.Metrics.Volatility,
			DaysAnalysed:            r.Metrics.DaysAnalysed,
			InvestmentsMade:         r.Metrics.InvestmentsMade,
			PeakValue:               toFloat64(r.Metrics.PeakValue),
			TroughValue:             toFloat64(r.Metrics.TroughValue),
		},
		History: history,
	}

	return &models.BacktestResponse{
		BacktestID: backtestID,
		Strategy:   strat,
		Parameters: params,
		Data:       data,
	}
}

func toFloat64(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
