package simulation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/epeers/portfolio/internal/models"
	"github.com/epeers/portfolio/internal/montecarlo"
	"github.com/epeers/portfolio/internal/priceservice"
)

// defaultNumSimulations is used for every run since the external API does
// not expose num_simulations or a seed; determinism given an explicit seed
// remains an internal engine property, exercised in tests.
const defaultNumSimulations = 1000

// historyWindowYears bounds how far back the Monte Carlo engine looks for
// monthly-return statistics when the asset's own history is longer.
const historyWindowYears = 20

var simulationMethodNames = map[string]montecarlo.Method{
	"Normal Distribution": montecarlo.Normal,
	"Bootstrap":           montecarlo.Bootstrap,
	"T-Student":           montecarlo.TStudent,
}

// MonteCarloOrchestrator validates a Monte Carlo request, derives the
// historical return series for the requested asset, and runs the engine.
type MonteCarloOrchestrator struct {
	store     priceservice.Store
	maxMonths int
	maxSims   int
	now       func() time.Time
}

// NewMonteCarloOrchestrator builds a MonteCarloOrchestrator. maxMonths and
// maxSims enforce the resource caps required by the concurrency model.
func NewMonteCarloOrchestrator(store priceservice.Store, maxMonths, maxSims int) *MonteCarloOrchestrator {
	return &MonteCarloOrchestrator{store: store, maxMonths: maxMonths, maxSims: maxSims, now: time.Now}
}

// RunMonteCarlo validates req, derives the asset's historical monthly
// returns, and simulates a DCA strategy forward investment_months months.
func (o *MonteCarloOrchestrator) RunMonteCarlo(ctx context.Context, req models.MonteCarloRequest) (*models.MonteCarloResponse, error) {
	method, ok := simulationMethodNames[req.SimulationMethod]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSimulationMethod, req.SimulationMethod)
	}
	if req.InvestmentMonths < 1 {
		return nil, fmt.Errorf("%w: investment_months must be >= 1", ErrMissingParameter)
	}
	if req.InvestmentMonths > o.maxMonths {
		return nil, fmt.Errorf("%w: got %d, max %d", ErrInvestmentMonthsTooMany, req.InvestmentMonths, o.maxMonths)
	}

	first, last, ok, err := o.store.AssetAvailability(ctx, req.TickerID)
	if err != nil {
		return nil, fmt.Errorf("simulation: failed to check asset availability: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAsset, req.TickerID)
	}

	end := o.now()
	if last.Before(end) {
		end = last
	}
	start := end.AddDate(-historyWindowYears, 0, 0)
	if first.After(start) {
		start = first
	}

	series, err := o.loadSeries(ctx, req.TickerID, start, end)
	if err != nil {
		return nil, err
	}

	engine, err := montecarlo.New(series)
	if err != nil {
		return nil, err
	}

	numSimulations := defaultNumSimulations
	if numSimulations > o.maxSims {
		numSimulations = o.maxSims
	}

	result, err := engine.SimulateDCA(montecarlo.Config{
		MonthlyInvestment: req.MonthlyInvestment,
		InvestmentMonths:  req.InvestmentMonths,
		NumSimulations:    numSimulations,
		Method:            method,
	})
	if err != nil {
		return nil, err
	}

	return toMonteCarloResponse(result), nil
}

func (o *MonteCarloOrchestrator) loadSeries(ctx context.Context, assetID int64, start, end time.Time) ([]montecarlo.PricePoint, error) {
	tradingDays, err := o.store.TradingDays(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("simulation: failed to load trading days: %w", err)
	}
	lookup, err := o.store.PriceLookup(ctx, []int64{assetID}, start, end)
	if err != nil {
		return nil, fmt.Errorf("simulation: failed to load price history: %w", err)
	}

	series := make([]montecarlo.PricePoint, 0, len(tradingDays))
	for _, d := range tradingDays {
		price, ok := lookup.Get(assetID, d)
		if !ok {
			continue
		}
		f, _ := price.Float64()
		series = append(series, montecarlo.PricePoint{Timestamp: d, Close: f})
	}
	return series, nil
}

func toMonteCarloResponse(r *montecarlo.Result) *models.MonteCarloResponse {
	chart := make([]models.ChartPoint, len(r.ChartData))
	for i, c := range r.ChartData {
		chart[i] = models.ChartPoint{
			Month: c.Month, Invested: c.Invested,
			P5: c.P5, P10: c.P10, P25: c.P25, P50: c.P50, P75: c.P75, P90: c.P90, P95: c.P95,
		}
	}

	histogram := make([]models.HistogramBin, len(r.Histogram))
	for i, b := range r.Histogram {
		histogram[i] = models.HistogramBin{Min: b.Min, Max: b.Max, Count: b.Count}
	}

	percentiles := make(map[string]float64, len(r.FinalPercentiles))
	for k, v := range r.FinalPercentiles {
		percentiles[strconv.Itoa(k)] = v
	}

	return &models.MonteCarloResponse{
		ChartData:        chart,
		SamplePaths:      r.SamplePaths,
		Histogram:        histogram,
		TotalInvested:    r.TotalInvested,
		FinalPercentiles: percentiles,
		RiskMetrics: models.RiskMetrics{
			ProbabilityOfLoss: r.RiskMetrics.ProbabilityOfLoss,
			MeanReturn:        r.RiskMetrics.MeanReturn,
			StdReturn:         r.RiskMetrics.StdReturn,
			SharpeRatio:       r.RiskMetrics.SharpeRatio,
			MaxDrawdown:       r.RiskMetrics.MaxDrawdown,
			VaR95:             r.RiskMetrics.VaR95,
			CVaR95:            r.RiskMetrics.CVaR95,
		},
	}
}
