// Package montecarlo forward-simulates a Dollar-Cost-Averaging strategy by
// Monte Carlo over synthetic monthly return paths derived from a historical
// daily price series. Unlike the backtest engine, this kernel works in
// float64 throughout — the one place that's acceptable, since bulk array
// arithmetic over large simulation counts dominates the cost.
package montecarlo

import (
	cryptorand "crypto/rand"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"sort"
	"time"

	plog "github.com/phuslu/log"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Method selects the synthetic return-sampling technique.
type Method string

const (
	Normal    Method = "NORMAL"
	Bootstrap Method = "BOOTSTRAP"
	TStudent  Method = "T_STUDENT"
)

var (
	ErrEmptySeries       = errors.New("montecarlo: timeseries has no usable monthly returns")
	ErrInvalidMonths     = errors.New("montecarlo: investment_months must be >= 1")
	ErrInvalidSimCount   = errors.New("montecarlo: num_simulations must be >= 1")
	ErrUnknownMethod     = errors.New("montecarlo: unknown sampling method")
)

// PricePoint is one daily observation feeding the monthly-return derivation.
type PricePoint struct {
	Timestamp time.Time
	Close     float64
}

// Config parameterises a single simulation run. A non-nil Seed (including a
// seed of 0) seeds the PRNG deterministically, so a run is reproducible given
// (seed, method, ...); a nil Seed draws the PRNG state from OS entropy.
type Config struct {
	MonthlyInvestment float64
	InvestmentMonths  int
	NumSimulations    int
	InitialPrice      *float64
	Seed              *uint64
	Method            Method
}

// ChartPoint is one month's row of percentile bands over time.
type ChartPoint struct {
	Month    int
	Invested float64
	P5, P10, P25, P50, P75, P90, P95 float64
}

// HistogramBin is one equal-width bucket of the final-value distribution.
type HistogramBin struct {
	Min, Max float64
	Count    int
}

// RiskMetrics bundles the aggregate risk figures computed over final values
// and per-simulation monthly returns.
type RiskMetrics struct {
	ProbabilityOfLoss float64
	MeanReturn        float64
	StdReturn         float64
	SharpeRatio       float64
	MaxDrawdown       float64
	VaR95             float64
	CVaR95            float64
}

// Result is the full output of a Monte Carlo DCA simulation.
type Result struct {
	ChartData         []ChartPoint
	SamplePaths       [][]float64
	Histogram         []HistogramBin
	TotalInvested     float64
	FinalPercentiles  map[int]float64
	RiskMetrics       RiskMetrics
}

var percentileLevels = []int{5, 10, 25, 50, 75, 90, 95}

// Engine derives historical monthly-return statistics from a price series
// once, then can run any number of DCA simulations against them.
type Engine struct {
	historicalReturns []float64
	mean, stdev       float64
	lastClose         float64
}

// New sorts series by timestamp, collapses it to monthly observations, and
// computes monthly fractional returns, dropping the null first row.
func New(series []PricePoint) (*Engine, error) {
	sorted := make([]PricePoint, len(series))
	copy(sorted, series)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	monthlyCloses := monthEndCloses(sorted)
	if len(monthlyCloses) < 2 {
		return nil, ErrEmptySeries
	}

	returns := make([]float64, 0, len(monthlyCloses)-1)
	for i := 1; i < len(monthlyCloses); i++ {
		prev := monthlyCloses[i-1]
		if prev == 0 {
			continue
		}
		returns = append(returns, monthlyCloses[i]/prev-1)
	}
	if len(returns) == 0 {
		return nil, ErrEmptySeries
	}

	return &Engine{
		historicalReturns: returns,
		mean:              stat.Mean(returns, nil),
		stdev:             stat.StdDev(returns, nil),
		lastClose:         sorted[len(sorted)-1].Close,
	}, nil
}

// monthEndCloses takes the last close observed in each (year, month) bucket,
// in chronological order.
func monthEndCloses(sorted []PricePoint) []float64 {
	type ym struct {
		y int
		m time.Month
	}
	var order []ym
	lastByMonth := make(map[ym]float64)
	for _, p := range sorted {
		key := ym{p.Timestamp.Year(), p.Timestamp.Month()}
		if _, seen := lastByMonth[key]; !seen {
			order = append(order, key)
		}
		lastByMonth[key] = p.Close
	}
	closes := make([]float64, len(order))
	for i, key := range order {
		closes[i] = lastByMonth[key]
	}
	return closes
}

// SimulateDCA runs cfg.NumSimulations independent DCA paths and aggregates
// percentile bands, sample paths, a final-value histogram, and risk metrics.
func (e *Engine) SimulateDCA(cfg Config) (*Result, error) {
	if cfg.InvestmentMonths < 1 {
		return nil, ErrInvalidMonths
	}
	if cfg.NumSimulations < 1 {
		return nil, ErrInvalidSimCount
	}

	initialPrice := e.lastClose
	if cfg.InitialPrice != nil {
		initialPrice = *cfg.InitialPrice
	}

	rng := newRNG(cfg.Seed)
	returnScenarios, err := e.generateReturns(cfg, rng)
	if err != nil {
		return nil, err
	}

	months := cfg.InvestmentMonths
	portfolioPaths := make([][]float64, cfg.NumSimulations)
	finalValues := make([]float64, cfg.NumSimulations)
	monthlyReturnRows := returnScenarios

	forwardSimulate(portfolioPaths, finalValues, returnScenarios, initialPrice, cfg.MonthlyInvestment, months)

	totalInvested := cfg.MonthlyInvestment * float64(months)

	result := &Result{
		TotalInvested:    totalInvested,
		ChartData:        buildChartData(portfolioPaths, totalInvested, cfg.MonthlyInvestment),
		SamplePaths:      sampleTrajectories(portfolioPaths, rng),
		Histogram:        buildHistogram(finalValues, 50),
		FinalPercentiles: percentilesOf(finalValues),
		RiskMetrics:      computeRiskMetrics(finalValues, monthlyReturnRows, portfolioPaths, totalInvested, cfg.MonthlyInvestment),
	}

	plog.Info().Str("method", string(cfg.Method)).Int("simulations", cfg.NumSimulations).
		Int("months", months).Msg("monte carlo simulation completed")

	return result, nil
}

// forwardSimulate compounds each simulation's price path and share
// accumulation independently, so the work is split across workers with
// errgroup — each goroutine only writes the path/finalValue slots its chunk
// owns, never shares rng state, and needs no locking.
func forwardSimulate(portfolioPaths [][]float64, finalValues []float64, returns [][]float64, initialPrice, monthlyInvestment float64, months int) {
	numSims := len(portfolioPaths)
	workers := min(runtime.NumCPU(), numSims)
	if workers < 1 {
		workers = 1
	}
	chunk := (numSims + workers - 1) / workers

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := min(lo+chunk, numSims)
		if lo >= hi {
			continue
		}
		g.Go(func() error {
			for sim := lo; sim < hi; sim++ {
				path := make([]float64, months+1)
				price := initialPrice
				var totalShares float64
				for month := 0; month < months; month++ {
					price *= 1 + returns[sim][month]
					if price > 0 {
						totalShares += monthlyInvestment / price
					}
					path[month+1] = totalShares * price
				}
				portfolioPaths[sim] = path
				finalValues[sim] = path[months]
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (e *Engine) generateReturns(cfg Config, rng *rand.Rand) ([][]float64, error) {
	out := make([][]float64, cfg.NumSimulations)
	for i := range out {
		out[i] = make([]float64, cfg.InvestmentMonths)
	}

	switch cfg.Method {
	case Normal:
		dist := distuv.Normal{Mu: e.mean, Sigma: e.stdev, Src: rng}
		for s := range out {
			for m := range out[s] {
				out[s][m] = dist.Rand()
			}
		}
	case Bootstrap:
		n := len(e.historicalReturns)
		for s := range out {
			for m := range out[s] {
				idx := rng.IntN(n)
				out[s][m] = e.historicalReturns[idx]
			}
		}
	case TStudent:
		df, loc, scale := fitStudentT(e.historicalReturns)
		dist := distuv.StudentsT{Mu: loc, Sigma: scale, Nu: df, Src: rng}
		for s := range out {
			for m := range out[s] {
				out[s][m] = dist.Rand()
			}
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, cfg.Method)
	}
	return out, nil
}

// newRNG resets the PRNG deterministically when a seed is supplied, and
// otherwise draws from OS entropy.
func newRNG(seed *uint64) *rand.Rand {
	if seed != nil {
		return rand.New(rand.NewPCG(*seed, *seed^0x9E3779B97F4A7C15))
	}
	var s1, s2 uint64
	var buf [16]byte
	_, _ = cryptorand.Read(buf[:])
	for i := 0; i < 8; i++ {
		s1 = s1<<8 | uint64(buf[i])
		s2 = s2<<8 | uint64(buf[i+8])
	}
	return rand.New(rand.NewPCG(s1, s2))
}

// fitStudentT estimates Student-t parameters by the method of moments:
// excess kurtosis pins the degrees of freedom (kurtosis = 6/(df-4) for a
// standard t with df>4), then scale is backed out from the sample
// variance. This is a closed-form approximation to scipy's MLE-based
// stats.t.fit, adequate for return data that is already approximately
// t-distributed.
func fitStudentT(data []float64) (df, loc, scale float64) {
	loc = stat.Mean(data, nil)
	variance := stat.Variance(data, nil)
	kurt := excessKurtosis(data, loc)

	const minDF = 5.0
	df = minDF
	if kurt > 0 {
		df = 4 + 6/kurt
		if df < minDF {
			df = minDF
		}
	}
	scale = variance * (df - 2) / df
	if scale < 0 {
		scale = variance
	}
	return df, loc, math.Sqrt(scale)
}

func excessKurtosis(data []float64, mean float64) float64 {
	n := float64(len(data))
	if n < 2 {
		return 0
	}
	var m2, m4 float64
	for _, x := range data {
		d := x - mean
		m2 += d * d
		m4 += d * d * d * d
	}
	m2 /= n
	m4 /= n
	if m2 == 0 {
		return 0
	}
	return m4/(m2*m2) - 3
}

