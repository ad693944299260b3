package montecarlo

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/stat"
)

const sampleTrajectoryCount = 20

// buildChartData computes percentile bands of portfolio value at each month
// across all simulations, plus the cumulative amount invested by that month.
func buildChartData(paths [][]float64, totalInvested, monthlyInvestment float64) []ChartPoint {
	if len(paths) == 0 {
		return nil
	}
	months := len(paths[0])
	chart := make([]ChartPoint, months)

	column := make([]float64, len(paths))
	for month := 0; month < months; month++ {
		for i, p := range paths {
			column[i] = p[month]
		}
		sorted := append([]float64(nil), column...)
		sort.Float64s(sorted)

		chart[month] = ChartPoint{
			Month:    month,
			Invested: monthlyInvestment * float64(month),
			P5:       quantile(0.05, sorted),
			P10:      quantile(0.10, sorted),
			P25:      quantile(0.25, sorted),
			P50:      quantile(0.50, sorted),
			P75:      quantile(0.75, sorted),
			P90:      quantile(0.90, sorted),
			P95:      quantile(0.95, sorted),
		}
	}
	return chart
}

// sampleTrajectories returns a random sample of min(20, len(paths))
// trajectories for client-side plotting.
func sampleTrajectories(paths [][]float64, rng *rand.Rand) [][]float64 {
	n := min(sampleTrajectoryCount, len(paths))
	if n == 0 {
		return nil
	}
	indices := rng.Perm(len(paths))[:n]
	out := make([][]float64, n)
	for i, idx := range indices {
		out[i] = append([]float64(nil), paths[idx]...)
	}
	return out
}

// buildHistogram buckets values into numBins equal-width bins.
func buildHistogram(values []float64, numBins int) []HistogramBin {
	if len(values) == 0 || numBins <= 0 {
		return nil
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi == lo {
		hi = lo + 1
	}

	width := (hi - lo) / float64(numBins)
	bins := make([]HistogramBin, numBins)
	for i := range bins {
		bins[i].Min = lo + width*float64(i)
		bins[i].Max = lo + width*float64(i+1)
	}
	for _, v := range values {
		idx := int((v - lo) / width)
		if idx >= numBins {
			idx = numBins - 1
		}
		if idx < 0 {
			idx = 0
		}
		bins[idx].Count++
	}
	return bins
}

func percentilesOf(values []float64) map[int]float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	out := make(map[int]float64, len(percentileLevels))
	for _, p := range percentileLevels {
		out[p] = quantile(float64(p)/100, sorted)
	}
	return out
}

// quantile wraps gonum's empirical quantile estimator; sorted must already
// be ascending.
func quantile(p float64, sorted []float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// computeRiskMetrics aggregates probability of loss, mean/std of return,
// the periodic (per-simulation) Sharpe interpretation, mean max drawdown,
// and VaR/CVaR at the 95% level.
func computeRiskMetrics(finalValues []float64, monthlyReturnRows [][]float64, paths [][]float64, totalInvested, monthlyInvestment float64) RiskMetrics {
	n := len(finalValues)
	if n == 0 {
		return RiskMetrics{}
	}

	returns := make([]float64, n)
	lossCount := 0
	for i, v := range finalValues {
		returns[i] = (v - totalInvested) / totalInvested
		if v < totalInvested {
			lossCount++
		}
	}

	meanReturn := stat.Mean(returns, nil)
	stdReturn := stat.StdDev(returns, nil)

	var sharpeSum float64
	for _, row := range monthlyReturnRows {
		m := stat.Mean(row, nil)
		sd := stat.StdDev(row, nil)
		if sd < 1e-10 {
			sd = 1e-10
		}
		sharpeSum += m / sd * math.Sqrt(12)
	}
	sharpe := sharpeSum / float64(len(monthlyReturnRows))

	maxDrawdown := meanMaxDrawdown(paths, monthlyInvestment)

	sortedReturns := append([]float64(nil), returns...)
	sort.Float64s(sortedReturns)
	var95 := quantile(0.05, sortedReturns)

	var cvarSum float64
	var cvarCount int
	for _, r := range returns {
		if r <= var95 {
			cvarSum += r
			cvarCount++
		}
	}
	cvar95 := 0.0
	if cvarCount > 0 {
		cvar95 = cvarSum / float64(cvarCount)
	}

	return RiskMetrics{
		ProbabilityOfLoss: float64(lossCount) / float64(n),
		MeanReturn:        meanReturn,
		StdReturn:         stdReturn,
		SharpeRatio:       sharpe,
		MaxDrawdown:       maxDrawdown,
		VaR95:             var95,
		CVaR95:            cvar95,
	}
}

// meanMaxDrawdown computes, for each simulation, the running-max-relative
// drawdown at every step and returns the mean of each simulation's minimum.
func meanMaxDrawdown(paths [][]float64, monthlyInvestment float64) float64 {
	if len(paths) == 0 {
		return 0
	}
	var sum float64
	for _, path := range paths {
		runningMax := 0.0
		minDrawdown := 0.0
		for _, v := range path {
			if v > runningMax {
				runningMax = v
			}
			denom := math.Max(runningMax, 1)
			dd := (v - runningMax) / denom
			if dd < minDrawdown {
				minDrawdown = dd
			}
		}
		sum += minDrawdown
	}
	return sum / float64(len(paths))
}
