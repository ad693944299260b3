// Package metrics holds the pure, deterministic performance/risk functions
// shared by the backtest and Monte Carlo engines: annualised Sharpe, maximum
// drawdown with duration, and annualised volatility.
package metrics

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

const (
	tradingDaysPerYear = 252
	defaultRiskFreeRate = 0.04 / tradingDaysPerYear
)

// Sharpe computes the annualised Sharpe ratio over daily fractional returns
// using the default risk-free rate (0.04/252 per day). n<2 or zero stdev
// both yield 0.
func Sharpe(returns []float64) float64 {
	return SharpeWithRiskFree(returns, defaultRiskFreeRate)
}

// SharpeWithRiskFree is Sharpe parameterised on a per-day risk-free rate.
func SharpeWithRiskFree(returns []float64, riskFreeRate float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean := stat.Mean(returns, nil)
	sd := stat.StdDev(returns, nil)
	if sd == 0 {
		return 0
	}
	return (mean - riskFreeRate) / sd * math.Sqrt(tradingDaysPerYear)
}

// Volatility computes annualised volatility: stdev(r) * sqrt(252).
func Volatility(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	return stat.StdDev(returns, nil) * math.Sqrt(tradingDaysPerYear)
}

// ValuePoint is a dated value used for drawdown, which must be computed from
// actual portfolio values rather than approximated from a return series.
type ValuePoint struct {
	Date  time.Time
	Value float64
}

// Drawdown is the result of MaxDrawdown: the most negative fractional
// decline from a running peak, and the number of calendar days between the
// peak and the point where that decline was achieved.
type Drawdown struct {
	MaxDrawdown float64
	DurationDays int64
}

// MaxDrawdown walks values in order, tracking the running maximum and the
// date it was attained, and returns the deepest (most negative) drawdown and
// its duration in calendar days. An empty sequence returns the zero value.
func MaxDrawdown(values []ValuePoint) Drawdown {
	if len(values) == 0 {
		return Drawdown{}
	}

	var result Drawdown
	runningMax := values[0].Value
	runningMaxDate := values[0].Date

	for _, v := range values {
		if v.Value > runningMax {
			runningMax = v.Value
			runningMaxDate = v.Date
		}
		if runningMax <= 0 {
			continue
		}
		candidate := (v.Value - runningMax) / runningMax
		if candidate < result.MaxDrawdown {
			result.MaxDrawdown = candidate
			result.DurationDays = int64(v.Date.Sub(runningMaxDate).Hours() / 24)
		}
	}
	return result
}
