package models

import (
	"encoding/json"
	"fmt"
)

// MonteCarloRequest is the request parameters for GET /monte-carlo.
type MonteCarloRequest struct {
	TickerID          int64  `form:"ticker_id" binding:"required"`
	MonthlyInvestment float64 `form:"monthly_investment" binding:"required"`
	InvestmentMonths  int    `form:"investment_months" binding:"required"`
	SimulationMethod  string `form:"simulation_method" binding:"required"`
}

// ChartPoint is one month's percentile band row.
type ChartPoint struct {
	Month    int     `json:"month"`
	Invested float64 `json:"invested"`
	P5       float64 `json:"p5"`
	P10      float64 `json:"p10"`
	P25      float64 `json:"p25"`
	P50      float64 `json:"p50"`
	P75      float64 `json:"p75"`
	P90      float64 `json:"p90"`
	P95      float64 `json:"p95"`
}

func (c ChartPoint) MarshalJSON() ([]byte, error) {
	type plain struct {
		Month    int             `json:"month"`
		Invested json.RawMessage `json:"invested"`
		P5       json.RawMessage `json:"p5"`
		P10      json.RawMessage `json:"p10"`
		P25      json.RawMessage `json:"p25"`
		P50      json.RawMessage `json:"p50"`
		P75      json.RawMessage `json:"p75"`
		P90      json.RawMessage `json:"p90"`
		P95      json.RawMessage `json:"p95"`
	}
	f := func(v float64) json.RawMessage { return json.RawMessage(fmt.Sprintf("%.2f", v)) }
	return json.Marshal(plain{
		Month:    c.Month,
		Invested: f(c.Invested),
		P5:       f(c.P5),
		P10:      f(c.P10),
		P25:      f(c.P25),
		P50:      f(c.P50),
		P75:      f(c.P75),
		P90:      f(c.P90),
		P95:      f(c.P95),
	})
}

// HistogramBin is one equal-width bucket of the final-value distribution.
type HistogramBin struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

func (b HistogramBin) MarshalJSON() ([]byte, error) {
	type plain struct {
		Min   json.RawMessage `json:"min"`
		Max   json.RawMessage `json:"max"`
		Count int             `json:"count"`
	}
	return json.Marshal(plain{
		Min:   json.RawMessage(fmt.Sprintf("%.2f", b.Min)),
		Max:   json.RawMessage(fmt.Sprintf("%.2f", b.Max)),
		Count: b.Count,
	})
}

// RiskMetrics bundles the aggregate risk figures over a Monte Carlo run.
type RiskMetrics struct {
	ProbabilityOfLoss float64 `json:"probability_of_loss"`
	MeanReturn        float64 `json:"mean_return"`
	StdReturn         float64 `json:"std_return"`
	SharpeRatio       float64 `json:"sharpe_ratio"`
	MaxDrawdown       float64 `json:"max_drawdown"`
	VaR95             float64 `json:"var_95"`
	CVaR95            float64 `json:"cvar_95"`
}

func (r RiskMetrics) MarshalJSON() ([]byte, error) {
	type plain struct {
		ProbabilityOfLoss json.RawMessage `json:"probability_of_loss"`
		MeanReturn        json.RawMessage `json:"mean_return"`
		StdReturn         json.RawMessage `json:"std_return"`
		SharpeRatio       json.RawMessage `json:"sharpe_ratio"`
		MaxDrawdown       json.RawMessage `json:"max_drawdown"`
		VaR95             json.RawMessage `json:"var_95"`
		CVaR95            json.RawMessage `json:"cvar_95"`
	}
	f := func(v float64) json.RawMessage { return json.RawMessage(fmt.Sprintf("%.6f", v)) }
	return json.Marshal(plain{
		ProbabilityOfLoss: f(r.ProbabilityOfLoss),
		MeanReturn:        f(r.MeanReturn),
		StdReturn:         f(r.StdReturn),
		SharpeRatio:       f(r.SharpeRatio),
		MaxDrawdown:       f(r.MaxDrawdown),
		VaR95:             f(r.VaR95),
		CVaR95:            f(r.CVaR95),
	})
}

// MonteCarloResponse is the full GET /monte-carlo response body.
type MonteCarloResponse struct {
	ChartData        []ChartPoint       `json:"chart_data"`
	SamplePaths      [][]float64        `json:"sample_paths"`
	Histogram        []HistogramBin     `json:"histogram"`
	TotalInvested    float64            `json:"total_invested"`
	FinalPercentiles map[string]float64 `json:"final_percentiles"`
	RiskMetrics      RiskMetrics        `json:"risk_metrics"`
	Warnings         []Warning          `json:"warnings,omitempty"`
}

func (r MonteCarloResponse) MarshalJSON() ([]byte, error) {
	percentiles := make(map[string]json.RawMessage, len(r.FinalPercentiles))
	for k, v := range r.FinalPercentiles {
		percentiles[k] = json.RawMessage(fmt.Sprintf("%.2f", v))
	}
	type plain struct {
		ChartData        []ChartPoint               `json:"chart_data"`
		SamplePaths      [][]float64                `json:"sample_paths"`
		Histogram        []HistogramBin             `json:"histogram"`
		TotalInvested    json.RawMessage            `json:"total_invested"`
		FinalPercentiles map[string]json.RawMessage `json:"final_percentiles"`
		RiskMetrics      RiskMetrics                `json:"risk_metrics"`
		Warnings         []Warning                  `json:"warnings,omitempty"`
	}
	return json.Marshal(plain{
		ChartData:        r.ChartData,
		SamplePaths:      r.SamplePaths,
		Histogram:        r.Histogram,
		TotalInvested:    json.RawMessage(fmt.Sprintf("%.2f", r.TotalInvested)),
		FinalPercentiles: percentiles,
		RiskMetrics:      r.RiskMetrics,
		Warnings:         r.Warnings,
	})
}
