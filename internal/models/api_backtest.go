package models

import (
	"encoding/json"
	"fmt"
)

// BacktestRequest is the request body for POST /backtests.
type BacktestRequest struct {
	Strategy     string                 `json:"strategy" binding:"required"`
	AssetIDs     []int64                `json:"asset_ids" binding:"required"`
	Tickers      []string               `json:"tickers"`
	StartDate    FlexibleDate           `json:"start_date" binding:"required" swaggertype:"string" example:"2025-01-02"`
	EndDate      FlexibleDate           `json:"end_date" binding:"required" swaggertype:"string" example:"2025-12-31"`
	InitialCash  float64                `json:"initial_cash"`
	Parameters   map[string]interface{} `json:"parameters"`
}

// BacktestSnapshot is one trading day's record in BacktestData.History.
type BacktestSnapshot struct {
	Date           string            `json:"date"`
	TotalValue     float64           `json:"total_value"`
	HoldingsCopy   map[int64]float64 `json:"holdings_copy"`
	CashFlowToday  float64           `json:"cash_flow_today"`
	DailyReturnPct float64           `json:"daily_return_pct"`
	DailyReturnAbs float64           `json:"daily_return_abs"`
}

// BacktestMetrics mirrors backtest.Metrics for the JSON response.
type BacktestMetrics struct {
	Sharpe                  float64 `json:"sharpe"`
	MaxDrawdown             float64 `json:"max_drawdown"`
	MaxDrawdownDurationDays int64   `json:"max_drawdown_duration_days"`
	Volatility              float64 `json:"volatility"`
	DaysAnalysed            int     `json:"days_analysed"`
	InvestmentsMade         int     `json:"investments_made"`
	PeakValue               float64 `json:"peak_value"`
	TroughValue             float64 `json:"trough_value"`
}

// BacktestData is the `data` field of the response envelope, matching
// the backtest result shape field-for-field.
type BacktestData struct {
	StartDate      string             `json:"start_date"`
	EndDate        string             `json:"end_date"`
	TotalInvested  float64            `json:"total_invested"`
	FinalValue     float64            `json:"final_value"`
	TotalReturnPct float64            `json:"total_return_pct"`
	TotalReturnAbs float64            `json:"total_return_abs"`
	AvgDailyReturn float64            `json:"avg_daily_return"`
	Metrics        BacktestMetrics    `json:"metrics"`
	History        []BacktestSnapshot `json:"history"`
}

// MarshalJSON rounds currency fields to 2dp and ratios to 6dp by writing
// pre-formatted json.RawMessage values.
func (d BacktestData) MarshalJSON() ([]byte, error) {
	type plain struct {
		StartDate      string             `json:"start_date"`
		EndDate        string             `json:"end_date"`
		TotalInvested  json.RawMessage    `json:"total_invested"`
		FinalValue     json.RawMessage    `json:"final_value"`
		TotalReturnPct json.RawMessage    `json:"total_return_pct"`
		TotalReturnAbs json.RawMessage    `json:"total_return_abs"`
		AvgDailyReturn json.RawMessage    `json:"avg_daily_return"`
		Metrics        BacktestMetrics    `json:"metrics"`
		History        []BacktestSnapshot `json:"history"`
	}
	return json.Marshal(plain{
		StartDate:      d.StartDate,
		EndDate:        d.EndDate,
		TotalInvested:  json.RawMessage(fmt.Sprintf("%.2f", d.TotalInvested)),
		FinalValue:     json.RawMessage(fmt.Sprintf("%.2f", d.FinalValue)),
		TotalReturnPct: json.RawMessage(fmt.Sprintf("%.6f", d.TotalReturnPct)),
		TotalReturnAbs: json.RawMessage(fmt.Sprintf("%.2f", d.TotalReturnAbs)),
		AvgDailyReturn: json.RawMessage(fmt.Sprintf("%.6f", d.AvgDailyReturn)),
		Metrics:        d.Metrics,
		History:        d.History,
	})
}

// MarshalJSON rounds the per-day value/cash-flow fields to 2dp and the
// return percentage to 6dp.
func (s BacktestSnapshot) MarshalJSON() ([]byte, error) {
	type plain struct {
		Date           string            `json:"date"`
		TotalValue     json.RawMessage   `json:"total_value"`
		HoldingsCopy   map[int64]float64 `json:"holdings_copy"`
		CashFlowToday  json.RawMessage   `json:"cash_flow_today"`
		DailyReturnPct json.RawMessage   `json:"daily_return_pct"`
		DailyReturnAbs json.RawMessage   `json:"daily_return_abs"`
	}
	return json.Marshal(plain{
		Date:           s.Date,
		TotalValue:     json.RawMessage(fmt.Sprintf("%.2f", s.TotalValue)),
		HoldingsCopy:   s.HoldingsCopy,
		CashFlowToday:  json.RawMessage(fmt.Sprintf("%.2f", s.CashFlowToday)),
		DailyReturnPct: json.RawMessage(fmt.Sprintf("%.6f", s.DailyReturnPct)),
		DailyReturnAbs: json.RawMessage(fmt.Sprintf("%.2f", s.DailyReturnAbs)),
	})
}

// BacktestResponse is the full POST /backtests envelope.
type BacktestResponse struct {
	BacktestID string                 `json:"backtest_id"`
	Strategy   string                 `json:"strategy"`
	Parameters map[string]interface{} `json:"parameters"`
	Data       BacktestData           `json:"data"`
	Warnings   []Warning              `json:"warnings,omitempty"`
}
