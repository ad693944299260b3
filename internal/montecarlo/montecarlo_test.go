package montecarlo

import (
	"math"
	"testing"
	"time"
)

func monthlyConstantSeries(months int, price float64) []PricePoint {
	var series []PricePoint
	start := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < months; i++ {
		series = append(series, PricePoint{Timestamp: start.AddDate(0, i, 0), Close: price})
	}
	return series
}

func TestBootstrapOnConstantHistory(t *testing.T) {
	series := monthlyConstantSeries(24, 100)
	engine, err := New(series)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	seed := uint64(42)
	result, err := engine.SimulateDCA(Config{
		MonthlyInvestment: 100,
		InvestmentMonths:  12,
		NumSimulations:    50,
		Method:            Bootstrap,
		Seed:              &seed,
	})
	if err != nil {
		t.Fatalf("SimulateDCA error: %v", err)
	}

	if result.RiskMetrics.ProbabilityOfLoss != 0 {
		t.Errorf("probability_of_loss = %v, want 0", result.RiskMetrics.ProbabilityOfLoss)
	}
	if result.RiskMetrics.MeanReturn != 0 {
		t.Errorf("mean_return = %v, want 0", result.RiskMetrics.MeanReturn)
	}
	if math.Abs(result.RiskMetrics.MaxDrawdown) > 1e-9 {
		t.Errorf("max_drawdown = %v, want ~0", result.RiskMetrics.MaxDrawdown)
	}

	wantTotalInvested := 100.0 * 12
	if math.Abs(result.TotalInvested-wantTotalInvested) > 1e-9 {
		t.Errorf("total_invested = %v, want %v", result.TotalInvested, wantTotalInvested)
	}
	if math.Abs(result.FinalPercentiles[50]-wantTotalInvested) > 1e-6 {
		t.Errorf("final_percentiles[50] = %v, want %v", result.FinalPercentiles[50], wantTotalInvested)
	}
}

func TestChartDataHasMonthsPlusOneEntries(t *testing.T) {
	series := monthlyConstantSeries(24, 100)
	engine, err := New(series)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	seed := uint64(7)
	result, err := engine.SimulateDCA(Config{
		MonthlyInvestment: 100,
		InvestmentMonths:  6,
		NumSimulations:    20,
		Method:            Normal,
		Seed:              &seed,
	})
	if err != nil {
		t.Fatalf("SimulateDCA error: %v", err)
	}
	if len(result.ChartData) != 7 {
		t.Fatalf("len(ChartData) = %d, want 7 (investment_months + 1)", len(result.ChartData))
	}
	for _, row := range result.ChartData {
		if row.P5 > row.P10 || row.P10 > row.P25 || row.P25 > row.P50 ||
			row.P50 > row.P75 || row.P75 > row.P90 || row.P90 > row.P95 {
			t.Errorf("month %d: percentile row not monotonically non-decreasing: %+v", row.Month, row)
		}
	}
}

func TestSimulateDCADeterministicGivenSeed(t *testing.T) {
	series := monthlyConstantSeries(36, 100)
	engine, err := New(series)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	seed := uint64(123)
	cfg := Config{
		MonthlyInvestment: 200,
		InvestmentMonths:  10,
		NumSimulations:    30,
		Method:            TStudent,
		Seed:              &seed,
	}

	first, err := engine.SimulateDCA(cfg)
	if err != nil {
		t.Fatalf("SimulateDCA error: %v", err)
	}
	second, err := engine.SimulateDCA(cfg)
	if err != nil {
		t.Fatalf("SimulateDCA error: %v", err)
	}

	for p, v := range first.FinalPercentiles {
		if second.FinalPercentiles[p] != v {
			t.Errorf("percentile %d not reproducible: %v vs %v", p, v, second.FinalPercentiles[p])
		}
	}
	if first.RiskMetrics != second.RiskMetrics {
		t.Errorf("risk metrics not reproducible:\n%+v\n%+v", first.RiskMetrics, second.RiskMetrics)
	}
}

func TestInvalidSimulationCount(t *testing.T) {
	engine, err := New(monthlyConstantSeries(12, 50))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if _, err := engine.SimulateDCA(Config{MonthlyInvestment: 100, InvestmentMonths: 12, NumSimulations: 0, Method: Normal}); err != ErrInvalidSimCount {
		t.Errorf("err = %v, want ErrInvalidSimCount", err)
	}
}

func TestEmptySeriesRejected(t *testing.T) {
	if _, err := New(nil); err != ErrEmptySeries {
		t.Errorf("err = %v, want ErrEmptySeries", err)
	}
}
