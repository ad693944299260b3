package metrics

import (
	"math"
	"testing"
	"time"
)

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestSharpeZeroReturnsFlat(t *testing.T) {
	returns := []float64{0, 0, 0, 0}
	if got := Sharpe(returns); got != 0 {
		t.Errorf("Sharpe(flat) = %v, want 0", got)
	}
}

func TestSharpeFewerThanTwoReturns(t *testing.T) {
	if got := Sharpe([]float64{0.01}); got != 0 {
		t.Errorf("Sharpe(single) = %v, want 0", got)
	}
	if got := Sharpe(nil); got != 0 {
		t.Errorf("Sharpe(nil) = %v, want 0", got)
	}
}

func TestVolatilityZeroForConstantReturns(t *testing.T) {
	returns := []float64{0.01, 0.01, 0.01, 0.01}
	if got := Volatility(returns); got != 0 {
		t.Errorf("Volatility(constant) = %v, want 0", got)
	}
}

func TestMaxDrawdownEmpty(t *testing.T) {
	d := MaxDrawdown(nil)
	if d.MaxDrawdown != 0 || d.DurationDays != 0 {
		t.Errorf("MaxDrawdown(empty) = %+v, want zero value", d)
	}
}

func TestMaxDrawdownSimpleDecline(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	values := []ValuePoint{
		{Date: base, Value: 100},
		{Date: base.AddDate(0, 0, 1), Value: 120},
		{Date: base.AddDate(0, 0, 2), Value: 90},
		{Date: base.AddDate(0, 0, 3), Value: 110},
	}
	d := MaxDrawdown(values)
	wantDrawdown := (90.0 - 120.0) / 120.0
	if !approxEqual(d.MaxDrawdown, wantDrawdown, 1e-9) {
		t.Errorf("MaxDrawdown = %v, want %v", d.MaxDrawdown, wantDrawdown)
	}
	if d.DurationDays != 1 {
		t.Errorf("DurationDays = %d, want 1", d.DurationDays)
	}
}

func TestMaxDrawdownNeverPositive(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	values := []ValuePoint{
		{Date: base, Value: 100},
		{Date: base.AddDate(0, 0, 1), Value: 110},
		{Date: base.AddDate(0, 0, 2), Value: 130},
	}
	d := MaxDrawdown(values)
	if d.MaxDrawdown > 0 {
		t.Errorf("MaxDrawdown = %v, should never be positive", d.MaxDrawdown)
	}
}
