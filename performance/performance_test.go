package performance

import (
	"math"
	"testing"

	"github.com/evdnx/gridbt/types"
)

func TestMaxDrawdownNonDecreasingIsZero(t *testing.T) {
	if dd := MaxDrawdown([]float64{100, 100, 101, 105, 105, 110}); dd != 0 {
		t.Fatalf("expected 0 drawdown, got %v", dd)
	}
}

func TestMaxDrawdownUsesRunningPeak(t *testing.T) {
	// 100 -> 80 is 20 %, then a new peak at 200 -> 150 is 25 %.
	dd := MaxDrawdown([]float64{100, 80, 120, 200, 150, 190})
	if math.Abs(dd-25) > 1e-9 {
		t.Fatalf("expected 25%%, got %v", dd)
	}
}

func TestMaxDrawdownNeverAboveFirstValue(t *testing.T) {
	dd := MaxDrawdown([]float64{100, 90, 95, 50})
	if math.Abs(dd-50) > 1e-9 {
		t.Fatalf("expected 50%%, got %v", dd)
	}
}

func TestMaxDrawdownBounds(t *testing.T) {
	for _, curve := range [][]float64{nil, {0, 0}, {100, 0}, {5, -1}} {
		dd := MaxDrawdown(curve)
		if dd < 0 || dd > 100 {
			t.Fatalf("drawdown %v out of [0,100] for %v", dd, curve)
		}
	}
}

func TestSummarize(t *testing.T) {
	trades := []types.TradeRecord{
		{Side: types.Buy, Price: 100, Quantity: 0.5, Fee: 0.05},
		{Side: types.Sell, Price: 110, Quantity: 0.5, Fee: 0.055},
		{Side: types.Buy, Price: 110, Quantity: 0.5, Fee: 0.055},
		{Side: types.Sell, Price: 100, Quantity: 0.5, Fee: 0.05},
	}
	r := Summarize([]float64{100, 104, 102, 99}, trades, 100)
	if r.FinalBalance != 99 || math.Abs(r.ProfitPct+1) > 1e-9 {
		t.Fatalf("unexpected final/profit: %+v", r)
	}
	if r.TradesCount != 4 || r.RoundTrips != 2 || r.WinningTrips != 1 {
		t.Fatalf("unexpected trade stats: %+v", r)
	}
}

func TestSummarizeEmptyCurve(t *testing.T) {
	r := Summarize(nil, nil, 100)
	if r.FinalBalance != 100 || r.ProfitPct != 0 || r.MaxDrawdownPct != 0 || r.TradesCount != 0 {
		t.Fatalf("empty run should be neutral, got %+v", r)
	}
}
