// Package performance turns a finished run (equity curve + fills) into the
// numbers a sweep ranks on.
package performance

import "github.com/evdnx/gridbt/types"

// Report is the aggregate of one completed run.
type Report struct {
	StartingCapital float64
	FinalBalance    float64
	ProfitPct       float64
	MaxDrawdownPct  float64
	TradesCount     int
	RoundTrips      int
	WinningTrips    int
}

// Summarize aggregates an equity curve and trade list. The final balance is
// the last curve entry; an empty curve leaves the capital untouched.
func Summarize(equity []float64, trades []types.TradeRecord, start float64) Report {
	final := start
	if len(equity) > 0 {
		final = equity[len(equity)-1]
	}
	profit := 0.0
	if start != 0 {
		profit = (final - start) / start * 100
	}
	trips, wins := roundTrips(trades)
	return Report{
		StartingCapital: start,
		FinalBalance:    final,
		ProfitPct:       profit,
		MaxDrawdownPct:  MaxDrawdown(equity),
		TradesCount:     len(trades),
		RoundTrips:      trips,
		WinningTrips:    wins,
	}
}

// MaxDrawdown returns the largest decline from the running peak, in percent.
// A new high resets the reference, so the result is always in [0, 100].
func MaxDrawdown(equity []float64) float64 {
	if len(equity) == 0 {
		return 0
	}
	peak := equity[0]
	maxDD := 0.0
	for _, x := range equity {
		if x > peak {
			peak = x
		}
		if peak <= 0 {
			continue
		}
		dd := (peak - x) / peak
		if dd > maxDD {
			maxDD = dd
		}
	}
	if maxDD > 1 {
		maxDD = 1
	}
	return maxDD * 100
}

// roundTrips pairs each SELL with the preceding BUY. A trip wins when the
// net proceeds exceed the net cost.
func roundTrips(trades []types.TradeRecord) (trips, wins int) {
	var cost float64
	open := false
	for _, t := range trades {
		switch t.Side {
		case types.Buy:
			cost = t.Quantity*t.Price + t.Fee
			open = true
		case types.Sell:
			if !open {
				continue
			}
			trips++
			if t.Quantity*t.Price-t.Fee > cost {
				wins++
			}
			open = false
		}
	}
	return trips, wins
}
