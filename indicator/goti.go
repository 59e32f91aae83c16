package indicator

import (
	"math"

	"github.com/evdnx/goti"
	"github.com/evdnx/gridbt/types"
)

// GotiRSI feeds closes through goti's RSI with the given lookback and reads
// it after every bar. goti seeds with a simple mean of the first period
// deltas, so the first value lands at index period. Bars goti rejects
// (negative or non-finite closes) and warm-up bars are NaN.
func GotiRSI(bars []types.Bar, period int) ([]float64, error) {
	rsi, err := goti.NewRelativeStrengthIndexWithParams(period, goti.DefaultConfig())
	if err != nil {
		return nil, err
	}
	out := nanSeries(len(bars))
	for i, b := range bars {
		if err := rsi.Add(b.Close); err != nil {
			continue
		}
		if v, err := rsi.Calculate(); err == nil && !math.IsInf(v, 0) {
			out[i] = v
		}
	}
	return out, nil
}
