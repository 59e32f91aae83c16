package indicator

import (
	"errors"
	"math"
	"testing"

	"github.com/evdnx/gridbt/types"
)

func ramp(n int, start, step float64) []types.Bar {
	bars := make([]types.Bar, n)
	for i := range bars {
		c := start + float64(i)*step
		bars[i] = types.Bar{
			Timestamp: int64(i+1) * 60_000,
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    1000,
		}
	}
	return bars
}

func firstDefined(xs []float64) int {
	for i, x := range xs {
		if !math.IsNaN(x) {
			return i
		}
	}
	return -1
}

func TestComputeWarmUpAlignment(t *testing.T) {
	bars := ramp(60, 100, 1)
	snaps, err := Compute(bars, Options{})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if len(snaps) != len(bars) {
		t.Fatalf("expected %d snapshots, got %d", len(bars), len(snaps))
	}

	rsi := make([]float64, len(snaps))
	atr := make([]float64, len(snaps))
	macd := make([]float64, len(snaps))
	sig := make([]float64, len(snaps))
	for i, s := range snaps {
		rsi[i], atr[i], macd[i], sig[i] = s.RSI, s.ATR, s.MACD, s.MACDSignal
	}
	if got := firstDefined(rsi); got != 13 {
		t.Fatalf("rsi should start at bar 13, got %d", got)
	}
	if got := firstDefined(atr); got != 13 {
		t.Fatalf("atr should start at bar 13, got %d", got)
	}
	if got := firstDefined(macd); got != 25 {
		t.Fatalf("macd should start at bar 25, got %d", got)
	}
	if got := firstDefined(sig); got != 33 {
		t.Fatalf("signal should start at bar 33, got %d", got)
	}
	if snaps[32].Ready() || !snaps[33].Ready() {
		t.Fatal("snapshot readiness should follow the slowest series")
	}
}

func TestRSIExtremes(t *testing.T) {
	up := RSI([]float64{1, 2, 3, 4, 5, 6}, 3)
	if !math.IsNaN(up[1]) {
		t.Fatalf("rsi should be undefined before index period-1, got %v", up[1])
	}
	if up[2] != 100 || up[5] != 100 {
		t.Fatalf("monotonic rise should give RSI 100, got %v", up)
	}
	down := RSI([]float64{6, 5, 4, 3, 2, 1}, 3)
	if down[2] != 0 || down[5] != 0 {
		t.Fatalf("monotonic fall should give RSI 0, got %v", down)
	}
}

func TestRSIExponentialSmoothing(t *testing.T) {
	// alpha 1/3, first delta counted as 0.
	// gains  0, 2, 0, 1, 0 -> avgGain 0, 2/3, 4/9, 17/27, 34/81
	// losses 0, 0, 1, 0, 2 -> avgLoss 0, 0, 1/3, 2/9, 66/81
	r := RSI([]float64{10, 12, 11, 12, 10}, 3)
	want := map[int]float64{
		2: 100 - 100/(1+4.0/3),
		3: 100 - 100/(1+17.0/6),
		4: 34,
	}
	for i, w := range want {
		if math.Abs(r[i]-w) > 1e-9 {
			t.Fatalf("rsi[%d] expected %v, got %v", i, w, r[i])
		}
	}
}

// smaSeededRSI seeds with the mean of the first period deltas and applies
// Wilder's recursion afterwards; the first value is at index period.
func smaSeededRSI(closes []float64, period int) []float64 {
	out := nanSeries(len(closes))
	var avgGain, avgLoss float64
	for i := 1; i < len(closes); i++ {
		gain, loss := split(closes[i] - closes[i-1])
		switch {
		case i < period:
			avgGain += gain
			avgLoss += loss
			continue
		case i == period:
			avgGain = (avgGain + gain) / float64(period)
			avgLoss = (avgLoss + loss) / float64(period)
		default:
			avgGain = (avgGain*float64(period-1) + gain) / float64(period)
			avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		}
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func wave(n int) []types.Bar {
	bars := make([]types.Bar, n)
	for i := range bars {
		c := 100 + 10*math.Sin(float64(i)/5)
		bars[i] = types.Bar{Timestamp: int64(i+1) * 60_000, Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1000}
	}
	return bars
}

func TestGotiRSIHonoursPeriod(t *testing.T) {
	bars := wave(80)
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	for _, period := range []int{5, 14} {
		got, err := GotiRSI(bars, period)
		if err != nil {
			t.Fatalf("period %d: %v", period, err)
		}
		if first := firstDefined(got); first != period {
			t.Fatalf("period %d: first value at %d, want %d", period, first, period)
		}
		ref := smaSeededRSI(closes, period)
		for i := period; i < len(bars); i++ {
			if math.Abs(got[i]-ref[i]) > 1e-9 {
				t.Fatalf("period %d: rsi[%d] = %v, want %v", period, i, got[i], ref[i])
			}
		}
	}

	snaps, err := Compute(bars, Options{RSIPeriod: 14, RSISource: SourceGoti})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if !math.IsNaN(snaps[13].RSI) || math.IsNaN(snaps[14].RSI) {
		t.Fatalf("goti source should start at bar 14, got %v / %v", snaps[13].RSI, snaps[14].RSI)
	}
}

func TestGotiRSISkipsRejectedCloses(t *testing.T) {
	bars := wave(20)
	bars[10].Close = math.NaN()
	got, err := GotiRSI(bars, 3)
	if err != nil {
		t.Fatalf("goti rsi: %v", err)
	}
	if !math.IsNaN(got[10]) {
		t.Fatalf("rejected close should yield NaN, got %v", got[10])
	}
	if math.IsNaN(got[11]) {
		t.Fatal("series should resume after a rejected close")
	}
}

func TestATRFlatSeriesIsZero(t *testing.T) {
	bars := make([]types.Bar, 20)
	for i := range bars {
		bars[i] = types.Bar{Timestamp: int64(i + 1), Open: 50, High: 50, Low: 50, Close: 50}
	}
	atr := ATR(bars, 14)
	if atr[19] != 0 {
		t.Fatalf("expected zero ATR for flat bars, got %v", atr[19])
	}
}

func TestATRUsesGapsAgainstPreviousClose(t *testing.T) {
	bars := []types.Bar{
		{High: 11, Low: 9, Close: 10},
		{High: 21, Low: 19, Close: 20}, // gap: TR = 21-10 = 11
	}
	atr := ATR(bars, 2)
	if math.Abs(atr[1]-(2+11)/2.0) > 1e-9 {
		t.Fatalf("unexpected ATR %v", atr[1])
	}
}

func TestComputeRejectsBadPeriods(t *testing.T) {
	_, err := Compute(ramp(40, 100, 1), Options{MACDFast: 26, MACDSlow: 12})
	if !errors.Is(err, ErrBadPeriod) {
		t.Fatalf("expected ErrBadPeriod, got %v", err)
	}
	if _, err := Compute(nil, Options{RSISource: "talib"}); err == nil {
		t.Fatal("expected error for unknown rsi source")
	}
}
