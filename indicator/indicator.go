// Package indicator computes the per‑bar RSI, ATR and MACD/signal values the
// strategy consumes. Every series is aligned 1:1 with the input bars; bars
// inside a lookback window carry NaN.
package indicator

import (
	"errors"
	"fmt"
	"math"

	"github.com/evdnx/gridbt/types"
)

// Supported RSI sources.
const (
	SourceWilder = "wilder"
	SourceGoti   = "goti"
)

var ErrBadPeriod = errors.New("indicator: periods must be positive and macd fast < slow")

// Options selects lookbacks. The zero value is replaced by the classic
// 14 / 14 / 12‑26‑9 setup.
type Options struct {
	RSIPeriod  int
	ATRPeriod  int
	MACDFast   int
	MACDSlow   int
	MACDSignal int
	RSISource  string
}

func (o Options) withDefaults() Options {
	if o.RSIPeriod == 0 {
		o.RSIPeriod = 14
	}
	if o.ATRPeriod == 0 {
		o.ATRPeriod = 14
	}
	if o.MACDFast == 0 {
		o.MACDFast = 12
	}
	if o.MACDSlow == 0 {
		o.MACDSlow = 26
	}
	if o.MACDSignal == 0 {
		o.MACDSignal = 9
	}
	if o.RSISource == "" {
		o.RSISource = SourceWilder
	}
	return o
}

// Compute builds the snapshot series for bars.
func Compute(bars []types.Bar, opts Options) ([]types.IndicatorSnapshot, error) {
	opts = opts.withDefaults()
	if opts.RSIPeriod < 1 || opts.ATRPeriod < 1 || opts.MACDSignal < 1 ||
		opts.MACDFast < 1 || opts.MACDFast >= opts.MACDSlow {
		return nil, ErrBadPeriod
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	var rsi []float64
	switch opts.RSISource {
	case SourceWilder:
		rsi = RSI(closes, opts.RSIPeriod)
	case SourceGoti:
		var err error
		if rsi, err = GotiRSI(bars, opts.RSIPeriod); err != nil {
			return nil, fmt.Errorf("goti rsi: %w", err)
		}
	default:
		return nil, fmt.Errorf("indicator: unknown rsi source %q", opts.RSISource)
	}
	atr := ATR(bars, opts.ATRPeriod)
	macd, signal := MACD(closes, opts.MACDFast, opts.MACDSlow, opts.MACDSignal)

	out := make([]types.IndicatorSnapshot, len(bars))
	for i := range bars {
		out[i] = types.IndicatorSnapshot{
			RSI:        rsi[i],
			ATR:        atr[i],
			MACD:       macd[i],
			MACDSignal: signal[i],
		}
	}
	return out, nil
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// RSI applies Wilder's smoothing as an exponential average with alpha
// 1/period started at the first bar, where the missing first delta counts
// as zero. The first value is reported at index period-1.
func RSI(closes []float64, period int) []float64 {
	out := nanSeries(len(closes))
	if period < 1 {
		return out
	}
	alpha := 1 / float64(period)
	var avgGain, avgLoss float64
	for i := range closes {
		var gain, loss float64
		if i > 0 {
			gain, loss = split(closes[i] - closes[i-1])
		}
		avgGain = alpha*gain + (1-alpha)*avgGain
		avgLoss = alpha*loss + (1-alpha)*avgLoss
		if i >= period-1 {
			out[i] = rsiValue(avgGain, avgLoss)
		}
	}
	return out
}

func split(delta float64) (gain, loss float64) {
	if delta > 0 {
		return delta, 0
	}
	return 0, -delta
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// ATR is Wilder's average true range. The first value (index period‑1) is
// the mean of the first period true ranges.
func ATR(bars []types.Bar, period int) []float64 {
	out := nanSeries(len(bars))
	if period < 1 || len(bars) < period {
		return out
	}
	tr := make([]float64, len(bars))
	for i, b := range bars {
		tr[i] = b.High - b.Low
		if i > 0 {
			prev := bars[i-1].Close
			tr[i] = math.Max(tr[i], math.Max(math.Abs(b.High-prev), math.Abs(b.Low-prev)))
		}
	}
	var sum float64
	for i := 0; i < period; i++ {
		sum += tr[i]
	}
	p := float64(period)
	atr := sum / p
	out[period-1] = atr
	for i := period; i < len(bars); i++ {
		atr = (atr*(p-1) + tr[i]) / p
		out[i] = atr
	}
	return out
}

// EMA is a recursive exponential average seeded with the first defined
// value. Leading NaNs are skipped; the first span‑1 defined values are
// reported as NaN.
func EMA(series []float64, span int) []float64 {
	out := nanSeries(len(series))
	if span < 1 {
		return out
	}
	k := 2.0 / (float64(span) + 1.0)
	seen := 0
	var cur float64
	for i, v := range series {
		if math.IsNaN(v) {
			continue
		}
		if seen == 0 {
			cur = v
		} else {
			cur = v*k + cur*(1-k)
		}
		seen++
		if seen >= span {
			out[i] = cur
		}
	}
	return out
}

// MACD returns the fast‑minus‑slow EMA line and its signal EMA.
func MACD(closes []float64, fast, slow, signal int) (line, sig []float64) {
	f := EMA(closes, fast)
	s := EMA(closes, slow)
	line = nanSeries(len(closes))
	for i := range closes {
		if !math.IsNaN(f[i]) && !math.IsNaN(s[i]) {
			line[i] = f[i] - s[i]
		}
	}
	return line, EMA(line, signal)
}
