package types

import "math"

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Bar is one OHLCV candle. Timestamp is the open time in ms since epoch.
type Bar struct {
	Timestamp int64
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// IndicatorSnapshot holds the indicator values aligned to a single bar.
// A NaN field means the lookback window is not filled yet.
type IndicatorSnapshot struct {
	RSI        float64
	ATR        float64
	MACD       float64
	MACDSignal float64
}

// Ready reports whether every indicator is defined for the bar.
func (s IndicatorSnapshot) Ready() bool {
	return !math.IsNaN(s.RSI) && !math.IsNaN(s.ATR) &&
		!math.IsNaN(s.MACD) && !math.IsNaN(s.MACDSignal)
}

// Undefined returns a snapshot with every field unset.
func Undefined() IndicatorSnapshot {
	nan := math.NaN()
	return IndicatorSnapshot{RSI: nan, ATR: nan, MACD: nan, MACDSignal: nan}
}

type Order struct {
	Timestamp int64
	Side      Side
	Qty       float64
	Price     float64 // fill price (bar close)
	// meta
	Comment string
}

// TradeRecord is an executed fill. Records are appended, never mutated.
type TradeRecord struct {
	Timestamp int64   `json:"timestamp"`
	Side      Side    `json:"side"`
	Price     float64 `json:"price"`
	Quantity  float64 `json:"quantity"`
	Fee       float64 `json:"fee"`
	Reason    string  `json:"reason,omitempty"`
}

// SweepResult is the scored outcome of one grid point.
type SweepResult struct {
	BuyThreshold   float64       `json:"buy_threshold"`
	SellThreshold  float64       `json:"sell_threshold"`
	FinalBalance   float64       `json:"final_balance"`
	ProfitPct      float64       `json:"profit_pct"`
	MaxDrawdownPct float64       `json:"max_drawdown_pct"`
	TradesCount    int           `json:"trades_count"`
	EquityCurve    []float64     `json:"equity_curve"`
	Trades         []TradeRecord `json:"-"`
}
