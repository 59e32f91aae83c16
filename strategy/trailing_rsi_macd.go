package strategy

import (
	"errors"

	"github.com/evdnx/gridbt/executor"
	"github.com/evdnx/gridbt/logger"
	"github.com/evdnx/gridbt/types"
)

// Stop and target distances in ATRs, fixing a 1:2 risk‑reward.
const (
	StopATRMultiple   = 3.0
	TargetATRMultiple = 6.0
)

// Exit reasons, listed in reporting priority.
const (
	ReasonRSI        = "rsi_exit"
	ReasonStopLoss   = "stop_loss"
	ReasonTakeProfit = "take_profit"
	ReasonMaxHolding = "max_holding"
)

// Position is the single open long. A nil *Position means flat.
type Position struct {
	EntryPrice float64
	EntryIndex int
	Quantity   float64
	StopLoss   float64
	TakeProfit float64
	HighWater  float64
}

// TrailingRSIMACD is a long‑only state machine: enter on oversold RSI with a
// bullish MACD, exit on overbought RSI, ATR stop (optionally trailing), ATR
// target or after a maximum number of bars.
type TrailingRSIMACD struct {
	*BaseStrategy
	pos    *Position
	index  int
	equity []float64
}

// NewTrailingRSIMACD wires the strategy to an executor that owns the account.
func NewTrailingRSIMACD(p Params, exec executor.Executor, log logger.Logger) (*TrailingRSIMACD, error) {
	base, err := NewBaseStrategy(p, exec, log)
	if err != nil {
		return nil, err
	}
	return &TrailingRSIMACD{BaseStrategy: base}, nil
}

// ProcessBar advances the state machine by one bar and records equity.
func (s *TrailingRSIMACD) ProcessBar(bar types.Bar, ind types.IndicatorSnapshot) {
	i := s.index
	s.index++
	defer s.recordEquity(bar.Close)

	if !ind.Ready() {
		return
	}
	price := bar.Close

	rsiOK := !s.Params.UseRSI || ind.RSI < s.Params.BuyThreshold
	macdOK := ind.MACD > ind.MACDSignal

	if s.Params.LogEvery > 0 && i%s.Params.LogEvery == 0 {
		s.Log.Debug("bar_state",
			logger.Int("bar", i),
			logger.Float64("price", price),
			logger.Float64("rsi", ind.RSI),
			logger.Float64("macd", ind.MACD),
			logger.Float64("signal", ind.MACDSignal),
			logger.Bool("rsi_ok", rsiOK),
			logger.Bool("flat", s.pos == nil),
			logger.Bool("macd_bullish", macdOK),
		)
	}

	if s.pos == nil {
		if rsiOK && macdOK {
			s.enter(i, bar.Timestamp, price, ind.ATR)
		}
		return
	}

	s.trail(price, ind.ATR)
	if reason := s.exitReason(i, price, ind.RSI); reason != "" {
		s.exit(bar.Timestamp, price, reason)
	}
}

func (s *TrailingRSIMACD) enter(i int, ts int64, price, atr float64) {
	qty := s.calcQty(atr, price)
	if qty <= 0 {
		return
	}
	rec, err := s.submitOrder(types.Order{
		Timestamp: ts,
		Side:      types.Buy,
		Qty:       qty,
		Price:     price,
	}, "entry")
	if err != nil || rec.Quantity <= 0 {
		return
	}
	s.pos = &Position{
		EntryPrice: price,
		EntryIndex: i,
		Quantity:   rec.Quantity,
		StopLoss:   price - StopATRMultiple*atr,
		TakeProfit: price + TargetATRMultiple*atr,
		HighWater:  price,
	}
	s.Log.Debug("position_opened",
		logger.Int64("bar_ts", ts),
		logger.Float64("price", price),
		logger.Float64("qty", rec.Quantity),
		logger.Float64("stop", s.pos.StopLoss),
		logger.Float64("target", s.pos.TakeProfit),
	)
}

// trail ratchets the stop up behind a new high. The stop never moves down.
func (s *TrailingRSIMACD) trail(price, atr float64) {
	if !s.Params.TrailingStop || price <= s.pos.HighWater {
		return
	}
	s.pos.HighWater = price
	candidate := s.pos.HighWater - StopATRMultiple*atr
	if candidate > s.pos.StopLoss {
		s.Log.Debug("trailing_stop_raised",
			logger.Float64("from", s.pos.StopLoss),
			logger.Float64("to", candidate),
		)
		s.pos.StopLoss = candidate
	}
}

// exitReason evaluates every exit condition and returns the label of the
// first true one in priority order, or "" to stay in.
func (s *TrailingRSIMACD) exitReason(i int, price, rsi float64) string {
	byRSI := s.Params.UseRSI && rsi > s.Params.SellThreshold
	byStop := price <= s.pos.StopLoss
	byTarget := price >= s.pos.TakeProfit
	byTime := i-s.pos.EntryIndex >= s.Params.MaxHoldingPeriod

	switch {
	case byRSI:
		return ReasonRSI
	case byStop:
		return ReasonStopLoss
	case byTarget:
		return ReasonTakeProfit
	case byTime:
		return ReasonMaxHolding
	}
	return ""
}

func (s *TrailingRSIMACD) exit(ts int64, price float64, reason string) {
	rec, err := s.closePosition(ts, price, reason)
	if err != nil {
		s.Log.Warn("position_close_failed", logger.String("reason", reason), logger.Err(err))
		if errors.Is(err, executor.ErrNoPosition) {
			s.pos = nil
		}
		// Otherwise holdings are untouched and the exit is retried next bar.
		return
	}
	s.Log.Debug("position_closed",
		logger.Int64("bar_ts", ts),
		logger.Float64("price", price),
		logger.Float64("qty", rec.Quantity),
		logger.String("reason", reason),
		logger.Float64("move", price-s.pos.EntryPrice),
	)
	s.pos = nil
}

func (s *TrailingRSIMACD) recordEquity(price float64) {
	s.equity = append(s.equity, s.Exec.Equity(price))
}

// Position returns a copy of the open position, if any.
func (s *TrailingRSIMACD) Position() (Position, bool) {
	if s.pos == nil {
		return Position{}, false
	}
	return *s.pos, true
}

// EquityCurve returns a copy of the per‑bar account values so far.
func (s *TrailingRSIMACD) EquityCurve() []float64 {
	out := make([]float64, len(s.equity))
	copy(out, s.equity)
	return out
}
