package strategy

import (
	"errors"
	"fmt"

	"github.com/evdnx/gridbt/executor"
	"github.com/evdnx/gridbt/logger"
	"github.com/evdnx/gridbt/metrics"
	"github.com/evdnx/gridbt/risk"
	"github.com/evdnx/gridbt/types"
)

// Params are the per‑run knobs of the strategy. A sweep varies the two
// thresholds and keeps the rest fixed.
type Params struct {
	BuyThreshold     float64 // RSI below this allows an entry
	SellThreshold    float64 // RSI above this forces an exit
	UseRSI           bool
	TrailingStop     bool
	RiskFraction     float64
	MaxHoldingPeriod int // bars
	LogEvery         int // bars between debug state lines, 0 = off
}

// Validate rejects parameters the state machine cannot run with.
func (p Params) Validate() error {
	if p.RiskFraction <= 0 || p.RiskFraction > 1 {
		return fmt.Errorf("risk fraction (%f) must be >0 and <=1", p.RiskFraction)
	}
	if p.MaxHoldingPeriod <= 0 {
		return errors.New("max holding period must be positive")
	}
	if p.LogEvery < 0 {
		return errors.New("log every cannot be negative")
	}
	return nil
}

// errSellNotFilled means the executor accepted a close but sold nothing.
var errSellNotFilled = errors.New("sell order not filled")

// BaseStrategy bundles the common dependencies and helpers.
type BaseStrategy struct {
	Exec   executor.Executor
	Log    logger.Logger
	Params Params
}

// NewBaseStrategy validates the parameters. Concrete strategies call this
// from their own constructors.
func NewBaseStrategy(p Params, exec executor.Executor, log logger.Logger) (*BaseStrategy, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &BaseStrategy{
		Exec:   exec,
		Log:    log,
		Params: p,
	}, nil
}

// submitOrder is a thin wrapper that records metrics and logs.
func (b *BaseStrategy) submitOrder(o types.Order, ctx string) (types.TradeRecord, error) {
	rec, err := b.Exec.Submit(o)
	if err != nil {
		b.Log.Error("order_submit_failed",
			logger.String("side", string(o.Side)),
			logger.Float64("qty", o.Qty),
			logger.Err(err),
		)
		return rec, err
	}
	if rec.Quantity <= 0 {
		return rec, nil
	}
	b.Log.Debug("order_submitted",
		logger.String("side", string(rec.Side)),
		logger.Float64("qty", rec.Quantity),
		logger.Float64("price", rec.Price),
		logger.Float64("fee", rec.Fee),
		logger.String("ctx", ctx),
	)
	metrics.OrdersSubmitted.WithLabelValues(string(rec.Side)).Inc()
	return rec, nil
}

// calcQty sizes an entry from the free quote balance.
func (b *BaseStrategy) calcQty(atr, price float64) float64 {
	quote, _ := b.Exec.Balances()
	return risk.CalcQty(atr, quote, price, b.Params.RiskFraction)
}

// closePosition sells the whole holding at the supplied price.
func (b *BaseStrategy) closePosition(ts int64, price float64, reason string) (types.TradeRecord, error) {
	_, base := b.Exec.Balances()
	if base <= 0 {
		return types.TradeRecord{}, executor.ErrNoPosition
	}
	o := types.Order{
		Timestamp: ts,
		Side:      types.Sell,
		Qty:       base,
		Price:     price,
		Comment:   reason,
	}
	rec, err := b.submitOrder(o, reason)
	if err != nil {
		return rec, err
	}
	if rec.Quantity <= 0 {
		return rec, errSellNotFilled
	}
	metrics.ExitsTotal.WithLabelValues(reason).Inc()
	return rec, nil
}
