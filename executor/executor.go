package executor

import (
	"errors"

	"github.com/evdnx/gridbt/types"
)

// ErrNoPosition is returned when selling with no base‑asset holdings.
var ErrNoPosition = errors.New("paper executor: no position to sell")

type Executor interface {
	Submit(o types.Order) (types.TradeRecord, error)
	// For back‑testing we expose the account state
	Equity(price float64) float64
	Balances() (quote, base float64)
	Trades() []types.TradeRecord
}

// PaperExecutor is a single‑asset paper account: fills at the order price,
// proportional fee on both sides, no slippage. Sells always close the whole
// holding. It is owned by a single simulation run.
type PaperExecutor struct {
	fee    float64
	quote  float64
	base   float64
	trades []types.TradeRecord
}

func NewPaperExecutor(startQuote, fee float64) *PaperExecutor {
	return &PaperExecutor{
		fee:   fee,
		quote: startQuote,
	}
}

// Submit fills the order and returns the executed record. A zero‑quantity
// order or a negative price is a no‑op. A buy that would overspend (fee
// included) is reduced so that it consumes the whole quote balance. A sell
// at price 0 still closes the holding, for zero proceeds.
func (p *PaperExecutor) Submit(o types.Order) (types.TradeRecord, error) {
	if o.Qty <= 0 || o.Price < 0 {
		return types.TradeRecord{}, nil
	}
	if o.Side == types.Buy && o.Price == 0 {
		return types.TradeRecord{}, nil
	}
	var rec types.TradeRecord
	if o.Side == types.Buy {
		qty := o.Qty
		cost := qty * o.Price * (1 + p.fee)
		if cost > p.quote {
			notional := p.quote / (1 + p.fee)
			qty = notional / o.Price
			cost = p.quote
		}
		if qty <= 0 {
			return types.TradeRecord{}, nil
		}
		p.quote -= cost
		p.base += qty
		rec = types.TradeRecord{
			Timestamp: o.Timestamp,
			Side:      types.Buy,
			Price:     o.Price,
			Quantity:  qty,
			Fee:       cost - qty*o.Price,
		}
	} else {
		if p.base <= 0 {
			return types.TradeRecord{}, ErrNoPosition
		}
		qty := p.base
		gross := qty * o.Price
		fee := gross * p.fee
		p.quote += gross - fee
		p.base = 0
		rec = types.TradeRecord{
			Timestamp: o.Timestamp,
			Side:      types.Sell,
			Price:     o.Price,
			Quantity:  qty,
			Fee:       fee,
			Reason:    o.Comment,
		}
	}
	p.trades = append(p.trades, rec)
	return rec, nil
}

// Equity values the account at the given price.
func (p *PaperExecutor) Equity(price float64) float64 { return p.quote + p.base*price }

func (p *PaperExecutor) Balances() (float64, float64) { return p.quote, p.base }

// Trades returns a copy of every executed fill in order.
func (p *PaperExecutor) Trades() []types.TradeRecord {
	out := make([]types.TradeRecord, len(p.trades))
	copy(out, p.trades)
	return out
}
