package testutils

import (
	"sync"

	"github.com/evdnx/gridbt/types"
)

// BarAt builds a one‑minute bar with index i whose OHLC all equal close.
func BarAt(i int, close float64) types.Bar {
	return types.Bar{
		Timestamp: int64(i+1) * 60_000,
		Open:      close,
		High:      close,
		Low:       close,
		Close:     close,
		Volume:    1000,
	}
}

// FlatBars returns n bars at a constant price.
func FlatBars(n int, price float64) []types.Bar {
	bars := make([]types.Bar, n)
	for i := range bars {
		bars[i] = BarAt(i, price)
	}
	return bars
}

// Snap builds a fully defined indicator snapshot.
func Snap(rsi, atr, macd, signal float64) types.IndicatorSnapshot {
	return types.IndicatorSnapshot{RSI: rsi, ATR: atr, MACD: macd, MACDSignal: signal}
}

// RecordingSink captures every appended trade record in memory.
type RecordingSink struct {
	mu      sync.Mutex
	resets  int
	records []types.TradeRecord
}

func NewRecordingSink() *RecordingSink { return &RecordingSink{} }

func (s *RecordingSink) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets++
	s.records = nil
	return nil
}

func (s *RecordingSink) Append(recs ...types.TradeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, recs...)
	return nil
}

// Records returns a copy of everything appended since the last reset.
func (s *RecordingSink) Records() []types.TradeRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.TradeRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Resets reports how many times Reset was called.
func (s *RecordingSink) Resets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resets
}
