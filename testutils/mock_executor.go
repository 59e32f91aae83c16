package testutils

import (
	"errors"
	"sync"

	"github.com/evdnx/gridbt/executor"
	"github.com/evdnx/gridbt/types"
)

// ErrInjected is returned by MockExecutor for sides configured to fail.
var ErrInjected = errors.New("mock executor: injected failure")

// MockExecutor fills through a PaperExecutor and captures every submitted
// order. Orders on a side marked with FailOn are rejected without touching
// the account.
type MockExecutor struct {
	mu     sync.RWMutex
	paper  *executor.PaperExecutor
	orders []types.Order
	fail   map[types.Side]bool
}

// NewMockExecutor creates a fresh account with the supplied quote balance.
func NewMockExecutor(startQuote, fee float64) *MockExecutor {
	return &MockExecutor{
		paper: executor.NewPaperExecutor(startQuote, fee),
		fail:  make(map[types.Side]bool),
	}
}

// FailOn makes every later order of the given side return ErrInjected.
func (m *MockExecutor) FailOn(side types.Side) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[side] = true
}

// Recover clears a failure set with FailOn.
func (m *MockExecutor) Recover(side types.Side) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.fail, side)
}

func (m *MockExecutor) Submit(o types.Order) (types.TradeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = append(m.orders, o)
	if m.fail[o.Side] {
		return types.TradeRecord{}, ErrInjected
	}
	return m.paper.Submit(o)
}

func (m *MockExecutor) Equity(price float64) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paper.Equity(price)
}

func (m *MockExecutor) Balances() (quote, base float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paper.Balances()
}

func (m *MockExecutor) Trades() []types.TradeRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paper.Trades()
}

// Orders returns a copy of all submitted orders, rejected ones included.
func (m *MockExecutor) Orders() []types.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.Order, len(m.orders))
	copy(out, m.orders)
	return out
}
