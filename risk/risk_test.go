package risk

import (
	"math"
	"testing"
)

func TestCalcQtyBasic(t *testing.T) {
	qty := CalcQty(2, 100, 100, 0.03) // risk $3, SL distance $4 => 0.75
	if math.Abs(qty-0.75) > 1e-12 {
		t.Fatalf("unexpected qty: %v", qty)
	}
}

func TestCalcQtyClampsToAffordable(t *testing.T) {
	qty := CalcQty(0.01, 1000, 50, 0.03) // raw 1500 units, can afford 20
	if qty != 20 {
		t.Fatalf("expected clamp to 20, got %v", qty)
	}
}

func TestCalcQtyZeroATRDoesNotTrade(t *testing.T) {
	if qty := CalcQty(0, 100, 100, 0.03); qty != 0 {
		t.Fatalf("expected 0 for zero ATR, got %v", qty)
	}
	if qty := CalcQty(math.NaN(), 100, 100, 0.03); qty != 0 {
		t.Fatalf("expected 0 for undefined ATR, got %v", qty)
	}
}

func TestCalcQtyEmptyBalance(t *testing.T) {
	if qty := CalcQty(2, 0, 100, 0.03); qty != 0 {
		t.Fatalf("expected 0 with no balance, got %v", qty)
	}
}
