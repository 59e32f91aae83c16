package risk

import "math"

// StopATRMultiple is the stop distance, in ATRs, assumed when sizing.
const StopATRMultiple = 2.0

// CalcQty returns the base‑asset quantity that risks riskFrac of balance if
// price moves StopATRMultiple×atr against the position, capped at what the
// balance can buy outright. Degenerate inputs size to 0 (no trade).
func CalcQty(atr, balance, price, riskFrac float64) float64 {
	if math.IsNaN(atr) || atr <= 0 || balance <= 0 || price <= 0 || riskFrac <= 0 {
		return 0
	}
	// Dollar risk per trade
	riskAmt := balance * riskFrac
	// Stop‑loss distance in price units
	slDist := StopATRMultiple * atr
	qty := riskAmt / slDist
	return math.Min(qty, balance/price)
}
