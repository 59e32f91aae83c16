package strategy

import (
	"time"

	"github.com/evdnx/gridbt/executor"
	"github.com/evdnx/gridbt/logger"
	"github.com/evdnx/gridbt/metrics"
	"github.com/evdnx/gridbt/types"
)

// Result is the raw output of one simulation.
type Result struct {
	Equity []float64
	Trades []types.TradeRecord
	// Open is the position still held after the last bar, valued at the last
	// close but not closed.
	Open *Position
}

// Run simulates one parameter set over the whole bar sequence on a fresh
// paper account. Snapshots are matched to bars by index; a missing snapshot
// counts as undefined. Only invalid parameters produce an error.
func Run(bars []types.Bar, snaps []types.IndicatorSnapshot, p Params,
	capital, fee float64, log logger.Logger) (Result, error) {

	exec := executor.NewPaperExecutor(capital, fee)
	s, err := NewTrailingRSIMACD(p, exec, log)
	if err != nil {
		return Result{}, err
	}

	start := time.Now()
	undefined := types.Undefined()
	for i, b := range bars {
		ind := undefined
		if i < len(snaps) {
			ind = snaps[i]
		}
		s.ProcessBar(b, ind)
	}
	metrics.RunDuration.Observe(time.Since(start).Seconds())

	res := Result{
		Equity: s.EquityCurve(),
		Trades: exec.Trades(),
	}
	if pos, ok := s.Position(); ok {
		res.Open = &pos
	}
	return res, nil
}
