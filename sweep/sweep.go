// Package sweep runs the strategy once per (buy, sell) threshold pair and
// ranks the outcomes by return.
package sweep

import (
	"context"
	"errors"
	"fmt"

	"github.com/evdnx/gridbt/config"
	"github.com/evdnx/gridbt/logger"
	"github.com/evdnx/gridbt/metrics"
	"github.com/evdnx/gridbt/performance"
	"github.com/evdnx/gridbt/strategy"
	"github.com/evdnx/gridbt/tradelog"
	"github.com/evdnx/gridbt/types"
	"golang.org/x/sync/errgroup"
)

var (
	ErrEmptyGrid  = errors.New("empty parameter grid")
	ErrMisaligned = errors.New("bars and indicator snapshots differ in length")
)

// Point is one threshold combination.
type Point struct {
	Buy  float64
	Sell float64
}

// Grid is the Cartesian product of two half-open threshold ranges.
type Grid struct {
	Buy  config.Range
	Sell config.Range
}

// Points lists the grid with buy ascending in the outer loop and sell
// ascending in the inner loop. That order is also the tie-break order.
func (g Grid) Points() []Point {
	buys, sells := g.Buy.Values(), g.Sell.Values()
	pts := make([]Point, 0, len(buys)*len(sells))
	for _, b := range buys {
		for _, s := range sells {
			pts = append(pts, Point{Buy: b, Sell: s})
		}
	}
	return pts
}

// Driver holds the read-only inputs shared by every run of a sweep.
type Driver struct {
	bars  []types.Bar
	snaps []types.IndicatorSnapshot

	base    strategy.Params
	capital float64
	fee     float64
	workers int

	sink tradelog.Sink
	log  logger.Logger
}

// NewDriver binds the configuration to a bar series and its indicators. sink
// may be nil when no trade log is wanted.
func NewDriver(cfg config.Config, bars []types.Bar, snaps []types.IndicatorSnapshot,
	sink tradelog.Sink, log logger.Logger) (*Driver, error) {

	if len(bars) != len(snaps) {
		return nil, fmt.Errorf("%w: %d bars, %d snapshots", ErrMisaligned, len(bars), len(snaps))
	}
	if log == nil {
		log = logger.NewNop()
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	base := strategy.Params{
		UseRSI:           cfg.UseRSI,
		TrailingStop:     cfg.TrailingStop,
		RiskFraction:     cfg.RiskFraction,
		MaxHoldingPeriod: cfg.MaxHoldingPeriod,
		LogEvery:         cfg.LogEvery,
	}
	if err := base.Validate(); err != nil {
		return nil, err
	}
	return &Driver{
		bars:    bars,
		snaps:   snaps,
		base:    base,
		capital: cfg.StartingCapital,
		fee:     cfg.TradeFee,
		workers: workers,
		sink:    sink,
		log:     log,
	}, nil
}

// Run evaluates every grid point and returns the results in grid order.
// Points are independent; with more than one worker they run concurrently
// but the trade log is still written in grid order once all are done.
func (d *Driver) Run(ctx context.Context, g Grid) ([]types.SweepResult, error) {
	pts := g.Points()
	if len(pts) == 0 {
		return nil, ErrEmptyGrid
	}
	if d.sink != nil {
		if err := d.sink.Reset(); err != nil {
			return nil, fmt.Errorf("reset trade log: %w", err)
		}
	}

	results := make([]types.SweepResult, len(pts))
	if d.workers == 1 {
		for i, pt := range pts {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			res, err := d.RunPoint(pt)
			if err != nil {
				return nil, err
			}
			results[i] = res
		}
	} else {
		eg, egCtx := errgroup.WithContext(ctx)
		eg.SetLimit(d.workers)
		for i, pt := range pts {
			if egCtx.Err() != nil {
				break
			}
			eg.Go(func() error {
				res, err := d.RunPoint(pt)
				if err != nil {
					return err
				}
				results[i] = res
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	for _, res := range results {
		if d.sink != nil && len(res.Trades) > 0 {
			if err := d.sink.Append(res.Trades...); err != nil {
				return nil, fmt.Errorf("append trades (buy %.0f, sell %.0f): %w",
					res.BuyThreshold, res.SellThreshold, err)
			}
		}
		metrics.SweepPoints.Inc()
		d.log.Info("sweep_point_done",
			logger.Float64("buy", res.BuyThreshold),
			logger.Float64("sell", res.SellThreshold),
			logger.Float64("final_balance", res.FinalBalance),
			logger.Float64("profit_pct", res.ProfitPct),
			logger.Float64("max_drawdown_pct", res.MaxDrawdownPct),
			logger.Int("trades", res.TradesCount),
		)
	}

	best, _ := Best(results)
	metrics.BestReturn.Set(best.ProfitPct)
	d.log.Info("sweep_best",
		logger.Float64("buy", best.BuyThreshold),
		logger.Float64("sell", best.SellThreshold),
		logger.Float64("profit_pct", best.ProfitPct),
	)
	return results, nil
}

// RunPoint simulates a single threshold pair on a fresh account.
func (d *Driver) RunPoint(pt Point) (types.SweepResult, error) {
	p := d.base
	p.BuyThreshold = pt.Buy
	p.SellThreshold = pt.Sell

	out, err := strategy.Run(d.bars, d.snaps, p, d.capital, d.fee, d.log)
	if err != nil {
		return types.SweepResult{}, fmt.Errorf("run buy=%v sell=%v: %w", pt.Buy, pt.Sell, err)
	}
	rep := performance.Summarize(out.Equity, out.Trades, d.capital)
	return types.SweepResult{
		BuyThreshold:   pt.Buy,
		SellThreshold:  pt.Sell,
		FinalBalance:   rep.FinalBalance,
		ProfitPct:      rep.ProfitPct,
		MaxDrawdownPct: rep.MaxDrawdownPct,
		TradesCount:    rep.TradesCount,
		EquityCurve:    out.Equity,
		Trades:         out.Trades,
	}, nil
}

// Best returns the result with the highest return. Ties keep the earliest
// entry, so with grid-ordered input the lowest thresholds win.
func Best(results []types.SweepResult) (types.SweepResult, error) {
	if len(results) == 0 {
		return types.SweepResult{}, ErrEmptyGrid
	}
	best := results[0]
	for _, r := range results[1:] {
		if r.ProfitPct > best.ProfitPct {
			best = r
		}
	}
	return best, nil
}

// GridFromConfig builds the grid from the configured threshold ranges.
func GridFromConfig(cfg config.Config) Grid {
	return Grid{Buy: cfg.RSIBuy, Sell: cfg.RSISell}
}
