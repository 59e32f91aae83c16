// gridbt sweeps RSI buy/sell thresholds of the trailing-stop RSI/MACD
// strategy over historical candles and reports the best pair.
//
// Usage:
//
//	gridbt --config=gridbt.yaml
//	GRIDBT_WORKERS=4 GRIDBT_BARS_CSV=btc_15m.csv gridbt
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/evdnx/gridbt/config"
	"github.com/evdnx/gridbt/indicator"
	"github.com/evdnx/gridbt/logger"
	"github.com/evdnx/gridbt/marketdata"
	"github.com/evdnx/gridbt/store/sqlite"
	"github.com/evdnx/gridbt/sweep"
	"github.com/evdnx/gridbt/tradelog"
	"github.com/evdnx/gridbt/types"
	"github.com/google/uuid"
)

func main() {
	cfgPath := flag.String("config", "", "Path to a YAML/JSON/TOML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gridbt: %v\n", err)
		os.Exit(2)
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gridbt: logger: %v\n", err)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err = run(ctx, cfg, log, os.Stdout)
	if err != nil {
		log.Error("sweep_failed", logger.Err(err))
	}
	log.Close()
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log logger.Logger, out io.Writer) error {
	bars, err := loadBars(ctx, cfg, log)
	if err != nil {
		return err
	}
	bars, err = marketdata.Normalize(bars)
	if err != nil {
		return err
	}
	log.Info("bars_loaded",
		logger.String("symbol", cfg.Symbol),
		logger.String("timeframe", cfg.Timeframe),
		logger.Int("bars", len(bars)))

	snaps, err := indicator.Compute(bars, indicator.Options{
		RSIPeriod:  cfg.RSIPeriod,
		ATRPeriod:  cfg.ATRPeriod,
		MACDFast:   cfg.MACDFast,
		MACDSlow:   cfg.MACDSlow,
		MACDSignal: cfg.MACDSignal,
		RSISource:  cfg.RSISource,
	})
	if err != nil {
		return fmt.Errorf("indicators: %w", err)
	}

	csvSink, err := tradelog.NewCSVSink(cfg.TradeLogPath)
	if err != nil {
		return err
	}
	var sink tradelog.Sink = csvSink

	runID := uuid.NewString()
	var store *sqlite.Store
	if cfg.ResultsDB != "" {
		store, err = sqlite.Open(cfg.ResultsDB)
		if err != nil {
			return err
		}
		defer store.Close()
		sink = tradelog.Multi(csvSink, store.TradeSink(runID))
	}

	driver, err := sweep.NewDriver(cfg, bars, snaps, sink, log)
	if err != nil {
		return err
	}
	results, err := driver.Run(ctx, sweep.GridFromConfig(cfg))
	if err != nil {
		return err
	}

	if store != nil {
		if err := store.SaveResults(runID, results); err != nil {
			return err
		}
		log.Info("results_saved", logger.String("run_id", runID), logger.String("db", cfg.ResultsDB))
	}

	best, err := sweep.Best(results)
	if err != nil {
		return err
	}
	printReport(out, results, best, csvSink.Path())
	return nil
}

// loadBars picks the first configured source: CSV file, local candle store
// (filled from the exchange when empty), then the exchange directly.
func loadBars(ctx context.Context, cfg config.Config, log logger.Logger) ([]types.Bar, error) {
	if cfg.BarsCSV != "" {
		return marketdata.LoadCSV(cfg.BarsCSV)
	}

	client := marketdata.NewBinanceClient(log)
	if cfg.BarsDB == "" {
		return client.FetchBars(ctx, cfg.Symbol, cfg.Timeframe, cfg.FetchPages)
	}

	db, err := sqlite.Open(cfg.BarsDB)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	bars, err := db.Bars(cfg.Symbol, cfg.Timeframe)
	if err != nil {
		return nil, err
	}
	if len(bars) > 0 {
		return bars, nil
	}
	bars, err = client.FetchBars(ctx, cfg.Symbol, cfg.Timeframe, cfg.FetchPages)
	if err != nil {
		return nil, err
	}
	if err := db.SaveBars(cfg.Symbol, cfg.Timeframe, bars); err != nil {
		return nil, err
	}
	log.Info("bars_cached", logger.String("db", cfg.BarsDB), logger.Int("bars", len(bars)))
	return bars, nil
}

func printReport(w io.Writer, results []types.SweepResult, best types.SweepResult, tradeLog string) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "buy\tsell\tfinal\treturn %\tmax dd %\ttrades\t")
	for _, r := range results {
		fmt.Fprintf(tw, "%.0f\t%.0f\t%.2f\t%.2f\t%.2f\t%d\t\n",
			r.BuyThreshold, r.SellThreshold, r.FinalBalance, r.ProfitPct, r.MaxDrawdownPct, r.TradesCount)
	}
	tw.Flush()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Best: buy < %.0f, sell > %.0f -> %.2f%% (final %.2f, max dd %.2f%%, %d trades)\n",
		best.BuyThreshold, best.SellThreshold, best.ProfitPct, best.FinalBalance, best.MaxDrawdownPct, best.TradesCount)
	fmt.Fprintf(w, "Trades logged to %s\n", tradeLog)
}
