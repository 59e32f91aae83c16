package config

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/multierr"
)

// Range is a half‑open numeric range [Start, Stop) walked in Step increments,
// e.g. {30, 50, 5} yields 30, 35, 40, 45.
type Range struct {
	Start float64 `mapstructure:"start"`
	Stop  float64 `mapstructure:"stop"`
	Step  float64 `mapstructure:"step"`
}

// MaxRangePoints bounds how many values a single Range may expand to.
const MaxRangePoints = 10_000

// Values expands the range in ascending order. A non‑positive step yields
// only Start when Start < Stop. Ranges with a non‑finite bound or step, or
// more than MaxRangePoints values, expand to nothing.
func (r Range) Values() []float64 {
	if !finite(r.Start) || !finite(r.Stop) || !finite(r.Step) || r.Start >= r.Stop {
		return nil
	}
	if r.Step <= 0 {
		return []float64{r.Start}
	}
	points := math.Ceil((r.Stop - r.Start) / r.Step)
	if points > MaxRangePoints {
		return nil
	}
	n := int(points)
	out := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		// Multiplying keeps 30+3*5 exact instead of accumulating rounding.
		v := r.Start + float64(i)*r.Step
		if v >= r.Stop {
			break
		}
		out = append(out, v)
	}
	return out
}

func (r Range) validate(name string) error {
	switch {
	case !finite(r.Start) || !finite(r.Stop) || !finite(r.Step):
		return fmt.Errorf("%s range %+v must have finite start, stop and step", name, r)
	case r.Start >= r.Stop:
		return fmt.Errorf("%s range %+v is empty", name, r)
	case r.Step > 0 && math.Ceil((r.Stop-r.Start)/r.Step) > MaxRangePoints:
		return fmt.Errorf("%s range %+v expands to more than %d values", name, r, MaxRangePoints)
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Config holds everything a sweep needs. It is passed explicitly to every
// component; there is no process‑wide configuration state.
type Config struct {
	Symbol    string `mapstructure:"symbol"`
	Timeframe string `mapstructure:"timeframe"`

	// Account and execution
	StartingCapital float64 `mapstructure:"starting_capital"` // quote currency, e.g. 100 USDT
	TradeFee        float64 `mapstructure:"trade_fee"`        // 0.001 = 0.1 %
	RiskFraction    float64 `mapstructure:"risk_fraction"`    // 0.03 = 3 % of balance at risk

	// Strategy
	MaxHoldingPeriod int   `mapstructure:"max_holding_period"` // bars
	RSIBuy           Range `mapstructure:"rsi_buy"`
	RSISell          Range `mapstructure:"rsi_sell"`
	UseRSI           bool  `mapstructure:"use_rsi"`
	TrailingStop     bool  `mapstructure:"trailing_stop"`

	// Indicator lookbacks (consumed by the indicator feed)
	RSIPeriod  int    `mapstructure:"rsi_period"`
	ATRPeriod  int    `mapstructure:"atr_period"`
	MACDFast   int    `mapstructure:"macd_fast"`
	MACDSlow   int    `mapstructure:"macd_slow"`
	MACDSignal int    `mapstructure:"macd_signal"`
	RSISource  string `mapstructure:"rsi_source"` // "wilder" | "goti"

	// Data and outputs
	FetchPages   int    `mapstructure:"fetch_pages"`
	BarsCSV      string `mapstructure:"bars_csv"`
	BarsDB       string `mapstructure:"bars_db"`
	TradeLogPath string `mapstructure:"trade_log_path"`
	ResultsDB    string `mapstructure:"results_db"`

	// Runtime
	Workers  int    `mapstructure:"workers"`
	LogLevel string `mapstructure:"log_level"`
	LogEvery int    `mapstructure:"log_every"` // bars between debug state lines, 0 = off
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Symbol:           "BTCUSDT",
		Timeframe:        "15m",
		StartingCapital:  100,
		TradeFee:         0.001,
		RiskFraction:     0.03,
		MaxHoldingPeriod: 20,
		RSIBuy:           Range{Start: 30, Stop: 50, Step: 5},
		RSISell:          Range{Start: 50, Stop: 75, Step: 5},
		UseRSI:           true,
		TrailingStop:     true,
		RSIPeriod:        14,
		ATRPeriod:        14,
		MACDFast:         12,
		MACDSlow:         26,
		MACDSignal:       9,
		RSISource:        "wilder",
		FetchPages:       5,
		TradeLogPath:     "trade_log.csv",
		Workers:          1,
		LogLevel:         "info",
		LogEvery:         50,
	}
}

// Validate checks that all numeric fields are within sensible bounds.
// Every violation is reported, combined into a single error.
func (c *Config) Validate() error {
	var err error
	if c.Symbol == "" {
		err = multierr.Append(err, errors.New("symbol must not be empty"))
	}
	if c.StartingCapital <= 0 {
		err = multierr.Append(err, fmt.Errorf("starting_capital (%f) must be positive", c.StartingCapital))
	}
	if c.TradeFee < 0 || c.TradeFee >= 1 {
		err = multierr.Append(err, fmt.Errorf("trade_fee (%f) must be in [0, 1)", c.TradeFee))
	}
	if c.RiskFraction <= 0 || c.RiskFraction > 1 {
		err = multierr.Append(err, fmt.Errorf("risk_fraction (%f) must be >0 and <=1", c.RiskFraction))
	}
	if c.MaxHoldingPeriod <= 0 {
		err = multierr.Append(err, errors.New("max_holding_period must be positive"))
	}
	err = multierr.Append(err, c.RSIBuy.validate("rsi_buy"))
	err = multierr.Append(err, c.RSISell.validate("rsi_sell"))
	if c.RSIPeriod <= 0 || c.ATRPeriod <= 0 {
		err = multierr.Append(err, errors.New("rsi_period and atr_period must be positive"))
	}
	if c.MACDFast <= 0 || c.MACDSignal <= 0 || c.MACDFast >= c.MACDSlow {
		err = multierr.Append(err, fmt.Errorf("macd spans %d/%d/%d invalid: need 0 < fast < slow and signal > 0",
			c.MACDFast, c.MACDSlow, c.MACDSignal))
	}
	switch c.RSISource {
	case "wilder", "goti":
	default:
		err = multierr.Append(err, fmt.Errorf("rsi_source %q must be wilder or goti", c.RSISource))
	}
	if c.Workers < 1 {
		err = multierr.Append(err, errors.New("workers must be at least 1"))
	}
	if c.LogEvery < 0 {
		err = multierr.Append(err, errors.New("log_every cannot be negative"))
	}
	return err
}
