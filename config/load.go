package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to upper‑cased keys for environment overrides,
// e.g. GRIDBT_TRADE_FEE or GRIDBT_RSI_BUY_START.
const EnvPrefix = "GRIDBT"

// Load reads the optional config file at path, applies environment overrides
// and fills unset keys from Default. An empty path reads environment only.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can see nested range keys.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("symbol", d.Symbol)
	v.SetDefault("timeframe", d.Timeframe)
	v.SetDefault("starting_capital", d.StartingCapital)
	v.SetDefault("trade_fee", d.TradeFee)
	v.SetDefault("risk_fraction", d.RiskFraction)
	v.SetDefault("max_holding_period", d.MaxHoldingPeriod)
	v.SetDefault("rsi_buy.start", d.RSIBuy.Start)
	v.SetDefault("rsi_buy.stop", d.RSIBuy.Stop)
	v.SetDefault("rsi_buy.step", d.RSIBuy.Step)
	v.SetDefault("rsi_sell.start", d.RSISell.Start)
	v.SetDefault("rsi_sell.stop", d.RSISell.Stop)
	v.SetDefault("rsi_sell.step", d.RSISell.Step)
	v.SetDefault("use_rsi", d.UseRSI)
	v.SetDefault("trailing_stop", d.TrailingStop)
	v.SetDefault("rsi_period", d.RSIPeriod)
	v.SetDefault("atr_period", d.ATRPeriod)
	v.SetDefault("macd_fast", d.MACDFast)
	v.SetDefault("macd_slow", d.MACDSlow)
	v.SetDefault("macd_signal", d.MACDSignal)
	v.SetDefault("rsi_source", d.RSISource)
	v.SetDefault("fetch_pages", d.FetchPages)
	v.SetDefault("bars_csv", d.BarsCSV)
	v.SetDefault("bars_db", d.BarsDB)
	v.SetDefault("trade_log_path", d.TradeLogPath)
	v.SetDefault("results_db", d.ResultsDB)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_every", d.LogEvery)
}
