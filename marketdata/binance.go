package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/evdnx/gridbt/logger"
	"github.com/evdnx/gridbt/types"
)

const (
	// DefaultBaseURL is the public spot REST endpoint.
	DefaultBaseURL = "https://api.binance.com"
	// PageLimit is the maximum number of klines per request.
	PageLimit = 1000
)

// BinanceClient pulls historical klines from the Binance spot REST API.
type BinanceClient struct {
	BaseURL string
	HTTP    *http.Client
	Log     logger.Logger
	// Since is the first open time requested (ms). Zero lets the exchange
	// return its most recent page.
	Since int64
}

// NewBinanceClient returns a client with sane timeouts. A nil logger is
// replaced with a no-op one.
func NewBinanceClient(log logger.Logger) *BinanceClient {
	if log == nil {
		log = logger.NewNop()
	}
	return &BinanceClient{
		BaseURL: DefaultBaseURL,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
		Log:     log,
	}
}

// FetchBars requests up to pages×PageLimit klines. Each following page
// starts 1 ms after the last open time received; a short or empty page ends
// the loop.
func (c *BinanceClient) FetchBars(ctx context.Context, symbol, interval string, pages int) ([]types.Bar, error) {
	if pages <= 0 {
		pages = 1
	}
	var out []types.Bar
	since := c.Since
	for page := 0; page < pages; page++ {
		batch, err := c.fetchPage(ctx, symbol, interval, since)
		if err != nil {
			return nil, fmt.Errorf("fetch %s %s page %d: %w", symbol, interval, page, err)
		}
		c.Log.Debug("klines_page_fetched",
			logger.String("symbol", symbol),
			logger.String("interval", interval),
			logger.Int("page", page),
			logger.Int("bars", len(batch)))
		if len(batch) == 0 {
			break
		}
		out = append(out, batch...)
		if len(batch) < PageLimit {
			break
		}
		since = batch[len(batch)-1].Timestamp + 1
	}
	return out, nil
}

func (c *BinanceClient) fetchPage(ctx context.Context, symbol, interval string, since int64) ([]types.Bar, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("limit", strconv.Itoa(PageLimit))
	if since > 0 {
		q.Set("startTime", strconv.FormatInt(since, 10))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/v3/klines?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("binance status %d: %s", resp.StatusCode, body)
	}

	var raw [][]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode klines: %w", err)
	}
	bars := make([]types.Bar, 0, len(raw))
	for i, k := range raw {
		b, err := parseKline(k)
		if err != nil {
			return nil, fmt.Errorf("kline %d: %w", i, err)
		}
		bars = append(bars, b)
	}
	return bars, nil
}

// parseKline reads [openTime, open, high, low, close, volume, ...]. Prices
// arrive as JSON strings, the open time as a number.
func parseKline(k []any) (types.Bar, error) {
	if len(k) < 6 {
		return types.Bar{}, fmt.Errorf("short kline: %d fields", len(k))
	}
	var vals [6]float64
	for i := 0; i < 6; i++ {
		v, err := toFloat(k[i])
		if err != nil {
			return types.Bar{}, fmt.Errorf("field %d: %w", i, err)
		}
		vals[i] = v
	}
	return types.Bar{
		Timestamp: int64(vals[0]),
		Open:      vals[1],
		High:      vals[2],
		Low:       vals[3],
		Close:     vals[4],
		Volume:    vals[5],
	}, nil
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case string:
		return strconv.ParseFloat(x, 64)
	case json.Number:
		return x.Float64()
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}
