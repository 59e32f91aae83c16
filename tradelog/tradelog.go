// Package tradelog persists executed fills. The simulation only ever
// appends; it never reads the log back.
package tradelog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/evdnx/gridbt/types"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

// TimeLayout is the human‑readable timestamp written for every fill (UTC).
const TimeLayout = "2006-01-02 15:04"

// Header is written once, when the log is reset at the start of a sweep.
var Header = []string{"Timestamp", "Trade_Type", "Price", "Amount"}

// Sink is the narrow append interface the sweep writes fills to.
type Sink interface {
	// Reset truncates the log and writes the header.
	Reset() error
	// Append adds rows after everything written so far.
	Append(recs ...types.TradeRecord) error
}

// CSVSink is an append‑only CSV trade log on disk.
type CSVSink struct {
	path string
	mu   sync.Mutex
}

func NewCSVSink(path string) (*CSVSink, error) {
	if path == "" {
		return nil, errors.New("empty trade log path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return &CSVSink{path: abs}, nil
}

// Path returns the absolute file location.
func (c *CSVSink) Path() string { return c.path }

func (c *CSVSink) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, err := os.Create(c.path)
	if err != nil {
		return fmt.Errorf("reset trade log: %w", err)
	}
	w := csv.NewWriter(f)
	werr := w.Write(Header)
	w.Flush()
	return multierr.Combine(werr, w.Error(), f.Close())
}

func (c *CSVSink) Append(recs ...types.TradeRecord) (err error) {
	if len(recs) == 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	f, err := os.OpenFile(c.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open trade log: %w", err)
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	w := csv.NewWriter(f)
	for _, r := range recs {
		if err := w.Write(Row(r)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// Row formats a fill the way it is persisted: timestamp, side, price with
// 2 decimals and quantity with 6 decimals.
func Row(r types.TradeRecord) []string {
	return []string{
		FormatTime(r.Timestamp),
		string(r.Side),
		FormatFixed(r.Price, 2),
		FormatFixed(r.Quantity, 6),
	}
}

// FormatFixed rounds the exact binary value of v to places decimals, ties
// to even, so 2.675 (stored as 2.67499...) renders as "2.67" and 0.125 as
// "0.12".
func FormatFixed(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strings.ToLower(strconv.FormatFloat(v, 'f', int(places), 64))
	}
	return decimal.NewFromFloatWithExponent(v, math.MinInt32).StringFixedBank(places)
}

// FormatTime renders a ms epoch timestamp with TimeLayout.
func FormatTime(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(TimeLayout)
}

// Multi fans every call out to all sinks. Errors from each sink are
// combined; a failing sink does not stop the others.
func Multi(sinks ...Sink) Sink { return multiSink(sinks) }

type multiSink []Sink

func (m multiSink) Reset() error {
	var err error
	for _, s := range m {
		err = multierr.Append(err, s.Reset())
	}
	return err
}

func (m multiSink) Append(recs ...types.TradeRecord) error {
	var err error
	for _, s := range m {
		err = multierr.Append(err, s.Append(recs...))
	}
	return err
}
