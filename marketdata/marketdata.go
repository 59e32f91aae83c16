// Package marketdata loads OHLCV bars from the exchange, a CSV file or the
// local candle store and normalises them for the simulation.
package marketdata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/evdnx/gridbt/types"
)

var ErrNoBars = errors.New("no bars")

// LoadCSV reads timestamp,open,high,low,close[,volume] rows. A leading header
// row is skipped when its first column is not numeric.
func LoadCSV(path string) ([]types.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bars csv: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

func ReadCSV(r io.Reader) ([]types.Bar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var bars []types.Bar
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read bars csv: %w", err)
		}
		line++
		if line == 1 && !numeric(rec[0]) {
			continue
		}
		b, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("bars csv line %d: %w", line, err)
		}
		bars = append(bars, b)
	}
	return bars, nil
}

func numeric(s string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil
}

func parseRow(rec []string) (types.Bar, error) {
	if len(rec) < 5 {
		return types.Bar{}, fmt.Errorf("expected at least 5 columns, got %d", len(rec))
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(rec[0]), 10, 64)
	if err != nil {
		return types.Bar{}, fmt.Errorf("timestamp: %w", err)
	}
	var v [5]float64
	for i := 1; i < len(rec) && i <= 5; i++ {
		f, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
		if err != nil {
			return types.Bar{}, fmt.Errorf("column %d: %w", i, err)
		}
		v[i-1] = f
	}
	return types.Bar{Timestamp: ts, Open: v[0], High: v[1], Low: v[2], Close: v[3], Volume: v[4]}, nil
}

// Normalize sorts bars by open time and drops repeated timestamps, keeping
// the first occurrence. The input slice is not modified.
func Normalize(bars []types.Bar) ([]types.Bar, error) {
	if len(bars) == 0 {
		return nil, ErrNoBars
	}
	out := make([]types.Bar, len(bars))
	copy(out, bars)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })

	if out[0].Timestamp <= 0 {
		return nil, fmt.Errorf("non-positive bar timestamp %d", out[0].Timestamp)
	}
	n := 1
	for i := 1; i < len(out); i++ {
		if out[i].Timestamp == out[n-1].Timestamp {
			continue
		}
		out[n] = out[i]
		n++
	}
	return out[:n], nil
}
