package tradelog

import (
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/evdnx/gridbt/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVSink_HeaderWrittenOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.csv")
	sink, err := NewCSVSink(path)
	require.NoError(t, err)

	require.NoError(t, sink.Reset())
	require.NoError(t, sink.Append(types.TradeRecord{Timestamp: 60_000, Side: types.Buy, Price: 100, Quantity: 0.75}))
	require.NoError(t, sink.Append(types.TradeRecord{Timestamp: 120_000, Side: types.Sell, Price: 101.456, Quantity: 0.75, Reason: "stop_loss"}))

	rows := readRows(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, []string{"1970-01-01 00:01", "BUY", "100.00", "0.750000"}, rows[1])
	assert.Equal(t, []string{"1970-01-01 00:02", "SELL", "101.46", "0.750000"}, rows[2])
}

func TestCSVSink_ResetTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.csv")
	sink, err := NewCSVSink(path)
	require.NoError(t, err)

	require.NoError(t, sink.Reset())
	require.NoError(t, sink.Append(types.TradeRecord{Timestamp: 60_000, Side: types.Buy, Price: 1, Quantity: 1}))
	require.NoError(t, sink.Reset())

	rows := readRows(t, path)
	require.Len(t, rows, 1)
	assert.Equal(t, Header, rows[0])
}

func TestCSVSink_AppendNothingIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.csv")
	sink, err := NewCSVSink(path)
	require.NoError(t, err)
	require.NoError(t, sink.Append())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "empty append must not create the file")
}

func TestNewCSVSink_EmptyPath(t *testing.T) {
	_, err := NewCSVSink("")
	assert.Error(t, err)
}

func TestFormatTime_UTC(t *testing.T) {
	// 2024-03-01 12:30:00 UTC
	assert.Equal(t, "2024-03-01 12:30", FormatTime(1709296200000))
}

func TestFormatFixed_RoundsExactBinaryValue(t *testing.T) {
	cases := []struct {
		v      float64
		places int32
		want   string
	}{
		{2.675, 2, "2.67"}, // stored as 2.67499999...
		{0.125, 2, "0.12"}, // exact tie, to even
		{0.375, 2, "0.38"},
		{101.456, 2, "101.46"},
		{-1.005, 2, "-1.00"},
		{0, 2, "0.00"},
		{0.75, 6, "0.750000"},
		{1e-7, 6, "0.000000"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, FormatFixed(c.v, c.places), "FormatFixed(%v, %d)", c.v, c.places)
	}
	assert.Equal(t, "nan", FormatFixed(math.NaN(), 2))
}

func TestCSVSink_ResetReportsWriteFailure(t *testing.T) {
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("/dev/full not available")
	}
	sink := &CSVSink{path: "/dev/full"}
	assert.Error(t, sink.Reset())

	missing, err := NewCSVSink(filepath.Join(t.TempDir(), "no", "such", "dir", "trades.csv"))
	require.NoError(t, err)
	assert.Error(t, missing.Reset())
}

type brokenSink struct{ err error }

func (b brokenSink) Reset() error                      { return b.err }
func (b brokenSink) Append(...types.TradeRecord) error { return b.err }

func TestMulti_FansOutAndCombinesErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.csv")
	csvSink, err := NewCSVSink(path)
	require.NoError(t, err)

	boom := errors.New("boom")
	m := Multi(csvSink, brokenSink{err: boom})
	assert.ErrorIs(t, m.Reset(), boom)
	assert.ErrorIs(t, m.Append(types.TradeRecord{Timestamp: 60_000, Side: types.Buy, Price: 1, Quantity: 1}), boom)

	rows := readRows(t, path)
	assert.Len(t, rows, 2, "healthy sink still receives the rows")
}
