package logger_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/evdnx/gridbt/logger"
	"github.com/evdnx/gridbt/testutils"
)

func TestMockLogger(t *testing.T) {
	l := testutils.NewMockLogger()
	l.Info("hello", logger.String("k", "v"))
	if got := l.LastMessage(); got != "hello" {
		t.Fatalf("expected last message 'hello', got %q", got)
	}
	if v, ok := l.StringField("hello", "k"); !ok || v != "v" {
		t.Fatalf("expected field k=v, got %q (found=%v)", v, ok)
	}
}

func TestWriterLoggerEncodesFields(t *testing.T) {
	var buf bytes.Buffer
	l, err := logger.NewWriter(&buf, "info")
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	l.Debug("bar_state", logger.Int("bar", 3)) // below level
	l.Warn("position_closed",
		logger.String("reason", "stop_loss"),
		logger.Int64("open_time", 60000),
		logger.Bool("flat", true),
		logger.Float64("price", 94.5),
	)
	if err := l.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 entry at info level, got %d: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("entry is not JSON: %v", err)
	}
	if entry["msg"] != "position_closed" || entry["reason"] != "stop_loss" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if entry["open_time"] == nil || entry["flat"] != true || entry["price"] != 94.5 {
		t.Fatalf("typed fields lost: %v", entry)
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	if _, err := logger.New("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if _, err := logger.New("debug"); err != nil {
		t.Fatalf("debug level should be accepted: %v", err)
	}
}
