package logger

import (
	"fmt"
	"io"

	"github.com/evdnx/golog"
	"go.uber.org/zap/zapcore"
)

// Field is a typed key/value pair attached to a log entry.
type Field = golog.Field

var (
	String  = golog.String
	Float64 = golog.Float64
	Int     = golog.Int
	Err     = golog.Err
)

func Int64(key string, v int64) Field { return golog.Any(key, v) }
func Bool(key string, v bool) Field   { return golog.Any(key, v) }

// Logger is the narrow logging surface used throughout the codebase.
// *golog.Logger satisfies it directly.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

var _ Logger = (*golog.Logger)(nil)

// New creates a JSON logger on stdout at the given level ("debug", "info",
// "warn", "error"). An empty level means info.
func New(level string) (*golog.Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	return golog.NewLogger(
		golog.WithStdOutProvider(golog.JSONEncoder),
		golog.WithLevel(lvl),
	)
}

// NewWriter is New with an arbitrary destination.
func NewWriter(w io.Writer, level string) (*golog.Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	return golog.NewLogger(
		golog.WithWriterProvider(w, golog.JSONEncoder),
		golog.WithLevel(lvl),
	)
}

func parseLevel(level string) (golog.Level, error) {
	if level == "" {
		return golog.InfoLevel, nil
	}
	zl, err := zapcore.ParseLevel(level)
	if err != nil {
		return 0, err
	}
	switch zl {
	case zapcore.DebugLevel:
		return golog.DebugLevel, nil
	case zapcore.InfoLevel:
		return golog.InfoLevel, nil
	case zapcore.WarnLevel:
		return golog.WarnLevel, nil
	case zapcore.ErrorLevel:
		return golog.ErrorLevel, nil
	default:
		return 0, fmt.Errorf("unsupported log level %q", level)
	}
}

type nop struct{}

func (nop) Debug(string, ...Field) {}
func (nop) Info(string, ...Field)  {}
func (nop) Warn(string, ...Field)  {}
func (nop) Error(string, ...Field) {}

// NewNop returns a logger that discards everything.
func NewNop() Logger { return nop{} }
