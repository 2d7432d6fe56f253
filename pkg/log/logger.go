package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Level represents the severity level of a log message.
type Level int

// Log levels
const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a level name (case-insensitive). Empty input maps to
// InfoLevel.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return InfoLevel, nil
	case "debug":
		return DebugLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	default:
		return InfoLevel, &ParseError{Input: s}
	}
}

// ParseError reports an unrecognized level name.
type ParseError struct{ Input string }

func (e *ParseError) Error() string { return "unknown log level: " + e.Input }

// Format selects the output encoding.
type Format string

// Supported output formats.
const (
	TextFormat Format = "text"
	JSONFormat Format = "json"
)

// Logger is the logging facade used across the SDK and CLI.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// With returns a logger that includes fields on every entry.
	With(fields ...Field) Logger

	// WithComponent tags entries with a component name.
	WithComponent(component string) Logger

	SetLevel(level Level)
	GetLevel() Level
}

// Option configures a logger built by NewLogger.
type Option func(*options)

type options struct {
	level  Level
	format Format
	out    io.Writer
}

// WithLevel sets the minimum log level.
func WithLevel(level Level) Option {
	return func(o *options) { o.level = level }
}

// WithFormat selects text or JSON output.
func WithFormat(format Format) Option {
	return func(o *options) { o.format = format }
}

// WithOutput sets the destination writer.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

// NewLogger builds a slog-backed Logger. Defaults: InfoLevel, text format,
// stderr output.
func NewLogger(opts ...Option) Logger {
	o := options{level: InfoLevel, format: TextFormat, out: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}

	lvl := new(slog.LevelVar)
	lvl.Set(toSlogLevel(o.level))
	hopts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler
	if o.format == JSONFormat {
		h = slog.NewJSONHandler(o.out, hopts)
	} else {
		h = slog.NewTextHandler(o.out, hopts)
	}
	bl := &baseLogger{sl: slog.New(h), lvl: lvl}
	bl.level.Store(int32(o.level))
	return bl
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() Logger {
	return NewLogger(WithOutput(io.Discard), WithLevel(ErrorLevel))
}

type baseLogger struct {
	sl    *slog.Logger
	lvl   *slog.LevelVar
	level atomic.Int32
}

func (l *baseLogger) Debug(msg string, fields ...Field) { l.sl.Debug(msg, attrs(fields)...) }
func (l *baseLogger) Info(msg string, fields ...Field)  { l.sl.Info(msg, attrs(fields)...) }
func (l *baseLogger) Warn(msg string, fields ...Field)  { l.sl.Warn(msg, attrs(fields)...) }
func (l *baseLogger) Error(msg string, fields ...Field) { l.sl.Error(msg, attrs(fields)...) }

func (l *baseLogger) With(fields ...Field) Logger {
	nl := &baseLogger{sl: l.sl.With(attrs(fields)...), lvl: l.lvl}
	nl.level.Store(l.level.Load())
	return nl
}

func (l *baseLogger) WithComponent(component string) Logger {
	return l.With(Component(component))
}

func (l *baseLogger) SetLevel(level Level) {
	l.level.Store(int32(level))
	l.lvl.Set(toSlogLevel(level))
}

func (l *baseLogger) GetLevel() Level { return Level(l.level.Load()) }

func attrs(fields []Field) []any {
	if len(fields) == 0 {
		return nil
	}
	out := make([]any, len(fields))
	for i, f := range fields {
		out[i] = slog.Any(f.Key, f.Value)
	}
	return out
}

func toSlogLevel(level Level) slog.Level {
	switch level {
	case DebugLevel:
		return slog.LevelDebug
	case WarnLevel:
		return slog.LevelWarn
	case ErrorLevel:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
