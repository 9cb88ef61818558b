// Package logger wraps log/slog behind a small interface so services can be
// handed a logger without depending on a concrete handler.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is the structured logger every service receives
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Debug(msg string, args ...any)
	With(args ...any) Logger
}

// Format selects the handler encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Options configures a logger. The zero value writes JSON at info to stdout.
type Options struct {
	Level  string
	Format Format
	Output io.Writer
	// Service is attached to every record when set
	Service string
}

type slogLogger struct {
	*slog.Logger
}

func (l slogLogger) With(args ...any) Logger {
	return slogLogger{l.Logger.With(args...)}
}

// New creates a JSON logger on stdout at the given level
func New(level string) Logger {
	return NewWithOptions(Options{Level: level})
}

// NewWithWriter creates a JSON logger writing to w
func NewWithWriter(w io.Writer, level string) Logger {
	return NewWithOptions(Options{Level: level, Output: w})
}

// NewWithOptions builds a logger from opts
func NewWithOptions(opts Options) Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	ho := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}

	var h slog.Handler
	if Format(strings.ToLower(string(opts.Format))) == FormatText {
		h = slog.NewTextHandler(out, ho)
	} else {
		h = slog.NewJSONHandler(out, ho)
	}

	l := slog.New(h)
	if opts.Service != "" {
		l = l.With("service", opts.Service)
	}
	return slogLogger{l}
}

// ParseLevel maps debug, warn/warning and error to their slog levels.
// Anything else is info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Nop discards everything
func Nop() Logger {
	return slogLogger{slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 4}))}
}

// OrDefault returns l, or an info logger on stdout when l is nil
func OrDefault(l Logger) Logger {
	if l == nil {
		return New("info")
	}
	return l
}
