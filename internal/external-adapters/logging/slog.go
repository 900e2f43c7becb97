// Package logging adapts log/slog to the domain Logger port.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"github.com/ochairo/sbomrisk/internal/domain/interfaces"
)

// ParseLevel maps a level name to a slog level. Unknown names fall back to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewHandler returns a colorized tint handler writing to w
func NewHandler(w io.Writer, level slog.Leveler, noColor bool) slog.Handler {
	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		NoColor:    noColor,
	})
}

// Init installs a tint handler as the process-wide default logger
func Init(w io.Writer, level string, noColor bool) *slog.Logger {
	logger := slog.New(NewHandler(w, ParseLevel(level), noColor))
	slog.SetDefault(logger)
	return logger
}

// SlogLogger implements interfaces.Logger on top of a slog.Logger
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger wraps logger, or the default logger when nil
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogLogger{logger: logger}
}

// Debug logs debug-level messages
func (l *SlogLogger) Debug(msg string, fields ...interfaces.Field) {
	l.log(slog.LevelDebug, msg, fields)
}

// Info logs informational messages
func (l *SlogLogger) Info(msg string, fields ...interfaces.Field) {
	l.log(slog.LevelInfo, msg, fields)
}

// Warn logs warning messages
func (l *SlogLogger) Warn(msg string, fields ...interfaces.Field) {
	l.log(slog.LevelWarn, msg, fields)
}

// Error logs error messages
func (l *SlogLogger) Error(msg string, fields ...interfaces.Field) {
	l.log(slog.LevelError, msg, fields)
}

func (l *SlogLogger) log(level slog.Level, msg string, fields []interfaces.Field) {
	ctx := context.Background()
	if !l.logger.Enabled(ctx, level) {
		return
	}
	attrs := make([]slog.Attr, 0, len(fields))
	for _, f := range fields {
		attrs = append(attrs, toAttr(f))
	}
	l.logger.LogAttrs(ctx, level, msg, attrs...)
}

func toAttr(f interfaces.Field) slog.Attr {
	switch v := f.Value.(type) {
	case error:
		return tint.Err(v)
	case fmt.Stringer:
		return slog.String(f.Key, v.String())
	default:
		return slog.Any(f.Key, v)
	}
}
