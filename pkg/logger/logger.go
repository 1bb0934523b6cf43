package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"pdf-to-word/internal/domain"

	"github.com/rs/zerolog"
)

// AppLogger implements the domain.Logger interface on top of zerolog
type AppLogger struct {
	zl zerolog.Logger
}

// NewLogger creates a new logger instance writing to stdout
func NewLogger(levelStr string, format string) domain.Logger {
	return NewLoggerWithWriter(levelStr, format, os.Stdout)
}

// NewLoggerWithWriter creates a logger that writes to out.
// format is "json" (default) or "console".
func NewLoggerWithWriter(levelStr string, format string, out io.Writer) domain.Logger {
	if out == nil {
		out = os.Stdout
	}
	if strings.EqualFold(format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	zl := zerolog.New(out).
		Level(parseLogLevel(levelStr)).
		With().
		Timestamp().
		Str("service", "pdf-to-word").
		Logger()

	return &AppLogger{zl: zl}
}

// Info logs an info message
func (l *AppLogger) Info(msg string, fields ...interface{}) {
	l.log(l.zl.Info(), msg, fields...)
}

// Error logs an error message
func (l *AppLogger) Error(msg string, err error, fields ...interface{}) {
	l.log(l.zl.Error().Err(err), msg, fields...)
}

// Debug logs a debug message
func (l *AppLogger) Debug(msg string, fields ...interface{}) {
	l.log(l.zl.Debug(), msg, fields...)
}

// Warn logs a warning message
func (l *AppLogger) Warn(msg string, fields ...interface{}) {
	l.log(l.zl.Warn(), msg, fields...)
}

// log attaches key/value pairs to the event and sends it.
// A disabled level yields a nil event, which zerolog treats as a no-op.
func (l *AppLogger) log(evt *zerolog.Event, msg string, fields ...interface{}) {
	if evt == nil {
		return
	}
	for i := 0; i < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		if i+1 >= len(fields) {
			evt = evt.Str(key, "(missing)")
			break
		}
		switch v := fields[i+1].(type) {
		case error:
			evt = evt.AnErr(key, v)
		case string:
			evt = evt.Str(key, v)
		case int:
			evt = evt.Int(key, v)
		case int64:
			evt = evt.Int64(key, v)
		case bool:
			evt = evt.Bool(key, v)
		case time.Duration:
			evt = evt.Dur(key, v)
		default:
			evt = evt.Interface(key, v)
		}
	}
	evt.Msg(msg)
}

// parseLogLevel converts string log level to a zerolog level
func parseLogLevel(levelStr string) zerolog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
