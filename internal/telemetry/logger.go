package telemetry

import (
	"io"
	"os"
	"sort"
	"time"

	clog "github.com/charmbracelet/log"
)

// Logger writes one JSON object per line. A nil *Logger discards everything.
type Logger struct {
	w io.WriteCloser
	l *clog.Logger
}

func NewJSONLogger(path string) (*Logger, error) {
	if path == "" {
		return newLogger(nopCloser{Writer: io.Discard}), nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return newLogger(f), nil
}

// NewWriterLogger logs to w without taking ownership of it.
func NewWriterLogger(w io.Writer) *Logger {
	return newLogger(nopCloser{Writer: w})
}

// Nop returns a logger that drops every entry.
func Nop() *Logger {
	return newLogger(nopCloser{Writer: io.Discard})
}

func newLogger(w io.WriteCloser) *Logger {
	l := clog.NewWithOptions(w, clog.Options{
		Formatter:       clog.JSONFormatter,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339Nano,
		Level:           clog.DebugLevel,
	})
	return &Logger{w: w, l: l}
}

// With returns a child logger that stamps key=value on every entry.
func (l *Logger) With(key string, value any) *Logger {
	if l == nil || l.l == nil {
		return l
	}
	return &Logger{w: nopCloser{Writer: io.Discard}, l: l.l.With(key, value)}
}

func (l *Logger) Info(msg string, fields map[string]any) {
	l.log(clog.InfoLevel, msg, fields)
}

func (l *Logger) Warn(msg string, fields map[string]any) {
	l.log(clog.WarnLevel, msg, fields)
}

func (l *Logger) Error(msg string, fields map[string]any) {
	l.log(clog.ErrorLevel, msg, fields)
}

func (l *Logger) log(level clog.Level, msg string, fields map[string]any) {
	if l == nil || l.l == nil {
		return
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	kv := make([]any, 0, len(keys)*2)
	for _, k := range keys {
		kv = append(kv, k, fields[k])
	}
	l.l.Log(level, msg, kv...)
}

// Close releases the underlying file. Children created by With share it and must not close it.
func (l *Logger) Close() error {
	if l == nil || l.w == nil {
		return nil
	}
	return l.w.Close()
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
