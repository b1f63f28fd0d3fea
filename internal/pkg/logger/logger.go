package logger

import (
	"io"
	"log/slog"
	"os"
)

// StdLogger is a lightweight implementation backed by log/slog.
type StdLogger struct {
	verbose bool
	log     *slog.Logger
}

// NewStd creates a StdLogger writing text records to stderr.
func NewStd(verbose bool) *StdLogger {
	return NewWithWriter(os.Stderr, verbose)
}

// NewWithWriter creates a StdLogger writing to w.
func NewWithWriter(w io.Writer, verbose bool) *StdLogger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return &StdLogger{verbose: verbose, log: slog.New(handler)}
}

// Verbose reports whether debug output is enabled.
func (l *StdLogger) Verbose() bool {
	return l.verbose
}

func (l *StdLogger) Debug(msg string, fields map[string]interface{}) {
	l.log.Debug(msg, attrs(fields)...)
}

func (l *StdLogger) Info(msg string, fields map[string]interface{}) {
	l.log.Info(msg, attrs(fields)...)
}

func (l *StdLogger) Warn(msg string, fields map[string]interface{}) {
	l.log.Warn(msg, attrs(fields)...)
}

func (l *StdLogger) Error(msg string, err error, fields map[string]interface{}) {
	args := attrs(fields)
	if err != nil {
		args = append(args, slog.String("error", err.Error()))
	}
	l.log.Error(msg, args...)
}

func attrs(fields map[string]interface{}) []any {
	out := make([]any, 0, len(fields))
	for k, v := range fields {
		out = append(out, slog.Any(k, v))
	}
	return out
}
