// Package logging builds the operator-facing structured logger: stdout
// plus an optional size/age-rotated file, and a sink that captures
// handler stderr without ever forwarding it to an HTTP client (spec.md
// §6, SPEC_FULL.md §4.8).
package logging

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the rotating file writer. Zero values fall back to
// sane defaults; FilePath == "" disables file output entirely.
type Options struct {
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New builds a *slog.Logger that writes to stdout and, if FilePath is set,
// also to a lumberjack-rotated file.
func New(opts Options) *slog.Logger {
	var w io.Writer = os.Stdout
	if opts.FilePath != "" {
		fileWriter := &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    orDefault(opts.MaxSizeMB, 10),
			MaxBackups: orDefault(opts.MaxBackups, 3),
			MaxAge:     orDefault(opts.MaxAgeDays, 28),
			Compress:   true,
		}
		w = io.MultiWriter(os.Stdout, fileWriter)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

// StderrSink adapts a *slog.Logger to route.StderrSink: a handler's
// captured stderr becomes a warn-level log line tagged with the route that
// produced it. It is never written to the HTTP response (spec.md §6).
type StderrSink struct {
	log *slog.Logger
}

// NewStderrSink wraps log for use as a route.StderrSink.
func NewStderrSink(log *slog.Logger) *StderrSink {
	return &StderrSink{log: log}
}

// HandlerStderr implements route.StderrSink.
func (s *StderrSink) HandlerStderr(tag string, data []byte) {
	s.log.Warn("handler stderr", "route", tag, "output", string(data))
}
