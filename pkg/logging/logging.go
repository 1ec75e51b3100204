// Package logging provides the slog logger shared by every ndview package.
// Until Init is called the logger discards everything, so library callers
// stay silent unless the host application opts in.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Environment variables read by FromEnv.
const (
	EnvLevel  = "NDVIEW_LOG_LEVEL"
	EnvFormat = "NDVIEW_LOG_FORMAT"
	EnvFile   = "NDVIEW_LOG_FILE"
	EnvSource = "NDVIEW_LOG_SOURCE"
)

// Options controls logger initialization.
//   - Level: debug|info|warn|error
//   - Format: text|json
//   - File: optional path; enables a rotated JSON file sink
type Options struct {
	Level     string
	Format    string
	AddSource bool
	File      string
}

var current atomic.Pointer[slog.Logger]

func init() {
	current.Store(slog.New(slog.DiscardHandler))
}

// L returns the process logger.
func L() *slog.Logger { return current.Load() }

// Set replaces the process logger. Tests use it to capture output.
func Set(l *slog.Logger) { current.Store(l) }

// WithComponent returns the logger with the component attribute set.
func WithComponent(name string) *slog.Logger {
	return L().With(slog.String("component", name))
}

// Init configures the process logger to write to stderr and, when opts.File
// is set, to a rotated log file. The returned closer releases the file.
func Init(opts Options) io.Closer {
	return InitWriter(os.Stderr, opts)
}

// InitWriter is Init with an explicit console writer.
func InitWriter(w io.Writer, opts Options) io.Closer {
	lvl := ParseLevel(opts.Level)
	hopts := &slog.HandlerOptions{Level: lvl, AddSource: opts.AddSource}

	var console slog.Handler
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		console = slog.NewJSONHandler(w, hopts)
	} else {
		console = slog.NewTextHandler(w, hopts)
	}
	handlers := []slog.Handler{console}

	var closer io.Closer = nopCloser{}
	if f := strings.TrimSpace(opts.File); f != "" {
		rot := &lj.Logger{Filename: f, MaxSize: 10, MaxBackups: 3, MaxAge: 28, Compress: true}
		handlers = append(handlers, slog.NewJSONHandler(rot, hopts))
		closer = rot
	}

	var h slog.Handler = handlers[0]
	if len(handlers) > 1 {
		h = &multi{hs: handlers}
	}
	Set(slog.New(h).With(slog.String("app", "ndview")))
	return closer
}

// FromEnv builds Options from the NDVIEW_LOG_* variables.
func FromEnv() Options {
	src := strings.ToLower(strings.TrimSpace(os.Getenv(EnvSource)))
	return Options{
		Level:     getenv(EnvLevel, "info"),
		Format:    getenv(EnvFormat, "text"),
		AddSource: src == "1" || src == "true" || src == "yes",
		File:      os.Getenv(EnvFile),
	}
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// ParseLevel converts a level name to slog.Level; unknown names are info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// multi fans records out to several handlers.
type multi struct{ hs []slog.Handler }

func (m *multi) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.hs {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multi) Handle(ctx context.Context, r slog.Record) error {
	var first error
	for _, h := range m.hs {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m *multi) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make([]slog.Handler, len(m.hs))
	for i, h := range m.hs {
		out[i] = h.WithAttrs(attrs)
	}
	return &multi{hs: out}
}

func (m *multi) WithGroup(name string) slog.Handler {
	out := make([]slog.Handler, len(m.hs))
	for i, h := range m.hs {
		out[i] = h.WithGroup(name)
	}
	return &multi{hs: out}
}
