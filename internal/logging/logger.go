// Package logging configures structured logging with log/slog.
//
// Records go to stdout and, when a log directory is configured, to a rotated
// file in that directory. The stdout handler honours the configured level;
// the file handler always records info and above.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls Setup.
type Options struct {
	Level      string // debug, info, warn, error
	Format     string // text or json
	Dir        string // empty disables file output
	FileName   string
	MaxSizeMB  int
	MaxAgeDays int
}

type contextKey string

const requestIDKey contextKey = "request_id"

// Setup builds a logger from opts and installs it as the slog default. The
// returned closer releases the log file and must be called on shutdown.
func Setup(opts Options) (*slog.Logger, io.Closer) {
	return setup(opts, os.Stdout)
}

func setup(opts Options, stdout io.Writer) (*slog.Logger, io.Closer) {
	stdoutHandler := newHandler(stdout, opts.Format, &slog.HandlerOptions{
		Level:     parseLevel(opts.Level),
		AddSource: true,
	})

	var closer io.Closer = nopCloser{}
	handler := stdoutHandler

	if opts.Dir != "" {
		file := &lumberjack.Logger{
			Filename: filepath.Join(opts.Dir, opts.FileName),
			MaxSize:  opts.MaxSizeMB,
			MaxAge:   opts.MaxAgeDays,
		}
		closer = file
		fileHandler := newHandler(file, opts.Format, &slog.HandlerOptions{Level: slog.LevelInfo})
		handler = fanout{stdoutHandler, fileHandler}
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, closer
}

func newHandler(w io.Writer, format string, opts *slog.HandlerOptions) slog.Handler {
	if strings.ToLower(format) == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// WithRequestID returns a context carrying the request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the request ID stored in ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// FromContext returns the default logger enriched with the request ID, if any.
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()
	if id := RequestID(ctx); id != "" {
		logger = logger.With("request_id", id)
	}
	return logger
}

// fanout sends each record to every handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make(fanout, len(f))
	for i, h := range f {
		handlers[i] = h.WithAttrs(attrs)
	}
	return handlers
}

func (f fanout) WithGroup(name string) slog.Handler {
	handlers := make(fanout, len(f))
	for i, h := range f {
		handlers[i] = h.WithGroup(name)
	}
	return handlers
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
