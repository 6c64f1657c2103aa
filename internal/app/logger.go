package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fxposquad/termbot/internal/config"
)

// NewLogger creates a *slog.Logger based on the provided LogConfig and sets
// it as the default logger via slog.SetDefault.
//
// Format "json" produces structured JSON output; "text" produces
// human-readable output with source info. Output goes to cfg.File when set
// (appended, created if missing), otherwise to os.Stderr. The returned
// closer releases the file.
func NewLogger(cfg config.LogConfig) (*slog.Logger, io.Closer, error) {
	if cfg.File == "" {
		return NewLoggerTo(cfg, os.Stderr), nopCloser{}, nil
	}

	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return NewLoggerTo(cfg, f), f, nil
}

// NewUILogger is NewLogger for the full-screen chat: without a log file the
// output is discarded so it cannot tear the terminal.
func NewUILogger(cfg config.LogConfig) (*slog.Logger, io.Closer, error) {
	if cfg.File == "" {
		return NewLoggerTo(cfg, io.Discard), nopCloser{}, nil
	}
	return NewLogger(cfg)
}

// NewLoggerTo is NewLogger writing to w.
func NewLoggerTo(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: strings.EqualFold(cfg.Format, "text"),
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
