package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"blog-pulse/internal/config"
)

var (
	singleton *slog.Logger
	once      sync.Once
)

// Init initializes the singleton logger from the provided config.
// The first call wins; later calls return the same instance regardless of cfg.
func Init(cfg config.Config) (*slog.Logger, error) {
	once.Do(func() {
		singleton = New(os.Stdout, cfg)
		slog.SetDefault(singleton)
	})

	return singleton, nil
}

// New builds a logger writing to w using the level and format from cfg.
func New(w io.Writer, cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.LogLevel)}

	var handler slog.Handler
	switch strings.ToLower(cfg.LogFormat) {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler).With("service", "blog-pulse")
}

// ParseLevel maps a textual level to slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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

// L returns the singleton logger instance.
// Before Init it falls back to slog.Default so packages can log in unit tests.
func L() *slog.Logger {
	if singleton == nil {
		return slog.Default()
	}
	return singleton
}
