package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/polkiloo/eventreg/internal/config"
)

// New creates a preconfigured slog.Logger at info level.
func New() *slog.Logger {
	return newJSON(os.Stdout, "info")
}

// FromConfig creates a JSON logger honouring the configured level.
func FromConfig(cfg *config.Config) *slog.Logger {
	return newJSON(os.Stdout, cfg.LogLevel)
}

func newJSON(w io.Writer, level string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	return slog.New(handler)
}

// ParseLevel maps a level name to slog.Level, falling back to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
