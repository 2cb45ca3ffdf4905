// Package logger provides structured logging configuration using log/slog.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// EnvLevel names the environment variable that overrides the configured level.
const EnvLevel = "TUNESTREAM_LOG_LEVEL"

// Config holds logger configuration.
type Config struct {
	Level  slog.Level
	Format string    // "text" or "json"
	Output io.Writer // defaults to os.Stderr
}

// NewLogger creates a configured slog.Logger.
func NewLogger(cfg Config) *slog.Logger {
	var handler slog.Handler

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level: cfg.Level,
		// Add a source location for debug and error levels
		AddSource: cfg.Level <= slog.LevelDebug,
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return slog.New(handler)
}

// ParseLevel maps a level name to a slog level.
// Valid values: DEBUG, INFO, WARN, WARNING, ERROR (any case).
// Unknown or empty names return fallback.
func ParseLevel(name string, fallback slog.Level) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return fallback
	}
}

// DefaultConfig returns the default logger configuration.
// The TUNESTREAM_LOG_LEVEL environment variable sets the level.
// Default: INFO
func DefaultConfig() Config {
	return Config{
		Level:  ParseLevel(os.Getenv(EnvLevel), slog.LevelInfo),
		Format: "text",
	}
}

// FromSettings builds a configuration from the config file's level and
// format. The environment variable still wins over the file.
func FromSettings(level, format string) Config {
	cfg := Config{
		Level:  ParseLevel(level, slog.LevelInfo),
		Format: format,
	}
	if env := os.Getenv(EnvLevel); env != "" {
		cfg.Level = ParseLevel(env, cfg.Level)
	}
	return cfg
}
