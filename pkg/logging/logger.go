// Package logging configures the zerolog logger shared by the BGG cache.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs cache hits and misses and everything above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs completed fetches and everything above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs retries, stale serving and degraded mappings.
	LevelWarn LogLevel = "warn"

	// LevelError logs unrecoverable upstream failures only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer

	// Service is added to every entry when set.
	Service string
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:   LevelInfo,
		Output:  os.Stderr,
		Service: "bgg-cache",
	}
}

// Setup configures the global zerolog logger and returns it.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	ctx := zerolog.New(output).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	logger := ctx.Logger()

	log.Logger = logger

	return logger
}

// ParseLevel validates a level name from configuration.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return "", fmt.Errorf("unknown log level %q", s)
	}
}

// parseLevel converts LogLevel to zerolog.Level, defaulting to info.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: cache hits and misses, batch and search pass summaries,
// rate-limit waits.
//
// Info: completed upstream fetches, cache clears, server startup/shutdown.
//
// Warn: retry attempts, stale entries served after an upstream failure,
// degraded mappings, failed batch items, skipped upstream ids.
//
// Error: upstream failures after retries with no usable fallback,
// configuration errors.
//
// Context Fields:
//   - component: emitting package (gamecache, bgg-client, ratelimit, ...)
//   - operation: upstream operation (hot, search, thing) or cache table
//   - key: game id, normalized query or "hot"
//   - attempt: 1-based attempt number for retried calls
//   - error_class: client, server, rate_limit, network, decode
//   - backoff, wait, duration: time spent waiting or fetching
