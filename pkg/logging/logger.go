// Package logging configures zerolog for the cache and the demo server.
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
	// LevelDebug logs every cache decision.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs startup, shutdown and served requests.
	LevelInfo LogLevel = "info"

	// LevelWarn logs storage failures.
	LevelWarn LogLevel = "warn"

	// LevelError logs failed calls only.
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

	// Service, when set, is added to every entry as "service".
	Service string
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger and returns it.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out}
	}

	ctx := zerolog.New(out).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	logger := ctx.Logger()

	log.Logger = logger
	return logger
}

// ParseLevel validates a configured level name.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
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
	lvl, err := ParseLevel(string(level))
	if err != nil {
		return zerolog.InfoLevel
	}
	switch lvl {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
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
// Debug: cache decisions
//   - Hit, miss, not modified (function, key)
//   - Stored results (ttl, bytes)
//   - Skipped stores (max-age=0, no-store)
//
// Info: normal operation
//   - Server startup/shutdown
//   - Selected storage backend
//
// Warn: storage failures returned to the caller
//   - Get/save errors (op, key, error)
//   - ETag computation failures
//
// Error: failed requests and configuration problems
//   - Cached call failed (path, function)
//   - Config loading, backend connection
//
// Context Fields:
//   - component: package emitting the entry
//   - function: cached function identity
//   - key: cache key
//   - op: storage operation (get, save, clear)
//   - ttl: entry time-to-live
//   - path: request path
