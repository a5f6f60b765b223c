// Package logging provides JSON-lines structured logging for nlfind.
// All diagnostics go to stderr so stdout stays clean for results.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Config configures the structured logger.
type Config struct {
	// Output is the writer for log output (default: os.Stderr)
	Output io.Writer

	// Level is the minimum log level (default: LevelInfo)
	Level slog.Level

	// Debug enables debug level logging (overrides Level)
	Debug bool
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() *Config {
	return &Config{
		Output: os.Stderr,
		Level:  slog.LevelWarn,
		Debug:  false,
	}
}

// New creates a new JSON-lines structured logger:
//
//	{"ts":"2024-01-15T10:30:00Z","level":"info","msg":"search completed","backend":"fd","matches":42}
//
// Log levels:
//   - debug: Verbose (enabled via NLFIND_DEBUG=1)
//   - info: Search lifecycle, provider selection
//   - warn: Non-fatal issues (backend fallback, parse retries)
//   - error: Failures surfaced to the user
func New(cfg *Config) *slog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	level := cfg.Level
	if cfg.Debug {
		level = slog.LevelDebug
	}

	// JSON handler with the timestamp key shortened to "ts"
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Key = "ts"
			}
			if a.Key == slog.MessageKey {
				a.Key = "msg"
			}
			return a
		},
	}

	handler := slog.NewJSONHandler(output, opts)
	return slog.New(handler)
}

// NewFromEnv creates a logger configured from environment variables.
// NLFIND_DEBUG=1 enables debug logging.
func NewFromEnv() *slog.Logger {
	cfg := DefaultConfig()
	if os.Getenv("NLFIND_DEBUG") == "1" {
		cfg.Debug = true
	}
	return New(cfg)
}

// LogSearch logs one completed search.
func LogSearch(logger *slog.Logger, backend string, matches, total int, elapsedMs int64, truncated bool) {
	logger.Info("search completed",
		"backend", backend,
		"matches", matches,
		"total", total,
		"elapsed_ms", elapsedMs,
		"truncated", truncated,
	)
}

// LogParseFallback logs when LLM parsing failed and the heuristic
// parser took over.
func LogParseFallback(logger *slog.Logger, provider string, err error) {
	logger.Warn("llm parse failed, using heuristic parser",
		"provider", provider,
		"error", err,
	)
}

// LogSQLiteError logs SQLite errors from the history store.
func LogSQLiteError(logger *slog.Logger, operation string, err error) {
	logger.Error("sqlite error", "operation", operation, "error", err)
}
