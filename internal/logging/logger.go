// Package logging provides the centralized structured logger used
// throughout agentcore.
//
// Log Level Semantics:
//   - Error: unrecoverable errors and unexpected states indicating bugs
//   - Warn: recoverable issues, missing data, fallbacks
//   - Info: high-level operations (engine selection, tool registration)
//   - Debug: detailed execution trace (stream events, tool calls, raw chunks)
//
// The log level is controlled via the AGENTCORE_DEBUG environment variable
// (0=Error, 1=Warn, 2=Info, 3=Debug) or SetLogLevel for programmatic
// control. Logging is global and process-wide.
package logging

import (
	"log/slog"
	"os"
)

var (
	logLevel = new(slog.LevelVar)
	logger   *slog.Logger
)

func init() {
	logLevel.Set(parseLogLevel(os.Getenv("AGENTCORE_DEBUG")))

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	logger = slog.New(handler)
}

// Logger returns the global logger instance.
func Logger() *slog.Logger {
	return logger
}

// SetLogLevel sets the process-wide log level.
func SetLogLevel(level slog.Level) {
	logLevel.Set(level)
}

func parseLogLevel(envVal string) slog.Level {
	switch envVal {
	case "0":
		return slog.LevelError
	case "1":
		return slog.LevelWarn
	case "2":
		return slog.LevelInfo
	case "3":
		return slog.LevelDebug
	default:
		return slog.LevelWarn
	}
}
