// Package log configures zerolog for the benchmarking engine. Every
// component logs through a child logger carrying a "component" field so a
// run can be traced across the orchestrator, registry and storage layers.
package log

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var root = zerolog.New(os.Stderr).With().Timestamp().Logger()

// Setup initialises the root logger with the given level and output writer.
// Unknown levels fall back to info.
func Setup(level string, w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	zerolog.TimeFieldFormat = time.RFC3339
	root = zerolog.New(w).Level(ToLevel(level)).With().Timestamp().Logger()
}

// ToLevel converts a level string to a zerolog level.
func ToLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// With returns a child logger tagged with the given component name.
func With(component string) zerolog.Logger {
	return root.With().Str("component", component).Logger()
}

// Root returns the root logger.
func Root() zerolog.Logger {
	return root
}
