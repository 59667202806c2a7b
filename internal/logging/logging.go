package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New returns a zerolog logger on stderr at info level.
// Stdout is reserved for agent sections.
func New() zerolog.Logger {
	return NewWithLevel("info")
}

// NewWithLevel returns a stderr logger at the given level.
// Unrecognized levels fall back to info.
func NewWithLevel(level string) zerolog.Logger {
	return NewWriter(os.Stderr, level)
}

// NewWriter returns a logger writing to w at the given level.
func NewWriter(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(w).Level(parseLevel(level)).With().Timestamp().Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	default:
		return zerolog.InfoLevel
	}
}
