// Package logging builds the process-wide slog logger: human-readable output
// for local runs, JSON lines in release mode.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lepinkainen/humanlog"
	"github.com/mattn/go-isatty"
)

const (
	FormatHuman = "human"
	FormatJSON  = "json"
)

// New returns a logger writing to w at the given level.
func New(w io.Writer, level, format string) *slog.Logger {
	lvl := ParseLevel(level)

	var handler slog.Handler
	if strings.EqualFold(format, FormatJSON) {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	} else {
		handler = humanlog.NewHandler(w, &humanlog.Options{
			Level:        lvl,
			TimeFormat:   "15:04:05",
			DisableColor: !isTerminal(w),
		})
	}

	return slog.New(handler)
}

// Setup builds a logger and installs it as the slog default.
func Setup(w io.Writer, level, format string) *slog.Logger {
	logger := New(w, level, format)
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps a level name to slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
