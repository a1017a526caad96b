package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// New returns a structured logger writing to w. format can be "json" or "text".
func New(level, format string, w io.Writer) *slog.Logger {
	lvl := parseLevel(level)
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// Setup opens (or creates) the append-only run log under logDir and returns
// a logger that tees every line to stdout and the file. The returned closer
// releases the file handle; callers defer it. When the log directory cannot
// be created the logger degrades to stdout only.
func Setup(level, format, logDir string) (*slog.Logger, func() error) {
	noop := func() error { return nil }
	if logDir == "" {
		return New(level, format, os.Stdout), noop
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "log directory unavailable: %v\n", err)
		return New(level, format, os.Stdout), noop
	}
	path := filepath.Join(logDir, "wifidoctor.log")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "log file unavailable: %v\n", err)
		return New(level, format, os.Stdout), noop
	}
	return New(level, format, io.MultiWriter(os.Stdout, f)), f.Close
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
