package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// New creates a text slog.Logger writing to w at the given level.
func New(w io.Writer, level string) *slog.Logger {
	if w == nil {
		return slog.New(slog.DiscardHandler)
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: LevelFromString(level),
	})
	return slog.New(handler)
}

// Open appends to path, creating parent directories. An empty path discards.
// The returned closer is always safe to call.
func Open(path, level string) (*slog.Logger, func() error, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return New(nil, level), func() error { return nil }, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, err
	}
	return New(f, level), f.Close, nil
}

// DefaultPath is $XDG_STATE_HOME/rewriter/rewriter.log, falling back to
// ~/.local/state. It returns "" when no home directory is known.
func DefaultPath() string {
	if v := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); v != "" {
		return filepath.Join(v, "rewriter", "rewriter.log")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "rewriter", "rewriter.log")
}

func LevelFromString(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "error":
		return slog.LevelError
	case "warn", "warning":
		return slog.LevelWarn
	case "debug":
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
