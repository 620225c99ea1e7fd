// Package logging configures structured logging for the whole newron
// package tree. Configure installs a process-wide slog handler once;
// individual packages obtain component loggers via For.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	mu   sync.Mutex
	root *slog.Logger
)

// Configure installs the root logger for the package tree, writing to w at
// the given level. Level accepts "debug", "info", "warn", and "error";
// anything else falls back to "info". Calling Configure again replaces the
// previous configuration.
func Configure(w io.Writer, level string) {
	if w == nil {
		w = os.Stderr
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLevel(level)})

	mu.Lock()
	defer mu.Unlock()

	root = slog.New(handler)
}

// For returns a logger for the named component. Components are labelled with
// a "component" attribute so log lines from different packages remain
// distinguishable. If Configure has not been called, the process default
// logger is used.
func For(component string) *slog.Logger {
	mu.Lock()
	defer mu.Unlock()

	if root == nil {
		return slog.Default().With("component", component)
	}

	return root.With("component", component)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
