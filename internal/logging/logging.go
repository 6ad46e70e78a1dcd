// Package logging provides structured logging setup for homenest.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Setup initializes the default slog logger on stderr, keeping stdout for
// command output. Verbose mode uses human-readable text at debug level;
// otherwise warnings and errors are logged as JSON.
func Setup(verbose bool) {
	slog.SetDefault(New(os.Stderr, verbose))
}

// New builds a logger writing to w.
func New(w io.Writer, verbose bool) *slog.Logger {
	if verbose {
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelWarn}))
}
