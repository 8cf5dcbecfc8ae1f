// Package iotest provides IO helpers for tests.
package iotest

import (
	"io"
	"log/slog"
	"testing"

	"go.abhg.dev/extractview/internal/linebuf"
)

// Writer builds an io.Writer that logs each line written to it
// to the given testing.TB.
// Partial lines are flushed when the test finishes.
func Writer(t testing.TB) io.Writer {
	w := linebuf.New(func(line string) {
		t.Logf("%s", line)
	})
	t.Cleanup(w.Flush)
	return w
}

// Logger builds a debug-level logger that writes to the given testing.TB.
func Logger(t testing.TB) *slog.Logger {
	return slog.New(slog.NewTextHandler(Writer(t), &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}
