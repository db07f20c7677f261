package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. JSON output so log
// shippers can index the audit fields services attach.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
