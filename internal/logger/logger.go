// Package logger sets up the process-wide structured logger.
package logger

import (
	"io"
	"log/slog"
)

// ProgramLevel is the level of the logger returned by New.
var ProgramLevel = new(slog.LevelVar)

// New returns a JSON logger writing to w at Info level, or Debug when debug is set.
// It also becomes the slog default.
func New(w io.Writer, debug bool) *slog.Logger {
	SetDebug(debug)
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     ProgramLevel,
		AddSource: false,
	}))
	slog.SetDefault(logger)
	return logger
}

// SetDebug switches the level between Debug and Info.
func SetDebug(debug bool) {
	if debug {
		ProgramLevel.Set(slog.LevelDebug)
		return
	}
	ProgramLevel.Set(slog.LevelInfo)
}
