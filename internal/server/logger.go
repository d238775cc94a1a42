package server

import (
	"log/slog"
	"os"
)

// NewLogger returns a slog.Logger with formatting and level based on the
// environment: JSON logs at Info level in prod, text logs at Debug level
// everywhere else.
func NewLogger(env string) *slog.Logger {
	var handler slog.Handler
	if env == "prod" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.New(handler)
}
