package logger

import (
	"io"
	"log/slog"
	"os"
)

// InitLogger initializes and configures the application logger based on environment.
// logJSON forces the JSON handler even in development.
// Returns a configured slog.Logger instance
func InitLogger(environment string, logJSON bool) *slog.Logger {
	logger := New(os.Stdout, environment, logJSON)

	// Set as default logger so it can be used throughout the application
	slog.SetDefault(logger)

	return logger
}

// New builds a logger writing to w without touching the default logger.
func New(w io.Writer, environment string, logJSON bool) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	// In development, use more verbose logging and text handler
	if environment == "development" {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	}

	if environment == "development" && !logJSON {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler)
}

// Discard returns a logger that drops every record. Used as the default
// for components constructed without a logger.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
