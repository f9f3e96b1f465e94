package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var logger *slog.Logger

func init() {
	InitLogger("info")
}

// ParseLevel maps a level name to a slog level, unknown names are info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// InitLogger installs a text logger on stderr as the default slog logger.
func InitLogger(level string) {
	InitLoggerWithWriter(os.Stderr, level)
}

// InitLoggerWithWriter is InitLogger with a custom destination.
func InitLoggerWithWriter(w io.Writer, level string) {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	logger = slog.New(handler).With("service", "pkpass")
	slog.SetDefault(logger)
}

// GetLogger returns the global logger instance
func GetLogger() *slog.Logger {
	return logger
}
