// Package logging configures the process-wide structured logger:
// JSON records on stdout, optionally duplicated into a size-rotated
// log file.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls logger construction.
type Config struct {
	// Level is one of debug, info, warn, error
	Level string
	// FilePath enables file output when non-empty
	FilePath string
	// MaxSizeMB is the rotation threshold for the log file
	MaxSizeMB int
	// MaxBackups is the number of rotated files to keep
	MaxBackups int
	// MaxAgeDays is the retention period for rotated files
	MaxAgeDays int
}

// New builds a logger from the config. The returned cleanup closes the
// file writer when file output is enabled.
// Parameters:
//   - cfg: Logger configuration
//
// Returns:
//   - *slog.Logger: The configured logger
//   - func(): Cleanup to run at shutdown
//   - error: Any error creating the log directory
func New(cfg Config) (*slog.Logger, func(), error) {
	writers := []io.Writer{os.Stdout}
	cleanup := func() {}

	if cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
			return nil, nil, err
		}

		rotator := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    orDefault(cfg.MaxSizeMB, 20),
			MaxBackups: orDefault(cfg.MaxBackups, 5),
			MaxAge:     orDefault(cfg.MaxAgeDays, 14),
			Compress:   true,
		}
		writers = append(writers, rotator)
		cleanup = func() { rotator.Close() }
	}

	handler := slog.NewJSONHandler(io.MultiWriter(writers...), &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	})

	return slog.New(handler), cleanup, nil
}

// parseLevel maps a level name to a slog level, defaulting to info.
// Parameters:
//   - level: Level name, case-insensitive
//
// Returns:
//   - slog.Level: The resolved level
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

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
