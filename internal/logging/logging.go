// Package logging builds the slog loggers used by both binaries.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Level represents log levels.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Format represents log output formats.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Config holds logging configuration.
type Config struct {
	Level  Level
	Format Format
	Output io.Writer
}

// DefaultConfig writes text logs at info level to stderr.
func DefaultConfig() Config {
	return Config{Level: LevelInfo, Format: FormatText, Output: os.Stderr}
}

// New creates a logger for cfg.
func New(cfg Config) *slog.Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level: ParseLevel(string(cfg.Level)),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				if t, ok := a.Value.Any().(time.Time); ok {
					return slog.String(slog.TimeKey, t.Format(time.RFC3339))
				}
			}
			return a
		},
	}

	var handler slog.Handler
	switch Format(strings.ToLower(string(cfg.Format))) {
	case FormatJSON:
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}
	return slog.New(handler)
}

// ParseLevel maps a level name to slog, defaulting to info.
func ParseLevel(name string) slog.Level {
	switch Level(strings.ToLower(strings.TrimSpace(name))) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// OpenFile opens path for appending, creating its directory. The caller must
// close the returned file.
func OpenFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return file, nil
}

// Setup opens the log file at path and returns a logger writing to it. It
// also installs the logger as the slog default.
func Setup(path string, cfg Config) (*slog.Logger, io.Closer, error) {
	file, err := OpenFile(path)
	if err != nil {
		return nil, nil, err
	}
	cfg.Output = file
	logger := New(cfg)
	slog.SetDefault(logger)
	return logger, file, nil
}
