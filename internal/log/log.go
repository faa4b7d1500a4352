// Package log provides structured logging for go-disktray.
// It wraps slog with sensible defaults for production use.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger *slog.Logger
	once   sync.Once
)

// Options controls the global logger
type Options struct {
	Level string // "debug", "info", "warn", "error"

	// File, when set, receives a copy of every record and is rotated
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Init initializes the global logger with the specified level.
// Valid levels: "debug", "info", "warn", "error"
func Init(level string) {
	InitWithOptions(Options{Level: level})
}

// InitWithOptions initializes the global logger, optionally teeing into a
// rotating file. Only the first call has an effect.
func InitWithOptions(opts Options) {
	once.Do(func() {
		var out io.Writer = os.Stdout
		if opts.File != "" {
			out = io.MultiWriter(os.Stdout, rotating(opts))
		}
		logger = New(out, opts.Level)
		slog.SetDefault(logger)
	})
}

// New builds a logger writing to w. JSON in production, text otherwise.
func New(w io.Writer, level string) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{
		Level: ParseLevel(level),
	}

	// Use JSON in production, text in development
	if os.Getenv("GO_ENV") == "production" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

// ParseLevel maps a level name to a slog level, defaulting to info
func ParseLevel(level string) slog.Level {
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

func rotating(opts Options) *lumberjack.Logger {
	l := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	}
	if l.MaxSize <= 0 {
		l.MaxSize = 50
	}
	if l.MaxBackups <= 0 {
		l.MaxBackups = 5
	}
	if l.MaxAge <= 0 {
		l.MaxAge = 14
	}
	return l
}

// L returns the global logger instance.
func L() *slog.Logger {
	if logger == nil {
		Init("info")
	}
	return logger
}

// Discard returns a logger that drops everything, for tests and tools
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Debug logs at debug level.
func Debug(msg string, args ...any) {
	L().Debug(msg, args...)
}

// Info logs at info level.
func Info(msg string, args ...any) {
	L().Info(msg, args...)
}

// Warn logs at warn level.
func Warn(msg string, args ...any) {
	L().Warn(msg, args...)
}

// Error logs at error level.
func Error(msg string, args ...any) {
	L().Error(msg, args...)
}

// With returns a logger with the given attributes.
func With(args ...any) *slog.Logger {
	return L().With(args...)
}
