package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
)

var defaultLogger = slog.Default()

type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

var levels = map[LogLevel]slog.Level{
	LevelDebug: slog.LevelDebug,
	LevelInfo:  slog.LevelInfo,
	LevelWarn:  slog.LevelWarn,
	LevelError: slog.LevelError,
}

// Config is the [logging] section.
type Config struct {
	Level  LogLevel `toml:"level" validate:"required,oneof=debug info warn error"`
	Format string   `toml:"format" validate:"required,oneof=text json"`
	// AddSource adds file:line to every record.
	AddSource bool `toml:"addSource"`
}

func (c *Config) Validate() error {
	return validator.New(validator.WithRequiredStructEnabled()).Struct(c)
}

func (l LogLevel) slogLevel() slog.Level {
	if level, ok := levels[l]; ok {
		return level
	}
	return slog.LevelInfo
}

// Init replaces the process logger, writing to stdout.
func Init(config Config) {
	InitWithWriter(config, os.Stdout)
}

// InitWithWriter is Init with an explicit destination. Unknown levels log at
// info and unknown formats use the text handler.
func InitWithWriter(config Config, w io.Writer) {
	opts := &slog.HandlerOptions{Level: config.Level.slogLevel(), AddSource: config.AddSource}

	var handler slog.Handler = slog.NewTextHandler(w, opts)
	if config.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)

	if err := config.Validate(); err != nil {
		defaultLogger.Warn("Logging config is invalid, using defaults where needed", "error", err)
	}
}

func Debug(msg string, args ...any) { defaultLogger.Debug(msg, args...) }
func Info(msg string, args ...any)  { defaultLogger.Info(msg, args...) }
func Warn(msg string, args ...any)  { defaultLogger.Warn(msg, args...) }
func Error(msg string, args ...any) { defaultLogger.Error(msg, args...) }

func With(args ...any) *slog.Logger {
	return defaultLogger.With(args...)
}

// Fatal logs at error level and exits with status 1.
func Fatal(msg string, args ...any) {
	defaultLogger.Error(msg, args...)
	os.Exit(1)
}

// Request scopes a logger to one HTTP request.
func Request(requestID string) *slog.Logger {
	return defaultLogger.With("request_id", requestID)
}
