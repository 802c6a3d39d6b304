package logger

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/phulin/oy2-sub000/config"
)

type Logger struct {
	slog *slog.Logger
}

func NewLogger(cfg *config.Config) (*Logger, error) {
	level := slog.LevelInfo
	if cfg.LoggerMode.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.LoggerMode.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.LoggerMode.Level, err)
		}
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.LoggerMode.Development {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return &Logger{slog: slog.New(handler)}, nil
}

// base keeps the zero value usable so tests can construct bare structs.
func (l *Logger) base() *slog.Logger {
	if l.slog == nil {
		return slog.Default()
	}
	return l.slog
}

func (l *Logger) Debug(msg string, args ...any) { l.base().Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.base().Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.base().Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.base().Error(msg, args...) }

func (l *Logger) Infof(format string, args ...any) {
	l.base().Info(fmt.Sprintf(format, args...))
}

func (l *Logger) Errorf(format string, args ...any) {
	l.base().Error(fmt.Sprintf(format, args...))
}
