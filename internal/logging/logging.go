// ABOUTME: Process-wide structured logger
// ABOUTME: Builds a zap logger writing to a file and optionally the console
package logging

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	sugar   *zap.SugaredLogger
	once    sync.Once
	initErr error
)

// Options configures the logger
type Options struct {
	// File receives every log line. Empty disables file logging.
	File string

	// Level is one of debug, info, warn, error
	Level string

	// Console mirrors logs to stdout. Off while the TUI owns the terminal.
	Console bool
}

// ParseLevel maps a config level name to a zap level
func ParseLevel(level string) (zapcore.Level, error) {
	var l zapcore.Level
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	if err := l.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return l, fmt.Errorf("invalid log level %q", level)
	}
	return l, nil
}

// New builds a logger for opts without touching global state
func New(opts Options) (*zap.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.Sampling = nil
	cfg.OutputPaths = nil
	cfg.ErrorOutputPaths = []string{"stderr"}

	if opts.File != "" {
		cfg.OutputPaths = append(cfg.OutputPaths, opts.File)
	}
	if opts.Console {
		cfg.OutputPaths = append(cfg.OutputPaths, "stdout")
	}
	if len(cfg.OutputPaths) == 0 {
		return zap.NewNop(), nil
	}

	return cfg.Build()
}

// Init initializes the global sugared logger and redirects the standard
// library logger to zap. Only the first call's options take effect.
func Init(opts Options) (*zap.SugaredLogger, error) {
	once.Do(func() {
		logger, err := New(opts)
		if err != nil {
			initErr = err
			return
		}
		// Redirect standard library logs into zap so all logs are unified.
		_ = zap.RedirectStdLog(logger)
		sugar = logger.Sugar()
	})
	return sugar, initErr
}

// Sync flushes buffered log entries
func Sync() {
	if sugar != nil {
		_ = sugar.Sync()
	}
}
