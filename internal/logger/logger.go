// Package logger provides the process-wide structured logger. Until Init
// is called every call is discarded.
package logger

import (
	"errors"
	"os"
	"sync"
)

// LegacyLoggerEnv switches Init to the plain fmt logger when set to "true"
const LegacyLoggerEnv = "DATAEXPORTER_USE_LEGACY_LOGGER"

// ErrAlreadyInitialized is returned by Init until Shutdown is called
var ErrAlreadyInitialized = errors.New("logger already initialized")

var global struct {
	sync.RWMutex
	logger Logger
}

// Init installs the logger described by config as the global logger
func Init(config Config) error {
	global.Lock()
	defer global.Unlock()

	if global.logger != nil {
		return ErrAlreadyInitialized
	}

	l, err := newLogger(config)
	if err != nil {
		return err
	}
	global.logger = l
	return nil
}

func newLogger(config Config) (Logger, error) {
	if os.Getenv(LegacyLoggerEnv) != "true" {
		return NewSlogLogger(config)
	}

	sanitizer, err := NewSanitizerWith(config.Redact)
	if err != nil {
		return nil, err
	}
	legacy := NewLegacyLogger()
	legacy.sanitizer = sanitizer
	legacy.SetLevel(config.Level)
	return legacy, nil
}

// Get returns the global logger, or a NullLogger before Init
func Get() Logger {
	global.RLock()
	defer global.RUnlock()

	if global.logger == nil {
		return &NullLogger{}
	}
	return global.logger
}

// With returns a child of the global logger carrying args
func With(args ...any) Logger {
	return Get().With(args...)
}

// Sync flushes the global logger
func Sync() error {
	return Get().Sync()
}

// Shutdown closes the global logger and returns to the NullLogger.
// It is safe to call without Init and more than once.
func Shutdown() error {
	global.Lock()
	l := global.logger
	global.logger = nil
	global.Unlock()

	if l == nil {
		return nil
	}
	return l.Shutdown()
}

// SetLevel changes the level of the legacy logger. slog handlers keep the
// level they were built with.
func SetLevel(level Level) {
	if legacy, ok := Get().(*LegacyLogger); ok {
		legacy.SetLevel(level)
	}
}

// NullLogger discards everything
type NullLogger struct{}

func (n *NullLogger) Debug(msg string, args ...any) {}
func (n *NullLogger) Info(msg string, args ...any)  {}
func (n *NullLogger) Warn(msg string, args ...any)  {}
func (n *NullLogger) Error(msg string, args ...any) {}
func (n *NullLogger) With(args ...any) Logger       { return n }
func (n *NullLogger) Sync() error                   { return nil }
func (n *NullLogger) Shutdown() error               { return nil }
