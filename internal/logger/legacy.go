package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// LegacyLogger prints plain "[level] msg [k v ...]" lines. It is the
// fallback selected by LegacyLoggerEnv.
type LegacyLogger struct {
	mu        *sync.RWMutex
	level     *Level
	out       io.Writer
	errOut    io.Writer
	sanitizer *Sanitizer
	attrs     []any
}

// NewLegacyLogger creates a legacy logger at info level
func NewLegacyLogger() *LegacyLogger {
	level := LevelInfo
	return &LegacyLogger{
		mu:        &sync.RWMutex{},
		level:     &level,
		out:       os.Stdout,
		errOut:    os.Stderr,
		sanitizer: NewSanitizer(),
	}
}

// SetLevel sets the minimum level printed, for this logger and every
// logger derived from it
func (l *LegacyLogger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.level = level
}

func (l *LegacyLogger) print(level Level, w io.Writer, msg string, args []any) {
	l.mu.RLock()
	enabled := level >= *l.level
	l.mu.RUnlock()
	if !enabled {
		return
	}

	all := append(append([]any{}, l.attrs...), args...)
	fmt.Fprintf(w, "[%s] %s %v\n", level, l.sanitizer.Sanitize(msg), l.sanitizer.SanitizeArgs(all))
}

func (l *LegacyLogger) Debug(msg string, args ...any) { l.print(LevelDebug, l.out, msg, args) }
func (l *LegacyLogger) Info(msg string, args ...any)  { l.print(LevelInfo, l.out, msg, args) }
func (l *LegacyLogger) Warn(msg string, args ...any)  { l.print(LevelWarn, l.errOut, msg, args) }
func (l *LegacyLogger) Error(msg string, args ...any) { l.print(LevelError, l.errOut, msg, args) }

// With returns a logger printing args before the call arguments
func (l *LegacyLogger) With(args ...any) Logger {
	child := *l
	child.attrs = append(append([]any{}, l.attrs...), args...)
	return &child
}

func (l *LegacyLogger) Sync() error     { return nil }
func (l *LegacyLogger) Shutdown() error { return nil }
