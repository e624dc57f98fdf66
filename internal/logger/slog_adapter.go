package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// SlogLogger writes sanitized records through log/slog.
// Only the logger returned by NewSlogLogger owns (and closes) writers;
// loggers derived with With share them.
type SlogLogger struct {
	logger    *slog.Logger
	sanitizer *Sanitizer
	writers   []io.WriteCloser
}

// NewSlogLogger builds a logger writing to every configured output
func NewSlogLogger(config Config) (*SlogLogger, error) {
	sanitizer, err := NewSanitizerWith(config.Redact)
	if err != nil {
		return nil, err
	}

	var writers []io.Writer
	var owned []io.WriteCloser

	for _, output := range config.Outputs {
		switch output.Type {
		case OutputStdout, OutputStderr:
			w := output.Writer
			if w == nil {
				w = os.Stdout
				if output.Type == OutputStderr {
					w = os.Stderr
				}
			} else if wc, ok := w.(io.WriteCloser); ok && !isStdStream(wc) {
				owned = append(owned, wc)
			}
			writers = append(writers, w)
		case OutputFile:
			if !config.File.Enabled {
				continue
			}
			fileWriter, err := createFileWriter(config.File)
			if err != nil {
				return nil, fmt.Errorf("failed to create file writer: %w", err)
			}
			writers = append(writers, fileWriter)
			owned = append(owned, fileWriter)
		}
	}

	if len(writers) == 0 {
		writers = append(writers, os.Stderr)
	}

	out := io.MultiWriter(writers...)
	opts := &slog.HandlerOptions{Level: convertLevel(config.Level)}

	var handler slog.Handler
	if config.Format == FormatJSON {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return &SlogLogger{
		logger:    slog.New(handler),
		sanitizer: sanitizer,
		writers:   owned,
	}, nil
}

func isStdStream(w io.Writer) bool {
	return w == os.Stdout || w == os.Stderr || w == os.Stdin
}

// createFileWriter returns a size-rotated file writer
func createFileWriter(config FileConfig) (io.WriteCloser, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("log file path cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	return &lumberjack.Logger{
		Filename:   config.Path,
		MaxSize:    config.MaxSizeMB,
		MaxAge:     config.MaxAgeDays,
		MaxBackups: config.MaxBackups,
		Compress:   config.Compress,
	}, nil
}

func convertLevel(level Level) slog.Level {
	switch level {
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

func (l *SlogLogger) log(level slog.Level, msg string, args []any) {
	l.logger.Log(context.Background(), level, l.sanitizer.Sanitize(msg), l.sanitizer.SanitizeArgs(args)...)
}

func (l *SlogLogger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args) }
func (l *SlogLogger) Info(msg string, args ...any)  { l.log(slog.LevelInfo, msg, args) }
func (l *SlogLogger) Warn(msg string, args ...any)  { l.log(slog.LevelWarn, msg, args) }
func (l *SlogLogger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args) }

// With returns a child logger that does not own any writer
func (l *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{
		logger:    l.logger.With(l.sanitizer.SanitizeArgs(args)...),
		sanitizer: l.sanitizer,
	}
}

// Sync is a no-op: slog writes through and lumberjack flushes on write
func (l *SlogLogger) Sync() error {
	return nil
}

// Shutdown closes the writers owned by this logger
func (l *SlogLogger) Shutdown() error {
	var lastErr error
	for _, w := range l.writers {
		if err := w.Close(); err != nil {
			lastErr = err
		}
	}
	l.writers = nil
	return lastErr
}
