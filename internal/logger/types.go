package logger

import (
	"io"
	"strings"
)

// Logger is the logging interface used across the exporter
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	Sync() error     // flush buffered output
	Shutdown() error // flush and close owned writers
}

// Level is a log severity
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the level
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseLevel parses a string into a Level (case-insensitive).
// Unknown values fall back to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Format is the log line encoding
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// String returns the string representation of the format
func (f Format) String() string {
	if f == FormatJSON {
		return "json"
	}
	return "text"
}

// ParseFormat parses a string into a Format (case-insensitive)
func ParseFormat(s string) Format {
	if strings.ToLower(s) == "json" {
		return FormatJSON
	}
	return FormatText
}

// Output is a log destination
type Output int

const (
	OutputStdout Output = iota
	OutputStderr
	OutputFile
)

// ParseOutput parses "stdout", "stderr" or "file"
func ParseOutput(s string) (Output, bool) {
	switch strings.ToLower(s) {
	case "stdout":
		return OutputStdout, true
	case "stderr":
		return OutputStderr, true
	case "file":
		return OutputFile, true
	default:
		return OutputStdout, false
	}
}

// Config configures the global logger
type Config struct {
	Level   Level
	Format  Format
	Outputs []OutputConfig
	File    FileConfig

	// Redact lists extra regular expressions masked in every message
	Redact []string
}

// OutputConfig selects one destination
type OutputConfig struct {
	Type   Output
	Writer io.Writer // optional override, used by tests
}

// FileConfig configures the rotated log file
type FileConfig struct {
	Enabled    bool
	Path       string
	MaxSizeMB  int
	MaxAgeDays int
	MaxBackups int
	Compress   bool
}
