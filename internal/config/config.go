package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Ning0612/dataexporter/internal/core/checksum"
	"github.com/Ning0612/dataexporter/internal/domain"
	"github.com/Ning0612/dataexporter/internal/logger"
)

// Filesystem backend types
const (
	BackendLocal  = "local"
	BackendSQLite = "sqlite"
)

// ETag modes of the local backend
const (
	ETagStat    = "stat"
	ETagContent = "content"
)

// Manifest encodings
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Config represents the complete configuration for dataexporter
type Config struct {
	// OriginServer is recorded in every manifest envelope
	OriginServer string `mapstructure:"origin_server"`

	Filesystem FilesystemConfig `mapstructure:"filesystem"`
	State      StateConfig      `mapstructure:"state"`
	Lock       LockConfig       `mapstructure:"lock"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Output     OutputConfig     `mapstructure:"output"`
}

// FilesystemConfig selects and configures the backend walked by exports
type FilesystemConfig struct {
	Type string `mapstructure:"type"`

	// DataDir is the server data directory holding <user>/files (local)
	DataDir string `mapstructure:"data_dir"`

	// Database is the file cache DSN (sqlite)
	Database string `mapstructure:"database"`

	// ETag is "stat" or "content" (local)
	ETag          string `mapstructure:"etag"`
	ETagAlgorithm string `mapstructure:"etag_algorithm"`
}

// StateConfig locates the export history database
type StateConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

// LockConfig locates per-user export lock files
type LockConfig struct {
	Dir string `mapstructure:"dir"`
}

// LoggingConfig mirrors logger.Config in config-file form
type LoggingConfig struct {
	Level   string            `mapstructure:"level"`
	Format  string            `mapstructure:"format"`
	Outputs []string          `mapstructure:"outputs"`
	File    LoggingFileConfig `mapstructure:"file"`

	// Redact holds extra regular expressions masked in log messages
	Redact []string `mapstructure:"redact"`
}

// LoggingFileConfig configures the rotated log file
type LoggingFileConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// OutputConfig holds manifest defaults
type OutputConfig struct {
	Format string `mapstructure:"format"`
}

// Validate checks if the configuration is complete and consistent
func (c *Config) Validate() error {
	switch c.Filesystem.Type {
	case BackendLocal:
		if c.Filesystem.DataDir == "" {
			return fmt.Errorf("%w: filesystem.data_dir is required for the local backend", domain.ErrConfigInvalid)
		}
		switch c.Filesystem.ETag {
		case ETagStat, ETagContent:
		default:
			return fmt.Errorf("%w: invalid filesystem.etag: %q", domain.ErrConfigInvalid, c.Filesystem.ETag)
		}
		if !checksum.IsSupported(checksum.Algorithm(c.Filesystem.ETagAlgorithm)) {
			return fmt.Errorf("%w: invalid filesystem.etag_algorithm: %q", domain.ErrConfigInvalid, c.Filesystem.ETagAlgorithm)
		}
	case BackendSQLite:
		if c.Filesystem.Database == "" {
			return fmt.Errorf("%w: filesystem.database is required for the sqlite backend", domain.ErrConfigInvalid)
		}
	case "":
		return fmt.Errorf("%w: filesystem.type cannot be empty", domain.ErrConfigInvalid)
	default:
		return fmt.Errorf("%w: %s", domain.ErrBackendNotSupported, c.Filesystem.Type)
	}

	if c.State.DataDir == "" {
		return fmt.Errorf("%w: state.data_dir cannot be empty", domain.ErrConfigInvalid)
	}
	if c.Lock.Dir == "" {
		return fmt.Errorf("%w: lock.dir cannot be empty", domain.ErrConfigInvalid)
	}

	switch strings.ToLower(c.Output.Format) {
	case FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, c.Output.Format)
	}

	for _, o := range c.Logging.Outputs {
		if _, ok := logger.ParseOutput(o); !ok {
			return fmt.Errorf("%w: invalid logging output: %q", domain.ErrConfigInvalid, o)
		}
	}
	if c.Logging.File.Enabled && c.Logging.File.Path == "" {
		return fmt.Errorf("%w: logging.file.path is required when file logging is enabled", domain.ErrConfigInvalid)
	}
	if _, err := logger.NewSanitizerWith(c.Logging.Redact); err != nil {
		return fmt.Errorf("%w: logging.redact: %v", domain.ErrConfigInvalid, err)
	}

	return nil
}

// LoggerConfig converts the logging section for logger.Init
func (c *Config) LoggerConfig() logger.Config {
	lc := logger.Config{
		Level:  logger.ParseLevel(c.Logging.Level),
		Format: logger.ParseFormat(c.Logging.Format),
		File: logger.FileConfig{
			Enabled:    c.Logging.File.Enabled,
			Path:       ExpandPath(c.Logging.File.Path),
			MaxSizeMB:  c.Logging.File.MaxSizeMB,
			MaxAgeDays: c.Logging.File.MaxAgeDays,
			MaxBackups: c.Logging.File.MaxBackups,
			Compress:   c.Logging.File.Compress,
		},
		Redact: c.Logging.Redact,
	}
	for _, o := range c.Logging.Outputs {
		if out, ok := logger.ParseOutput(o); ok {
			lc.Outputs = append(lc.Outputs, logger.OutputConfig{Type: out})
		}
	}
	if c.Logging.File.Enabled && !hasOutput(lc.Outputs, logger.OutputFile) {
		lc.Outputs = append(lc.Outputs, logger.OutputConfig{Type: logger.OutputFile})
	}
	return lc
}

func hasOutput(outputs []logger.OutputConfig, t logger.Output) bool {
	for _, o := range outputs {
		if o.Type == t {
			return true
		}
	}
	return false
}

// ExpandPath expands ~ and environment variables in a path
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			if len(path) > 1 && (path[1] == '/' || path[1] == filepath.Separator) {
				path = filepath.Join(home, path[2:])
			} else if len(path) == 1 {
				path = home
			}
		}
	}
	path = os.ExpandEnv(path)
	return filepath.Clean(path)
}
