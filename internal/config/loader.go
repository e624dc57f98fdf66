package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/Ning0612/dataexporter/internal/domain"
)

// EnvPrefix prefixes environment overrides, e.g. DATAEXPORTER_FILESYSTEM_DATA_DIR
const EnvPrefix = "DATAEXPORTER"

// DefaultConfigPaths returns the default paths to search for config files
func DefaultConfigPaths() []string {
	paths := []string{
		".",
		"./configs",
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(configDir, "dataexporter"))
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".dataexporter"))
	}

	return paths
}

// DefaultStateDir is where history and locks live when not configured
func DefaultStateDir() string {
	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, "dataexporter")
	}
	return ".dataexporter"
}

func newViper() *viper.Viper {
	v := viper.New()

	stateDir := DefaultStateDir()
	v.SetDefault("origin_server", "")
	v.SetDefault("filesystem.type", BackendLocal)
	v.SetDefault("filesystem.data_dir", "")
	v.SetDefault("filesystem.database", "")
	v.SetDefault("filesystem.etag", ETagStat)
	v.SetDefault("filesystem.etag_algorithm", "md5")
	v.SetDefault("state.data_dir", stateDir)
	v.SetDefault("lock.dir", filepath.Join(stateDir, "locks"))
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.outputs", []string{"stderr"})
	v.SetDefault("logging.file.enabled", false)
	v.SetDefault("logging.file.path", "")
	v.SetDefault("logging.file.max_size_mb", 10)
	v.SetDefault("logging.file.max_age_days", 30)
	v.SetDefault("logging.file.max_backups", 5)
	v.SetDefault("logging.redact", []string{})
	v.SetDefault("output.format", FormatJSON)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads and parses a configuration file.
// If path is empty, searches default locations for config.yaml; a missing
// default file is not an error, defaults and environment still apply.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, p := range DefaultConfigPaths() {
			v.AddConfigPath(p)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound) && path == "":
		case errors.As(err, &notFound), errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, path)
		default:
			return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
		}
	}

	return decode(v)
}

// LoadFromString parses configuration from a YAML string
func LoadFromString(yamlContent string) (*Config, error) {
	v := newViper()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(strings.NewReader(yamlContent)); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}

	cfg.Filesystem.DataDir = ExpandPath(cfg.Filesystem.DataDir)
	cfg.State.DataDir = ExpandPath(cfg.State.DataDir)
	cfg.Lock.Dir = ExpandPath(cfg.Lock.Dir)
	cfg.Output.Format = strings.ToLower(cfg.Output.Format)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
