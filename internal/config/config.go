// Package config loads pagetrail's YAML configuration, merging file values
// over defaults. Secrets (sync tokens) are never stored here; they come from
// the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Default config file path.
const DefaultConfigPath = "~/.config/pagetrail/config.yaml"

// Config holds all pagetrail configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Capture CaptureConfig `yaml:"capture"`
	Search  SearchConfig  `yaml:"search"`
	Daemon  DaemonConfig  `yaml:"daemon"`
	Sync    SyncConfig    `yaml:"sync"`
	Logging LoggingConfig `yaml:"logging"`
}

type StorageConfig struct {
	Path       string `yaml:"path"`
	SQLiteFile string `yaml:"sqlite_file"`
}

type CaptureConfig struct {
	ExcludeIncognito bool     `yaml:"exclude_incognito"`
	ExcludedPatterns []string `yaml:"excluded_patterns"`
	DenylistDomains  []string `yaml:"denylist_domains"`
}

type SearchConfig struct {
	DebounceMillis int `yaml:"debounce_millis"`
	MaxResults     int `yaml:"max_results"`
}

type DaemonConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	AuthToken string `yaml:"auth_token"`
}

type SyncConfig struct {
	BackendURL        string `yaml:"backend_url"`
	Table             string `yaml:"table"`
	SpreadsheetSuffix string `yaml:"spreadsheet_suffix"`
	DebounceSeconds   int    `yaml:"debounce_seconds"`
	RequestsPerSecond int    `yaml:"requests_per_second"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads a YAML config file at path and merges it with defaults.
// Returns an error if the file cannot be read or contains invalid YAML.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Incognito visits are never recorded regardless of config file.
	cfg.Capture.ExcludeIncognito = true

	return cfg, nil
}

// LoadOrCreate loads the config from the default path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreate() (*Config, error) {
	path, err := expandPath(DefaultConfigPath)
	if err != nil {
		return nil, err
	}
	return LoadOrCreateAt(path)
}

// LoadOrCreateAt loads the config from the given path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreateAt(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()

		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating config directory: %w", err)
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("marshaling default config: %w", err)
		}

		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}

		return cfg, nil
	}

	return Load(path)
}

// DatabasePath returns the expanded path of the SQLite file.
func (c *Config) DatabasePath() (string, error) {
	dir, err := expandPath(c.Storage.Path)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, c.Storage.SQLiteFile), nil
}

// CompiledExclusions compiles the configured URL exclusion patterns,
// skipping any that fail to compile.
func (c *Config) CompiledExclusions() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(c.Capture.ExcludedPatterns))
	for _, p := range c.Capture.ExcludedPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			continue // skip invalid pattern
		}
		patterns = append(patterns, re)
	}
	return patterns
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}
