package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidBackend indicates an unknown store backend.
	ErrInvalidBackend = errors.New("invalid store backend")
	// ErrInvalidLogLevel indicates an unknown log level.
	ErrInvalidLogLevel = errors.New("invalid log level")
)

// StoreBackend selects the profile store implementation.
type StoreBackend string

const (
	// BackendFile stores profiles as files in a directory.
	BackendFile StoreBackend = "file"
	// BackendKeyring stores profiles in the OS keyring.
	BackendKeyring StoreBackend = "keyring"
	// BackendMemory keeps profiles in memory for the lifetime of the process.
	BackendMemory StoreBackend = "memory"
)

// StoreConfig holds profile store settings.
type StoreConfig struct {
	// Backend is the store implementation (file, keyring, memory).
	Backend StoreBackend `yaml:"backend,omitempty"`
	// Dir is the directory of the file backend.
	Dir string `yaml:"dir,omitempty"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the logging level (debug, info, warn, error).
	Level string `yaml:"level,omitempty"`
	// JSON enables JSON-formatted logging.
	JSON bool `yaml:"json,omitempty"`
	// File is the path of the log file; empty logs to stderr.
	File string `yaml:"file,omitempty"`
	// MaxSize is the maximum log file size in MB before rotation.
	MaxSize int `yaml:"max_size,omitempty"`
}

// NotificationConfig holds settings for desktop notifications.
type NotificationConfig struct {
	// Enabled enables desktop notifications.
	Enabled bool `yaml:"enabled,omitempty"`
	// OnSizeAdvisory notifies when a loaded configuration is unusually large.
	OnSizeAdvisory bool `yaml:"on_size_advisory,omitempty"`
}

// Config represents the skiff configuration.
type Config struct {
	// Selected is the id of the profile the tunnel runtime is using.
	Selected string `yaml:"selected,omitempty"`
	// Store holds profile store settings.
	Store StoreConfig `yaml:"store,omitempty"`
	// Log holds logging settings.
	Log LogConfig `yaml:"log,omitempty"`
	// Notifications holds notification settings.
	Notifications NotificationConfig `yaml:"notifications,omitempty"`

	// filePath is the path where this config was loaded from.
	filePath string `yaml:"-"`
}

// Default returns a new Config with default values.
func Default() *Config {
	paths := GetPaths()
	return &Config{
		Store: StoreConfig{
			Backend: BackendFile,
		},
		Log: LogConfig{
			Level:   "info",
			MaxSize: 10,
		},
		Notifications: NotificationConfig{
			Enabled:        false,
			OnSizeAdvisory: true,
		},
		filePath: paths.ConfigFile,
	}
}

// Load loads the configuration from the default path.
func Load() (*Config, error) {
	return LoadFrom(GetPaths().ConfigFile)
}

// LoadFrom loads the configuration from a specific path.
// A missing file yields the defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	cfg.filePath = path

	// #nosec G304 - path is the config file path (user config directory or --config)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Store.Backend == "" {
		cfg.Store.Backend = BackendFile
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	return cfg, nil
}

// Save writes the configuration to its file path.
func (c *Config) Save() error {
	if c.filePath == "" {
		return errors.New("config file path not set")
	}

	if err := os.MkdirAll(filepath.Dir(c.filePath), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write to a sibling temp file and rename so a reader never sees a partial file
	tmp, err := os.CreateTemp(filepath.Dir(c.filePath), "."+ConfigFileName+".*")
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Rename(tmpName, c.filePath); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks that the configuration values are usable.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendFile, BackendKeyring, BackendMemory:
	default:
		return fmt.Errorf("%w: %q (must be file, keyring or memory)", ErrInvalidBackend, c.Store.Backend)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Log.Level)
	}

	if c.Log.MaxSize < 0 {
		return fmt.Errorf("log max_size must not be negative, got %d", c.Log.MaxSize)
	}

	return nil
}

// StoreDir returns the file store directory, defaulting to the data dir.
func (c *Config) StoreDir() string {
	if c.Store.Dir != "" {
		return c.Store.Dir
	}
	return GetPaths().ProfilesDir()
}

// SetSelected records the profile the tunnel runtime is using.
// An empty id clears the selection.
func (c *Config) SetSelected(id string) {
	c.Selected = id
}

// FilePath returns the path where this config was loaded from.
func (c *Config) FilePath() string {
	return c.filePath
}
