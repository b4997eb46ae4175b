// Package config handles reading and writing ~/.ainotes/config.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the top-level structure for config.yaml.
type Config struct {
	Version int           `yaml:"version"`
	Server  ServerConfig  `yaml:"server"`
	Gesture GestureConfig `yaml:"gesture"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig points the client at the notes API.
type ServerConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"` // 0 disables the client timeout
}

// GestureConfig converts terminal cells into gesture pixels.
type GestureConfig struct {
	CellWidthPx int `yaml:"cell_width_px"`
}

// LogConfig controls the JSONL event log.
type LogConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Environment variables that override the file.
const (
	EnvServer = "AINOTES_SERVER"
	EnvHome   = "AINOTES_HOME"
)

const (
	homeDirName = ".ainotes"
	configFile  = "config.yaml"
	stateFile   = "state.db"
)

// Timeout returns the HTTP client timeout.
func (s ServerConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// HomeDir returns $AINOTES_HOME, or ~/.ainotes.
func HomeDir() (string, error) {
	if dir := os.Getenv(EnvHome); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, homeDirName), nil
}

// StatePath is the sqlite file holding the persisted token pair.
func StatePath(dir string) string {
	return filepath.Join(dir, stateFile)
}

// ReadConfig reads config.yaml from dir.
// Returns an error if the file is not found or YAML is malformed.
func ReadConfig(dir string) (*Config, error) {
	path := filepath.Join(dir, configFile)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// WriteConfig writes cfg to config.yaml in dir.
// Creates dir if it does not exist.
func WriteConfig(dir string, cfg *Config) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	path := filepath.Join(dir, configFile)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Load reads config.yaml from dir, falling back to defaults when the file
// does not exist, then applies .env and environment overrides.
func Load(dir string) (*Config, error) {
	// .env files are optional; variables already set in the environment win.
	_ = godotenv.Load(filepath.Join(dir, ".env"))
	_ = godotenv.Load()

	cfg, err := ReadConfig(dir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		cfg = DefaultConfig()
	}

	if server := os.Getenv(EnvServer); server != "" {
		cfg.Server.BaseURL = server
	}
	cfg.Server.BaseURL = strings.TrimRight(cfg.Server.BaseURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the client cannot work with.
func (c *Config) Validate() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("config: server.base_url is required")
	}
	if !strings.HasPrefix(c.Server.BaseURL, "http://") && !strings.HasPrefix(c.Server.BaseURL, "https://") {
		return fmt.Errorf("config: server.base_url must start with http:// or https://, got %q", c.Server.BaseURL)
	}
	if c.Server.TimeoutSeconds < 0 {
		return fmt.Errorf("config: server.timeout_seconds must not be negative")
	}
	if c.Gesture.CellWidthPx <= 0 {
		return fmt.Errorf("config: gesture.cell_width_px must be positive")
	}
	return nil
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Server: ServerConfig{
			BaseURL:        "http://localhost:8000/api",
			TimeoutSeconds: 30,
		},
		Gesture: GestureConfig{
			CellWidthPx: 8,
		},
		Log: LogConfig{
			Enabled: true,
		},
	}
}
