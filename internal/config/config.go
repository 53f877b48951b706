// Package config loads service configuration from TOML files with
// environment overlays and VAMP_* variable overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/vamp-agent/vamp/internal/connectors"
	"github.com/vamp-agent/vamp/pkg/vault"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvVampEnv             = "VAMP_ENV"
	EnvVampShutdownTimeout = "VAMP_SHUTDOWN_TIMEOUT"
	EnvVampVersion         = "VAMP_VERSION"
)

var vaultEnv = &vault.Env{
	Path: "VAMP_VAULT_PATH",
	Key:  "VAMP_VAULT_KEY",
}

var connectorsEnv = &connectors.Env{
	Timeout:        "VAMP_CONNECTORS_TIMEOUT",
	OutlookURL:     "VAMP_CONNECTORS_OUTLOOK_URL",
	OneDriveURL:    "VAMP_CONNECTORS_ONEDRIVE_URL",
	GoogleDriveURL: "VAMP_CONNECTORS_GOOGLE_DRIVE_URL",
	Headless:       "VAMP_CONNECTORS_HEADLESS",
	LogRequests:    "VAMP_CONNECTORS_LOG_REQUESTS",
}

// Config is the root configuration for the VAMP service.
type Config struct {
	Server          ServerConfig      `toml:"server"`
	Vault           vault.Config      `toml:"vault"`
	Connectors      connectors.Config `toml:"connectors"`
	API             APIConfig         `toml:"api"`
	ShutdownTimeout string            `toml:"shutdown_timeout"`
	Version         string            `toml:"version"`
}

// Env returns the VAMP_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvVampEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Vault.Merge(&overlay.Vault)
	c.Connectors.Merge(&overlay.Connectors)
	c.API.Merge(&overlay.API)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Vault.Finalize(vaultEnv); err != nil {
		return fmt.Errorf("vault: %w", err)
	}
	if err := c.Connectors.Finalize(connectorsEnv); err != nil {
		return fmt.Errorf("connectors: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvVampShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvVampVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvVampEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
