package vault

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fernet/fernet-go"
)

// Config holds the vault file location and encryption key.
// Key is a base64url-encoded 32-byte fernet key.
type Config struct {
	Path string `toml:"path"`
	Key  string `toml:"key"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Path string
	Key  string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Path != "" {
		c.Path = overlay.Path
	}
	if overlay.Key != "" {
		c.Key = overlay.Key
	}
}

func (c *Config) loadDefaults() {
	if c.Path == "" {
		c.Path = filepath.Join("config", ".vamp_credentials.enc")
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Path != "" {
		if v := os.Getenv(env.Path); v != "" {
			c.Path = v
		}
	}
	if env.Key != "" {
		if v := os.Getenv(env.Key); v != "" {
			c.Key = v
		}
	}
}

func (c *Config) validate() error {
	if c.Key == "" {
		return nil
	}
	if _, err := fernet.DecodeKey(c.Key); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	return nil
}
