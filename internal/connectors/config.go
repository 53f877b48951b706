package connectors

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds connector transport parameters and platform endpoints.
// Endpoints are overridable so tests and on-premise deployments can point
// connectors at their own hosts.
type Config struct {
	Timeout        string `toml:"timeout"`
	OutlookURL     string `toml:"outlook_url"`
	OneDriveURL    string `toml:"onedrive_url"`
	GoogleDriveURL string `toml:"google_drive_url"`
	Headless       *bool  `toml:"headless"`
	LogRequests    bool   `toml:"log_requests"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Timeout        string
	OutlookURL     string
	OneDriveURL    string
	GoogleDriveURL string
	Headless       string
	LogRequests    string
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// HeadlessMode reports whether browser connectors run without a visible
// window. Headless unless explicitly disabled for debugging.
func (c *Config) HeadlessMode() bool {
	return c.Headless == nil || *c.Headless
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
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.OutlookURL != "" {
		c.OutlookURL = overlay.OutlookURL
	}
	if overlay.OneDriveURL != "" {
		c.OneDriveURL = overlay.OneDriveURL
	}
	if overlay.GoogleDriveURL != "" {
		c.GoogleDriveURL = overlay.GoogleDriveURL
	}
	if overlay.Headless != nil {
		c.Headless = overlay.Headless
	}
	c.LogRequests = overlay.LogRequests
}

func (c *Config) loadDefaults() {
	if c.Timeout == "" {
		c.Timeout = "30s"
	}
	if c.OutlookURL == "" {
		c.OutlookURL = "https://outlook.office365.com/api/v2.0"
	}
	if c.OneDriveURL == "" {
		c.OneDriveURL = "https://graph.microsoft.com/v1.0"
	}
	if c.GoogleDriveURL == "" {
		c.GoogleDriveURL = "https://www.googleapis.com/drive/v3"
	}
	if c.Headless == nil {
		headless := true
		c.Headless = &headless
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Timeout != "" {
		if v := os.Getenv(env.Timeout); v != "" {
			c.Timeout = v
		}
	}
	if env.OutlookURL != "" {
		if v := os.Getenv(env.OutlookURL); v != "" {
			c.OutlookURL = v
		}
	}
	if env.OneDriveURL != "" {
		if v := os.Getenv(env.OneDriveURL); v != "" {
			c.OneDriveURL = v
		}
	}
	if env.GoogleDriveURL != "" {
		if v := os.Getenv(env.GoogleDriveURL); v != "" {
			c.GoogleDriveURL = v
		}
	}
	if env.Headless != "" {
		if v := os.Getenv(env.Headless); v != "" {
			if headless, err := strconv.ParseBool(v); err == nil {
				c.Headless = &headless
			}
		}
	}
	if env.LogRequests != "" {
		if v := os.Getenv(env.LogRequests); v != "" {
			if logReq, err := strconv.ParseBool(v); err == nil {
				c.LogRequests = logReq
			}
		}
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	return nil
}
