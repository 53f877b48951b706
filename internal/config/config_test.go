package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vamp-agent/vamp/internal/config"
)

const baseConfig = `
shutdown_timeout = "30s"
version = "0.1.0"

[server]
host = "0.0.0.0"
port = 8000
read_timeout = "1m"
write_timeout = "15m"
shutdown_timeout = "30s"

[vault]
path = "config/.vamp_credentials.enc"

[connectors]
timeout = "45s"
headless = true

[api]
base_path = "/api"
max_body_size = "5MB"

[api.cors]
enabled = false

[api.pagination]
default_page_size = 25
max_page_size = 50
`

const overlayConfig = `
[server]
port = 9090

[connectors]
timeout = "2m"
`

func writeConfig(t *testing.T, dir, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", filename, err)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(orig) })
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 8000 {
		t.Errorf("server port: got %d, want 8000", cfg.Server.Port)
	}
	if cfg.Connectors.Timeout != "45s" {
		t.Errorf("connectors timeout: got %s, want 45s", cfg.Connectors.Timeout)
	}
	if !cfg.Connectors.HeadlessMode() {
		t.Error("connectors headless: got false, want true")
	}
	if cfg.API.BasePath != "/api" {
		t.Errorf("api base_path: got %s, want /api", cfg.API.BasePath)
	}
	if cfg.API.MaxBodySizeBytes() != 5*1024*1024 {
		t.Errorf("max body size: got %d, want 5MB", cfg.API.MaxBodySizeBytes())
	}
	if cfg.API.Pagination.DefaultPageSize != 25 {
		t.Errorf("pagination default_page_size: got %d, want 25", cfg.API.Pagination.DefaultPageSize)
	}
	if cfg.API.Pagination.MaxPageSize != 50 {
		t.Errorf("pagination max_page_size: got %d, want 50", cfg.API.Pagination.MaxPageSize)
	}
}

func TestLoadWithOverlay(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	writeConfig(t, dir, "config.staging.toml", overlayConfig)
	chdir(t, dir)

	t.Setenv("VAMP_ENV", "staging")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("overlay port: got %d, want 9090", cfg.Server.Port)
	}
	if cfg.Connectors.Timeout != "2m" {
		t.Errorf("overlay timeout: got %s, want 2m", cfg.Connectors.Timeout)
	}
	// Fields absent from the overlay keep base values.
	if cfg.API.Pagination.DefaultPageSize != 25 {
		t.Errorf("base pagination lost: got %d, want 25", cfg.API.Pagination.DefaultPageSize)
	}
}

func TestLoadDefaultsWithoutConfigFile(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 8000 {
		t.Errorf("default port: got %d, want 8000", cfg.Server.Port)
	}
	if cfg.Connectors.Timeout != "30s" {
		t.Errorf("default timeout: got %s, want 30s", cfg.Connectors.Timeout)
	}
	if cfg.Connectors.OutlookURL == "" {
		t.Error("default outlook url should be set")
	}
	if !cfg.Connectors.HeadlessMode() {
		t.Error("default headless: got false, want true")
	}
	if cfg.ShutdownTimeout != "30s" {
		t.Errorf("default shutdown_timeout: got %s, want 30s", cfg.ShutdownTimeout)
	}
}

func TestEnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())

	t.Setenv("VAMP_SERVER_PORT", "3000")
	t.Setenv("VAMP_CONNECTORS_HEADLESS", "false")
	t.Setenv("VAMP_VAULT_PATH", "/tmp/vault.enc")
	t.Setenv("VAMP_API_MAX_BODY_SIZE", "1MB")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 3000 {
		t.Errorf("env port: got %d, want 3000", cfg.Server.Port)
	}
	if cfg.Connectors.HeadlessMode() {
		t.Error("env headless: got true, want false")
	}
	if cfg.Vault.Path != "/tmp/vault.enc" {
		t.Errorf("env vault path: got %s", cfg.Vault.Path)
	}
	if cfg.API.MaxBodySizeBytes() != 1024*1024 {
		t.Errorf("env max body size: got %d, want 1MB", cfg.API.MaxBodySizeBytes())
	}
}

func TestInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", `
[server]
port = 99999
`)
	chdir(t, dir)

	if _, err := config.Load(); err == nil {
		t.Error("expected validation error for out-of-range port")
	}
}
