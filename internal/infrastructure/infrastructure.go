// Package infrastructure provides core service initialization for application startup.
// It assembles common dependencies (logging, lifecycle, credential vault) that
// domain systems require.
package infrastructure

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/vamp-agent/vamp/internal/config"
	"github.com/vamp-agent/vamp/pkg/lifecycle"
	"github.com/vamp-agent/vamp/pkg/vault"
)

// Infrastructure holds the core systems required by all domain modules.
// It provides a single point of initialization for lifecycle coordination,
// logging, and the encrypted credential vault.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Vault     vault.System
}

// New creates an Infrastructure from the application configuration.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	v, err := vault.New(&cfg.Vault, logger)
	if err != nil {
		return nil, fmt.Errorf("vault init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Vault:     v,
	}, nil
}
