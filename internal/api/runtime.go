package api

import (
	"github.com/vamp-agent/vamp/internal/config"
	"github.com/vamp-agent/vamp/internal/connectors"
	"github.com/vamp-agent/vamp/internal/infrastructure"
	"github.com/vamp-agent/vamp/pkg/broadcast"
	"github.com/vamp-agent/vamp/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration and the
// progress broadcast channel shared by the scan orchestrator and the
// WebSocket endpoints.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination pagination.Config
	Connectors connectors.Config
	Broadcast  *broadcast.Channel
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	logger := infra.Logger.With("module", "api")

	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    logger,
			Vault:     infra.Vault,
		},
		Pagination: cfg.API.Pagination,
		Connectors: cfg.Connectors,
		Broadcast:  broadcast.NewChannel(logger),
	}
}
