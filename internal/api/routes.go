package api

import (
	"net/http"

	"github.com/vamp-agent/vamp/internal/config"
	"github.com/vamp-agent/vamp/pkg/openapi"
	"github.com/vamp-agent/vamp/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
) error {
	groups := domain.Scans.Handler(cfg.API.MaxBodySizeBytes()).Routes()
	groups = append(groups, domain.Credentials.Handler().Routes())
	routes.Register(mux, groups...)

	spec, err := buildSpec(cfg)
	if err != nil {
		return err
	}
	mux.HandleFunc("GET /openapi.json", openapi.ServeSpec(spec))

	return nil
}
