package credentials

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/vamp-agent/vamp/pkg/handlers"
	"github.com/vamp-agent/vamp/pkg/routes"
)

// Handler provides HTTP endpoints for credential operations.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// SaveRequest carries the credential bundle for a service. Keys are
// connector-specific (username, password, base_url).
type SaveRequest struct {
	Credentials map[string]string `json:"credentials"`
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "credentials"),
	}
}

// Routes returns the route group definition for credential endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/credentials",
		Routes: []routes.Route{
			{Method: "PUT", Pattern: "/{service}", Handler: h.Save},
			{Method: "GET", Pattern: "/{service}", Handler: h.Status},
			{Method: "DELETE", Pattern: "/{service}", Handler: h.Delete},
		},
	}
}

// Save stores the credential bundle from the request body for the service
// path parameter.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	var req SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrEmptyBundle)
		return
	}

	service := r.PathValue("service")
	if err := h.sys.Save(service, req.Credentials); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, map[string]string{
		"service": service,
		"status":  "stored",
	})
}

// Status reports whether the service has stored credentials.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	info, err := h.sys.Status(r.PathValue("service"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, info)
}

// Delete removes the service's stored credentials.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	service := r.PathValue("service")
	if err := h.sys.Delete(service); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, map[string]string{
		"service": service,
		"status":  "deleted",
	})
}
