package scans

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/vamp-agent/vamp/internal/evidence"
	"github.com/vamp-agent/vamp/pkg/handlers"
	"github.com/vamp-agent/vamp/pkg/pagination"
	"github.com/vamp-agent/vamp/pkg/routes"
)

// Handler provides HTTP endpoints for collection runs, scan tracking,
// progress streaming, and platform discovery.
type Handler struct {
	sys         System
	logger      *slog.Logger
	pagination  pagination.Config
	maxBodySize int64
}

// NewHandler creates a Handler with the given system, logger, pagination
// config, and request body size limit.
func NewHandler(
	sys System,
	logger *slog.Logger,
	pagination pagination.Config,
	maxBodySize int64,
) *Handler {
	return &Handler{
		sys:         sys,
		logger:      logger.With("handler", "scans"),
		pagination:  pagination,
		maxBodySize: maxBodySize,
	}
}

// Routes returns the route groups for collection endpoints.
func (h *Handler) Routes() []routes.Group {
	return []routes.Group{
		{
			Prefix: "/scrape",
			Routes: []routes.Route{
				{Method: "POST", Pattern: "", Handler: h.Scrape},
				{Method: "POST", Pattern: "/batch", Handler: h.ScrapeBatch},
				{Method: "POST", Pattern: "/async", Handler: h.ScrapeAsync},
			},
		},
		{
			Prefix: "/scans",
			Routes: []routes.Route{
				{Method: "GET", Pattern: "", Handler: h.List},
				{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			},
		},
		{
			Prefix: "/ws",
			Routes: []routes.Route{
				{Method: "GET", Pattern: "/{id}", Handler: h.Stream},
			},
		},
		{
			Prefix: "/platforms",
			Routes: []routes.Route{
				{Method: "GET", Pattern: "", Handler: h.Platforms},
			},
		},
	}
}

// Scrape runs a synchronous collection and returns the full result.
func (h *Handler) Scrape(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeScrapeRequest(w, r)
	if !ok {
		return
	}

	resp, err := h.sys.Scrape(r.Context(), req)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, resp)
}

// ScrapeBatch runs collections for several platforms concurrently and
// returns the aggregated per-platform results.
func (h *Handler) ScrapeBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	var req evidence.BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, evidence.ErrInvalidRequest)
		return
	}

	resp, err := h.sys.ScrapeBatch(r.Context(), &req)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, resp)
}

// ScrapeAsync starts a background collection and returns the scan handle
// immediately with 202 Accepted.
func (h *Handler) ScrapeAsync(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeScrapeRequest(w, r)
	if !ok {
		return
	}

	scan, err := h.sys.ScrapeAsync(req)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusAccepted, scan)
}

// List returns a paginated list of scan handles, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	handlers.RespondJSON(w, http.StatusOK, h.sys.List(page))
}

// Find returns a single scan handle by its id path parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	scan, ok := h.sys.Find(r.PathValue("id"))
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusNotFound, ErrScanNotFound)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, scan)
}

// Stream upgrades the connection to a WebSocket subscribed to the scan's
// progress topic. The subscription lives until the client disconnects;
// a running scan is never cancelled by disconnect.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := h.sys.Find(id); !ok {
		handlers.RespondError(w, h.logger, http.StatusNotFound, ErrScanNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "scan_id", id, "error", err)
		return
	}

	sub := newWSSubscriber(conn, h.logger.With("scan_id", id))
	h.sys.Channel().Subscribe(id, sub)

	go func() {
		sub.readLoop()
		h.sys.Channel().Unsubscribe(sub)
		conn.Close()
	}()
}

// Platforms returns descriptors for every supported platform.
func (h *Handler) Platforms(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, map[string]any{
		"platforms": evidence.Platforms(),
	})
}

func (h *Handler) decodeScrapeRequest(w http.ResponseWriter, r *http.Request) (*evidence.ScrapeRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	var req evidence.ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, evidence.ErrInvalidRequest)
		return nil, false
	}
	return &req, true
}
