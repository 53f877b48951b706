package scans

import (
	"errors"
	"net/http"

	"github.com/vamp-agent/vamp/internal/connectors"
	"github.com/vamp-agent/vamp/internal/evidence"
)

// ErrScanNotFound indicates no scan handle exists for the requested id.
var ErrScanNotFound = errors.New("scan not found")

// MapHTTPStatus maps orchestrator errors to HTTP status codes, delegating
// to the evidence and connector domains for their sentinels.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrScanNotFound) {
		return http.StatusNotFound
	}
	if status := evidence.MapHTTPStatus(err); status != http.StatusInternalServerError {
		return status
	}
	return connectors.MapHTTPStatus(err)
}
