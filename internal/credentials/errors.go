package credentials

import (
	"errors"
	"net/http"

	"github.com/vamp-agent/vamp/pkg/vault"
)

// Domain errors for credential operations.
var (
	ErrUnknownService = errors.New("unknown service")
	ErrNoCredentials  = errors.New("no credentials stored")
	ErrEmptyBundle    = errors.New("credential bundle must not be empty")
)

// MapHTTPStatus maps credential domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrUnknownService), errors.Is(err, ErrNoCredentials):
		return http.StatusNotFound
	case errors.Is(err, ErrEmptyBundle), errors.Is(err, vault.ErrEmptyService):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
