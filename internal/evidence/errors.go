package evidence

import (
	"errors"
	"net/http"
)

// Domain errors for collection requests.
var (
	ErrInvalidRequest    = errors.New("invalid scrape request")
	ErrInvalidRange      = errors.New("invalid date range")
	ErrUnknownPlatform   = errors.New("unknown platform")
	ErrMissingCookies    = errors.New("platform requires session cookies")
	ErrMissingCredential = errors.New("no stored credentials for platform")
)

// MapHTTPStatus maps collection domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrInvalidRange),
		errors.Is(err, ErrMissingCookies),
		errors.Is(err, ErrMissingCredential):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnknownPlatform):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
