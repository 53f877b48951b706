package connectors

import (
	"errors"
	"net/http"
)

var (
	// ErrUnsupportedPlatform indicates the factory was asked for a platform
	// no variant implements. This is a configuration fault, not a request
	// validation failure.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	// ErrNotOpened indicates Fetch was called before Open.
	ErrNotOpened = errors.New("connector not opened")
	// ErrConnection wraps transport-level failures (network, auth rejection,
	// malformed response). Contained at the connector boundary.
	ErrConnection = errors.New("platform connection failed")
)

// MapHTTPStatus maps connector errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrUnsupportedPlatform) {
		return http.StatusInternalServerError
	}
	if errors.Is(err, ErrConnection) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
