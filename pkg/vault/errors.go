package vault

import (
	"errors"
	"net/http"
)

var (
	// ErrInvalidKey indicates the configured encryption key is not a valid fernet key.
	ErrInvalidKey = errors.New("invalid vault encryption key")
	// ErrEmptyService indicates an empty service name was provided.
	ErrEmptyService = errors.New("service name must not be empty")
)

// MapHTTPStatus maps vault errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrEmptyService) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
