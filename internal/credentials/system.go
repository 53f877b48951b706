// Package credentials exposes the credential vault over the API: storing,
// probing, and deleting per-service bundles. Bundles are write-only through
// this surface; reads report presence, never contents.
package credentials

import (
	"fmt"
	"log/slog"

	"github.com/vamp-agent/vamp/internal/evidence"
	"github.com/vamp-agent/vamp/pkg/vault"
)

// Info reports whether a service has stored credentials. The bundle itself
// is never returned.
type Info struct {
	Service        string `json:"service"`
	HasCredentials bool   `json:"has_credentials"`
}

// System defines the public contract for credential operations.
type System interface {
	Handler() *Handler

	Save(service string, bundle map[string]string) error
	Status(service string) (*Info, error)
	Delete(service string) error
}

type service struct {
	vault  vault.System
	logger *slog.Logger
}

// New creates a credential system backed by the given vault.
func New(v vault.System, logger *slog.Logger) System {
	return &service{
		vault:  v,
		logger: logger.With("system", "credentials"),
	}
}

func (s *service) Handler() *Handler {
	return NewHandler(s, s.logger)
}

// Save stores the bundle for the service, replacing any previous one.
func (s *service) Save(name string, bundle map[string]string) error {
	if _, err := resolveService(name); err != nil {
		return err
	}
	if len(bundle) == 0 {
		return ErrEmptyBundle
	}

	if err := s.vault.Put(name, bundle); err != nil {
		return err
	}

	s.logger.Info("credentials stored", "service", name)
	return nil
}

// Status reports whether the service has stored credentials. A known service
// with nothing stored returns ErrNoCredentials.
func (s *service) Status(name string) (*Info, error) {
	if _, err := resolveService(name); err != nil {
		return nil, err
	}

	bundle, err := s.vault.Get(name)
	if err != nil {
		return nil, err
	}
	if len(bundle) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoCredentials, name)
	}

	return &Info{
		Service:        name,
		HasCredentials: true,
	}, nil
}

// Delete removes the service's stored credentials. Deleting a service with
// no stored bundle succeeds.
func (s *service) Delete(name string) error {
	if _, err := resolveService(name); err != nil {
		return err
	}

	if err := s.vault.Delete(name); err != nil {
		return err
	}

	s.logger.Info("credentials deleted", "service", name)
	return nil
}

// resolveService accepts any known platform identifier as a service name,
// matching the scrape API's platform vocabulary.
func resolveService(name string) (evidence.Platform, error) {
	platform, err := evidence.ParsePlatform(name)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownService, name)
	}
	return platform, nil
}
