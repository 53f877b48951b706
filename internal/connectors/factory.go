package connectors

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vamp-agent/vamp/internal/evidence"
)

// Factory constructs opened connectors for the requested platform.
type Factory struct {
	cfg    *Config
	logger *slog.Logger
}

// NewFactory creates a Factory using the given connector configuration.
func NewFactory(cfg *Config, logger *slog.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// Create builds the connector variant for platform, injecting cookies for
// cookie-auth platforms or the stored credential bundle for credential-auth
// platforms, and opens it before returning. Callers never receive an
// unopened connector.
func (f *Factory) Create(
	ctx context.Context,
	platform evidence.Platform,
	cookies []evidence.Cookie,
	credential map[string]string,
) (Connector, error) {
	var c Connector

	switch platform {
	case evidence.PlatformOutlook:
		c = newOutlook(f.cfg, cookies, f.logger)
	case evidence.PlatformOneDrive:
		c = newOneDrive(f.cfg, cookies, f.logger)
	case evidence.PlatformGoogleDrive:
		c = newGoogleDrive(f.cfg, cookies, f.logger)
	case evidence.PlatformNextcloud:
		c = newNextcloud(f.cfg, credential, f.logger)
	case evidence.PlatformEfundi:
		c = newEfundi(f.cfg, credential, f.logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedPlatform, platform)
	}

	if err := c.Open(ctx); err != nil {
		return nil, err
	}
	return c, nil
}
