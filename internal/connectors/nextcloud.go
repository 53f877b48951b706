package connectors

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/vamp-agent/vamp/internal/evidence"
)

// nextcloudConnector lists files through the Nextcloud OCS API with HTTP
// basic auth from a stored credential bundle. A bundle without a base_url
// falls back to the university host, same as the efundi connector. The
// listing carries millisecond timestamps, so the date window is applied
// client-side.
type nextcloudConnector struct {
	baseURL  string
	username string
	password string
	cfg      *Config
	logger   *slog.Logger
	client   *http.Client
}

type nextcloudFile struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	Timestamp        int64  `json:"timestamp"`
	Size             int64  `json:"size"`
	OwnerDisplayName string `json:"ownerDisplayName"`
}

type nextcloudListing struct {
	OCS struct {
		Data []nextcloudFile `json:"data"`
	} `json:"ocs"`
}

func newNextcloud(cfg *Config, credential map[string]string, logger *slog.Logger) *nextcloudConnector {
	baseURL := credential["base_url"]
	if baseURL == "" {
		baseURL = "https://nextcloud.nwu.ac.za"
	}
	return &nextcloudConnector{
		baseURL:  baseURL,
		username: credential["username"],
		password: credential["password"],
		cfg:      cfg,
		logger:   logger.With("connector", "nextcloud"),
	}
}

func (c *nextcloudConnector) Platform() evidence.Platform { return evidence.PlatformNextcloud }

func (c *nextcloudConnector) Open(ctx context.Context) error {
	c.client = newHTTPClient(c.cfg, c.logger)
	c.logger.Info("connecting", "base_url", c.baseURL)
	return nil
}

func (c *nextcloudConnector) Close() error {
	if c.client != nil {
		c.client.CloseIdleConnections()
		c.client = nil
	}
	return nil
}

func (c *nextcloudConnector) Fetch(ctx context.Context, start, end time.Time) ([]Item, error) {
	if c.client == nil {
		return nil, ErrNotOpened
	}

	endpoint := c.baseURL + "/ocs/v2.php/apps/files/api/v1/files?format=json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("OCS-APIRequest", "true")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrConnection, resp.StatusCode)
	}

	var listing nextcloudListing
	if err := decodeJSON(resp, &listing); err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(listing.OCS.Data))
	for _, file := range listing.OCS.Data {
		if file.Timestamp <= 0 {
			c.logger.Warn("skipping file without timestamp", "id", file.ID)
			continue
		}

		created := time.UnixMilli(file.Timestamp).UTC()
		if !withinWindow(created, start, end) {
			continue
		}

		title := file.Name
		if title == "" {
			title = "Untitled"
		}

		items = append(items, Item{
			ID:      fmt.Sprintf("%d", file.ID),
			Title:   title,
			Created: created.Format(time.RFC3339),
			URL:     fmt.Sprintf("%s/f/%d", c.baseURL, file.ID),
			Metadata: map[string]any{
				"size":  file.Size,
				"owner": file.OwnerDisplayName,
			},
		})
	}

	c.logger.Info("fetched files", "count", len(items))
	return items, nil
}
