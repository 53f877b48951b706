package connectors

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/vamp-agent/vamp/internal/evidence"
)

// googleDriveConnector searches drive files through the Drive v3 API using
// captured session cookies. The date window is applied server-side via a
// createdTime query.
type googleDriveConnector struct {
	baseURL string
	cookies []evidence.Cookie
	cfg     *Config
	logger  *slog.Logger
	client  *http.Client
}

type googleDriveFile struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	CreatedTime  string `json:"createdTime"`
	ModifiedTime string `json:"modifiedTime"`
	WebViewLink  string `json:"webViewLink"`
	MimeType     string `json:"mimeType"`
	Size         string `json:"size"`
}

type googleDriveListing struct {
	Files []googleDriveFile `json:"files"`
}

func newGoogleDrive(cfg *Config, cookies []evidence.Cookie, logger *slog.Logger) *googleDriveConnector {
	return &googleDriveConnector{
		baseURL: cfg.GoogleDriveURL,
		cookies: cookies,
		cfg:     cfg,
		logger:  logger.With("connector", "google_drive"),
	}
}

func (c *googleDriveConnector) Platform() evidence.Platform { return evidence.PlatformGoogleDrive }

func (c *googleDriveConnector) Open(ctx context.Context) error {
	c.client = newHTTPClient(c.cfg, c.logger)
	c.logger.Info("connecting via session cookies")
	return nil
}

func (c *googleDriveConnector) Close() error {
	if c.client != nil {
		c.client.CloseIdleConnections()
		c.client = nil
	}
	return nil
}

func (c *googleDriveConnector) Fetch(ctx context.Context, start, end time.Time) ([]Item, error) {
	if c.client == nil {
		return nil, ErrNotOpened
	}

	query := fmt.Sprintf(
		"createdTime >= '%s' and createdTime <= '%s'",
		start.Format(time.RFC3339),
		end.Format(time.RFC3339),
	)
	params := url.Values{
		"q":        {query},
		"pageSize": {"100"},
		"fields":   {"files(id,name,createdTime,modifiedTime,webViewLink,mimeType,size)"},
	}

	var listing googleDriveListing
	endpoint := c.baseURL + "/files?" + params.Encode()
	if err := getJSON(ctx, c.client, endpoint, c.cookies, nil, &listing); err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(listing.Files))
	for _, file := range listing.Files {
		title := file.Name
		if title == "" {
			title = "Untitled"
		}

		items = append(items, Item{
			ID:          file.ID,
			Title:       title,
			Description: "Type: " + mimeOrUnknown(file.MimeType),
			Created:     file.CreatedTime,
			Modified:    file.ModifiedTime,
			URL:         file.WebViewLink,
			Metadata: map[string]any{
				"size":      file.Size,
				"mime_type": file.MimeType,
			},
		})
	}

	c.logger.Info("fetched files", "count", len(items))
	return items, nil
}
