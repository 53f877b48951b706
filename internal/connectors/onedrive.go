package connectors

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/vamp-agent/vamp/internal/evidence"
)

// onedriveConnector lists recent drive files through the Graph API using
// captured session cookies. The recent-files listing cannot be filtered
// server-side, so the date window is applied here; records whose created
// timestamp does not parse are skipped with a warning.
type onedriveConnector struct {
	baseURL string
	cookies []evidence.Cookie
	cfg     *Config
	logger  *slog.Logger
	client  *http.Client
}

type onedriveFile struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	CreatedDateTime      string `json:"createdDateTime"`
	LastModifiedDateTime string `json:"lastModifiedDateTime"`
	WebURL               string `json:"webUrl"`
	Size                 int64  `json:"size"`
	File                 struct {
		MimeType string `json:"mimeType"`
	} `json:"file"`
	ParentReference struct {
		Path string `json:"path"`
	} `json:"parentReference"`
}

type onedriveListing struct {
	Value []onedriveFile `json:"value"`
}

func newOneDrive(cfg *Config, cookies []evidence.Cookie, logger *slog.Logger) *onedriveConnector {
	return &onedriveConnector{
		baseURL: cfg.OneDriveURL,
		cookies: cookies,
		cfg:     cfg,
		logger:  logger.With("connector", "onedrive"),
	}
}

func (c *onedriveConnector) Platform() evidence.Platform { return evidence.PlatformOneDrive }

func (c *onedriveConnector) Open(ctx context.Context) error {
	c.client = newHTTPClient(c.cfg, c.logger)
	c.logger.Info("connecting via session cookies")
	return nil
}

func (c *onedriveConnector) Close() error {
	if c.client != nil {
		c.client.CloseIdleConnections()
		c.client = nil
	}
	return nil
}

func (c *onedriveConnector) Fetch(ctx context.Context, start, end time.Time) ([]Item, error) {
	if c.client == nil {
		return nil, ErrNotOpened
	}

	var listing onedriveListing
	if err := getJSON(ctx, c.client, c.baseURL+"/me/drive/recent", c.cookies, nil, &listing); err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(listing.Value))
	for _, file := range listing.Value {
		created, err := evidence.ParseTimestamp(file.CreatedDateTime)
		if err != nil {
			c.logger.Warn("skipping file with unparseable created date", "id", file.ID, "error", err)
			continue
		}
		if !withinWindow(created, start, end) {
			continue
		}

		title := file.Name
		if title == "" {
			title = "Untitled"
		}

		parent := file.ParentReference.Path
		if parent == "" {
			parent = "/"
		}

		items = append(items, Item{
			ID:          file.ID,
			Title:       title,
			Description: "File in " + parent,
			Created:     file.CreatedDateTime,
			Modified:    file.LastModifiedDateTime,
			URL:         file.WebURL,
			Metadata: map[string]any{
				"size":      file.Size,
				"file_type": mimeOrUnknown(file.File.MimeType),
			},
		})
	}

	c.logger.Info("fetched files", "count", len(items))
	return items, nil
}

func mimeOrUnknown(mime string) string {
	if mime == "" {
		return "unknown"
	}
	return mime
}
