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

// outlookConnector lists inbox messages through the Outlook REST API using
// captured session cookies. The date window is applied server-side via an
// OData filter on the received timestamp.
type outlookConnector struct {
	baseURL string
	cookies []evidence.Cookie
	cfg     *Config
	logger  *slog.Logger
	client  *http.Client
}

type outlookMessage struct {
	ID               string   `json:"id"`
	Subject          string   `json:"subject"`
	BodyPreview      string   `json:"bodyPreview"`
	ReceivedDateTime string   `json:"receivedDateTime"`
	Categories       []string `json:"categories"`
	From             struct {
		EmailAddress struct {
			Address string `json:"address"`
		} `json:"emailAddress"`
	} `json:"from"`
}

type outlookListing struct {
	Value []outlookMessage `json:"value"`
}

func newOutlook(cfg *Config, cookies []evidence.Cookie, logger *slog.Logger) *outlookConnector {
	return &outlookConnector{
		baseURL: cfg.OutlookURL,
		cookies: cookies,
		cfg:     cfg,
		logger:  logger.With("connector", "outlook"),
	}
}

func (c *outlookConnector) Platform() evidence.Platform { return evidence.PlatformOutlook }

func (c *outlookConnector) Open(ctx context.Context) error {
	c.client = newHTTPClient(c.cfg, c.logger)
	c.logger.Info("connecting via session cookies")
	return nil
}

func (c *outlookConnector) Close() error {
	if c.client != nil {
		c.client.CloseIdleConnections()
		c.client = nil
	}
	return nil
}

func (c *outlookConnector) Fetch(ctx context.Context, start, end time.Time) ([]Item, error) {
	if c.client == nil {
		return nil, ErrNotOpened
	}

	filter := fmt.Sprintf(
		"receivedDateTime ge %s and receivedDateTime le %s",
		start.Format(time.RFC3339),
		end.Format(time.RFC3339),
	)
	params := url.Values{
		"$filter": {filter},
		"$top":    {"100"},
		"$select": {"id,subject,receivedDateTime,from,bodyPreview,categories"},
	}

	var listing outlookListing
	endpoint := c.baseURL + "/me/mailFolders/inbox/messages?" + params.Encode()
	if err := getJSON(ctx, c.client, endpoint, c.cookies, nil, &listing); err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(listing.Value))
	for _, msg := range listing.Value {
		title := msg.Subject
		if title == "" {
			title = "Untitled"
		}

		sender := msg.From.EmailAddress.Address
		if sender == "" {
			sender = "unknown"
		}

		items = append(items, Item{
			ID:          msg.ID,
			Title:       title,
			Description: msg.BodyPreview,
			Created:     msg.ReceivedDateTime,
			URL:         "https://outlook.office365.com/mail/inbox/" + msg.ID,
			Metadata: map[string]any{
				"sender":     sender,
				"categories": msg.Categories,
			},
		})
	}

	c.logger.Info("fetched messages", "count", len(items))
	return items, nil
}
