package connectors

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/vamp-agent/vamp/internal/evidence"
)

// efundiConnector scrapes the eFundi (Sakai LMS) announcement feed through a
// headless browser session, logging in with a stored credential bundle. The
// portal has no listing API, so the date window is applied client-side to the
// scraped rows.
type efundiConnector struct {
	baseURL  string
	username string
	password string
	cfg      *Config
	logger   *slog.Logger

	browserCtx context.Context
	cancels    []context.CancelFunc
}

// efundiAnnouncement mirrors the fields the extraction script pulls from the
// announcement table rows.
type efundiAnnouncement struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body"`
	Site  string `json:"site"`
	Date  string `json:"date"`
	URL   string `json:"url"`
}

// announcementScript collects the rows of the synoptic announcement list.
// Sakai renders dates in a machine-readable attribute when available and
// falls back to the cell text otherwise.
const announcementScript = `
Array.from(document.querySelectorAll('table.announcements tr, table#announcementListsizer tr'))
	.filter(row => row.querySelector('td'))
	.map((row, i) => {
		const link = row.querySelector('a');
		const cells = row.querySelectorAll('td');
		return {
			id: 'efundi-' + (link && link.href ? link.href.split('/').pop() : i),
			title: link ? link.textContent.trim() : cells[0].textContent.trim(),
			body: cells.length > 1 ? cells[1].textContent.trim() : '',
			site: cells.length > 2 ? cells[2].textContent.trim() : '',
			date: row.querySelector('time') ? row.querySelector('time').getAttribute('datetime')
				: (cells.length > 3 ? cells[3].textContent.trim() : ''),
			url: link ? link.href : ''
		};
	})
`

func newEfundi(cfg *Config, credential map[string]string, logger *slog.Logger) *efundiConnector {
	baseURL := credential["base_url"]
	if baseURL == "" {
		baseURL = "https://efundi.nwu.ac.za"
	}
	return &efundiConnector{
		baseURL:  baseURL,
		username: credential["username"],
		password: credential["password"],
		cfg:      cfg,
		logger:   logger.With("connector", "efundi"),
	}
}

func (c *efundiConnector) Platform() evidence.Platform { return evidence.PlatformEfundi }

// Open launches the headless browser and authenticates against the portal
// login form.
func (c *efundiConnector) Open(ctx context.Context) error {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", c.cfg.HeadlessMode()),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	c.browserCtx = browserCtx
	c.cancels = []context.CancelFunc{cancelBrowser, cancelAlloc}

	loginCtx, cancel := context.WithTimeout(browserCtx, c.cfg.TimeoutDuration())
	defer cancel()

	c.logger.Info("opening browser session", "base_url", c.baseURL)

	err := chromedp.Run(loginCtx,
		chromedp.Navigate(c.baseURL+"/portal/xlogin"),
		chromedp.WaitVisible(`#eid`, chromedp.ByID),
		chromedp.SendKeys(`#eid`, c.username, chromedp.ByID),
		chromedp.SendKeys(`#pw`, c.password, chromedp.ByID),
		chromedp.Click(`#submit`, chromedp.ByID),
		chromedp.WaitVisible(`#loginLinks, .Mrphs-portalWrapper`, chromedp.ByQuery),
	)
	if err != nil {
		c.Close()
		return fmt.Errorf("%w: portal login: %w", ErrConnection, err)
	}
	return nil
}

// Close tears down the browser session unconditionally.
func (c *efundiConnector) Close() error {
	for _, cancel := range c.cancels {
		cancel()
	}
	c.cancels = nil
	c.browserCtx = nil
	return nil
}

func (c *efundiConnector) Fetch(ctx context.Context, start, end time.Time) ([]Item, error) {
	if c.browserCtx == nil {
		return nil, ErrNotOpened
	}

	fetchCtx, cancel := context.WithTimeout(c.browserCtx, c.cfg.TimeoutDuration())
	defer cancel()

	var announcements []efundiAnnouncement
	err := chromedp.Run(fetchCtx,
		chromedp.Navigate(c.baseURL+"/portal/site/!gateway/tool-reset/sakai-synoptic-announcement"),
		chromedp.WaitReady(`body`, chromedp.ByQuery),
		chromedp.Evaluate(announcementScript, &announcements),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: scrape announcements: %w", ErrConnection, err)
	}

	items := make([]Item, 0, len(announcements))
	for _, a := range announcements {
		created, err := evidence.ParseTimestamp(a.Date)
		if err != nil {
			c.logger.Warn("skipping announcement with unparseable date", "id", a.ID, "error", err)
			continue
		}
		if !withinWindow(created, start, end) {
			continue
		}

		title := a.Title
		if title == "" {
			title = "Untitled"
		}

		url := a.URL
		if url == "" {
			url = c.baseURL + "/portal"
		}

		items = append(items, Item{
			ID:          a.ID,
			Title:       title,
			Description: a.Body,
			Created:     created.Format(time.RFC3339),
			URL:         url,
			Metadata: map[string]any{
				"site": a.Site,
				"type": "announcement",
			},
		})
	}

	c.logger.Info("scraped announcements", "count", len(items))
	return items, nil
}
