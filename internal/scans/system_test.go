package scans

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/vamp-agent/vamp/internal/connectors"
	"github.com/vamp-agent/vamp/internal/evidence"
	"github.com/vamp-agent/vamp/pkg/broadcast"
	"github.com/vamp-agent/vamp/pkg/pagination"
)

type stubVault struct {
	bundles map[string]map[string]string
}

func (v *stubVault) Put(service string, bundle map[string]string) error {
	v.bundles[service] = bundle
	return nil
}

func (v *stubVault) Get(service string) (map[string]string, error) {
	if bundle, ok := v.bundles[service]; ok {
		return bundle, nil
	}
	return map[string]string{}, nil
}

func (v *stubVault) Delete(service string) error {
	delete(v.bundles, service)
	return nil
}

func (v *stubVault) LoadAll() map[string]map[string]string {
	return v.bundles
}

// stubConnector serves canned items, applying the window the way a real
// variant would so window propagation is observable end to end.
type stubConnector struct {
	platform evidence.Platform
	items    []connectors.Item
	fetchErr error
	gate     chan struct{}
	closed   bool
}

func (c *stubConnector) Platform() evidence.Platform { return c.platform }

func (c *stubConnector) Open(ctx context.Context) error { return nil }

func (c *stubConnector) Fetch(ctx context.Context, start, end time.Time) ([]connectors.Item, error) {
	if c.gate != nil {
		<-c.gate
	}
	if c.fetchErr != nil {
		return nil, c.fetchErr
	}

	var out []connectors.Item
	for _, item := range c.items {
		t, err := evidence.ParseTimestamp(item.Created)
		if err != nil {
			out = append(out, item)
			continue
		}
		if !t.Before(start) && !t.After(end) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (c *stubConnector) Close() error {
	c.closed = true
	return nil
}

type stubFactory struct {
	conns map[evidence.Platform]*stubConnector
}

func (f *stubFactory) Create(
	ctx context.Context,
	platform evidence.Platform,
	cookies []evidence.Cookie,
	credential map[string]string,
) (connectors.Connector, error) {
	if conn, ok := f.conns[platform]; ok {
		return conn, nil
	}
	return nil, fmt.Errorf("%w: %s", connectors.ErrUnsupportedPlatform, platform)
}

// recordingSubscriber captures delivered messages for assertion.
type recordingSubscriber struct {
	mu       sync.Mutex
	messages []broadcast.Message
}

func (s *recordingSubscriber) Send(msg broadcast.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return nil
}

func (s *recordingSubscriber) types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.messages))
	for i, msg := range s.messages {
		out[i] = msg.Type
	}
	return out
}

var testPagination = pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}

func newTestSystem(factory ConnectorFactory, v *stubVault) System {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if v == nil {
		v = &stubVault{bundles: map[string]map[string]string{}}
	}
	return New(v, factory, broadcast.NewChannel(logger), testPagination, logger)
}

func mailRequest() *evidence.ScrapeRequest {
	return &evidence.ScrapeRequest{
		Platform:   evidence.PlatformOutlook,
		Cookies:    []evidence.Cookie{{Name: "session", Value: "abc"}},
		StartMonth: 1,
		StartYear:  2025,
		EndMonth:   3,
		EndYear:    2025,
	}
}

func TestScrapeKeepsItemsInsideWindow(t *testing.T) {
	conn := &stubConnector{
		platform: evidence.PlatformOutlook,
		items: []connectors.Item{
			{ID: "feb", Title: "February mail", Created: "2025-02-10T08:30:00Z"},
			{ID: "may", Title: "May mail", Created: "2025-05-02T12:00:00Z"},
		},
	}
	sys := newTestSystem(&stubFactory{conns: map[evidence.Platform]*stubConnector{
		evidence.PlatformOutlook: conn,
	}}, nil)

	resp, err := sys.Scrape(context.Background(), mailRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.TotalItems != 1 {
		t.Fatalf("total items: got %d, want 1", resp.TotalItems)
	}
	if resp.Items[0].ID != "feb" {
		t.Errorf("kept item: got %s, want feb", resp.Items[0].ID)
	}
	if resp.Items[0].Status != evidence.StatusCollected {
		t.Errorf("status: got %s, want collected", resp.Items[0].Status)
	}
	if resp.Items[0].Platform != evidence.PlatformOutlook {
		t.Errorf("platform: got %s, want outlook", resp.Items[0].Platform)
	}
	if len(resp.Errors) != 0 {
		t.Errorf("errors: got %v, want none", resp.Errors)
	}
	if !conn.closed {
		t.Error("connector should have been closed")
	}
}

func TestScrapeValidation(t *testing.T) {
	sys := newTestSystem(&stubFactory{}, nil)

	tests := []struct {
		name    string
		mutate  func(*evidence.ScrapeRequest)
		wantErr error
	}{
		{
			"month out of range",
			func(r *evidence.ScrapeRequest) { r.StartMonth = 13 },
			evidence.ErrInvalidRequest,
		},
		{
			"unknown platform",
			func(r *evidence.ScrapeRequest) { r.Platform = "myspace" },
			evidence.ErrUnknownPlatform,
		},
		{
			"start year after end year",
			func(r *evidence.ScrapeRequest) { r.StartYear = 2026 },
			evidence.ErrInvalidRange,
		},
		{
			"start month after end month same year",
			func(r *evidence.ScrapeRequest) { r.StartMonth = 5 },
			evidence.ErrInvalidRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := mailRequest()
			tt.mutate(req)

			if _, err := sys.Scrape(context.Background(), req); !errors.Is(err, tt.wantErr) {
				t.Errorf("error: got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestScrapeMissingCookies(t *testing.T) {
	sys := newTestSystem(&stubFactory{}, nil)

	req := mailRequest()
	req.Cookies = nil

	if _, err := sys.Scrape(context.Background(), req); !errors.Is(err, evidence.ErrMissingCookies) {
		t.Errorf("error: got %v, want missing cookies", err)
	}
}

func TestScrapeMissingCredential(t *testing.T) {
	sys := newTestSystem(&stubFactory{}, nil)

	req := mailRequest()
	req.Platform = evidence.PlatformNextcloud
	req.Cookies = nil

	if _, err := sys.Scrape(context.Background(), req); !errors.Is(err, evidence.ErrMissingCredential) {
		t.Errorf("error: got %v, want missing credential", err)
	}
}

func TestScrapeUsesVaultCredential(t *testing.T) {
	v := &stubVault{bundles: map[string]map[string]string{
		"nextcloud": {"base_url": "https://cloud.example.com", "username": "u", "password": "p"},
	}}
	sys := newTestSystem(&stubFactory{conns: map[evidence.Platform]*stubConnector{
		evidence.PlatformNextcloud: {
			platform: evidence.PlatformNextcloud,
			items: []connectors.Item{
				{ID: "doc", Title: "Shared doc", Created: "2025-01-15T00:00:00Z"},
			},
		},
	}}, v)

	req := mailRequest()
	req.Platform = evidence.PlatformNextcloud
	req.Cookies = nil

	resp, err := sys.Scrape(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.TotalItems != 1 {
		t.Errorf("total items: got %d, want 1", resp.TotalItems)
	}
}

func TestScrapeContainsConnectionFailure(t *testing.T) {
	sys := newTestSystem(&stubFactory{conns: map[evidence.Platform]*stubConnector{
		evidence.PlatformOutlook: {
			platform: evidence.PlatformOutlook,
			fetchErr: fmt.Errorf("%w: connection refused", connectors.ErrConnection),
		},
	}}, nil)

	resp, err := sys.Scrape(context.Background(), mailRequest())
	if err != nil {
		t.Fatalf("connection failure should be contained, got error: %v", err)
	}

	if resp.TotalItems != 0 {
		t.Errorf("total items: got %d, want 0", resp.TotalItems)
	}
	if len(resp.Errors) != 1 {
		t.Fatalf("errors: got %v, want one entry", resp.Errors)
	}
}

func TestScrapeDropsUnparseableCreatedDate(t *testing.T) {
	sys := newTestSystem(&stubFactory{conns: map[evidence.Platform]*stubConnector{
		evidence.PlatformOutlook: {
			platform: evidence.PlatformOutlook,
			items: []connectors.Item{
				{ID: "good", Title: "Valid", Created: "2025-02-01T00:00:00Z"},
				{ID: "bad", Title: "Broken", Created: "not-a-date"},
			},
		},
	}}, nil)

	resp, err := sys.Scrape(context.Background(), mailRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.TotalItems != 1 {
		t.Errorf("total items: got %d, want 1", resp.TotalItems)
	}
	if len(resp.Errors) != 1 {
		t.Fatalf("errors: got %v, want one entry", resp.Errors)
	}
}

func TestScrapeBatchIsolatesFailures(t *testing.T) {
	sys := newTestSystem(&stubFactory{conns: map[evidence.Platform]*stubConnector{
		evidence.PlatformOutlook: {
			platform: evidence.PlatformOutlook,
			items: []connectors.Item{
				{ID: "mail", Title: "Mail", Created: "2025-02-01T00:00:00Z"},
			},
		},
		evidence.PlatformOneDrive: {
			platform: evidence.PlatformOneDrive,
			fetchErr: fmt.Errorf("%w: timeout", connectors.ErrConnection),
		},
	}}, nil)

	req := &evidence.BatchRequest{
		Platforms:     []evidence.Platform{evidence.PlatformOutlook, evidence.PlatformOneDrive},
		ScrapeRequest: *mailRequest(),
	}

	resp, err := sys.ScrapeBatch(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(resp.Results) != 2 {
		t.Fatalf("results: got %d, want 2", len(resp.Results))
	}
	if resp.TotalItems != 1 {
		t.Errorf("total items: got %d, want 1", resp.TotalItems)
	}

	byPlatform := map[evidence.Platform]evidence.ScrapeResponse{}
	for _, r := range resp.Results {
		byPlatform[r.Platform] = r
	}

	if got := byPlatform[evidence.PlatformOutlook]; got.TotalItems != 1 || len(got.Errors) != 0 {
		t.Errorf("outlook result: got %d items %v errors", got.TotalItems, got.Errors)
	}
	if got := byPlatform[evidence.PlatformOneDrive]; got.TotalItems != 0 || len(got.Errors) != 1 {
		t.Errorf("onedrive result: got %d items %v errors", got.TotalItems, got.Errors)
	}
}

func TestScrapeBatchMissingCredentialIsolated(t *testing.T) {
	sys := newTestSystem(&stubFactory{conns: map[evidence.Platform]*stubConnector{
		evidence.PlatformOutlook: {
			platform: evidence.PlatformOutlook,
			items: []connectors.Item{
				{ID: "mail", Title: "Mail", Created: "2025-02-01T00:00:00Z"},
			},
		},
	}}, nil)

	req := &evidence.BatchRequest{
		Platforms:     []evidence.Platform{evidence.PlatformOutlook, evidence.PlatformNextcloud},
		ScrapeRequest: *mailRequest(),
	}

	resp, err := sys.ScrapeBatch(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	byPlatform := map[evidence.Platform]evidence.ScrapeResponse{}
	for _, r := range resp.Results {
		byPlatform[r.Platform] = r
	}

	if got := byPlatform[evidence.PlatformNextcloud]; len(got.Errors) != 1 {
		t.Errorf("nextcloud result should carry the credential error, got %v", got.Errors)
	}
	if resp.TotalItems != 1 {
		t.Errorf("total items: got %d, want 1", resp.TotalItems)
	}
}

func TestScrapeAsyncLifecycle(t *testing.T) {
	sys := newTestSystem(&stubFactory{conns: map[evidence.Platform]*stubConnector{
		evidence.PlatformOutlook: {
			platform: evidence.PlatformOutlook,
			items: []connectors.Item{
				{ID: "feb", Title: "February mail", Created: "2025-02-10T08:30:00Z"},
			},
		},
	}}, nil)

	req := mailRequest()
	scan, err := sys.ScrapeAsync(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scan.ID == "" {
		t.Fatal("expected a scan id")
	}
	if scan.Status != StatusPending {
		t.Errorf("initial status: got %s, want pending", scan.Status)
	}

	final := waitForScan(t, sys, scan.ID, StatusCompleted)
	if final.EvidenceCount != 1 {
		t.Errorf("evidence count: got %d, want 1", final.EvidenceCount)
	}
	if final.CompletedAt == nil {
		t.Error("expected completed_at to be set")
	}
}

func TestScrapeAsyncPublishesOrderedEvents(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	channel := broadcast.NewChannel(logger)

	// The gate holds Fetch until the subscriber is attached, so every
	// event from progress onward is observed.
	gate := make(chan struct{})
	sys := New(
		&stubVault{bundles: map[string]map[string]string{}},
		&stubFactory{conns: map[evidence.Platform]*stubConnector{
			evidence.PlatformOutlook: {
				platform: evidence.PlatformOutlook,
				gate:     gate,
				items: []connectors.Item{
					{ID: "feb", Title: "February mail", Created: "2025-02-10T08:30:00Z"},
				},
			},
		}},
		channel,
		testPagination,
		logger,
	)

	scan, err := sys.ScrapeAsync(mailRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sub := &recordingSubscriber{}
	channel.Subscribe(scan.ID, sub)
	close(gate)

	waitForScan(t, sys, scan.ID, StatusCompleted)

	// Allow the completed event to flush.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		types := sub.types()
		if len(types) > 0 && types[len(types)-1] == EventCompleted {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	types := sub.types()
	if len(types) < 3 {
		t.Fatalf("expected progress, evidence, and completed events, got %v", types)
	}
	if types[len(types)-1] != EventCompleted {
		t.Fatalf("last event: got %s, want completed", types[len(types)-1])
	}

	// Observed events keep pipeline order: progress before evidence
	// before completed.
	order := map[string]int{EventStarted: 0, EventProgress: 1, EventEvidence: 2, EventCompleted: 3}
	for i := 1; i < len(types); i++ {
		if order[types[i]] < order[types[i-1]] {
			t.Fatalf("event order violated: %v", types)
		}
	}
}

func TestScrapeAsyncFailureMarksScan(t *testing.T) {
	sys := newTestSystem(&stubFactory{}, nil)

	// Factory has no connector registered, so Create fails with the
	// unsupported-platform configuration fault.
	scan, err := sys.ScrapeAsync(mailRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	final := waitForScan(t, sys, scan.ID, StatusFailed)
	if len(final.Errors) == 0 {
		t.Error("expected failure to be recorded in scan errors")
	}
}

func TestListPaginatesScans(t *testing.T) {
	sys := newTestSystem(&stubFactory{conns: map[evidence.Platform]*stubConnector{
		evidence.PlatformOutlook: {platform: evidence.PlatformOutlook},
	}}, nil)

	for range 3 {
		if _, err := sys.ScrapeAsync(mailRequest()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	result := sys.List(pagination.PageRequest{Page: 1, PageSize: 2})
	if result.Total != 3 {
		t.Errorf("total: got %d, want 3", result.Total)
	}
	if len(result.Data) != 2 {
		t.Errorf("page size: got %d, want 2", len(result.Data))
	}
	if result.TotalPages != 2 {
		t.Errorf("total pages: got %d, want 2", result.TotalPages)
	}
}

func waitForScan(t *testing.T, sys System, id string, want Status) Scan {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		scan, ok := sys.Find(id)
		if !ok {
			t.Fatalf("scan %s disappeared from registry", id)
		}
		if scan.Status == want {
			return scan
		}
		time.Sleep(10 * time.Millisecond)
	}

	scan, _ := sys.Find(id)
	t.Fatalf("scan %s never reached %s, last status %s", id, want, scan.Status)
	return Scan{}
}
