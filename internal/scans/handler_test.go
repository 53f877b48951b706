package scans

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vamp-agent/vamp/internal/connectors"
	"github.com/vamp-agent/vamp/internal/evidence"
	"github.com/vamp-agent/vamp/pkg/routes"
)

func newTestMux(t *testing.T, sys System) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	routes.Register(mux, sys.Handler(1<<20).Routes()...)
	return mux
}

func TestHandlerScrape(t *testing.T) {
	sys := newTestSystem(&stubFactory{conns: map[evidence.Platform]*stubConnector{
		evidence.PlatformOutlook: {
			platform: evidence.PlatformOutlook,
			items: []connectors.Item{
				{ID: "feb", Title: "February mail", Created: "2025-02-10T08:30:00Z"},
			},
		},
	}}, nil)
	mux := newTestMux(t, sys)

	body := `{"platform":"outlook","cookies":[{"name":"session","value":"abc"}],
		"start_month":1,"start_year":2025,"end_month":3,"end_year":2025}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/scrape", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp evidence.ScrapeResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TotalItems != 1 {
		t.Errorf("total items: got %d, want 1", resp.TotalItems)
	}
}

func TestHandlerScrapeValidationErrors(t *testing.T) {
	sys := newTestSystem(&stubFactory{}, nil)
	mux := newTestMux(t, sys)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{`, http.StatusBadRequest},
		{
			"unknown platform",
			`{"platform":"myspace","start_month":1,"start_year":2025,"end_month":3,"end_year":2025}`,
			http.StatusBadRequest,
		},
		{
			"missing cookies",
			`{"platform":"outlook","start_month":1,"start_year":2025,"end_month":3,"end_year":2025}`,
			http.StatusBadRequest,
		},
		{
			"inverted months",
			`{"platform":"outlook","cookies":[{"name":"s","value":"v"}],
			 "start_month":5,"start_year":2025,"end_month":3,"end_year":2025}`,
			http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("POST", "/scrape", strings.NewReader(tt.body)))

			if rec.Code != tt.want {
				t.Errorf("status: got %d, want %d", rec.Code, tt.want)
			}

			var envelope map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
				t.Fatalf("decode error envelope: %v", err)
			}
			if envelope["error"] == "" {
				t.Error("expected error message in envelope")
			}
		})
	}
}

func TestHandlerScrapeAsyncAccepted(t *testing.T) {
	sys := newTestSystem(&stubFactory{conns: map[evidence.Platform]*stubConnector{
		evidence.PlatformOutlook: {platform: evidence.PlatformOutlook},
	}}, nil)
	mux := newTestMux(t, sys)

	body := `{"platform":"outlook","cookies":[{"name":"session","value":"abc"}],
		"start_month":1,"start_year":2025,"end_month":3,"end_year":2025}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/scrape/async", strings.NewReader(body)))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status: got %d, want 202", rec.Code)
	}

	var scan Scan
	if err := json.NewDecoder(rec.Body).Decode(&scan); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if scan.ID == "" {
		t.Error("expected scan_id in response")
	}

	// The returned handle is immediately visible through the scans API.
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/scans/"+scan.ID, nil))
	if rec.Code != http.StatusOK {
		t.Errorf("find status: got %d, want 200", rec.Code)
	}
}

func TestHandlerFindMissingScan(t *testing.T) {
	sys := newTestSystem(&stubFactory{}, nil)
	mux := newTestMux(t, sys)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/scans/absent", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rec.Code)
	}
}

func TestHandlerPlatforms(t *testing.T) {
	sys := newTestSystem(&stubFactory{}, nil)
	mux := newTestMux(t, sys)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/platforms", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}

	var resp struct {
		Platforms []evidence.Descriptor `json:"platforms"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Platforms) != 5 {
		t.Errorf("platforms: got %d, want 5", len(resp.Platforms))
	}
}

func TestHandlerBodySizeLimit(t *testing.T) {
	sys := newTestSystem(&stubFactory{}, nil)

	mux := http.NewServeMux()
	routes.Register(mux, sys.Handler(16).Routes()...)

	body := `{"platform":"outlook","cookies":[{"name":"session","value":"abc"}],
		"start_month":1,"start_year":2025,"end_month":3,"end_year":2025}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/scrape", strings.NewReader(body)))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400 for oversized body", rec.Code)
	}
}
