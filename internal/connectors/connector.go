// Package connectors implements the platform connector contract and its five
// variants. Each connector authenticates with the auth material it was built
// with, lists the platform's native items inside a date window, and maps them
// to raw Items for the orchestrator to convert into Evidence.
package connectors

import (
	"context"
	"time"

	"github.com/vamp-agent/vamp/internal/evidence"
)

// Item is one raw platform record before Evidence conversion. Created and
// Modified are kept as the platform's own timestamp strings so conversion
// failures can be reported per item instead of aborting a fetch.
type Item struct {
	ID          string
	Title       string
	Description string
	Content     string
	Created     string
	Modified    string
	URL         string
	Metadata    map[string]any
}

// Connector is the lifecycle every platform variant implements.
//
// Open establishes the transport (pooled HTTP client or browser session).
// Fetch lists items whose creation instant falls inside [start, end]; the
// window is applied server-side where the platform supports it, client-side
// otherwise, and single malformed records are skipped with a warning rather
// than failing the fetch. Close releases the transport and must be safe to
// call even when Fetch failed.
type Connector interface {
	Platform() evidence.Platform
	Open(ctx context.Context) error
	Fetch(ctx context.Context, start, end time.Time) ([]Item, error)
	Close() error
}

// Collect runs a connector through its full fetch lifecycle, guaranteeing
// Close runs whether or not Fetch succeeds. Callers receive the fetch error
// unless only Close failed.
func Collect(ctx context.Context, c Connector, start, end time.Time) ([]Item, error) {
	items, err := c.Fetch(ctx, start, end)
	if cerr := c.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}
	return items, nil
}

// withinWindow reports whether a parsed instant falls in the inclusive window.
func withinWindow(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}
