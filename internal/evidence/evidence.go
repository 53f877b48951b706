package evidence

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle stage of a collected item. Collection always
// produces StatusCollected; the later stages are reserved for downstream
// classification work.
type Status string

const (
	StatusCollected  Status = "collected"
	StatusFiltered   Status = "filtered"
	StatusClassified Status = "classified"
	StatusArchived   Status = "archived"
)

// Evidence is an immutable record of one collected artifact. Metadata is
// platform-specific and preserved verbatim for audit traceability.
type Evidence struct {
	ID          string         `json:"id"`
	Platform    Platform       `json:"platform"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Content     string         `json:"content,omitempty"`
	CreatedAt   time.Time      `json:"created_date"`
	ModifiedAt  *time.Time     `json:"modified_date,omitempty"`
	URL         string         `json:"url,omitempty"`
	Status      Status         `json:"status"`
	Metadata    map[string]any `json:"metadata"`
}

// Cookie is one captured browser session cookie, replayed verbatim on
// outbound requests. Expires is epoch seconds as reported by the browser.
type Cookie struct {
	Name     string   `json:"name"`
	Value    string   `json:"value"`
	Domain   string   `json:"domain"`
	Path     string   `json:"path"`
	Secure   bool     `json:"secure"`
	HTTPOnly bool     `json:"httpOnly"`
	Expires  *float64 `json:"expires,omitempty"`
}

// CookieHeader renders cookies as a Cookie request header value.
func CookieHeader(cookies []Cookie) string {
	pairs := make([]string, 0, len(cookies))
	for _, c := range cookies {
		if c.Name == "" {
			continue
		}
		pairs = append(pairs, c.Name+"="+c.Value)
	}
	return strings.Join(pairs, "; ")
}

// ParseTimestamp resolves a source timestamp string to a UTC instant.
// Accepts RFC 3339 with offset or Z suffix, the offset-less ISO form some
// platforms emit (treated as UTC), and date-only values.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}
