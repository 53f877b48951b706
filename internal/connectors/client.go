package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/motemen/go-loghttp"

	"github.com/vamp-agent/vamp/internal/evidence"
)

// newHTTPClient builds the pooled client shared by the HTTP-based variants.
// With LogRequests enabled, every outbound request and response is logged at
// debug level through the loghttp transport.
func newHTTPClient(cfg *Config, logger *slog.Logger) *http.Client {
	client := &http.Client{Timeout: cfg.TimeoutDuration()}

	if cfg.LogRequests {
		client.Transport = &loghttp.Transport{
			LogRequest: func(req *http.Request) {
				logger.Debug("outbound request", "method", req.Method, "url", req.URL.Redacted())
			},
			LogResponse: func(resp *http.Response) {
				logger.Debug("outbound response", "status", resp.StatusCode, "url", resp.Request.URL.Redacted())
			},
		}
	}

	return client
}

// getJSON performs an authenticated GET and decodes the JSON response body
// into out. Cookies, when present, are replayed verbatim; extra headers are
// applied as given. Non-2xx statuses degrade to ErrConnection.
func getJSON(
	ctx context.Context,
	client *http.Client,
	url string,
	cookies []evidence.Cookie,
	headers map[string]string,
	out any,
) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}

	req.Header.Set("Accept", "application/json")
	if header := evidence.CookieHeader(cookies); header != "" {
		req.Header.Set("Cookie", header)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: unexpected status %d", ErrConnection, resp.StatusCode)
	}

	return decodeJSON(resp, out)
}

func decodeJSON(resp *http.Response, out any) error {
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %w", ErrConnection, err)
	}
	return nil
}
