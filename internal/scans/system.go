package scans

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vamp-agent/vamp/internal/connectors"
	"github.com/vamp-agent/vamp/internal/evidence"
	"github.com/vamp-agent/vamp/pkg/broadcast"
	"github.com/vamp-agent/vamp/pkg/pagination"
	"github.com/vamp-agent/vamp/pkg/vault"
)

// ConnectorFactory constructs opened connectors for a platform. Satisfied by
// connectors.Factory; narrowed to an interface so orchestrator tests can
// substitute stub connectors.
type ConnectorFactory interface {
	Create(
		ctx context.Context,
		platform evidence.Platform,
		cookies []evidence.Cookie,
		credential map[string]string,
	) (connectors.Connector, error)
}

// System defines the public contract for collection orchestration.
type System interface {
	Handler(maxBodySize int64) *Handler

	Scrape(ctx context.Context, req *evidence.ScrapeRequest) (*evidence.ScrapeResponse, error)
	ScrapeBatch(ctx context.Context, req *evidence.BatchRequest) (*evidence.BatchResponse, error)
	ScrapeAsync(req *evidence.ScrapeRequest) (*Scan, error)

	Find(id string) (Scan, bool)
	List(page pagination.PageRequest) pagination.PageResult[Scan]
	Channel() *broadcast.Channel
}

type service struct {
	vault      vault.System
	factory    ConnectorFactory
	channel    *broadcast.Channel
	registry   *Registry
	pagination pagination.Config
	logger     *slog.Logger
}

// New creates the collection orchestrator.
func New(
	v vault.System,
	factory ConnectorFactory,
	channel *broadcast.Channel,
	paginationCfg pagination.Config,
	logger *slog.Logger,
) System {
	return &service{
		vault:      v,
		factory:    factory,
		channel:    channel,
		registry:   NewRegistry(),
		pagination: paginationCfg,
		logger:     logger.With("system", "scans"),
	}
}

func (s *service) Handler(maxBodySize int64) *Handler {
	return NewHandler(s, s.logger, s.pagination, maxBodySize)
}

func (s *service) Channel() *broadcast.Channel {
	return s.channel
}

// Scrape runs the full synchronous pipeline: validate, resolve auth, fetch
// through a scoped connector, filter, and convert. Connector failures are
// contained into the response's errors list; only request-shape and
// configuration problems return an error.
func (s *service) Scrape(ctx context.Context, req *evidence.ScrapeRequest) (*evidence.ScrapeResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	auth, err := s.resolveAuth(req.Platform, req.Cookies)
	if err != nil {
		return nil, err
	}

	return s.collect(ctx, req, auth, nil)
}

// ScrapeBatch runs the same pipeline for several platforms concurrently.
// Per-platform failures, including missing credentials, are isolated into
// that platform's result so one failing platform never aborts the batch.
func (s *service) ScrapeBatch(ctx context.Context, req *evidence.BatchRequest) (*evidence.BatchResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	results := make([]evidence.ScrapeResponse, len(req.Platforms))

	g, gctx := errgroup.WithContext(ctx)
	for i, platform := range req.Platforms {
		g.Go(func() error {
			sub := req.ScrapeRequest
			sub.Platform = platform

			auth, err := s.resolveAuth(platform, sub.Cookies)
			if err != nil {
				results[i] = evidence.ScrapeResponse{
					Platform:    platform,
					Items:       []evidence.Evidence{},
					Errors:      []string{err.Error()},
					GeneratedAt: time.Now().UTC(),
				}
				return nil
			}

			resp, err := s.collect(gctx, &sub, auth, nil)
			if err != nil {
				return err
			}
			results[i] = *resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, r := range results {
		total += r.TotalItems
	}

	return &evidence.BatchResponse{
		TotalItems:  total,
		Results:     results,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// ScrapeAsync validates the request, registers a scan handle, and runs the
// synchronous pipeline in a background task that publishes ordered progress
// events to the scan's topic instead of returning a response.
func (s *service) ScrapeAsync(req *evidence.ScrapeRequest) (*Scan, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	auth, err := s.resolveAuth(req.Platform, req.Cookies)
	if err != nil {
		return nil, err
	}

	scan := &Scan{
		ID:        uuid.NewString(),
		Platform:  req.Platform,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
		Errors:    []string{},
	}
	s.registry.Add(scan)

	go s.runBackground(scan.ID, req, auth)

	return scan, nil
}

func (s *service) Find(id string) (Scan, bool) {
	return s.registry.Find(id)
}

func (s *service) List(page pagination.PageRequest) pagination.PageResult[Scan] {
	page.Normalize(s.pagination)
	return pagination.Paginate(s.registry.List(), page)
}

func (s *service) runBackground(scanID string, req *evidence.ScrapeRequest, auth authMaterial) {
	logger := s.logger.With("scan_id", scanID)

	s.registry.Update(scanID, func(scan *Scan) {
		scan.Status = StatusRunning
	})
	s.publish(scanID, EventStarted, map[string]any{
		"scan_id":  scanID,
		"platform": req.Platform,
	})

	resp, err := s.collect(context.Background(), req, auth, func(event string, data map[string]any) {
		s.publish(scanID, event, data)
	})

	now := time.Now().UTC()
	if err != nil {
		logger.Error("background scan failed", "error", err)
		s.registry.Update(scanID, func(scan *Scan) {
			scan.Status = StatusFailed
			scan.CompletedAt = &now
			scan.Errors = append(scan.Errors, err.Error())
		})
		s.publish(scanID, EventFailed, map[string]any{
			"scan_id": scanID,
			"error":   err.Error(),
		})
		return
	}

	s.registry.Update(scanID, func(scan *Scan) {
		scan.Status = StatusCompleted
		scan.CompletedAt = &now
		scan.EvidenceCount = resp.TotalItems
		scan.Errors = append(scan.Errors, resp.Errors...)
	})
	s.publish(scanID, EventCompleted, map[string]any{
		"scan_id":     scanID,
		"total_items": resp.TotalItems,
		"errors":      resp.Errors,
	})
	logger.Info("background scan completed", "total_items", resp.TotalItems)
}

type authMaterial struct {
	cookies    []evidence.Cookie
	credential map[string]string
}

// resolveAuth supplies the auth material a platform statically requires:
// the request's cookie list for cookie-auth platforms, the vault bundle for
// credential-auth platforms. Missing material is a caller error.
func (s *service) resolveAuth(platform evidence.Platform, cookies []evidence.Cookie) (authMaterial, error) {
	switch platform.Auth() {
	case evidence.AuthCredential:
		bundle, err := s.vault.Get(string(platform))
		if err != nil {
			return authMaterial{}, err
		}
		if len(bundle) == 0 {
			return authMaterial{}, fmt.Errorf("%w: %s", evidence.ErrMissingCredential, platform)
		}
		return authMaterial{credential: bundle}, nil
	default:
		if len(cookies) == 0 {
			return authMaterial{}, fmt.Errorf("%w: %s", evidence.ErrMissingCookies, platform)
		}
		return authMaterial{cookies: cookies}, nil
	}
}

// collect runs window computation, connector lifecycle, filtering, and
// Evidence conversion. emit, when non-nil, receives progress and evidence
// events in pipeline order. The returned error is reserved for configuration
// faults; connector failures degrade to an empty result with errors noted.
func (s *service) collect(
	ctx context.Context,
	req *evidence.ScrapeRequest,
	auth authMaterial,
	emit func(event string, data map[string]any),
) (*evidence.ScrapeResponse, error) {
	start, end := ComputeWindow(req.StartMonth, req.StartYear, req.EndMonth, req.EndYear)

	resp := &evidence.ScrapeResponse{
		Platform: req.Platform,
		Items:    []evidence.Evidence{},
		Errors:   []string{},
	}

	s.logger.Info("collecting",
		"platform", req.Platform,
		"window_start", start,
		"window_end", end,
	)

	items, err := s.fetch(ctx, req.Platform, auth, start, end)
	if err != nil {
		if errors.Is(err, connectors.ErrUnsupportedPlatform) {
			return nil, err
		}
		s.logger.Warn("platform fetch failed", "platform", req.Platform, "error", err)
		resp.Errors = append(resp.Errors, fmt.Sprintf("%s: %v", req.Platform, err))
		resp.GeneratedAt = time.Now().UTC()
		return resp, nil
	}

	if emit != nil {
		emit(EventProgress, map[string]any{
			"platform": req.Platform,
			"fetched":  len(items),
		})
	}

	items = ApplyFilters(items, req.IncludeFilters, req.ExcludeFilters)

	for _, item := range items {
		ev, err := s.convert(req.Platform, item)
		if err != nil {
			s.logger.Warn("dropping item", "platform", req.Platform, "id", item.ID, "error", err)
			resp.Errors = append(resp.Errors, fmt.Sprintf("item %s: %v", item.ID, err))
			continue
		}

		resp.Items = append(resp.Items, ev)
		if emit != nil {
			emit(EventEvidence, map[string]any{"evidence": ev})
		}
	}

	resp.TotalItems = len(resp.Items)
	resp.GeneratedAt = time.Now().UTC()
	return resp, nil
}

// fetch obtains a connector from the factory and runs it through the scoped
// Collect lifecycle, guaranteeing release of the transport.
func (s *service) fetch(
	ctx context.Context,
	platform evidence.Platform,
	auth authMaterial,
	start, end time.Time,
) ([]connectors.Item, error) {
	conn, err := s.factory.Create(ctx, platform, auth.cookies, auth.credential)
	if err != nil {
		return nil, err
	}
	return connectors.Collect(ctx, conn, start, end)
}

// convert maps a raw item to an Evidence record. An unresolvable created
// timestamp fails the conversion; the caller drops the item and records the
// failure without aborting the run.
func (s *service) convert(platform evidence.Platform, item connectors.Item) (evidence.Evidence, error) {
	created, err := evidence.ParseTimestamp(item.Created)
	if err != nil {
		return evidence.Evidence{}, err
	}

	var modified *time.Time
	if item.Modified != "" {
		if t, err := evidence.ParseTimestamp(item.Modified); err == nil {
			modified = &t
		}
	}

	metadata := item.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	return evidence.Evidence{
		ID:          item.ID,
		Platform:    platform,
		Title:       item.Title,
		Description: item.Description,
		Content:     item.Content,
		CreatedAt:   created,
		ModifiedAt:  modified,
		URL:         item.URL,
		Status:      evidence.StatusCollected,
		Metadata:    metadata,
	}, nil
}

func (s *service) publish(topic, event string, data map[string]any) {
	s.channel.Publish(topic, broadcast.Message{
		Type:      event,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}
