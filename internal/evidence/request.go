package evidence

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ScrapeRequest describes one collection run: which platform, what auth
// material, and the inclusive month/year window.
type ScrapeRequest struct {
	Platform       Platform `json:"platform" validate:"required"`
	Cookies        []Cookie `json:"cookies"`
	StartMonth     int      `json:"start_month" validate:"min=1,max=12"`
	EndMonth       int      `json:"end_month" validate:"min=1,max=12"`
	StartYear      int      `json:"start_year" validate:"min=1"`
	EndYear        int      `json:"end_year" validate:"min=1"`
	IncludeFilters []string `json:"include_filters,omitempty"`
	ExcludeFilters []string `json:"exclude_filters,omitempty"`
}

// Validate checks field bounds and cross-field date ordering. Cross-year
// ranges are always valid; within one year the start month must not follow
// the end month.
func (r *ScrapeRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if !r.Platform.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownPlatform, r.Platform)
	}
	if r.StartYear > r.EndYear {
		return fmt.Errorf("%w: start_year %d after end_year %d", ErrInvalidRange, r.StartYear, r.EndYear)
	}
	if r.StartYear == r.EndYear && r.StartMonth > r.EndMonth {
		return fmt.Errorf("%w: start_month must be <= end_month in same year", ErrInvalidRange)
	}
	return nil
}

// BatchRequest restores the original multi-platform scan shape: one window
// and filter set applied to several platforms concurrently.
type BatchRequest struct {
	Platforms []Platform `json:"platforms" validate:"required,min=1"`
	ScrapeRequest
}

// Validate checks the platform list and the embedded request fields.
func (r *BatchRequest) Validate() error {
	if len(r.Platforms) == 0 {
		return fmt.Errorf("%w: platforms must not be empty", ErrInvalidRequest)
	}
	for _, p := range r.Platforms {
		if !p.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownPlatform, p)
		}
	}
	sub := r.ScrapeRequest
	sub.Platform = r.Platforms[0]
	return sub.Validate()
}

// ScrapeResponse is the result of one collection run. Items keep the
// platform-native return order; Errors accumulates non-fatal per-item and
// per-platform failures.
type ScrapeResponse struct {
	Platform    Platform   `json:"platform"`
	TotalItems  int        `json:"total_items"`
	Items       []Evidence `json:"items"`
	Errors      []string   `json:"errors"`
	GeneratedAt time.Time  `json:"generated_at"`
}

// BatchResponse aggregates per-platform results of a batch run.
type BatchResponse struct {
	TotalItems  int              `json:"total_items"`
	Results     []ScrapeResponse `json:"results"`
	GeneratedAt time.Time        `json:"generated_at"`
}
