// Package scans implements the collection orchestrator: window computation,
// credential resolution, connector lifecycle, filtering, Evidence conversion,
// and progress broadcast for asynchronous runs.
package scans

import (
	"time"

	"github.com/vamp-agent/vamp/internal/evidence"
)

// Status is the lifecycle state of an asynchronous scan.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Scan is the handle for one asynchronous collection run. Handles live only
// in process memory; they are created at request time and mutated solely by
// the orchestrator's background task.
type Scan struct {
	ID            string            `json:"scan_id"`
	Platform      evidence.Platform `json:"platform"`
	Status        Status            `json:"status"`
	CreatedAt     time.Time         `json:"created_at"`
	CompletedAt   *time.Time        `json:"completed_at,omitempty"`
	EvidenceCount int               `json:"evidence_count"`
	Errors        []string          `json:"errors"`
}

// Progress event types published to a scan's topic, in the order the
// orchestrator emits them: started, then progress and evidence events,
// then completed or failed.
const (
	EventStarted   = "started"
	EventProgress  = "progress"
	EventEvidence  = "evidence"
	EventCompleted = "completed"
	EventFailed    = "failed"
)
