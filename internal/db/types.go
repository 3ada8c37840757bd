package db

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrRunNotFound is returned when deleting a run that does not exist
var ErrRunNotFound = errors.New("run not found")

// Run is one chat instruction processed by the agent
type Run struct {
	ID          uuid.UUID  `json:"id"`
	UserID      string     `json:"user_id"`
	Message     string     `json:"message"`
	Intent      string     `json:"intent"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Run status values
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusDegraded  = "degraded"
)

// Artifact step names stored per run
const (
	ArtifactIntent   = "intent"
	ArtifactReport   = "score_report"
	ArtifactEnvelope = "envelope"
	ArtifactPreview  = "preview_html"
	ArtifactLatex    = "resume_tex"
)

// History entry status values
const (
	HistoryStatusCommitted = "committed"
	HistoryStatusScored    = "scored"
	HistoryStatusReverted  = "reverted"
)
