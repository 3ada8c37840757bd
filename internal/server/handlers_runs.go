package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/jonathan/resume-editor/internal/db"
	"github.com/jonathan/resume-editor/internal/server/middleware"
)

// maxRunsLimit caps GET /v1/runs?limit=
const maxRunsLimit = 200

// RunStore reads the audit trail the agent records for each chat turn.
// *db.DB implements it.
type RunStore interface {
	ListRuns(ctx context.Context, userID string, limit int) ([]db.Run, error)
	GetRun(ctx context.Context, runID uuid.UUID) (*db.Run, error)
	GetArtifact(ctx context.Context, runID uuid.UUID, step string) ([]byte, error)
	GetTextArtifact(ctx context.Context, runID uuid.UUID, step string) (string, error)
	DeleteRun(ctx context.Context, runID uuid.UUID) error
}

// RunListResponse is the body of GET /v1/runs
type RunListResponse struct {
	Runs  []db.Run `json:"runs"`
	Count int      `json:"count"`
}

// RunResponse is one run with its stored artifacts
type RunResponse struct {
	db.Run
	Intent   json.RawMessage `json:"intent_artifact,omitempty"`
	Report   json.RawMessage `json:"score_report,omitempty"`
	Envelope json.RawMessage `json:"envelope,omitempty"`
}

// handleListRuns lists the caller's most recent chat turns
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		s.errorFrom(w, &ErrUnavailable{Feature: "run history"})
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxRunsLimit {
			s.errorFrom(w, &ErrValidation{Field: "limit", Message: "must be between 1 and 200"})
			return
		}
		limit = n
	}

	runs, err := s.runs.ListRuns(r.Context(), middleware.GetUserID(r), limit)
	if err != nil {
		s.errorFrom(w, err)
		return
	}
	if runs == nil {
		runs = []db.Run{}
	}
	s.jsonResponse(w, http.StatusOK, RunListResponse{Runs: runs, Count: len(runs)})
}

// handleGetRun returns one run with its intent, report and envelope
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.ownedRun(w, r)
	if !ok {
		return
	}

	resp := RunResponse{Run: *run}
	for step, dst := range map[string]*json.RawMessage{
		db.ArtifactIntent:   &resp.Intent,
		db.ArtifactReport:   &resp.Report,
		db.ArtifactEnvelope: &resp.Envelope,
	} {
		content, err := s.runs.GetArtifact(r.Context(), run.ID, step)
		if err != nil {
			s.errorFrom(w, err)
			return
		}
		if len(content) > 0 {
			*dst = content
		}
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleRunPreview serves the HTML preview rendered during a run
func (s *Server) handleRunPreview(w http.ResponseWriter, r *http.Request) {
	run, ok := s.ownedRun(w, r)
	if !ok {
		return
	}
	html, err := s.runs.GetTextArtifact(r.Context(), run.ID, db.ArtifactPreview)
	if err != nil {
		s.errorFrom(w, err)
		return
	}
	if html == "" {
		s.errorFrom(w, &ErrNotFound{Resource: "preview", ID: run.ID.String()})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}

// handleDeleteRun removes a run and its artifacts
func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.ownedRun(w, r)
	if !ok {
		return
	}
	if err := s.runs.DeleteRun(r.Context(), run.ID); err != nil {
		s.errorFrom(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ownedRun loads the run named by the {id} path value. Runs of other users
// are reported as not found.
func (s *Server) ownedRun(w http.ResponseWriter, r *http.Request) (*db.Run, bool) {
	if s.runs == nil {
		s.errorFrom(w, &ErrUnavailable{Feature: "run history"})
		return nil, false
	}
	raw := r.PathValue("id")
	runID, err := uuid.Parse(raw)
	if err != nil {
		s.errorFrom(w, &ErrValidation{Field: "id", Message: "must be a UUID"})
		return nil, false
	}
	run, err := s.runs.GetRun(r.Context(), runID)
	if err != nil {
		s.errorFrom(w, err)
		return nil, false
	}
	if run == nil || run.UserID != middleware.GetUserID(r) {
		s.errorFrom(w, &ErrNotFound{Resource: "run", ID: raw})
		return nil, false
	}
	return run, true
}
