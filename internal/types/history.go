package types

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// DiffScope classifies what part of the document a diff touched
type DiffScope string

const (
	ScopeSection   DiffScope = "section"
	ScopeParagraph DiffScope = "paragraph"
	ScopeBullet    DiffScope = "bullet"
	ScopeStyle     DiffScope = "style"
	ScopeLayout    DiffScope = "layout"
)

// Diff is a human-readable change log entry
type Diff struct {
	Scope  DiffScope `json:"scope" validate:"required,oneof=section paragraph bullet style layout"`
	Before string    `json:"before"`
	After  string    `json:"after"`
}

// HistoryEntry records one committed edit
type HistoryEntry struct {
	ID                string    `json:"id"`
	CreatedAt         time.Time `json:"created_at"`
	UserID            string    `json:"user_id"`
	DocumentVersionID string    `json:"document_version_id"`
	Score             *int      `json:"score,omitempty"`
	Diffs             []Diff    `json:"diffs,omitempty"`
	Notes             string    `json:"notes,omitempty"`
}

// Timeline is a user's undo/redo stacks. The top of each stack is the last element.
type Timeline struct {
	UserID  string         `json:"user_id"`
	Past    []HistoryEntry `json:"past"`
	Future  []HistoryEntry `json:"future"`
	Version int64          `json:"version"`
}

// Current returns the top of the past stack, or nil when empty
func (t *Timeline) Current() *HistoryEntry {
	if t == nil || len(t.Past) == 0 {
		return nil
	}
	e := t.Past[len(t.Past)-1]
	return &e
}

// Clone returns a copy whose stacks do not share backing arrays with t
func (t Timeline) Clone() Timeline {
	out := t
	out.Past = append([]HistoryEntry(nil), t.Past...)
	out.Future = append([]HistoryEntry(nil), t.Future...)
	return out
}

// DocumentVersion identifies a stored immutable document version
type DocumentVersion struct {
	VersionID string    `json:"version_id"`
	UserID    string    `json:"user_id"`
	Document  any       `json:"document,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SavedHistory is the persistence acknowledgement for a history row
type SavedHistory struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// OptimizationPatch is a partial update of a persisted history row. Nil fields are left unchanged.
type OptimizationPatch struct {
	Score  *int    `json:"score,omitempty" validate:"omitempty,min=0,max=100"`
	Notes  *string `json:"notes,omitempty"`
	Status *string `json:"status,omitempty" validate:"omitempty,oneof=committed scored reverted"`
}

// Empty reports whether the patch changes nothing
func (p OptimizationPatch) Empty() bool {
	return p.Score == nil && p.Notes == nil && p.Status == nil
}

// Validate checks field ranges
func (p OptimizationPatch) Validate() error {
	return validator.New().Struct(p)
}
