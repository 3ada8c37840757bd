package types

import "time"

// AgentIntent is the high-level classification of a chat instruction
type AgentIntent string

const (
	IntentOptimize        AgentIntent = "optimize"
	IntentEditContent     AgentIntent = "edit_content"
	IntentCustomizeDesign AgentIntent = "customize_design"
	IntentScore           AgentIntent = "score"
)

// Valid reports whether i is a known agent intent
func (i AgentIntent) Valid() bool {
	switch i {
	case IntentOptimize, IntentEditContent, IntentCustomizeDesign, IntentScore:
		return true
	}
	return false
}

// Action records a tool invocation made while handling an instruction
type Action struct {
	Tool      string         `json:"tool" validate:"required"`
	Args      map[string]any `json:"args,omitempty"`
	Rationale string         `json:"rationale"`
}

// Artifacts holds the document and any rendered files
type Artifacts struct {
	Document            any      `json:"document"`
	PreviewArtifactPath string   `json:"previewArtifactPath,omitempty"`
	ExportFiles         []string `json:"exportFiles,omitempty"`
}

// HistoryRecord is the envelope view of a committed version
type HistoryRecord struct {
	VersionID string    `json:"versionId" validate:"required"`
	Timestamp time.Time `json:"timestamp"`
	Score     *int      `json:"score,omitempty"`
	Local     bool      `json:"local,omitempty"`
}

// Envelope is the single result of one agent run
type Envelope struct {
	Intent          AgentIntent         `json:"intent"`
	Actions         []Action            `json:"actions"`
	Diffs           []Diff              `json:"diffs"`
	Artifacts       Artifacts           `json:"artifacts"`
	ATSReport       *Report             `json:"ats_report,omitempty"`
	HistoryRecord   *HistoryRecord      `json:"history_record,omitempty"`
	UIPrompts       []string            `json:"ui_prompts,omitempty"`
	ProposedChanges []Operation         `json:"proposed_changes,omitempty"`
	Modification    *ModificationIntent `json:"modification,omitempty"`
	Theme           *Theme              `json:"theme,omitempty"`
}

// JobPosting is the fetched job description
type JobPosting struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Company string `json:"company"`
	Text    string `json:"text"`
}
