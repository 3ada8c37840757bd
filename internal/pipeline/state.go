package pipeline

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/resume-editor/internal/pipeline/steps"
	"github.com/jonathan/resume-editor/internal/rendering"
	"github.com/jonathan/resume-editor/internal/types"
)

// errSkip marks a step that had nothing to do
var errSkip = errors.New("step skipped")

// state is what each step reads from the steps before it
type state struct {
	req   Request
	runID uuid.UUID

	intent       types.AgentIntent
	intentSource string
	signals      Signals
	jobText      string
	job          *types.JobPosting

	doc          any
	modification *types.ModificationIntent
	actions      []types.Action
	diffs        []types.Diff
	proposed     []types.Operation

	report      *types.Report
	theme       *types.Theme
	rendered    *rendering.Result
	previewPath string
	exportFiles []string
	record      *types.HistoryRecord

	prompts       []string
	degradedSteps map[steps.Step]bool
	results       []steps.Result
	envelope      *types.Envelope
}

func newState(req Request) *state {
	return &state{
		req:           req,
		doc:           req.Document,
		degradedSteps: make(map[steps.Step]bool),
	}
}

// prompt adds a message for the user, once
func (s *state) prompt(msg string) {
	if msg == "" {
		return
	}
	for _, p := range s.prompts {
		if p == msg {
			return
		}
	}
	s.prompts = append(s.prompts, msg)
}

// warn adds a prompt and marks the step degraded
func (s *state) warn(step steps.Step, msg string) {
	s.degradedSteps[step] = true
	s.prompt(msg)
}

func (s *state) degraded() bool {
	return len(s.degradedSteps) > 0
}

func (s *state) action(tool, rationale string, args map[string]any) {
	s.actions = append(s.actions, types.Action{Tool: tool, Args: args, Rationale: rationale})
}

func (s *state) runIDString() string {
	if s.runID == uuid.Nil {
		return ""
	}
	return s.runID.String()
}

// summary describes the outcome of step for progress events
func (s *state) summary(step steps.Step) string {
	switch step {
	case steps.DetectIntent:
		return fmt.Sprintf("Intent: %s", s.intent)
	case steps.ExtractSignals:
		return fmt.Sprintf("Found %d skills in the command", len(s.signals.Skills))
	case steps.AcquireJob:
		if s.job != nil {
			return fmt.Sprintf("Fetched job posting: %s", s.job.Title)
		}
		return "Using the supplied job description"
	case steps.MutateContent:
		return fmt.Sprintf("Applied %d changes", len(s.diffs))
	case steps.Score:
		if s.report != nil {
			return fmt.Sprintf("Match score %d/100", s.report.Score)
		}
		return "Not scored"
	case steps.ResolveTheme:
		if s.theme != nil {
			return fmt.Sprintf("Theme: %s, %s", s.theme.Font, s.theme.Layout)
		}
		return "Default theme"
	case steps.Render:
		if s.previewPath != "" {
			return fmt.Sprintf("Preview: %s", s.previewPath)
		}
		return "No preview"
	case steps.CommitVersion:
		if s.record != nil {
			return fmt.Sprintf("Saved version %s", s.record.VersionID)
		}
		return "Nothing to save"
	case steps.Assemble:
		return "Result ready"
	}
	return step.String()
}

func localID() string {
	return "local-" + uuid.NewString()
}

func degradedReport() *types.Report {
	return &types.Report{
		MissingKeywords: []string{},
		Recommendations: []types.Suggestion{},
		Languages:       map[string]types.LanguageScore{},
		Degraded:        true,
	}
}
