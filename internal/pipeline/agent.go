// Package pipeline runs the chat agent: one instruction in, one result
// envelope out. Every step has a fallback, so a run never fails.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/resume-editor/internal/ats"
	"github.com/jonathan/resume-editor/internal/db"
	"github.com/jonathan/resume-editor/internal/fetch"
	"github.com/jonathan/resume-editor/internal/history"
	"github.com/jonathan/resume-editor/internal/intent"
	"github.com/jonathan/resume-editor/internal/pipeline/steps"
	"github.com/jonathan/resume-editor/internal/rendering"
	"github.com/jonathan/resume-editor/internal/types"
)

// Persistence stores document versions and history rows. Both *db.DB and
// *localstore.Store implement it.
type Persistence interface {
	CreateVersion(ctx context.Context, userID string, document any) (*types.DocumentVersion, error)
	SaveHistory(ctx context.Context, entry types.HistoryEntry) (*types.SavedHistory, error)
	UpdateOptimization(ctx context.Context, id string, patch types.OptimizationPatch) error
}

// Scorer scores a document against a job description
type Scorer interface {
	Score(doc any, jobText string) *types.Report
}

// RunRecorder keeps an audit trail of runs. *db.DB implements it.
type RunRecorder interface {
	CreateRun(ctx context.Context, userID, message string) (uuid.UUID, error)
	SaveArtifact(ctx context.Context, runID uuid.UUID, step string, content any) error
	SaveTextArtifact(ctx context.Context, runID uuid.UUID, step, text string) error
	CompleteRun(ctx context.Context, runID uuid.UUID, intent, status string) error
}

// Timeouts bound each collaborator call. Zero means no timeout.
type Timeouts struct {
	LLM         time.Duration
	Fetch       time.Duration
	Persistence time.Duration
	Render      time.Duration
}

// Options wires the agent's collaborators. Only Parser and Scorer have
// defaults; every other nil collaborator disables its step.
type Options struct {
	Parser      intent.Parser
	Classifier  Classifier
	Fetcher     fetch.Fetcher
	Scorer      Scorer
	Renderer    rendering.Renderer
	Persistence Persistence
	History     *history.Store
	Recorder    RunRecorder
	Timeouts    Timeouts
	Logger      *zap.Logger
}

// Request is one chat instruction
type Request struct {
	UserID   string       `json:"user_id"`
	Message  string       `json:"message" validate:"required"`
	Document any          `json:"document"`
	JobText  string       `json:"job_text,omitempty"`
	JobURL   string       `json:"job_url,omitempty" validate:"omitempty,url"`
	Theme    *types.Theme `json:"theme,omitempty"`
}

// ProgressEvent reports the end of one step
type ProgressEvent struct {
	Step       string   `json:"step"`
	Category   string   `json:"category"`
	Status     string   `json:"status"`
	Message    string   `json:"message"`
	DurationMS int64    `json:"duration_ms"`
	RunID      string   `json:"run_id,omitempty"`
	Prompts    []string `json:"prompts,omitempty"`
}

// ProgressCallback is called after every step
type ProgressCallback func(event ProgressEvent)

// Agent orchestrates one run per instruction. It is safe for concurrent use.
type Agent struct {
	opts   Options
	logger *zap.Logger
	order  []steps.Step
}

// New creates an agent
func New(opts Options) (*Agent, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Parser == nil {
		opts.Parser = intent.NewRegexParser()
	}
	if opts.Scorer == nil {
		opts.Scorer = ats.NewEngine(opts.Logger)
	}
	order, err := steps.Order()
	if err != nil {
		return nil, fmt.Errorf("failed to order steps: %w", err)
	}
	return &Agent{opts: opts, logger: opts.Logger, order: order}, nil
}

// Run handles one instruction. It never returns a nil envelope.
func (a *Agent) Run(ctx context.Context, req Request) *types.Envelope {
	return a.Stream(ctx, req, nil)
}

// Stream is Run with a callback after every step
func (a *Agent) Stream(ctx context.Context, req Request, onProgress ProgressCallback) *types.Envelope {
	if req.UserID == "" {
		req.UserID = "anonymous"
	}
	s := newState(req)
	a.startRun(ctx, s)

	for _, step := range a.order {
		result := a.runStep(ctx, step, s)
		s.results = append(s.results, result)
		if onProgress != nil {
			onProgress(ProgressEvent{
				Step:       step.String(),
				Category:   step.Category(),
				Status:     result.Status,
				Message:    s.summary(step),
				DurationMS: result.Duration.Milliseconds(),
				RunID:      s.runIDString(),
				Prompts:    result.Prompts,
			})
		}
	}

	if s.envelope == nil {
		fallbackAssemble(s, nil)
	}
	a.finishRun(ctx, s)
	return s.envelope
}

// runStep executes one handler, converting errors and panics into the
// step's fallback
func (a *Agent) runStep(ctx context.Context, step steps.Step, s *state) (result steps.Result) {
	start := time.Now()
	promptsBefore := len(s.prompts)
	result = steps.Result{Step: step, Status: steps.StatusCompleted}

	defer func() {
		if r := recover(); r != nil {
			result.Error = fmt.Errorf("panic: %v", r)
			result.Status = steps.StatusDegraded
			a.fallback(step, s, result.Error)
		}
		result.Duration = time.Since(start)
		result.Prompts = append([]string(nil), s.prompts[promptsBefore:]...)
		if s.degradedSteps[step] && result.Status == steps.StatusCompleted {
			result.Status = steps.StatusDegraded
		}

		fields := []zap.Field{
			zap.String("step", step.String()),
			zap.String("status", result.Status),
			zap.Duration("duration", result.Duration),
		}
		if result.Error != nil {
			a.logger.Warn("step degraded", append(fields, zap.Error(result.Error))...)
		} else {
			a.logger.Debug("step finished", fields...)
		}
	}()

	err := a.handler(step)(ctx, s)
	switch {
	case err == errSkip:
		result.Status = steps.StatusSkipped
	case err != nil:
		result.Error = err
		result.Status = steps.StatusDegraded
		a.fallback(step, s, err)
	}
	return result
}

func (a *Agent) handler(step steps.Step) func(context.Context, *state) error {
	switch step {
	case steps.DetectIntent:
		return a.detectIntent
	case steps.ExtractSignals:
		return a.extractSignals
	case steps.AcquireJob:
		return a.acquireJob
	case steps.MutateContent:
		return a.mutateContent
	case steps.Score:
		return a.score
	case steps.ResolveTheme:
		return a.resolveTheme
	case steps.Render:
		return a.render
	case steps.CommitVersion:
		return a.commitVersion
	case steps.Assemble:
		return a.assemble
	}
	return func(context.Context, *state) error { return fmt.Errorf("no handler for %s", step) }
}

func (a *Agent) fallback(step steps.Step, s *state, err error) {
	switch step {
	case steps.DetectIntent:
		fallbackIntent(s, err)
	case steps.ExtractSignals:
		s.signals = Signals{}
	case steps.AcquireJob:
		fallbackJob(s, err)
	case steps.MutateContent:
		fallbackContent(s, err)
	case steps.Score:
		fallbackScore(s, err)
	case steps.ResolveTheme:
		fallbackTheme(s, err)
	case steps.Render:
		fallbackRender(s, err)
	case steps.CommitVersion:
		fallbackCommit(s, err)
	case steps.Assemble:
		fallbackAssemble(s, err)
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func (a *Agent) startRun(ctx context.Context, s *state) {
	if a.opts.Recorder == nil {
		return
	}
	rctx, cancel := withTimeout(ctx, a.opts.Timeouts.Persistence)
	defer cancel()
	runID, err := a.opts.Recorder.CreateRun(rctx, s.req.UserID, s.req.Message)
	if err != nil {
		a.logger.Warn("failed to record run", zap.Error(err))
		return
	}
	s.runID = runID
}

func (a *Agent) finishRun(ctx context.Context, s *state) {
	if a.opts.Recorder == nil || s.runID == uuid.Nil {
		return
	}
	rctx, cancel := withTimeout(ctx, a.opts.Timeouts.Persistence)
	defer cancel()

	rec := a.opts.Recorder
	save := func(step string, err error) {
		if err != nil {
			a.logger.Debug("failed to save run artifact",
				zap.String("run_id", s.runID.String()), zap.String("artifact", step), zap.Error(err))
		}
	}
	save(db.ArtifactIntent, rec.SaveArtifact(rctx, s.runID, db.ArtifactIntent, s.modification))
	if s.envelope.ATSReport != nil {
		save(db.ArtifactReport, rec.SaveArtifact(rctx, s.runID, db.ArtifactReport, s.envelope.ATSReport))
	}
	if s.rendered != nil && s.rendered.HTML != "" {
		save(db.ArtifactPreview, rec.SaveTextArtifact(rctx, s.runID, db.ArtifactPreview, s.rendered.HTML))
	}
	if s.rendered != nil && s.rendered.LaTeX != "" {
		save(db.ArtifactLatex, rec.SaveTextArtifact(rctx, s.runID, db.ArtifactLatex, s.rendered.LaTeX))
	}
	save(db.ArtifactEnvelope, rec.SaveArtifact(rctx, s.runID, db.ArtifactEnvelope, s.envelope))

	status := db.RunStatusCompleted
	if s.degraded() {
		status = db.RunStatusDegraded
	}
	if err := rec.CompleteRun(rctx, s.runID, string(s.intent), status); err != nil {
		a.logger.Warn("failed to complete run", zap.String("run_id", s.runID.String()), zap.Error(err))
	}
}
