package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/resume-editor/internal/db"
	"github.com/jonathan/resume-editor/internal/document"
	"github.com/jonathan/resume-editor/internal/fieldpath"
	"github.com/jonathan/resume-editor/internal/intent"
	"github.com/jonathan/resume-editor/internal/modify"
	"github.com/jonathan/resume-editor/internal/pipeline/steps"
	"github.com/jonathan/resume-editor/internal/schemas"
	"github.com/jonathan/resume-editor/internal/theme"
	"github.com/jonathan/resume-editor/internal/types"
)

// User-facing degradation notices
const (
	PromptClassifyFailed = "I couldn't classify that request, so I treated it as a content edit."
	PromptScoreDegraded  = "ATS scoring is temporarily degraded; the score shown is a placeholder."
	PromptRenderFailed   = "The preview couldn't be rendered right now; your changes are still saved."
	PromptThemeFailed    = "I couldn't apply the design changes, so the default theme is shown."
	PromptMalformed      = "Some results were malformed and were replaced with defaults."
	PromptNoJob          = "Add a job description or job URL to get a match score."
)

// FallbackPreviewPath replaces the preview path when rendering fails
const FallbackPreviewPath = "artifacts/preview-unavailable.html"

const maxStrengthenSkills = 3

// --- detect_intent ---

func (a *Agent) detectIntent(ctx context.Context, s *state) error {
	if it, ok := DetectIntent(s.req.Message); ok {
		s.intent, s.intentSource = it, "pattern"
		return nil
	}
	if a.opts.Classifier == nil {
		s.intent, s.intentSource = DefaultIntent, "default"
		return nil
	}

	cctx, cancel := withTimeout(ctx, a.opts.Timeouts.LLM)
	defer cancel()
	it, err := a.opts.Classifier.Classify(cctx, s.req.Message)
	if err != nil {
		return err
	}
	s.intent, s.intentSource = it, "model"
	return nil
}

func fallbackIntent(s *state, _ error) {
	s.intent, s.intentSource = DefaultIntent, "default"
	s.warn(steps.DetectIntent, PromptClassifyFailed)
}

// --- extract_signals ---

func (a *Agent) extractSignals(_ context.Context, s *state) error {
	s.signals = ExtractSignals(s.req.Message)
	if s.req.JobURL != "" {
		s.signals.JobURL = s.req.JobURL
	}
	return nil
}

// --- acquire_job ---

func (a *Agent) acquireJob(ctx context.Context, s *state) error {
	s.jobText = strings.TrimSpace(s.req.JobText)
	if s.jobText != "" || s.signals.JobURL == "" {
		return errSkip
	}
	if a.opts.Fetcher == nil {
		return errors.New("no job fetcher configured")
	}

	fctx, cancel := withTimeout(ctx, a.opts.Timeouts.Fetch)
	defer cancel()
	job, err := a.opts.Fetcher.FetchJob(fctx, s.signals.JobURL)
	if err != nil {
		return err
	}
	s.job = job
	s.jobText = job.Text
	s.action("fetch_job", "No job description was supplied, so it was fetched from the job URL",
		map[string]any{"url": s.signals.JobURL})
	return nil
}

func fallbackJob(s *state, _ error) {
	s.jobText = ""
	s.warn(steps.AcquireJob, fmt.Sprintf("I couldn't fetch the job posting at %s, so it was left out.", s.signals.JobURL))
}

// --- mutate_content ---

func (a *Agent) mutateContent(ctx context.Context, s *state) error {
	switch s.intent {
	case types.IntentEditContent:
		return a.editContent(ctx, s)
	case types.IntentOptimize:
		return a.optimizeContent(s)
	}
	return errSkip
}

func (a *Agent) editContent(ctx context.Context, s *state) error {
	pctx, cancel := withTimeout(ctx, a.opts.Timeouts.LLM)
	defer cancel()

	mod, err := a.opts.Parser.Parse(pctx, s.req.Message, document.Context(s.doc))
	if errors.Is(err, intent.ErrEmptyMessage) {
		s.prompt("Tell me what you'd like to change.")
		return errSkip
	}
	if err != nil {
		return err
	}
	s.modification = mod
	for _, w := range mod.Warnings {
		s.prompt(w)
	}

	switch {
	case !mod.IsModification:
		s.prompt(`I didn't find an edit in that message. Try something like "add Senior to my job title".`)
		return errSkip
	case mod.RequiresClarification:
		s.prompt(mod.ClarificationQuestion)
		return errSkip
	case mod.ShouldSkip:
		return errSkip
	}

	ops := mod.Operations()
	if claims := unsupportedClaims(ops, s.req.Message); len(claims) > 0 {
		s.proposed = ops
		s.prompt(fmt.Sprintf("I didn't apply %s because it isn't in your message. Tell me the exact facts and I'll add them.",
			strings.Join(claims, ", ")))
		return errSkip
	}
	return s.apply(ops, "Requested in chat")
}

// unsupportedClaims returns metric and credential claims in the new values
// that the user's message does not contain
func unsupportedClaims(ops []types.Operation, message string) []string {
	var out []string
	for _, op := range ops {
		if v, ok := op.NewValue.(string); ok {
			out = append(out, theme.Unsupported(v, message)...)
		}
	}
	return out
}

func (a *Agent) optimizeContent(s *state) error {
	ops := skillMergeOps(s)
	if s.signals.Strengthen {
		if op, ok := strengthenOp(s.doc, s.jobText); ok {
			ops = append(ops, op)
		}
	}
	if len(ops) == 0 {
		return errSkip
	}
	return s.apply(ops, "Optimizing for the target job")
}

// apply runs ops in order against the current document. A failing
// operation leaves the document untouched.
func (s *state) apply(ops []types.Operation, rationale string) error {
	cur := s.doc
	diffs := make([]types.Diff, 0, len(ops))
	for _, op := range ops {
		next, err := modify.Apply(cur, op)
		if err != nil {
			return err
		}
		diffs = append(diffs, modify.Describe(cur, next, op))
		cur = next
	}

	s.doc = cur
	s.diffs = append(s.diffs, diffs...)
	for _, op := range ops {
		s.action("modify", rationale, map[string]any{
			"operation":  string(op.Operation),
			"field_path": op.FieldPath,
		})
	}
	return nil
}

// skillMergeOps appends signal skills the document does not list yet
func skillMergeOps(s *state) []types.Operation {
	if len(s.signals.Skills) == 0 {
		return nil
	}
	technical, soft := document.Skills(s.doc)
	have := make(map[string]bool)
	for _, skill := range append(technical, soft...) {
		have[strings.ToLower(skill)] = true
	}

	path := "skills.technical"
	if document.Context(s.doc).FlatSkills {
		path = "skills"
	}

	var ops []types.Operation
	for _, skill := range s.signals.Skills {
		key := strings.ToLower(skill)
		if have[key] {
			s.prompt(fmt.Sprintf("%s is already in your skills.", skill))
			continue
		}
		have[key] = true
		ops = append(ops, types.Operation{Operation: types.OpAppend, FieldPath: path, NewValue: skill})
	}
	return ops
}

// strengthenOp appends one sentence to the summary naming listed skills the
// job also asks for. It is a heuristic placeholder for a rewrite engine and
// only reuses words already in the document.
func strengthenOp(doc any, jobText string) (types.Operation, bool) {
	if strings.TrimSpace(jobText) == "" {
		return types.Operation{}, false
	}
	current, exists := fieldpath.Get(doc, "summary")
	summary, isString := current.(string)
	if exists && !isString {
		return types.Operation{}, false
	}

	technical, _ := document.Skills(doc)
	job := strings.ToLower(jobText)
	var matched []string
	for _, skill := range technical {
		if len(matched) == maxStrengthenSkills {
			break
		}
		if strings.Contains(job, strings.ToLower(skill)) {
			matched = append(matched, skill)
		}
	}
	if len(matched) == 0 {
		return types.Operation{}, false
	}

	sentence := "Hands-on experience with " + joinList(matched) + "."
	if strings.Contains(summary, sentence) {
		return types.Operation{}, false
	}
	if strings.TrimSpace(summary) == "" {
		return types.Operation{Operation: types.OpReplace, FieldPath: "summary", NewValue: sentence}, true
	}
	return types.Operation{Operation: types.OpSuffix, FieldPath: "summary", NewValue: " " + sentence}, true
}

func joinList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
}

func fallbackContent(s *state, err error) {
	var ve *modify.ValidationError
	if errors.As(err, &ve) {
		s.warn(steps.MutateContent, fmt.Sprintf("I couldn't apply that edit to %s: %s. Your résumé is unchanged.", ve.FieldPath, ve.Message))
		return
	}
	s.warn(steps.MutateContent, "I couldn't process that edit right now. Your résumé is unchanged.")
}

// --- score ---

func (a *Agent) score(_ context.Context, s *state) error {
	wanted := s.intent == types.IntentOptimize || s.intent == types.IntentScore || s.jobText != ""
	if !wanted {
		return errSkip
	}
	if s.jobText == "" {
		s.prompt(PromptNoJob)
	}

	report := a.opts.Scorer.Score(s.doc, s.jobText)
	if report == nil {
		return errors.New("scorer returned no report")
	}
	if report.MissingKeywords == nil {
		report.MissingKeywords = []string{}
	}
	if report.Recommendations == nil {
		report.Recommendations = []types.Suggestion{}
	}
	if report.Languages == nil {
		report.Languages = map[string]types.LanguageScore{}
	}
	s.report = report
	if report.Degraded {
		s.warn(steps.Score, PromptScoreDegraded)
	}
	s.action("ats_score", "Scored the résumé against the job description", map[string]any{"score": report.Score})

	if s.intent == types.IntentOptimize {
		for _, sug := range report.Recommendations {
			if op, err := modify.FromSuggestion(s.doc, sug); err == nil {
				s.proposed = append(s.proposed, op)
			}
		}
	}
	return nil
}

func fallbackScore(s *state, _ error) {
	s.report = degradedReport()
	s.warn(steps.Score, PromptScoreDegraded)
}

// --- resolve_theme ---

func (a *Agent) resolveTheme(_ context.Context, s *state) error {
	before, _ := theme.Resolve(s.req.Theme, theme.Request{})
	design := s.intent == types.IntentCustomizeDesign
	if !design && (s.intent != types.IntentOptimize || s.signals.Theme.Empty()) {
		s.theme = &before
		return errSkip
	}

	if design {
		if claims := theme.ClaimsIn(s.req.Message); len(claims) > 0 {
			s.prompt(fmt.Sprintf("I only changed the design. Add %s with a content edit if you want it on your résumé.",
				strings.Join(claims, ", ")))
		}
		if s.signals.Theme.Empty() {
			s.prompt("Tell me which font, color, layout or spacing you'd like.")
		}
	}

	after, warnings := theme.Resolve(s.req.Theme, s.signals.Theme)
	for _, w := range warnings {
		s.prompt(w)
	}
	changed := themeDiffs(before, after)
	s.diffs = append(s.diffs, changed...)
	s.theme = &after
	if len(changed) > 0 {
		s.action("resolve_theme", "Applied the requested design changes", map[string]any{
			"font":    after.Font,
			"layout":  after.Layout,
			"spacing": after.Spacing,
		})
	}
	return nil
}

func themeDiffs(before, after types.Theme) []types.Diff {
	fields := []struct {
		scope  types.DiffScope
		label  string
		before string
		after  string
	}{
		{types.ScopeStyle, "font", before.Font, after.Font},
		{types.ScopeStyle, "primary color", theme.NameFor(before.PrimaryColor), theme.NameFor(after.PrimaryColor)},
		{types.ScopeStyle, "accent color", theme.NameFor(before.AccentColor), theme.NameFor(after.AccentColor)},
		{types.ScopeStyle, "text color", theme.NameFor(before.TextColor), theme.NameFor(after.TextColor)},
		{types.ScopeStyle, "background color", theme.NameFor(before.BackgroundColor), theme.NameFor(after.BackgroundColor)},
		{types.ScopeLayout, "layout", before.Layout, after.Layout},
		{types.ScopeLayout, "spacing", before.Spacing, after.Spacing},
	}
	var out []types.Diff
	for _, f := range fields {
		if f.before != f.after {
			out = append(out, types.Diff{
				Scope:  f.scope,
				Before: f.label + ": " + f.before,
				After:  f.label + ": " + f.after,
			})
		}
	}
	return out
}

func fallbackTheme(s *state, _ error) {
	d := theme.Default()
	s.theme = &d
	s.warn(steps.ResolveTheme, PromptThemeFailed)
}

// --- render ---

func (a *Agent) render(ctx context.Context, s *state) error {
	if a.opts.Renderer == nil {
		return errSkip
	}
	th := theme.Default()
	if s.theme != nil {
		th = *s.theme
	}

	rctx, cancel := withTimeout(ctx, a.opts.Timeouts.Render)
	defer cancel()
	result, err := a.opts.Renderer.Render(rctx, s.doc, th)
	if err != nil {
		return err
	}
	s.rendered = result
	s.previewPath = result.PreviewArtifactPath
	s.exportFiles = result.ExportFiles
	s.action("render", "Rendered the preview and exports", map[string]any{"files": len(result.ExportFiles)})
	return nil
}

func fallbackRender(s *state, _ error) {
	s.rendered = nil
	s.previewPath = FallbackPreviewPath
	s.exportFiles = nil
	s.warn(steps.Render, PromptRenderFailed)
}

// --- commit_version ---

func (a *Agent) commitVersion(ctx context.Context, s *state) error {
	if len(s.diffs) == 0 {
		return errSkip
	}

	record := &types.HistoryRecord{Timestamp: time.Now().UTC()}
	if s.report != nil && !s.report.Degraded {
		score := s.report.Score
		record.Score = &score
	}
	entry := types.HistoryEntry{
		UserID: s.req.UserID,
		Diffs:  s.diffs,
		Notes:  s.req.Message,
	}

	if a.opts.Persistence == nil {
		record.VersionID, record.Local = localID(), true
		entry.ID = localID()
	} else {
		a.persist(ctx, s, record, &entry)
	}
	entry.DocumentVersionID = record.VersionID
	entry.CreatedAt = record.Timestamp
	entry.Score = record.Score

	if a.opts.History != nil {
		hctx, cancel := withTimeout(ctx, a.opts.Timeouts.Persistence)
		_, err := a.opts.History.Save(hctx, entry)
		cancel()
		if err != nil {
			a.logger.Warn("failed to save history timeline", zap.String("user_id", s.req.UserID), zap.Error(err))
			s.warn(steps.CommitVersion, "Undo isn't available for this edit right now.")
		}
	}

	s.record = record
	s.action("commit_version", "Saved the edited résumé as a new version", map[string]any{"version_id": record.VersionID})
	return nil
}

// persist stores the version and history row, substituting local ids for
// whatever fails
func (a *Agent) persist(ctx context.Context, s *state, record *types.HistoryRecord, entry *types.HistoryEntry) {
	store := a.opts.Persistence

	pctx, cancel := withTimeout(ctx, a.opts.Timeouts.Persistence)
	version, err := store.CreateVersion(pctx, s.req.UserID, s.doc)
	cancel()
	if err != nil {
		record.VersionID, record.Local = localID(), true
		entry.ID = localID()
		a.logger.Warn("failed to save document version", zap.String("user_id", s.req.UserID), zap.Error(err))
		s.warn(steps.CommitVersion, fmt.Sprintf("I couldn't save this version, so it has the temporary id %s.", record.VersionID))
		return
	}
	record.VersionID = version.VersionID
	record.Timestamp = version.CreatedAt

	entry.DocumentVersionID = version.VersionID
	entry.CreatedAt = version.CreatedAt
	pctx, cancel = withTimeout(ctx, a.opts.Timeouts.Persistence)
	saved, err := store.SaveHistory(pctx, *entry)
	cancel()
	if err != nil {
		entry.ID = localID()
		a.logger.Warn("failed to save history row", zap.String("version_id", version.VersionID), zap.Error(err))
		s.warn(steps.CommitVersion, "This edit was saved, but its history entry is only kept locally.")
		return
	}
	entry.ID = saved.ID

	if record.Score == nil {
		return
	}
	status := db.HistoryStatusScored
	pctx, cancel = withTimeout(ctx, a.opts.Timeouts.Persistence)
	err = store.UpdateOptimization(pctx, saved.ID, types.OptimizationPatch{Score: record.Score, Status: &status})
	cancel()
	if err != nil {
		a.logger.Warn("failed to record score on history row", zap.String("history_id", saved.ID), zap.Error(err))
	}
}

func fallbackCommit(s *state, _ error) {
	s.record = &types.HistoryRecord{VersionID: localID(), Timestamp: time.Now().UTC(), Local: true}
	s.warn(steps.CommitVersion, fmt.Sprintf("I couldn't save this version, so it has the temporary id %s.", s.record.VersionID))
}

// --- assemble ---

func (a *Agent) assemble(_ context.Context, s *state) error {
	env := &types.Envelope{Intent: s.intent, ProposedChanges: s.proposed}
	var malformed []string
	check := func(part string, err error) {
		if err != nil {
			malformed = append(malformed, part)
			a.logger.Warn("envelope part failed validation", zap.String("part", part), zap.Error(err))
		}
	}

	var err error
	actions := s.actions
	if actions == nil {
		actions = []types.Action{}
	}
	env.Actions, err = schemas.SafeParse(schemas.Actions, actions, []types.Action{})
	check("actions", err)

	diffs := s.diffs
	if diffs == nil {
		diffs = []types.Diff{}
	}
	env.Diffs, err = schemas.SafeParse(schemas.Diffs, diffs, []types.Diff{})
	check("diffs", err)

	artifacts := types.Artifacts{Document: s.doc, PreviewArtifactPath: s.previewPath, ExportFiles: s.exportFiles}
	env.Artifacts, err = schemas.SafeParse(schemas.Artifacts, artifacts, types.Artifacts{Document: s.req.Document})
	check("artifacts", err)

	if s.report != nil {
		report, err := schemas.SafeParse(schemas.ATSReport, *s.report, *degradedReport())
		check("ats_report", err)
		env.ATSReport = &report
	}
	if s.record != nil {
		fallback := types.HistoryRecord{VersionID: localID(), Timestamp: time.Now().UTC(), Local: true}
		record, err := schemas.SafeParse(schemas.HistoryRecord, *s.record, fallback)
		check("history_record", err)
		env.HistoryRecord = &record
	}
	if s.theme != nil {
		th, err := schemas.SafeParse(schemas.Theme, *s.theme, theme.Default())
		check("theme", err)
		env.Theme = &th
	}
	if s.modification != nil {
		fallback := types.ModificationIntent{
			RequiresClarification: true,
			ClarificationQuestion: "Could you rephrase that edit?",
		}
		mod, err := schemas.SafeParse(schemas.ModificationIntent, *s.modification, fallback)
		check("modification", err)
		env.Modification = &mod
	}

	if len(malformed) > 0 {
		s.warn(steps.Assemble, PromptMalformed)
	}
	env.UIPrompts = append([]string(nil), s.prompts...)
	s.envelope = env
	return nil
}

func fallbackAssemble(s *state, _ error) {
	s.warn(steps.Assemble, PromptMalformed)
	s.envelope = &types.Envelope{
		Intent:    s.intent,
		Actions:   []types.Action{},
		Diffs:     []types.Diff{},
		Artifacts: types.Artifacts{Document: s.req.Document},
		UIPrompts: append([]string(nil), s.prompts...),
	}
}
