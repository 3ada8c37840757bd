package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jonathan/resume-editor/internal/db"
	"github.com/jonathan/resume-editor/internal/document"
	"github.com/jonathan/resume-editor/internal/fieldpath"
	"github.com/jonathan/resume-editor/internal/history"
	"github.com/jonathan/resume-editor/internal/pipeline/steps"
	"github.com/jonathan/resume-editor/internal/rendering"
	"github.com/jonathan/resume-editor/internal/types"
)

const resumeJSON = `{
	"contact": {"name": "Ada Lovelace", "email": "ada@example.com"},
	"summary": "Backend engineer.",
	"skills": {"technical": ["Go", "PostgreSQL"], "soft": ["Mentoring"]},
	"experience": [{"title": "Software Engineer", "company": "Analytical Engines", "start": "2020-01", "end": "present",
		"achievements": ["Built the billing pipeline in Go"]}]
}`

const jobText = `Senior Backend Engineer. We need Go, Kafka and PostgreSQL experience building distributed systems.`

func resumeDoc(t *testing.T) any {
	t.Helper()
	doc, err := document.Decode([]byte(resumeJSON))
	require.NoError(t, err)
	return doc
}

func newAgent(t *testing.T, opts Options) *Agent {
	t.Helper()
	a, err := New(opts)
	require.NoError(t, err)
	return a
}

func get(t *testing.T, doc any, path string) any {
	t.Helper()
	v, ok := fieldpath.Get(doc, path)
	require.True(t, ok, "missing %s", path)
	return v
}

// --- fakes ---

type fixedParser struct {
	result *types.ModificationIntent
	err    error
}

func (p *fixedParser) Parse(context.Context, string, *types.IntentContext) (*types.ModificationIntent, error) {
	return p.result, p.err
}

type failingClassifier struct{}

func (failingClassifier) Classify(context.Context, string) (types.AgentIntent, error) {
	return "", errors.New("model unavailable")
}

type panicScorer struct{}

func (panicScorer) Score(any, string) *types.Report { panic("index out of range") }

type fixedScorer struct{ report *types.Report }

func (f fixedScorer) Score(any, string) *types.Report { return f.report }

type fakeFetcher struct {
	job *types.JobPosting
	err error
	url string
}

func (f *fakeFetcher) FetchJob(_ context.Context, url string) (*types.JobPosting, error) {
	f.url = url
	return f.job, f.err
}

type failingRenderer struct{}

func (failingRenderer) Render(context.Context, any, types.Theme) (*rendering.Result, error) {
	return nil, errors.New("template exploded")
}

type slowRenderer struct{}

func (slowRenderer) Render(ctx context.Context, _ any, _ types.Theme) (*rendering.Result, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type fakePersistence struct {
	mu         sync.Mutex
	versionErr error
	historyErr error
	versions   []any
	entries    []types.HistoryEntry
	patches    map[string]types.OptimizationPatch
}

func (p *fakePersistence) CreateVersion(_ context.Context, userID string, doc any) (*types.DocumentVersion, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.versionErr != nil {
		return nil, p.versionErr
	}
	p.versions = append(p.versions, doc)
	return &types.DocumentVersion{VersionID: "v-" + uuid.NewString(), UserID: userID, CreatedAt: time.Now().UTC()}, nil
}

func (p *fakePersistence) SaveHistory(_ context.Context, entry types.HistoryEntry) (*types.SavedHistory, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.historyErr != nil {
		return nil, p.historyErr
	}
	p.entries = append(p.entries, entry)
	return &types.SavedHistory{ID: "h-" + uuid.NewString(), CreatedAt: time.Now().UTC()}, nil
}

func (p *fakePersistence) UpdateOptimization(_ context.Context, id string, patch types.OptimizationPatch) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.patches == nil {
		p.patches = make(map[string]types.OptimizationPatch)
	}
	p.patches[id] = patch
	return nil
}

type fakeRecorder struct {
	saveErr   error
	runID     uuid.UUID
	artifacts map[string]any
	texts     map[string]string
	status    string
	intent    string
}

func (r *fakeRecorder) CreateRun(context.Context, string, string) (uuid.UUID, error) {
	r.runID = uuid.New()
	r.artifacts = map[string]any{}
	r.texts = map[string]string{}
	return r.runID, nil
}

func (r *fakeRecorder) SaveArtifact(_ context.Context, _ uuid.UUID, step string, content any) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.artifacts[step] = content
	return nil
}

func (r *fakeRecorder) SaveTextArtifact(_ context.Context, _ uuid.UUID, step, text string) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.texts[step] = text
	return nil
}

func (r *fakeRecorder) CompleteRun(_ context.Context, _ uuid.UUID, intent, status string) error {
	r.intent, r.status = intent, status
	return nil
}

// --- scenarios ---

func TestRun_TitleValueWithDesignWord(t *testing.T) {
	for _, title := range []string{"Design Lead", "Navy Officer"} {
		t.Run(title, func(t *testing.T) {
			doc, err := document.Decode([]byte(`{"experience": [{"title": "Software Engineer"}]}`))
			require.NoError(t, err)

			env := newAgent(t, Options{}).Run(context.Background(), Request{Message: "change my job title to " + title, Document: doc})

			assert.Equal(t, types.IntentEditContent, env.Intent)
			require.NotNil(t, env.Modification)
			assert.Equal(t, "experiences[0].title", env.Modification.FieldPath)
			assert.Equal(t, title, get(t, env.Artifacts.Document, "experience[0].title"))
		})
	}
}

func TestRun_PrefixJobTitle(t *testing.T) {
	doc, err := document.Decode([]byte(`{"experience": [{"title": "Software Engineer"}]}`))
	require.NoError(t, err)

	env := newAgent(t, Options{}).Run(context.Background(), Request{Message: "add Senior to my job title", Document: doc})

	assert.Equal(t, types.IntentEditContent, env.Intent)
	require.NotNil(t, env.Modification)
	assert.Equal(t, types.OpPrefix, env.Modification.Operation)
	assert.Equal(t, "experiences[0].title", env.Modification.FieldPath)
	assert.Equal(t, "Senior ", env.Modification.NewValue)
	assert.Equal(t, "Senior Software Engineer", get(t, env.Artifacts.Document, "experience[0].title"))
	assert.Equal(t, "Software Engineer", get(t, doc, "experience[0].title"), "input document must not change")

	require.Len(t, env.Diffs, 1)
	assert.Equal(t, "Software Engineer", env.Diffs[0].Before)
	assert.Equal(t, "Senior Software Engineer", env.Diffs[0].After)
	require.NotNil(t, env.HistoryRecord)
	assert.True(t, env.HistoryRecord.Local)
	assert.True(t, strings.HasPrefix(env.HistoryRecord.VersionID, "local-"))
	assert.Empty(t, env.UIPrompts)
	assert.Nil(t, env.ATSReport)
}

func TestRun_ReplaceEmail(t *testing.T) {
	env := newAgent(t, Options{}).Run(context.Background(), Request{Message: "change email to a@b.com", Document: resumeDoc(t)})

	require.NotNil(t, env.Modification)
	assert.Equal(t, types.OpReplace, env.Modification.Operation)
	assert.Equal(t, "contact.email", env.Modification.FieldPath)
	assert.Equal(t, "a@b.com", env.Modification.NewValue)
	assert.InDelta(t, 0.95, env.Modification.Confidence, 1e-9)
	assert.Equal(t, "a@b.com", get(t, env.Artifacts.Document, "contact.email"))
}

func TestRun_CustomizeDesign(t *testing.T) {
	env := newAgent(t, Options{}).Run(context.Background(), Request{Message: "change background to navy", Document: resumeDoc(t)})

	assert.Equal(t, types.IntentCustomizeDesign, env.Intent)
	require.NotNil(t, env.Theme)
	assert.Equal(t, "#1e3a8a", env.Theme.BackgroundColor)
	require.NotEmpty(t, env.Diffs)
	assert.Equal(t, types.ScopeStyle, env.Diffs[0].Scope)
	assert.Contains(t, env.Diffs[0].After, "navy")
	assert.NotNil(t, env.HistoryRecord)

	var contrastWarning bool
	for _, p := range env.UIPrompts {
		if strings.Contains(p, "contrast") {
			contrastWarning = true
		}
	}
	assert.True(t, contrastWarning, "dark text on navy should warn: %v", env.UIPrompts)
}

func TestRun_DesignDoesNotAddFacts(t *testing.T) {
	env := newAgent(t, Options{}).Run(context.Background(), Request{
		Message:  "use Lato font and mention I grew revenue 40%",
		Document: resumeDoc(t),
	})

	assert.Equal(t, types.IntentCustomizeDesign, env.Intent)
	assert.Equal(t, "Lato", env.Theme.Font)
	assert.Equal(t, "Backend engineer.", get(t, env.Artifacts.Document, "summary"))
	assert.Contains(t, strings.Join(env.UIPrompts, "\n"), "40%")
}

func TestRun_ScoreWithEmptyJobText(t *testing.T) {
	env := newAgent(t, Options{}).Run(context.Background(), Request{Message: "what is my ATS score?", Document: resumeDoc(t)})

	assert.Equal(t, types.IntentScore, env.Intent)
	require.NotNil(t, env.ATSReport)
	assert.Equal(t, 0, env.ATSReport.Score)
	assert.Equal(t, []string{}, env.ATSReport.MissingKeywords)
	assert.Equal(t, []types.Suggestion{}, env.ATSReport.Recommendations)
	assert.Contains(t, env.UIPrompts, PromptNoJob)
	assert.Nil(t, env.HistoryRecord, "scoring alone commits nothing")
}

func TestRun_ScoreWithJobText(t *testing.T) {
	env := newAgent(t, Options{}).Run(context.Background(), Request{
		Message:  "how well does this match the job",
		Document: resumeDoc(t),
		JobText:  jobText,
	})

	require.NotNil(t, env.ATSReport)
	assert.Greater(t, env.ATSReport.Score, 0)
	assert.LessOrEqual(t, env.ATSReport.Score, 100)
	assert.Contains(t, env.ATSReport.Languages, "latin")
	assert.False(t, env.ATSReport.Degraded)
}

func TestRun_ScorerPanicDegrades(t *testing.T) {
	var events []ProgressEvent
	env := newAgent(t, Options{Scorer: panicScorer{}}).Stream(context.Background(),
		Request{Message: "score my resume", Document: resumeDoc(t), JobText: jobText},
		func(e ProgressEvent) { events = append(events, e) })

	require.NotNil(t, env.ATSReport)
	assert.True(t, env.ATSReport.Degraded)
	assert.Equal(t, 0, env.ATSReport.Score)
	assert.Contains(t, env.UIPrompts, PromptScoreDegraded)

	for _, e := range events {
		if e.Step == steps.Score.String() {
			assert.Equal(t, steps.StatusDegraded, e.Status)
			assert.Contains(t, e.Prompts, PromptScoreDegraded)
		}
	}
}

func TestRun_MalformedReportIsReplaced(t *testing.T) {
	bad := &types.Report{Score: 150, MissingKeywords: []string{}, Recommendations: []types.Suggestion{}, Languages: map[string]types.LanguageScore{}}
	env := newAgent(t, Options{Scorer: fixedScorer{report: bad}}).Run(context.Background(),
		Request{Message: "score my resume", Document: resumeDoc(t), JobText: jobText})

	require.NotNil(t, env.ATSReport)
	assert.Equal(t, 0, env.ATSReport.Score)
	assert.True(t, env.ATSReport.Degraded)
	assert.Contains(t, env.UIPrompts, PromptMalformed)
}

func TestRun_ClassifierFailureUsesDefaultIntent(t *testing.T) {
	env := newAgent(t, Options{Classifier: failingClassifier{}}).Run(context.Background(),
		Request{Message: "hello there", Document: resumeDoc(t)})

	assert.Equal(t, DefaultIntent, env.Intent)
	assert.Contains(t, env.UIPrompts, PromptClassifyFailed)
	assert.Empty(t, env.Diffs)
}

func TestRun_OptimizeFetchesJobAndMergesSkills(t *testing.T) {
	fetcher := &fakeFetcher{job: &types.JobPosting{Title: "Backend Engineer", Company: "Acme", Text: jobText}}
	env := newAgent(t, Options{Fetcher: fetcher}).Run(context.Background(), Request{
		Message:  "optimize for https://jobs.example.com/42 skills: Go, Kafka; strengthen my summary",
		Document: resumeDoc(t),
	})

	assert.Equal(t, types.IntentOptimize, env.Intent)
	assert.Equal(t, "https://jobs.example.com/42", fetcher.url)
	assert.Equal(t, []any{"Go", "PostgreSQL", "Kafka"}, get(t, env.Artifacts.Document, "skills.technical"))
	assert.Contains(t, env.UIPrompts, "Go is already in your skills.")

	summary := get(t, env.Artifacts.Document, "summary").(string)
	assert.Equal(t, "Backend engineer. Hands-on experience with Go and PostgreSQL.", summary)

	require.NotNil(t, env.ATSReport)
	assert.NotNil(t, env.HistoryRecord)
	tools := make([]string, 0, len(env.Actions))
	for _, a := range env.Actions {
		tools = append(tools, a.Tool)
	}
	assert.Contains(t, tools, "fetch_job")
	assert.Contains(t, tools, "modify")
	assert.Contains(t, tools, "ats_score")
}

func TestRun_FetchFailureDegrades(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("503")}
	env := newAgent(t, Options{Fetcher: fetcher}).Run(context.Background(), Request{
		Message:  "tailor my resume for this job",
		Document: resumeDoc(t),
		JobURL:   "https://jobs.example.com/7",
	})

	require.NotNil(t, env.ATSReport)
	assert.Equal(t, 0, env.ATSReport.Score)
	joined := strings.Join(env.UIPrompts, "\n")
	assert.Contains(t, joined, "https://jobs.example.com/7")
	assert.Contains(t, joined, PromptNoJob)
}

func TestRun_ValidationErrorLeavesDocumentUnchanged(t *testing.T) {
	parser := &fixedParser{result: &types.ModificationIntent{
		IsModification: true,
		Operation:      types.OpPrefix,
		FieldPath:      "experience",
		NewValue:       "Lead ",
		Confidence:     0.9,
	}}
	doc := resumeDoc(t)
	env := newAgent(t, Options{Parser: parser}).Run(context.Background(), Request{Message: "add Lead to experience", Document: doc})

	assert.Equal(t, doc, env.Artifacts.Document)
	assert.Empty(t, env.Diffs)
	assert.Nil(t, env.HistoryRecord)
	assert.Contains(t, strings.Join(env.UIPrompts, "\n"), "couldn't apply that edit to experience")
}

func TestRun_ClarificationIsPrompted(t *testing.T) {
	parser := &fixedParser{result: &types.ModificationIntent{
		IsModification:        true,
		Confidence:            0.3,
		RequiresClarification: true,
		ClarificationQuestion: "Which field should I change?",
	}}
	env := newAgent(t, Options{Parser: parser}).Run(context.Background(), Request{Message: "change it", Document: resumeDoc(t)})

	assert.Equal(t, []string{"Which field should I change?"}, env.UIPrompts)
	assert.Empty(t, env.Diffs)
}

func TestRun_UnsupportedClaimsAreNotApplied(t *testing.T) {
	parser := &fixedParser{result: &types.ModificationIntent{
		IsModification: true,
		Operation:      types.OpReplace,
		FieldPath:      "summary",
		NewValue:       "Grew revenue 40% in a year.",
		Confidence:     0.9,
	}}
	env := newAgent(t, Options{Parser: parser}).Run(context.Background(), Request{Message: "update my summary", Document: resumeDoc(t)})

	assert.Equal(t, "Backend engineer.", get(t, env.Artifacts.Document, "summary"))
	require.Len(t, env.ProposedChanges, 1)
	assert.Equal(t, "summary", env.ProposedChanges[0].FieldPath)
	assert.Contains(t, strings.Join(env.UIPrompts, "\n"), "40%")
}

func TestRun_RenderFailureUsesFallbackPath(t *testing.T) {
	env := newAgent(t, Options{Renderer: failingRenderer{}}).Run(context.Background(),
		Request{Message: "change email to a@b.com", Document: resumeDoc(t)})

	assert.Equal(t, FallbackPreviewPath, env.Artifacts.PreviewArtifactPath)
	assert.Contains(t, env.UIPrompts, PromptRenderFailed)
	assert.Equal(t, "a@b.com", get(t, env.Artifacts.Document, "contact.email"))
}

func TestRun_RenderTimeout(t *testing.T) {
	a := newAgent(t, Options{Renderer: slowRenderer{}, Timeouts: Timeouts{Render: 10 * time.Millisecond}})
	env := a.Run(context.Background(), Request{Message: "change email to a@b.com", Document: resumeDoc(t)})

	assert.Equal(t, FallbackPreviewPath, env.Artifacts.PreviewArtifactPath)
	assert.Contains(t, env.UIPrompts, PromptRenderFailed)
}

func TestRun_RendersPreview(t *testing.T) {
	dir := t.TempDir()
	env := newAgent(t, Options{Renderer: rendering.NewFileRenderer(dir, nil)}).Run(context.Background(),
		Request{Message: "change email to a@b.com", Document: resumeDoc(t)})

	assert.True(t, strings.HasPrefix(env.Artifacts.PreviewArtifactPath, dir))
	assert.Len(t, env.Artifacts.ExportFiles, 2)
}

func TestRun_PersistsVersionAndHistory(t *testing.T) {
	store := &fakePersistence{}
	timeline := history.NewStore(history.NewMemoryRepository())
	a := newAgent(t, Options{Persistence: store, History: timeline})

	env := a.Run(context.Background(), Request{
		UserID:   "u-1",
		Message:  "change email to a@b.com",
		Document: resumeDoc(t),
		JobText:  jobText,
	})

	require.NotNil(t, env.HistoryRecord)
	assert.False(t, env.HistoryRecord.Local)
	assert.True(t, strings.HasPrefix(env.HistoryRecord.VersionID, "v-"))
	require.NotNil(t, env.HistoryRecord.Score)
	assert.Equal(t, env.ATSReport.Score, *env.HistoryRecord.Score)

	require.Len(t, store.entries, 1)
	assert.Equal(t, "u-1", store.entries[0].UserID)
	assert.Equal(t, env.HistoryRecord.VersionID, store.entries[0].DocumentVersionID)
	require.Len(t, store.patches, 1)
	for _, patch := range store.patches {
		assert.Equal(t, env.ATSReport.Score, *patch.Score)
		assert.Equal(t, "scored", *patch.Status)
	}

	tl, err := timeline.Timeline(context.Background(), "u-1")
	require.NoError(t, err)
	require.Len(t, tl.Past, 1)
	assert.Equal(t, env.HistoryRecord.VersionID, tl.Past[0].DocumentVersionID)
}

func TestRun_PersistenceFailureUsesLocalID(t *testing.T) {
	store := &fakePersistence{versionErr: errors.New("connection refused")}
	env := newAgent(t, Options{Persistence: store}).Run(context.Background(),
		Request{Message: "change email to a@b.com", Document: resumeDoc(t)})

	require.NotNil(t, env.HistoryRecord)
	assert.True(t, env.HistoryRecord.Local)
	assert.True(t, strings.HasPrefix(env.HistoryRecord.VersionID, "local-"))
	assert.Contains(t, strings.Join(env.UIPrompts, "\n"), env.HistoryRecord.VersionID)
	assert.Equal(t, "a@b.com", get(t, env.Artifacts.Document, "contact.email"))
}

func TestRun_HistoryRowFailureKeepsVersion(t *testing.T) {
	store := &fakePersistence{historyErr: errors.New("deadlock")}
	env := newAgent(t, Options{Persistence: store}).Run(context.Background(),
		Request{Message: "change email to a@b.com", Document: resumeDoc(t)})

	require.NotNil(t, env.HistoryRecord)
	assert.False(t, env.HistoryRecord.Local)
	assert.Len(t, store.versions, 1)
	assert.NotEmpty(t, env.UIPrompts)
}

func TestRun_RecordsRun(t *testing.T) {
	rec := &fakeRecorder{}
	a := newAgent(t, Options{Recorder: rec, Renderer: rendering.NewFileRenderer("", nil)})
	env := a.Run(context.Background(), Request{Message: "change email to a@b.com", Document: resumeDoc(t)})

	assert.Equal(t, "edit_content", rec.intent)
	assert.Equal(t, "completed", rec.status)
	assert.Same(t, env, rec.artifacts["envelope"])
	assert.Contains(t, rec.texts["preview_html"], "a@b.com")
	assert.NotEmpty(t, rec.texts["resume_tex"])
}

func TestRun_LogsArtifactSaveFailures(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	rec := &fakeRecorder{saveErr: errors.New("disk full")}
	a := newAgent(t, Options{Recorder: rec, Logger: zap.New(core)})

	env := a.Run(context.Background(), Request{Message: "change email to a@b.com", Document: resumeDoc(t)})

	assert.Equal(t, types.IntentEditContent, env.Intent)
	assert.NotEmpty(t, rec.status, "the run is still completed")
	failed := logs.FilterMessage("failed to save run artifact")
	require.NotZero(t, failed.Len())
	var artifacts []string
	for _, entry := range failed.All() {
		assert.Equal(t, zap.DebugLevel, entry.Level)
		artifacts = append(artifacts, entry.ContextMap()["artifact"].(string))
	}
	assert.Contains(t, artifacts, db.ArtifactIntent)
	assert.Contains(t, artifacts, db.ArtifactEnvelope)
}

func TestStream_EmitsEveryStepInOrder(t *testing.T) {
	var names []string
	newAgent(t, Options{}).Stream(context.Background(),
		Request{Message: "change email to a@b.com", Document: resumeDoc(t)},
		func(e ProgressEvent) { names = append(names, e.Step) })

	assert.Equal(t, []string{
		"detect_intent", "extract_signals", "acquire_job", "mutate_content",
		"score", "resolve_theme", "render", "commit_version", "assemble",
	}, names)
}

func TestRun_NeverFails(t *testing.T) {
	a := newAgent(t, Options{Scorer: panicScorer{}, Renderer: failingRenderer{}, Classifier: failingClassifier{}})
	messages := []string{"", "hello there", "add Senior to my job title", "score it", "change background to navy"}
	docs := []any{nil, "just a string", []any{1, 2}, map[string]any{}}

	for _, msg := range messages {
		for _, doc := range docs {
			env := a.Run(context.Background(), Request{Message: msg, Document: doc, JobText: jobText})
			require.NotNil(t, env)
			assert.True(t, env.Intent.Valid(), "intent %q for %q", env.Intent, msg)
			assert.NotNil(t, env.Actions)
			assert.NotNil(t, env.Diffs)
		}
	}
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	env := newAgent(t, Options{Renderer: rendering.NewFileRenderer("", nil)}).Run(ctx,
		Request{Message: "change email to a@b.com", Document: resumeDoc(t)})

	assert.Equal(t, FallbackPreviewPath, env.Artifacts.PreviewArtifactPath)
	assert.Equal(t, "a@b.com", get(t, env.Artifacts.Document, "contact.email"))
}
