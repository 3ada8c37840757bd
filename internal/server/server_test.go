package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-editor/internal/config"
	"github.com/jonathan/resume-editor/internal/history"
	"github.com/jonathan/resume-editor/internal/pipeline"
	"github.com/jonathan/resume-editor/internal/server/middleware"
	"github.com/jonathan/resume-editor/internal/theme"
	"github.com/jonathan/resume-editor/internal/types"
)

const resumeJSON = `{"contact": {"email": "ada@example.com"}, "summary": "Backend engineer.",
	"skills": {"technical": ["Go"]}, "experience": [{"title": "Software Engineer", "company": "Acme"}]}`

type testEnv struct {
	server  *Server
	history *history.Store
}

func newTestServer(t *testing.T, cfg config.ServerConfig, jwtCfg *config.JWTConfig) *testEnv {
	t.Helper()
	store := history.NewStore(history.NewMemoryRepository())
	agent, err := pipeline.New(pipeline.Options{History: store})
	require.NoError(t, err)

	s, err := New(cfg, Deps{Agent: agent, History: store, JWT: jwtCfg})
	require.NoError(t, err)
	t.Cleanup(s.rateLimiter.Stop)
	return &testEnv{server: s, history: store}
}

func (e *testEnv) do(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func chatBody(message string) string {
	return `{"message": ` + quote(message) + `, "document": ` + resumeJSON + `}`
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestNew_RequiresAgent(t *testing.T) {
	_, err := New(config.ServerConfig{}, Deps{})
	assert.Error(t, err)
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestServer(t, config.ServerConfig{}, nil)
	w := env.do(t, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]string{"status": "ok"}, decodeBody[map[string]string](t, w))
}

func TestCORSPreflight(t *testing.T) {
	env := newTestServer(t, config.ServerConfig{}, nil)
	w := env.do(t, http.MethodOptions, "/v1/chat", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), middleware.UserIDHeader)
}

func TestChat(t *testing.T) {
	env := newTestServer(t, config.ServerConfig{}, nil)
	w := env.do(t, http.MethodPost, "/v1/chat", chatBody("add Senior to my job title"), map[string]string{middleware.UserIDHeader: "ada"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	envelope := decodeBody[types.Envelope](t, w)
	assert.Equal(t, types.IntentEditContent, envelope.Intent)
	require.Len(t, envelope.Diffs, 1)
	assert.Equal(t, "Senior Software Engineer", envelope.Diffs[0].After)
	require.NotNil(t, envelope.HistoryRecord)

	timeline, err := env.history.Timeline(context.Background(), "ada")
	require.NoError(t, err)
	assert.Len(t, timeline.Past, 1)
}

func TestChat_Validation(t *testing.T) {
	env := newTestServer(t, config.ServerConfig{}, nil)

	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{"empty body", "", "body"},
		{"bad json", "{", "body"},
		{"missing message", `{"document": {}}`, "message"},
		{"bad url", `{"message": "optimize", "job_url": "not a url"}`, "job_url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/v1/chat", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Contains(t, decodeBody[map[string]string](t, w)["error"], tt.wantField)
		})
	}
}

func TestChatStream(t *testing.T) {
	env := newTestServer(t, config.ServerConfig{}, nil)
	w := env.do(t, http.MethodPost, "/v1/chat/stream", chatBody("change email to a@b.com"), nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	var events, ids []string
	var lastData string
	scanner := bufio.NewScanner(bytes.NewReader(w.Body.Bytes()))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if id, ok := strings.CutPrefix(line, "id: "); ok {
			ids = append(ids, id)
		}
		if name, ok := strings.CutPrefix(line, "event: "); ok {
			events = append(events, name)
		}
		if data, ok := strings.CutPrefix(line, "data: "); ok {
			lastData = data
		}
	}

	require.Len(t, events, 10)
	for _, e := range events[:9] {
		assert.Equal(t, "step", e)
	}
	assert.Equal(t, "complete", events[9])
	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"}, ids)

	var envelope types.Envelope
	require.NoError(t, json.Unmarshal([]byte(lastData), &envelope))
	assert.Equal(t, types.IntentEditContent, envelope.Intent)
	doc := envelope.Artifacts.Document.(map[string]any)
	assert.Equal(t, "a@b.com", doc["contact"].(map[string]any)["email"])
}

func TestIntent(t *testing.T) {
	env := newTestServer(t, config.ServerConfig{}, nil)
	w := env.do(t, http.MethodPost, "/v1/intent", `{"message": "change email to a@b.com"}`, nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	mod := decodeBody[types.ModificationIntent](t, w)
	assert.True(t, mod.IsModification)
	assert.Equal(t, types.OpReplace, mod.Operation)
	assert.Equal(t, "contact.email", mod.FieldPath)
}

func TestApply(t *testing.T) {
	env := newTestServer(t, config.ServerConfig{}, nil)
	body := `{"document": ` + resumeJSON + `, "operations": [
		{"operation": "append", "field_path": "skills.technical", "new_value": "Kafka"},
		{"operation": "prefix", "field_path": "experience[0].title", "new_value": "Senior "}
	]}`
	w := env.do(t, http.MethodPost, "/v1/apply", body, nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeBody[ApplyResponse](t, w)
	doc := resp.Document.(map[string]any)
	assert.Equal(t, []any{"Go", "Kafka"}, doc["skills"].(map[string]any)["technical"])
	assert.Equal(t, "Senior Software Engineer", doc["experience"].([]any)[0].(map[string]any)["title"])
	assert.Len(t, resp.Diffs, 2)
}

func TestApply_Errors(t *testing.T) {
	env := newTestServer(t, config.ServerConfig{}, nil)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"no operations", `{"document": {}, "operations": []}`, "operations"},
		{"bad operation", `{"document": {}, "operations": [{"operation": "explode", "field_path": "a"}]}`, "operation"},
		{"missing path", `{"document": {}, "operations": [{"operation": "remove"}]}`, "field_path"},
		{"type mismatch", `{"document": {"skills": ["Go"]}, "operations": [{"operation": "prefix", "field_path": "skills", "new_value": "x"}]}`, "skills"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/v1/apply", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Contains(t, decodeBody[map[string]string](t, w)["error"], tt.want)
		})
	}
}

func TestScore(t *testing.T) {
	env := newTestServer(t, config.ServerConfig{}, nil)
	w := env.do(t, http.MethodPost, "/v1/score", `{"document": `+resumeJSON+`, "job_text": "Go engineer with Kafka"}`, nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	report := decodeBody[types.Report](t, w)
	assert.GreaterOrEqual(t, report.Score, 0)
	assert.LessOrEqual(t, report.Score, 100)
	assert.NotNil(t, report.MissingKeywords)
}

func TestColorParse(t *testing.T) {
	env := newTestServer(t, config.ServerConfig{}, nil)

	w := env.do(t, http.MethodPost, "/v1/colors/parse", `{"text": "make the headings dark navy"}`, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decodeBody[theme.ColorRequest](t, w)
	assert.Equal(t, theme.TargetHeading, got.Target)
	assert.Equal(t, "#172554", got.Color)

	w = env.do(t, http.MethodPost, "/v1/colors/parse", `{"text": "make it pop"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestColorContrast(t *testing.T) {
	env := newTestServer(t, config.ServerConfig{}, nil)

	w := env.do(t, http.MethodPost, "/v1/colors/contrast", `{"foreground": "black", "background": "white"}`, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decodeBody[theme.ContrastResult](t, w)
	assert.InDelta(t, 21.0, result.Ratio, 0.01)
	assert.True(t, result.Passes)
	assert.Equal(t, theme.LevelAA, result.Level)

	w = env.do(t, http.MethodPost, "/v1/colors/contrast", `{"foreground": "blurple", "background": "white"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/v1/colors/contrast", `{"foreground": "black", "background": "white", "level": "AAAA"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHistory_UndoRedo(t *testing.T) {
	env := newTestServer(t, config.ServerConfig{}, nil)
	headers := map[string]string{middleware.UserIDHeader: "grace"}

	for _, msg := range []string{"change email to a@b.com", "add Senior to my job title"} {
		w := env.do(t, http.MethodPost, "/v1/chat", chatBody(msg), headers)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := env.do(t, http.MethodGet, "/v1/history", "", headers)
	require.Equal(t, http.StatusOK, w.Code)
	timeline := decodeBody[types.Timeline](t, w)
	require.Len(t, timeline.Past, 2)
	first := timeline.Past[0]

	w = env.do(t, http.MethodPost, "/v1/history/undo", "", headers)
	require.Equal(t, http.StatusOK, w.Code)
	undone := decodeBody[HistoryResponse](t, w)
	require.NotNil(t, undone.Current)
	assert.Equal(t, first.ID, undone.Current.ID)
	assert.Len(t, undone.Timeline.Future, 1)

	w = env.do(t, http.MethodPost, "/v1/history/redo", "", headers)
	require.Equal(t, http.StatusOK, w.Code)
	redone := decodeBody[HistoryResponse](t, w)
	assert.Len(t, redone.Timeline.Past, 2)
	assert.Empty(t, redone.Timeline.Future)

	// another user sees nothing
	w = env.do(t, http.MethodPost, "/v1/history/undo", "", map[string]string{middleware.UserIDHeader: "linus"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decodeBody[HistoryResponse](t, w).Current)
}

func TestHistory_Unavailable(t *testing.T) {
	agent, err := pipeline.New(pipeline.Options{})
	require.NoError(t, err)
	s, err := New(config.ServerConfig{}, Deps{Agent: agent})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/history", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestJWTRequiredWhenConfigured(t *testing.T) {
	jwtCfg := &config.JWTConfig{Secret: testSecret, Issuer: config.DefaultJWTIssuer, ExpirationHours: 1}
	env := newTestServer(t, config.ServerConfig{}, jwtCfg)

	w := env.do(t, http.MethodGet, "/v1/history", "", map[string]string{middleware.UserIDHeader: "ada"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := NewJWTService(jwtCfg).GenerateToken("ada")
	require.NoError(t, err)
	w = env.do(t, http.MethodPost, "/v1/chat", chatBody("change email to a@b.com"), map[string]string{"Authorization": "Bearer " + token})
	require.Equal(t, http.StatusOK, w.Code)

	timeline, err := env.history.Timeline(context.Background(), "ada")
	require.NoError(t, err)
	assert.Len(t, timeline.Past, 1)

	// health stays open
	w = env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit(t *testing.T) {
	env := newTestServer(t, config.ServerConfig{RateLimitRPS: 0.01, RateLimitBurst: 2}, nil)

	// chat gets half the burst
	w := env.do(t, http.MethodPost, "/v1/chat", chatBody("change email to a@b.com"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))

	w = env.do(t, http.MethodPost, "/v1/chat", chatBody("change email to a@b.com"), nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, "rate_limit_exceeded", decodeBody[map[string]any](t, w)["error"])

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health", "", nil).Code)
	}
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	env := newTestServer(t, config.ServerConfig{}, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- env.server.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
