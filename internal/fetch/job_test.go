package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jonathan/resume-editor/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type headerModel struct {
	reply string
	calls int
}

func (m *headerModel) GenerateContent(context.Context, string, llm.ModelTier) (string, error) {
	return m.reply, nil
}

func (m *headerModel) GenerateJSON(context.Context, string, llm.ModelTier) (string, error) {
	m.calls++
	return m.reply, nil
}

func (m *headerModel) GetModel(llm.ModelTier) string { return "fake" }

func (m *headerModel) Close() error { return nil }

func serve(t *testing.T, html string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(html))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestExtractHeader(t *testing.T) {
	tests := []struct {
		name        string
		html        string
		wantTitle   string
		wantCompany string
	}{
		{
			name:        "h1 and site name",
			html:        `<html><head><meta property="og:site_name" content="Acme"></head><body><h1>Staff Engineer</h1></body></html>`,
			wantTitle:   "Staff Engineer",
			wantCompany: "Acme",
		},
		{
			name:        "title with at",
			html:        `<html><head><title>Backend Engineer at Globex</title></head><body></body></html>`,
			wantTitle:   "Backend Engineer",
			wantCompany: "Globex",
		},
		{
			name:        "og title with dash keeps explicit company",
			html:        `<html><head><meta property="og:title" content="Data Engineer - Careers"><meta property="og:site_name" content="Initech"></head></html>`,
			wantTitle:   "Data Engineer",
			wantCompany: "Initech",
		},
		{
			name: "nothing stated",
			html: `<html><body><p>We are hiring.</p></body></html>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, company := ExtractHeader(tt.html)
			assert.Equal(t, tt.wantTitle, title)
			assert.Equal(t, tt.wantCompany, company)
		})
	}
}

func TestJobFetcher_FetchJob(t *testing.T) {
	server := serve(t, `<html><head><title>Platform Engineer at Hooli</title></head><body>
		<nav>Jobs home</nav>
		<div class="job-description"><p>Build services in Go and Kubernetes.</p></div>
		<form id="application-form">Apply now</form>
	</body></html>`)

	job, err := NewJobFetcher(nil).FetchJob(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "Platform Engineer", job.Title)
	assert.Equal(t, "Hooli", job.Company)
	assert.Contains(t, job.Text, "Build services in Go")
	assert.NotContains(t, job.Text, "Apply now")
	assert.Equal(t, server.URL, job.URL)
}

func TestJobFetcher_ModelFillsMissingHeader(t *testing.T) {
	server := serve(t, `<html><body><main><p>Vandelay Industries is hiring an Importer to run logistics.</p></main></body></html>`)
	model := &headerModel{reply: "```json\n{\"title\": \"Importer\", \"company\": \"Vandelay Industries\"}\n```"}

	job, err := NewJobFetcher(nil, WithHeaderModel(model)).FetchJob(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, 1, model.calls)
	assert.Equal(t, "Importer", job.Title)
	assert.Equal(t, "Vandelay Industries", job.Company)
}

func TestJobFetcher_ModelFailureKeepsMarkupHeader(t *testing.T) {
	server := serve(t, `<html><body><h1>Analyst</h1><main><p>Numbers all day.</p></main></body></html>`)
	model := &headerModel{reply: "not json"}

	job, err := NewJobFetcher(nil, WithHeaderModel(model)).FetchJob(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "Analyst", job.Title)
	assert.Empty(t, job.Company)
}

func TestJobFetcher_EmptyPage(t *testing.T) {
	server := serve(t, `<html><body>   </body></html>`)

	_, err := NewJobFetcher(nil).FetchJob(context.Background(), server.URL)
	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, fetchErr.Message, "no readable text")
}
