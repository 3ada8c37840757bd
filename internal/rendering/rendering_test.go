package rendering

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonathan/resume-editor/internal/document"
	"github.com/jonathan/resume-editor/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `{
  "contact": {"name": "Ada Lovelace", "email": "ada@example.com", "phone": "555-0100"},
  "title": "Staff Engineer",
  "summary": "Builds reliable systems & teams.",
  "skills": {"technical": ["Go", "C#"], "soft": ["Mentoring"]},
  "experience": [
    {"company": "Acme", "title": "Engineer", "start_date": "2019-01", "end_date": "2020-06",
     "achievements": ["Cut latency by 40%"]},
    {"company": "Acme", "title": "Engineer", "start_date": "2021-01", "end_date": "present",
     "highlights": ["Led the <billing> rewrite"]},
    {"company": "Globex", "title": "Intern", "start_date": "2018-06", "end_date": "2018-09"}
  ],
  "education": [{"degree": "BSc Mathematics", "school": "University of London", "end_date": "2018"}]
}`

func sample(t *testing.T) any {
	t.Helper()
	doc, err := document.Decode([]byte(sampleDoc))
	require.NoError(t, err)
	return doc
}

func testTheme() types.Theme {
	return types.Theme{
		Font:            "Inter",
		PrimaryColor:    "#1e3a8a",
		AccentColor:     "#0ea5e9",
		TextColor:       "#111827",
		BackgroundColor: "#ffffff",
		Layout:          "two-column",
		Spacing:         "relaxed",
	}
}

func TestBuildView(t *testing.T) {
	v := BuildView(sample(t))

	assert.Equal(t, "Ada Lovelace", v.Name)
	assert.Equal(t, "Staff Engineer", v.Headline)
	assert.Equal(t, "ada@example.com", v.Email)
	require.Len(t, v.Skills, 2)
	assert.Equal(t, SkillGroup{Label: "Technical", Items: []string{"Go", "C#"}}, v.Skills[0])

	require.Len(t, v.Companies, 2)
	acme := v.Companies[0]
	assert.Equal(t, "Acme", acme.Company)
	require.Len(t, acme.Roles, 1)
	assert.Equal(t, "2019-01 -- 2020-06, 2021-01 -- Present", acme.Roles[0].DateRanges)
	assert.Equal(t, []string{"Cut latency by 40%", "Led the <billing> rewrite"}, acme.Roles[0].Bullets)
	assert.Equal(t, "Globex", v.Companies[1].Company)

	require.Len(t, v.Education, 1)
	assert.Equal(t, "2018", v.Education[0].Dates)
}

func TestBuildView_OddDocuments(t *testing.T) {
	for _, doc := range []any{nil, "text", []any{1, 2}, map[string]any{"skills": "Go"}} {
		assert.NotPanics(t, func() { BuildView(doc) })
	}

	flat := BuildView(map[string]any{"skills": []any{"Go", "SQL"}})
	require.Len(t, flat.Skills, 1)
	assert.Equal(t, "Skills", flat.Skills[0].Label)
}

func TestMergeDateRanges(t *testing.T) {
	got := mergeDateRanges([]dateRange{
		{"2021-01", "present"},
		{"2019-01", "2020-06"},
		{"2019-01", "2020-06"},
		{"", ""},
	})
	assert.Equal(t, "2019-01 -- 2020-06, 2021-01 -- Present", got)
	assert.Equal(t, "", mergeDateRanges(nil))
}

func TestRenderLaTeX(t *testing.T) {
	out, err := RenderLaTeX(BuildView(sample(t)))
	require.NoError(t, err)

	assert.Contains(t, out, `\textbf{Ada Lovelace}`)
	assert.Contains(t, out, `Builds reliable systems \& teams.`)
	assert.Contains(t, out, `\textbf{Technical:} Go, C\#`)
	assert.Contains(t, out, `\item Cut latency by 40\%`)
	assert.Contains(t, out, `\hfill 2019-01 -- 2020-06, 2021-01 -- Present`)
	assert.Contains(t, out, `\end{document}`)
}

func TestParseLaTeXTemplate_Invalid(t *testing.T) {
	_, err := ParseLaTeXTemplate(`{{.Name`)
	var templateErr *TemplateError
	assert.ErrorAs(t, err, &templateErr)
}

func TestRenderHTML(t *testing.T) {
	out, err := RenderHTML(BuildView(sample(t)), testTheme())
	require.NoError(t, err)

	assert.Contains(t, out, "font-family: Inter, sans-serif")
	assert.Contains(t, out, "color: #1e3a8a")
	assert.Contains(t, out, `class="page two-column"`)
	assert.Contains(t, out, "margin-top: 1.5rem")
	assert.Contains(t, out, "Led the &lt;billing&gt; rewrite")
	assert.NotContains(t, out, "<billing>")
	assert.Contains(t, out, "2019-01 – 2020-06")
}

func TestFileRenderer(t *testing.T) {
	dir := t.TempDir()
	r := NewFileRenderer(dir, nil)

	result, err := r.Render(context.Background(), sample(t), testTheme())
	require.NoError(t, err)
	require.NotEmpty(t, result.PreviewArtifactPath)
	assert.Equal(t, PreviewFile, filepath.Base(result.PreviewArtifactPath))
	require.Len(t, result.ExportFiles, 2)

	written, err := os.ReadFile(result.PreviewArtifactPath)
	require.NoError(t, err)
	assert.Equal(t, result.HTML, string(written))

	_, err = os.Stat(result.ExportFiles[1])
	assert.NoError(t, err)
}

func TestFileRenderer_CustomLaTeXTemplate(t *testing.T) {
	r := NewFileRenderer("", nil)
	require.NoError(t, r.UseLaTeXTemplate(`\section*{ {{- escape .Name -}} }
{{range .Skills}}{{.Label}}: {{join .Items}}
{{end}}`))

	result, err := r.Render(context.Background(), sample(t), testTheme())
	require.NoError(t, err)
	assert.Contains(t, result.LaTeX, `\section*{Ada Lovelace}`)
	assert.Contains(t, result.LaTeX, `Go, C\#`)
	assert.NotContains(t, result.LaTeX, `\begin{document}`)

	var templateErr *TemplateError
	assert.ErrorAs(t, r.UseLaTeXTemplate(`{{.Nope`), &templateErr)
}

func TestFileRenderer_InMemory(t *testing.T) {
	result, err := NewFileRenderer("", nil).Render(context.Background(), sample(t), testTheme())
	require.NoError(t, err)
	assert.NotEmpty(t, result.HTML)
	assert.Empty(t, result.PreviewArtifactPath)
	assert.Empty(t, result.ExportFiles)
}

func TestFileRenderer_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFileRenderer("", nil).Render(ctx, sample(t), testTheme())
	var renderErr *RenderError
	assert.ErrorAs(t, err, &renderErr)
}
