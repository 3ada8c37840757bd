package rendering

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/google/uuid"
	"github.com/jonathan/resume-editor/internal/types"
	"go.uber.org/zap"
)

// Artifact file names written for each render
const (
	PreviewFile = "preview.html"
	LaTeXFile   = "resume.tex"
)

// Result is the output of one render
type Result struct {
	HTML                string
	LaTeX               string
	PreviewArtifactPath string
	ExportFiles         []string
}

// Renderer lays out a document with a theme
type Renderer interface {
	Render(ctx context.Context, doc any, theme types.Theme) (*Result, error)
}

// FileRenderer renders in process and, when dir is set, writes the preview
// and LaTeX export into a fresh subdirectory of dir.
type FileRenderer struct {
	dir    string
	latex  *template.Template // nil uses the built-in template
	logger *zap.Logger
}

// NewFileRenderer creates a renderer. An empty dir keeps results in memory.
func NewFileRenderer(dir string, logger *zap.Logger) *FileRenderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileRenderer{dir: dir, logger: logger}
}

// UseLaTeXTemplate replaces the built-in LaTeX export template. The template
// receives a View and may call escape and join.
func (r *FileRenderer) UseLaTeXTemplate(content string) error {
	tmpl, err := ParseLaTeXTemplate(content)
	if err != nil {
		return err
	}
	r.latex = tmpl
	return nil
}

// Render implements Renderer
func (r *FileRenderer) Render(ctx context.Context, doc any, theme types.Theme) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, &RenderError{Message: "render cancelled", Cause: err}
	}

	view := BuildView(doc)
	html, err := RenderHTML(view, theme)
	if err != nil {
		return nil, err
	}
	tmpl := r.latex
	if tmpl == nil {
		tmpl = latexTemplate
	}
	latex, err := executeLaTeX(tmpl, view)
	if err != nil {
		return nil, err
	}

	result := &Result{HTML: html, LaTeX: latex}
	if r.dir == "" {
		return result, nil
	}

	outDir := filepath.Join(r.dir, uuid.NewString())
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, &RenderError{Message: "failed to create output directory", Cause: err}
	}
	previewPath := filepath.Join(outDir, PreviewFile)
	if err := os.WriteFile(previewPath, []byte(html), 0644); err != nil {
		return nil, &RenderError{Message: fmt.Sprintf("failed to write %s", PreviewFile), Cause: err}
	}
	latexPath := filepath.Join(outDir, LaTeXFile)
	if err := os.WriteFile(latexPath, []byte(latex), 0644); err != nil {
		return nil, &RenderError{Message: fmt.Sprintf("failed to write %s", LaTeXFile), Cause: err}
	}

	r.logger.Debug("rendered resume", zap.String("dir", outDir), zap.Int("html_bytes", len(html)))
	result.PreviewArtifactPath = previewPath
	result.ExportFiles = []string{previewPath, latexPath}
	return result, nil
}
