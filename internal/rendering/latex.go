package rendering

import (
	"embed"
	"strings"
	"text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var latexTemplate = template.Must(parseLaTeXTemplate("resume.tex.tmpl"))

func parseLaTeXTemplate(name string) (*template.Template, error) {
	content, err := templateFS.ReadFile("templates/" + name)
	if err != nil {
		return nil, &TemplateError{Message: "template not found: " + name, Cause: err}
	}
	return ParseLaTeXTemplate(string(content))
}

// ParseLaTeXTemplate parses a LaTeX template with the escape and join helpers
func ParseLaTeXTemplate(content string) (*template.Template, error) {
	tmpl, err := template.New("resume").Funcs(template.FuncMap{
		"escape": EscapeLaTeX,
		"join": func(items []string) string {
			escaped := make([]string, len(items))
			for i, item := range items {
				escaped[i] = EscapeLaTeX(item)
			}
			return strings.Join(escaped, ", ")
		},
	}).Parse(content)
	if err != nil {
		return nil, &TemplateError{Message: "failed to parse template", Cause: err}
	}
	return tmpl, nil
}

// RenderLaTeX renders the LaTeX export of a view
func RenderLaTeX(view View) (string, error) {
	return executeLaTeX(latexTemplate, view)
}

func executeLaTeX(tmpl *template.Template, view View) (string, error) {
	var result strings.Builder
	if err := tmpl.Execute(&result, view); err != nil {
		return "", &TemplateError{Message: "failed to execute template", Cause: err}
	}
	return result.String(), nil
}
