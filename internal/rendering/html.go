package rendering

import (
	"html/template"
	"strings"

	"github.com/jonathan/resume-editor/internal/types"
)

var htmlTemplate = template.Must(template.New("preview.html.tmpl").Funcs(template.FuncMap{
	"join":   func(items []string) string { return strings.Join(items, ", ") },
	"dashes": func(s string) string { return strings.ReplaceAll(s, " -- ", " – ") },
}).ParseFS(templateFS, "templates/preview.html.tmpl"))

var spacingGaps = map[string]string{
	"compact": "0.5rem",
	"normal":  "1rem",
	"relaxed": "1.5rem",
}

type htmlData struct {
	View  View
	Theme types.Theme
	Gap   string
}

// RenderHTML renders the themed preview page of a view
func RenderHTML(view View, theme types.Theme) (string, error) {
	gap, ok := spacingGaps[theme.Spacing]
	if !ok {
		gap = spacingGaps["normal"]
	}
	var sb strings.Builder
	if err := htmlTemplate.Execute(&sb, htmlData{View: view, Theme: theme, Gap: gap}); err != nil {
		return "", &TemplateError{Message: "failed to execute preview template", Cause: err}
	}
	return sb.String(), nil
}
