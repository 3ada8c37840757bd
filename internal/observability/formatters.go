// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jonathan/resume-editor/internal/theme"
	"github.com/jonathan/resume-editor/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// truncate shortens s to at most n runes, ending in "..."
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

func writeList(sb *strings.Builder, items []string, limit int) {
	count := min(len(items), limit)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  • %s\n", items[i]))
	}
	if len(items) > limit {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-limit))
	}
}

func valueString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%v", v)
}

// PrintIntent outputs a parsed modification intent.
func (p *Printer) PrintIntent(intent *types.ModificationIntent) {
	if intent == nil {
		return
	}

	var sb strings.Builder
	if !intent.IsModification {
		sb.WriteString("Not a modification request\n")
	}
	if ops := intent.Operations(); len(ops) > 0 {
		for _, op := range ops {
			sb.WriteString(fmt.Sprintf("%-8s %s", op.Operation, op.FieldPath))
			if v := valueString(op.NewValue); v != "" {
				sb.WriteString(" ← " + v)
			}
			sb.WriteString("\n")
		}
	}
	sb.WriteString(fmt.Sprintf("Confidence: %.2f", intent.Confidence))
	if intent.Source != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", intent.Source))
	}
	sb.WriteString("\n")

	if intent.RequiresClarification {
		sb.WriteString(fmt.Sprintf("\n? %s\n", intent.ClarificationQuestion))
		if len(intent.SuggestedFields) > 0 {
			writeList(&sb, intent.SuggestedFields, maxItemsToShow)
		}
	}
	for _, w := range intent.Warnings {
		sb.WriteString(fmt.Sprintf("⚠ %s\n", w))
	}

	p.printBox("PARSED INTENT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintReport outputs a score report with subscores and the top recommendations.
func (p *Printer) PrintReport(report *types.Report) {
	if report == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Score: %d/100", report.Score))
	if report.Degraded {
		sb.WriteString("  (degraded)")
	}
	sb.WriteString("\n\n")

	s := report.SubScores
	for _, row := range []struct {
		label string
		value float64
	}{
		{"Keywords (exact)", s.KeywordExact},
		{"Keywords (phrase)", s.KeywordPhrase},
		{"Semantic relevance", s.SemanticRelevance},
		{"Title alignment", s.TitleAlignment},
		{"Metrics", s.MetricsPresence},
		{"Sections", s.SectionCompleteness},
		{"Parseability", s.FormatParseability},
		{"Recency", s.RecencyFit},
	} {
		sb.WriteString(fmt.Sprintf("%-20s %5.1f\n", row.label, row.value))
	}

	if len(report.MissingKeywords) > 0 {
		sb.WriteString("\nMissing keywords:\n")
		writeList(&sb, report.MissingKeywords, maxItemsToShow)
	}

	if len(report.Recommendations) > 0 {
		sb.WriteString("\nRecommendations:\n")
		count := min(len(report.Recommendations), 3)
		for i := 0; i < count; i++ {
			r := report.Recommendations[i]
			sb.WriteString(fmt.Sprintf("  • [%s +%.1f] %s\n", r.Category, r.EstimatedGain, r.Text))
		}
		if len(report.Recommendations) > 3 {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(report.Recommendations)-3))
		}
	}

	if len(report.Languages) > 0 {
		names := make([]string, 0, len(report.Languages))
		for name := range report.Languages {
			names = append(names, name)
		}
		sort.Strings(names)
		sb.WriteString("\nLanguages:\n")
		for _, name := range names {
			sb.WriteString(fmt.Sprintf("  %-8s %5.1f\n", name, report.Languages[name].Score))
		}
	}

	p.printBox("ATS SCORE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintDiffs outputs a change log.
func (p *Printer) PrintDiffs(diffs []types.Diff) {
	if len(diffs) == 0 {
		p.printBox("CHANGES", "No changes")
		return
	}

	var sb strings.Builder
	for i, d := range diffs {
		sb.WriteString(fmt.Sprintf("[%s]\n", d.Scope))
		sb.WriteString(fmt.Sprintf("  - %s\n", d.Before))
		sb.WriteString(fmt.Sprintf("  + %s\n", d.After))
		if i < len(diffs)-1 {
			sb.WriteString("\n")
		}
	}
	p.printBox("CHANGES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintEnvelope outputs the result of one chat turn.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintEnvelope(env *types.Envelope) {
	if env == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Intent:   %s\n", env.Intent))
	if env.HistoryRecord != nil {
		sb.WriteString(fmt.Sprintf("Version:  %s", env.HistoryRecord.VersionID))
		if env.HistoryRecord.Local {
			sb.WriteString(" (local)")
		}
		sb.WriteString("\n")
	}
	if env.Artifacts.PreviewArtifactPath != "" {
		sb.WriteString(fmt.Sprintf("Preview:  %s\n", env.Artifacts.PreviewArtifactPath))
	}
	if len(env.Actions) > 0 {
		tools := make([]string, 0, len(env.Actions))
		for _, a := range env.Actions {
			tools = append(tools, a.Tool)
		}
		sb.WriteString(fmt.Sprintf("Actions:  %s\n", strings.Join(tools, ", ")))
	}
	if len(env.ProposedChanges) > 0 {
		sb.WriteString(fmt.Sprintf("\nProposed (not applied): %d\n", len(env.ProposedChanges)))
		proposed := make([]string, 0, len(env.ProposedChanges))
		for _, op := range env.ProposedChanges {
			proposed = append(proposed, fmt.Sprintf("%s %s", op.Operation, op.FieldPath))
		}
		writeList(&sb, proposed, maxItemsToShow)
	}
	p.printBox("AGENT RESULT", strings.TrimSuffix(sb.String(), "\n"))

	p.PrintDiffs(env.Diffs)
	if env.ATSReport != nil {
		p.PrintReport(env.ATSReport)
	}
	if env.Theme != nil {
		p.PrintTheme(*env.Theme)
	}
	for _, prompt := range env.UIPrompts {
		fmt.Fprintf(p.out, "💬 %s\n", prompt)
	}
}

// PrintTheme outputs a resolved theme with color names.
func (p *Printer) PrintTheme(th types.Theme) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Font:       %s\n", th.Font))
	sb.WriteString(fmt.Sprintf("Layout:     %s\n", th.Layout))
	sb.WriteString(fmt.Sprintf("Spacing:    %s\n", th.Spacing))
	for _, c := range []struct{ label, hex string }{
		{"Primary", th.PrimaryColor},
		{"Accent", th.AccentColor},
		{"Text", th.TextColor},
		{"Background", th.BackgroundColor},
	} {
		sb.WriteString(fmt.Sprintf("%-11s %s (%s)\n", c.label+":", c.hex, theme.NameFor(c.hex)))
	}
	p.printBox("THEME", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintContrast outputs a WCAG contrast check.
func (p *Printer) PrintContrast(result theme.ContrastResult) {
	status := "✅ PASS"
	if !result.Passes {
		status = "❌ FAIL"
	}
	content := fmt.Sprintf("%s on %s\nRatio:    %.2f:1\nRequired: %.1f:1 (%s, %s text)\n%s",
		result.Foreground, result.Background, result.Ratio, result.Required, result.Level, result.Size, status)
	p.printBox("CONTRAST CHECK", content)
}

// PrintTimeline outputs a user's undo and redo stacks, newest first.
func (p *Printer) PrintTimeline(t types.Timeline) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("User: %s  (version %d)\n", t.UserID, t.Version))

	if len(t.Past) == 0 {
		sb.WriteString("\nNo history yet\n")
	} else {
		sb.WriteString(fmt.Sprintf("\nUndo stack (%d):\n", len(t.Past)))
		p.writeEntries(&sb, t.Past)
	}
	if len(t.Future) > 0 {
		sb.WriteString(fmt.Sprintf("\nRedo stack (%d):\n", len(t.Future)))
		p.writeEntries(&sb, t.Future)
	}

	p.printBox("HISTORY", strings.TrimSuffix(sb.String(), "\n"))
}

func (p *Printer) writeEntries(sb *strings.Builder, entries []types.HistoryEntry) {
	shown := 0
	for i := len(entries) - 1; i >= 0 && shown < maxItemsToShow; i-- {
		e := entries[i]
		sb.WriteString(fmt.Sprintf("  %s  %s", e.CreatedAt.Format("2006-01-02 15:04"), e.DocumentVersionID))
		if e.Score != nil {
			sb.WriteString(fmt.Sprintf("  score %d", *e.Score))
		}
		sb.WriteString("\n")
		if e.Notes != "" {
			sb.WriteString(fmt.Sprintf("    %s\n", e.Notes))
		}
		shown++
	}
	if len(entries) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(entries)-maxItemsToShow))
	}
}

// PrintHistoryLog outputs stored history rows, which arrive newest first.
func (p *Printer) PrintHistoryLog(entries []types.HistoryEntry) {
	if len(entries) == 0 {
		p.printBox("HISTORY LOG", "No recorded edits")
		return
	}
	var sb strings.Builder
	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("%s  %s", e.CreatedAt.Format("2006-01-02 15:04"), e.DocumentVersionID))
		if e.Score != nil {
			sb.WriteString(fmt.Sprintf("  score %d", *e.Score))
		}
		sb.WriteString(fmt.Sprintf("  %d change(s)\n", len(e.Diffs)))
		if e.Notes != "" {
			sb.WriteString(fmt.Sprintf("  %s\n", e.Notes))
		}
	}
	p.printBox("HISTORY LOG", strings.TrimSuffix(sb.String(), "\n"))
}
