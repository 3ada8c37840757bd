package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/resume-editor/internal/ats"
	"github.com/jonathan/resume-editor/internal/modify"
	"github.com/jonathan/resume-editor/internal/observability"
	"github.com/jonathan/resume-editor/internal/types"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a résumé against a job description",
	Long: `Compute the ATS match score (0-100), the five subscores, missing keywords,
ranked recommendations and a per-language breakdown. Without --job only
format and section coverage are meaningful.

With --add-keywords and --out, missing job keywords are appended to the
skills list and the updated document is scored again. Review the result:
only list skills you actually have.`,
	RunE: runScore,
}

var (
	scoreDoc    string
	scoreJob    string
	scoreJobURL string
	scoreJSON   bool
	scoreAdd    bool
	scoreOut    string
)

func init() {
	scoreCmd.Flags().StringVarP(&scoreDoc, "doc", "d", "", "Path to the JSON résumé (- for stdin)")
	scoreCmd.Flags().StringVarP(&scoreJob, "job", "j", "", "Path to a job description text file")
	scoreCmd.Flags().StringVar(&scoreJobURL, "job-url", "", "URL of a job posting to fetch")
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "Print the report as JSON")
	scoreCmd.Flags().BoolVar(&scoreAdd, "add-keywords", false, "Append missing keywords to the skills list")
	scoreCmd.Flags().StringVarP(&scoreOut, "out", "o", "", "Write the document updated by --add-keywords here")
	_ = scoreCmd.MarkFlagRequired("doc")
	scoreCmd.MarkFlagsMutuallyExclusive("job", "job-url")
	scoreCmd.MarkFlagsRequiredTogether("add-keywords", "out")

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	doc, err := readDocument(scoreDoc, cmd.InOrStdin())
	if err != nil {
		return err
	}
	jobText, err := readText(scoreJob)
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if scoreJobURL != "" {
		job, err := a.fetcher().FetchJob(ctx, scoreJobURL)
		if err != nil {
			return fmt.Errorf("failed to fetch job posting: %w", err)
		}
		jobText = job.Text
	}

	engine := ats.NewEngine(a.logger)
	report := engine.Score(doc, jobText)
	if !scoreAdd {
		if scoreJSON {
			return writeJSON(cmd.OutOrStdout(), "", report)
		}
		observability.NewPrinter(cmd.OutOrStdout()).PrintReport(report)
		return nil
	}

	updated, ops, err := modify.ApplySuggestions(doc, report.Recommendations)
	if err != nil {
		return fmt.Errorf("failed to apply keyword suggestions: %w", err)
	}
	if err := writeJSON(nil, scoreOut, updated); err != nil {
		return err
	}
	rescored := engine.Score(updated, jobText)
	a.logger.Debug("applied keyword suggestions",
		zap.Int("operations", len(ops)),
		zap.Int("before", report.Score),
		zap.Int("after", rescored.Score),
	)

	out := cmd.OutOrStdout()
	if scoreJSON {
		return writeJSON(out, "", struct {
			Before     *types.Report     `json:"before"`
			After      *types.Report     `json:"after"`
			Operations []types.Operation `json:"operations"`
		}{report, rescored, ops})
	}
	p := observability.NewPrinter(out)
	p.PrintReport(rescored)
	for _, op := range ops {
		_, _ = fmt.Fprintf(out, "  + %s: %v\n", op.FieldPath, op.NewValue)
	}
	_, _ = fmt.Fprintf(out, "Score %d -> %d, document written to %s\n", report.Score, rescored.Score, scoreOut)
	return nil
}
