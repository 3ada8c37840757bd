package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-editor/internal/observability"
	"github.com/jonathan/resume-editor/internal/pipeline"
)

var chatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Apply one plain-English instruction to a résumé",
	Long: `Run the chat agent once: detect the intent, edit or restyle the document,
score it, render a preview and commit a new version to history.

Examples:
  resume_agent chat --doc resume.json "change my email to me@example.com"
  resume_agent chat --doc resume.json --job job.txt "optimize for this job"
  resume_agent chat --doc resume.json "make the headings dark navy"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runChat,
}

var (
	chatDoc      string
	chatJob      string
	chatJobURL   string
	chatOut      string
	chatJSON     bool
	chatProgress bool
)

func init() {
	chatCmd.Flags().StringVarP(&chatDoc, "doc", "d", "", "Path to the JSON résumé (- for stdin)")
	chatCmd.Flags().StringVarP(&chatJob, "job", "j", "", "Path to a job description text file")
	chatCmd.Flags().StringVar(&chatJobURL, "job-url", "", "URL of a job posting to fetch")
	chatCmd.Flags().StringVarP(&chatOut, "out", "o", "", "Write the updated document to this file")
	chatCmd.Flags().BoolVar(&chatJSON, "json", false, "Print the result envelope as JSON")
	chatCmd.Flags().BoolVar(&chatProgress, "progress", false, "Print each step as it finishes")
	_ = chatCmd.MarkFlagRequired("doc")

	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	doc, err := readDocument(chatDoc, cmd.InOrStdin())
	if err != nil {
		return err
	}
	jobText, err := readText(chatJob)
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	agent, _, err := a.agent(ctx)
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}

	out := cmd.OutOrStdout()
	var onProgress pipeline.ProgressCallback
	if chatProgress && !chatJSON {
		onProgress = func(e pipeline.ProgressEvent) {
			_, _ = fmt.Fprintf(out, "[%s] %s: %s (%dms)\n", e.Status, e.Step, e.Message, e.DurationMS)
		}
	}

	env := agent.Stream(ctx, pipeline.Request{
		UserID:   a.cfg.UserID,
		Message:  strings.Join(args, " "),
		Document: doc,
		JobText:  jobText,
		JobURL:   chatJobURL,
	}, onProgress)

	if chatOut != "" {
		if err := writeJSON(out, chatOut, env.Artifacts.Document); err != nil {
			return err
		}
	}
	if chatJSON {
		return writeJSON(out, "", env)
	}
	observability.NewPrinter(out).PrintEnvelope(env)
	if chatOut != "" {
		_, _ = fmt.Fprintf(out, "Document written to %s\n", chatOut)
	}
	return nil
}
