package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-editor/internal/document"
	"github.com/jonathan/resume-editor/internal/observability"
	"github.com/jonathan/resume-editor/internal/types"
)

var parseIntentCmd = &cobra.Command{
	Use:   "parse-intent <message>",
	Short: "Show how an instruction would be interpreted",
	Long: `Parse a plain-English instruction into field-path operations without
applying them. Pass --doc so experience indices and skill lists resolve
against the actual résumé.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runParseIntent,
}

var (
	parseIntentDoc  string
	parseIntentJSON bool
)

func init() {
	parseIntentCmd.Flags().StringVarP(&parseIntentDoc, "doc", "d", "", "Path to the JSON résumé used as context")
	parseIntentCmd.Flags().BoolVar(&parseIntentJSON, "json", false, "Print the intent as JSON")
	rootCmd.AddCommand(parseIntentCmd)
}

func runParseIntent(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var ictx *types.IntentContext
	if parseIntentDoc != "" {
		doc, err := readDocument(parseIntentDoc, cmd.InOrStdin())
		if err != nil {
			return err
		}
		ictx = document.Context(doc)
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.parser().Parse(ctx, strings.Join(args, " "), ictx)
	if err != nil {
		return err
	}
	if parseIntentJSON {
		return writeJSON(cmd.OutOrStdout(), "", result)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintIntent(result)
	return nil
}
