package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-editor/internal/modify"
	"github.com/jonathan/resume-editor/internal/observability"
	"github.com/jonathan/resume-editor/internal/types"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a list of field-path operations to a résumé",
	Long: `Apply operations from a JSON file in order. The operations file holds an
array such as:

  [{"operation": "replace", "field_path": "contact.email", "new_value": "me@example.com"}]

Nothing is written unless every operation succeeds.`,
	RunE: runApply,
}

var (
	applyDoc string
	applyOps string
	applyOut string
)

func init() {
	applyCmd.Flags().StringVarP(&applyDoc, "doc", "d", "", "Path to the JSON résumé (- for stdin)")
	applyCmd.Flags().StringVar(&applyOps, "ops", "", "Path to a JSON array of operations")
	applyCmd.Flags().StringVarP(&applyOut, "out", "o", "", "Write the updated document here instead of stdout")
	_ = applyCmd.MarkFlagRequired("doc")
	_ = applyCmd.MarkFlagRequired("ops")

	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, _ []string) error {
	doc, err := readDocument(applyDoc, cmd.InOrStdin())
	if err != nil {
		return err
	}
	ops, err := readOperations(applyOps)
	if err != nil {
		return err
	}

	updated, diffs, err := applyOperations(doc, ops)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if applyOut == "" {
		return writeJSON(out, "", updated)
	}
	if err := writeJSON(out, applyOut, updated); err != nil {
		return err
	}
	observability.NewPrinter(out).PrintDiffs(diffs)
	_, _ = fmt.Fprintf(out, "Document written to %s\n", applyOut)
	return nil
}

func readOperations(path string) ([]types.Operation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read operations: %w", err)
	}
	var ops []types.Operation
	if err := json.Unmarshal(data, &ops); err != nil {
		return nil, fmt.Errorf("failed to parse operations: %w", err)
	}
	if len(ops) == 0 {
		return nil, fmt.Errorf("operations file %s is empty", path)
	}
	return ops, nil
}

// applyOperations applies ops in order and stops at the first failure,
// leaving doc untouched
func applyOperations(doc any, ops []types.Operation) (any, []types.Diff, error) {
	diffs := make([]types.Diff, 0, len(ops))
	for i, op := range ops {
		next, err := modify.Apply(doc, op)
		if err != nil {
			return nil, nil, fmt.Errorf("operation %d: %w", i+1, err)
		}
		diffs = append(diffs, modify.Describe(doc, next, op))
		doc = next
	}
	return doc, diffs, nil
}
