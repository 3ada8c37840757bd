package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-editor/internal/observability"
	"github.com/jonathan/resume-editor/internal/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and move through the edit history",
	Long: `Show the undo/redo timeline of a user, or step backwards and forwards
through it. Use --history sqlite, redis or postgres so the timeline outlives
a single process.`,
}

var historyTimelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Show the undo and redo stacks",
	RunE:  runHistoryTimeline,
}

var historyLogCmd = &cobra.Command{
	Use:   "log",
	Short: "List the stored history rows with their scores",
	Long: `List the history rows persisted for each committed edit, newest first.
Unlike the timeline, rows survive undo and include the ATS score recorded
when an optimization ran.`,
	RunE: runHistoryLog,
}

var historyUndoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Step back to the previous version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runHistoryMove(cmd, true)
	},
}

var historyRedoCmd = &cobra.Command{
	Use:   "redo",
	Short: "Step forward to the next undone version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runHistoryMove(cmd, false)
	},
}

var (
	historyJSON  bool
	historyOut   string
	historyLimit int
)

func init() {
	historyCmd.PersistentFlags().BoolVar(&historyJSON, "json", false, "Print the result as JSON")
	historyUndoCmd.Flags().StringVarP(&historyOut, "out", "o", "", "Write the document of the new current version to this file")
	historyRedoCmd.Flags().StringVarP(&historyOut, "out", "o", "", "Write the document of the new current version to this file")

	historyLogCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of rows to list")

	historyCmd.AddCommand(historyTimelineCmd, historyLogCmd, historyUndoCmd, historyRedoCmd)
	rootCmd.AddCommand(historyCmd)
}

// versionReader loads stored document versions. *db.DB and
// *localstore.Store implement it.
type versionReader interface {
	GetVersion(ctx context.Context, versionID string) (*types.DocumentVersion, error)
}

// historyLister lists persisted history rows. *db.DB and *localstore.Store
// implement it.
type historyLister interface {
	ListHistory(ctx context.Context, userID string, limit int) ([]types.HistoryEntry, error)
}

func runHistoryTimeline(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.openStorage(ctx)
	if err != nil {
		return err
	}
	t, err := s.history.Timeline(ctx, a.cfg.UserID)
	if err != nil {
		return err
	}
	if historyJSON {
		return writeJSON(cmd.OutOrStdout(), "", t)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintTimeline(t)
	return nil
}

func runHistoryLog(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.openStorage(ctx)
	if err != nil {
		return err
	}
	lister, ok := s.persistence.(historyLister)
	if !ok {
		return fmt.Errorf("no document store is configured")
	}
	entries, err := lister.ListHistory(ctx, a.cfg.UserID, historyLimit)
	if err != nil {
		return err
	}
	if historyJSON {
		if entries == nil {
			entries = []types.HistoryEntry{}
		}
		return writeJSON(cmd.OutOrStdout(), "", entries)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintHistoryLog(entries)
	return nil
}

func runHistoryMove(cmd *cobra.Command, undo bool) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.openStorage(ctx)
	if err != nil {
		return err
	}

	var (
		current *types.HistoryEntry
		t       types.Timeline
	)
	if undo {
		current, t, err = s.history.Undo(ctx, a.cfg.UserID)
	} else {
		current, t, err = s.history.Redo(ctx, a.cfg.UserID)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if historyOut != "" {
		if err := writeVersion(ctx, s.persistence, current, historyOut); err != nil {
			return err
		}
	}
	if historyJSON {
		return writeJSON(out, "", struct {
			Current  *types.HistoryEntry `json:"current"`
			Timeline types.Timeline      `json:"timeline"`
		}{current, t})
	}
	if current == nil {
		_, _ = fmt.Fprintln(out, "At the oldest version; nothing left to undo")
	} else {
		_, _ = fmt.Fprintf(out, "Current version: %s\n", current.DocumentVersionID)
	}
	observability.NewPrinter(out).PrintTimeline(t)
	if historyOut != "" && current != nil {
		_, _ = fmt.Fprintf(out, "Document written to %s\n", historyOut)
	}
	return nil
}

// writeVersion loads the document of entry from storage and writes it to path
func writeVersion(ctx context.Context, store any, entry *types.HistoryEntry, path string) error {
	if entry == nil {
		return nil
	}
	if strings.HasPrefix(entry.DocumentVersionID, "local-") {
		return fmt.Errorf("version %s was never stored, so its document cannot be loaded", entry.DocumentVersionID)
	}
	reader, ok := store.(versionReader)
	if !ok {
		return fmt.Errorf("no document store is configured")
	}
	version, err := reader.GetVersion(ctx, entry.DocumentVersionID)
	if err != nil {
		return fmt.Errorf("failed to load version %s: %w", entry.DocumentVersionID, err)
	}
	if version == nil {
		return fmt.Errorf("version %s not found", entry.DocumentVersionID)
	}
	return writeJSON(nil, path, version.Document)
}
