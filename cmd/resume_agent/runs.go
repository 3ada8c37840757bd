package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/resume-editor/internal/db"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect the recorded chat turns (PostgreSQL only)",
	Long: `Each chat turn is recorded as a run with its parsed intent, score report,
envelope and HTML preview when DATABASE_URL is set. These commands list,
show and delete runs.`,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs of the user",
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run and its stored artifacts",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a run and its artifacts",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsDelete,
}

var (
	runsLimit   int
	runsJSON    bool
	runsPreview string
)

func init() {
	runsListCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "Maximum number of runs to list")
	runsCmd.PersistentFlags().BoolVar(&runsJSON, "json", false, "Print as JSON")
	runsShowCmd.Flags().StringVar(&runsPreview, "preview", "", "Write the run's HTML preview to this file")

	runsCmd.AddCommand(runsListCmd, runsShowCmd, runsDeleteCmd)
	rootCmd.AddCommand(runsCmd)
}

// openRuns opens storage and returns the database holding runs
func openRuns(cmd *cobra.Command) (*app, *db.DB, error) {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return nil, nil, err
	}
	s, err := a.openStorage(ctx)
	if err != nil {
		a.Close()
		return nil, nil, err
	}
	if s.database == nil {
		a.Close()
		return nil, nil, fmt.Errorf("runs are only recorded in PostgreSQL; set DATABASE_URL")
	}
	return a, s.database, nil
}

// ownRun loads a run and hides runs of other users
func ownRun(cmd *cobra.Command, a *app, database *db.DB, raw string) (*db.Run, error) {
	runID, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid run ID %q: %w", raw, err)
	}
	run, err := database.GetRun(cmd.Context(), runID)
	if err != nil {
		return nil, err
	}
	if run == nil || run.UserID != a.cfg.UserID {
		return nil, fmt.Errorf("%w: %s", db.ErrRunNotFound, raw)
	}
	return run, nil
}

func runRunsList(cmd *cobra.Command, _ []string) error {
	a, database, err := openRuns(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	runs, err := database.ListRuns(cmd.Context(), a.cfg.UserID, runsLimit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if runsJSON {
		if runs == nil {
			runs = []db.Run{}
		}
		return writeJSON(out, "", runs)
	}
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(out, "No runs recorded")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tCREATED\tSTATUS\tINTENT\tMESSAGE")
	for _, r := range runs {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04"), r.Status, r.Intent, truncateMessage(r.Message, 40))
	}
	return tw.Flush()
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	a, database, err := openRuns(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	run, err := ownRun(cmd, a, database, args[0])
	if err != nil {
		return err
	}
	envelope, err := database.GetArtifact(ctx, run.ID, db.ArtifactEnvelope)
	if err != nil {
		return err
	}

	if runsPreview != "" {
		html, err := database.GetTextArtifact(ctx, run.ID, db.ArtifactPreview)
		if err != nil {
			return err
		}
		if html == "" {
			return fmt.Errorf("run %s has no preview", run.ID)
		}
		if err := os.WriteFile(runsPreview, []byte(html), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", runsPreview, err)
		}
	}

	out := cmd.OutOrStdout()
	if runsJSON {
		return writeJSON(out, "", struct {
			*db.Run
			Envelope json.RawMessage `json:"envelope,omitempty"`
		}{run, envelope})
	}
	_, _ = fmt.Fprintf(out, "Run:     %s\nStatus:  %s\nIntent:  %s\nMessage: %s\nCreated: %s\n",
		run.ID, run.Status, run.Intent, run.Message, run.CreatedAt.Format("2006-01-02 15:04:05"))
	if run.CompletedAt != nil {
		_, _ = fmt.Fprintf(out, "Took:    %s\n", run.CompletedAt.Sub(run.CreatedAt).Round(time.Millisecond))
	}
	if runsPreview != "" {
		_, _ = fmt.Fprintf(out, "Preview written to %s\n", runsPreview)
	}
	return nil
}

func runRunsDelete(cmd *cobra.Command, args []string) error {
	a, database, err := openRuns(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	run, err := ownRun(cmd, a, database, args[0])
	if err != nil {
		return err
	}
	if err := database.DeleteRun(cmd.Context(), run.ID); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", run.ID)
	return nil
}

func truncateMessage(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
