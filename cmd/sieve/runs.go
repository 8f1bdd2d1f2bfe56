package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Veraticus/sieve/internal/cli"
	"github.com/Veraticus/sieve/internal/common"
	"github.com/Veraticus/sieve/internal/config"
	"github.com/Veraticus/sieve/internal/model"
	"github.com/Veraticus/sieve/internal/storage"
	"github.com/spf13/cobra"
)

func runsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs <database>",
		Short: "List labeling runs stored in a SQLite output",
		Long: `List every run recorded in a SQLite output file, newest first. With --run,
show the label distribution of one run instead.

Examples:
  sieve runs labels.db
  sieve runs labels.db --run 3f0c... --format json`,
		Args: cobra.ExactArgs(1),
		RunE: runRuns,
	}

	cmd.Flags().String("run", "", "show label counts for this run id")
	cmd.Flags().String("format", "table", "output format: table, json")

	return cmd
}

func runRuns(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	runID, _ := cmd.Flags().GetString("run")
	format, _ := cmd.Flags().GetString("format")
	format = strings.ToLower(format)
	if format != "table" && format != "json" {
		return common.NewUserError("unknown --format", fmt.Errorf("%w: %q", common.ErrUnsupportedFormat, format))
	}

	path := config.ExpandPath(args[0])
	if _, err := os.Stat(path); err != nil {
		return common.NewUserError("cannot open database", err)
	}

	store, err := storage.NewSQLiteStorage(path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	w := cmd.OutOrStdout()
	if runID != "" {
		run, err := store.GetRun(ctx, runID)
		if err != nil {
			return err
		}
		counts, err := store.LabelCounts(ctx, runID)
		if err != nil {
			return err
		}
		if format == "json" {
			return writeJSON(w, map[string]any{"run_id": run.ID, "input": run.Input, "labels": counts})
		}
		printLabelCounts(w, run, counts)
		return nil
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		return err
	}
	if format == "json" {
		return writeJSON(w, runViews(runs))
	}
	printRuns(w, runs)
	return nil
}

type runView struct {
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	ID         string     `json:"id"`
	Input      string     `json:"input"`
	Status     string     `json:"status"`
	Strictness float64    `json:"strictness"`
	Rows       int        `json:"rows"`
	ErrorRows  int        `json:"error_rows"`
	Malformed  int        `json:"malformed_lines"`
}

func runViews(runs []storage.Run) []runView {
	out := make([]runView, 0, len(runs))
	for _, r := range runs {
		out = append(out, runView{
			StartedAt:  r.StartedAt,
			FinishedAt: r.FinishedAt,
			ID:         r.ID,
			Input:      r.Input,
			Status:     runStatus(r),
			Strictness: r.Strictness,
			Rows:       r.Rows,
			ErrorRows:  r.ErrorRows,
			Malformed:  r.Malformed,
		})
	}
	return out
}

func runStatus(r storage.Run) string {
	switch {
	case r.FinishedAt == nil:
		return "running"
	case r.Interrupted:
		return "interrupted"
	default:
		return "finished"
	}
}

func printRuns(w io.Writer, runs []storage.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, cli.FormatInfo("No runs recorded"))
		return
	}
	fmt.Fprintln(w, cli.TableHeaderStyle.Render(fmt.Sprintf("%-36s  %-19s  %-11s  %8s  %6s  %9s  %s",
		"Run", "Started", "Status", "Rows", "Errors", "Malformed", "Input")))
	for _, r := range runs {
		fmt.Fprintf(w, "%-36s  %-19s  %-11s  %8d  %6d  %9d  %s\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), runStatus(r),
			r.Rows, r.ErrorRows, r.Malformed, r.Input)
	}
}

func printLabelCounts(w io.Writer, run *storage.Run, counts map[string]int) {
	fmt.Fprintln(w, cli.FormatTitle("Run "+run.ID))
	names := make([]string, 0, len(model.Decisions)+1)
	for _, d := range model.Decisions {
		names = append(names, d.String())
	}
	names = append(names, model.ErrorMarker)

	for _, name := range names {
		fmt.Fprintf(w, "%s %d\n", cli.LabelStyle(name).Render(fmt.Sprintf("%-14s", name)), counts[name])
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
