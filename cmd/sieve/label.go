package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/sieve/internal/cli"
	"github.com/Veraticus/sieve/internal/common"
	"github.com/Veraticus/sieve/internal/config"
	"github.com/Veraticus/sieve/internal/engine"
	"github.com/Veraticus/sieve/internal/export"
	"github.com/Veraticus/sieve/internal/report"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var labelFlagKeys = map[string]string{
	"chunk-size":     "batch.chunk_size",
	"workers":        "batch.workers",
	"strictness":     "weights.strictness_level",
	"top-categories": "report.top_categories",
}

func labelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "label",
		Short: "Label a JSONL corpus of reviews",
		Long: `Stream a JSONL review corpus through the voter suite and write one labeled
row per record. Rows are written and flushed a chunk at a time, so an
interrupted run keeps everything scored so far.

The output format follows the file extension (.jsonl, .csv, .db) unless
--output-format is given. Without --output rows go to stdout as JSONL.

Examples:
  sieve label --input reviews.jsonl --output labels.csv
  sieve label --input reviews.jsonl --output runs.db --strictness 0.5
  cat reviews.jsonl | sieve label --report-file report.yaml > labels.jsonl`,
		RunE: runLabel,
	}

	cmd.Flags().StringP("input", "i", stdio, "input JSONL file (- for stdin)")
	cmd.Flags().StringP("output", "o", stdio, "output file (- for stdout)")
	cmd.Flags().String("output-format", "", "output format: jsonl, csv, sqlite (default: from extension)")
	cmd.Flags().String("report-file", "", "write the labeling report to this file")
	cmd.Flags().String("report-format", "", "report file format: json, yaml (default: from extension)")
	cmd.Flags().String("metrics-file", "", "write Prometheus metrics in text format to this file")
	cmd.Flags().Int("chunk-size", 1000, "records per chunk")
	cmd.Flags().Int("workers", 0, "scoring workers per chunk (0 = number of CPUs)")
	cmd.Flags().Float64("strictness", 0, "weight strictness level")
	cmd.Flags().Int("top-categories", report.DefaultTopCategories, "categories shown in the report")
	cmd.Flags().Bool("no-progress", false, "disable the progress bar")

	return cmd
}

func runLabel(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, labelFlagKeys)
	if err != nil {
		return err
	}

	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")
	outputFormat, _ := cmd.Flags().GetString("output-format")
	reportFile, _ := cmd.Flags().GetString("report-file")
	reportFormat, _ := cmd.Flags().GetString("report-format")
	metricsFile, _ := cmd.Flags().GetString("metrics-file")
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	format, err := export.DetectFormat(output, outputFormat)
	if err != nil {
		return common.NewUserError("cannot choose output format", err)
	}
	if reportFile != "" {
		if reportFormat, err = detectReportFormat(reportFile, reportFormat); err != nil {
			return common.NewUserError("cannot choose report format", err)
		}
	}

	scorer, err := engine.NewScorerFromConfig(cfg)
	if err != nil {
		return common.NewUserError("cannot build the voter suite", err)
	}
	metrics, err := engine.NewMetrics()
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}

	src, total, err := openInput(cmd, input)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := src.Close(); closeErr != nil {
			slog.Warn("Failed to close input", "error", closeErr)
		}
	}()

	opts := engine.OptionsFromConfig(*cfg)
	opts.TotalLines = total
	opts.RunID = uuid.NewString()

	ctx := cmd.Context()
	out, err := openSink(ctx, cmd, output, format, runInfo{id: opts.RunID, input: input, config: cfg})
	if err != nil {
		return err
	}

	handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
	runCtx := handler.HandleInterrupts(ctx, outputName(output))
	defer handler.Stop()

	runner := engine.NewRunner(scorer, opts).
		WithMetrics(metrics).
		WithLogger(slog.Default())
	if !noProgress {
		runner.WithProgress(cli.NewProgress(cmd.ErrOrStderr(), progressTotal(total), "Labeling reviews..."))
	}

	summary, runErr := runner.Run(runCtx, src, out)
	if finishErr := out.finish(context.WithoutCancel(ctx), summary); finishErr != nil {
		return errors.Join(runErr, finishErr)
	}
	if runErr != nil {
		return runErr
	}

	if metricsFile != "" {
		if err := metrics.WriteTextfile(config.ExpandPath(metricsFile)); err != nil {
			return err
		}
	}
	if reportFile != "" {
		if err := writeReport(reportFile, reportFormat, summary.Report); err != nil {
			return err
		}
	}

	// Keep stdout clean for rows.
	w := cmd.OutOrStdout()
	if isStdio(output) {
		w = cmd.ErrOrStderr()
	}
	printLabelSummary(w, summary)
	return nil
}

func printLabelSummary(w io.Writer, summary *engine.Summary) {
	fmt.Fprintln(w, report.Render(summary.Report))
	fmt.Fprintln(w, cli.FormatSuccess(fmt.Sprintf(
		"Labeled %d records (%d error rows, %d malformed lines skipped) in %s",
		summary.Rows, summary.ErrorRows, summary.Malformed, summary.Elapsed.Round(time.Millisecond))))
	if summary.Interrupted {
		fmt.Fprintln(w, cli.FormatWarning("Run was interrupted; output holds the rows scored before the signal"))
	}
}

func detectReportFormat(path, override string) (string, error) {
	if override != "" {
		switch f := strings.ToLower(override); f {
		case report.FormatJSON, report.FormatYAML:
			return f, nil
		case "yml":
			return report.FormatYAML, nil
		default:
			return "", fmt.Errorf("%w: report format %q", common.ErrUnsupportedFormat, override)
		}
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return report.FormatYAML, nil
	default:
		return report.FormatJSON, nil
	}
}

func writeReport(path, format string, r report.Report) error {
	f, err := os.Create(config.ExpandPath(path))
	if err != nil {
		return common.NewUserError("cannot create report file", err)
	}
	if err := report.Encode(f, r, format); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func outputName(path string) string {
	if isStdio(path) {
		return ""
	}
	return path
}

func progressTotal(lines int) int {
	if lines > 0 {
		return lines
	}
	return -1
}
