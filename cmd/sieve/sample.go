package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/sieve/internal/cli"
	"github.com/Veraticus/sieve/internal/common"
	"github.com/Veraticus/sieve/internal/sample"
	"github.com/spf13/cobra"
)

var sampleFlagKeys = map[string]string{
	"per-business-cap": "sampling.per_business_cap",
	"total-record-cap": "sampling.total_record_cap",
}

func sampleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Build a bounded labeling corpus from a larger dump",
		Long: `Copy at most --per-business-cap reviews per business (first seen wins) and
at most --total-record-cap reviews overall from a JSONL dump. Lines are
copied unchanged; malformed lines are skipped.

Examples:
  sieve sample --input dump.jsonl --output corpus.jsonl
  sieve sample -i dump.jsonl --per-business-cap 20 --total-record-cap 1000 > small.jsonl`,
		Args: cobra.NoArgs,
		RunE: runSample,
	}

	cmd.Flags().StringP("input", "i", stdio, "input JSONL file (- for stdin)")
	cmd.Flags().StringP("output", "o", stdio, "output JSONL file (- for stdout)")
	cmd.Flags().Int("per-business-cap", 80, "max reviews per gmap_id (0 = unlimited)")
	cmd.Flags().Int("total-record-cap", 50000, "max reviews overall (0 = unlimited)")

	return cmd
}

func runSample(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, sampleFlagKeys)
	if err != nil {
		return err
	}
	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")

	src, _, err := openInput(cmd, input)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := src.Close(); closeErr != nil {
			slog.Warn("Failed to close input", "error", closeErr)
		}
	}()

	dst, err := createOutput(cmd, output)
	if err != nil {
		return err
	}

	handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx := handler.HandleInterrupts(cmd.Context(), outputName(output))
	defer handler.Stop()

	stats, err := sample.Sample(ctx, src, dst, sample.FromConfig(cfg.Sampling))
	if c, ok := dst.(interface{ Close() error }); ok {
		if closeErr := c.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close output: %w", closeErr)
		}
	}
	if err != nil && !(handler.WasInterrupted() && errors.Is(err, context.Canceled)) {
		return err
	}

	common.LogInfo("Sampling finished", common.Fields{
		"read":              stats.Read,
		"kept":              stats.Kept,
		"over_business_cap": stats.OverCap,
		"malformed":         stats.Malformed,
		"businesses":        stats.Businesses,
		"truncated":         stats.Truncated,
	})

	msg := fmt.Sprintf("Kept %d of %d lines from %d businesses", stats.Kept, stats.Read, stats.Businesses)
	fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatSuccess(msg))
	if handler.WasInterrupted() {
		fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatWarning("Sampling was interrupted; output holds the lines kept so far"))
	}
	if stats.Truncated {
		fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatInfo(fmt.Sprintf("Stopped at the total cap of %d records", cfg.Sampling.TotalRecordCap)))
	}
	return nil
}
