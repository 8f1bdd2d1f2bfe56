package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Veraticus/sieve/internal/aggregate"
	"github.com/Veraticus/sieve/internal/cli"
	"github.com/Veraticus/sieve/internal/common"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var weightsFlagKeys = map[string]string{
	"strictness": "weights.strictness_level",
}

func weightsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "weights",
		Short: "Show the voter weight table",
		Long: `Print the weight each voter contributes at the configured strictness level.
Raising strictness gives the promo, sentiment-conflict and political voters
one extra unit per level and the off-topic and near-duplicate voters half.`,
		Args: cobra.NoArgs,
		RunE: runWeights,
	}

	cmd.Flags().Float64("strictness", 0, "weight strictness level")
	cmd.Flags().String("format", "table", "output format: table, json, yaml")

	return cmd
}

type weightsView struct {
	Weights    []aggregate.Entry `json:"weights" yaml:"weights"`
	Strictness float64           `json:"strictness" yaml:"strictness"`
}

func runWeights(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, weightsFlagKeys)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")

	table := aggregate.Weights(cfg.Strictness)
	view := weightsView{Strictness: table.Strictness(), Weights: table.Entries()}
	w := cmd.OutOrStdout()

	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(view); err != nil {
			return fmt.Errorf("failed to encode weights: %w", err)
		}
		return enc.Close()
	case "table":
		fmt.Fprintln(w, cli.FormatTitle(fmt.Sprintf("Voter weights (strictness %g)", view.Strictness)))
		fmt.Fprintln(w, cli.TableHeaderStyle.Render(fmt.Sprintf("%-26s %8s", "Voter", "Weight")))
		for _, e := range view.Weights {
			fmt.Fprintf(w, "%-26s %8.2f\n", e.Name, e.Weight)
		}
		return nil
	default:
		return common.NewUserError("unknown --format", fmt.Errorf("%w: %q", common.ErrUnsupportedFormat, format))
	}
}
