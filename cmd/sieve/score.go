package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Veraticus/sieve/internal/classification"
	"github.com/Veraticus/sieve/internal/cli"
	"github.com/Veraticus/sieve/internal/common"
	"github.com/Veraticus/sieve/internal/engine"
	"github.com/Veraticus/sieve/internal/model"
	"github.com/spf13/cobra"
)

var scoreFlagKeys = map[string]string{
	"strictness": "weights.strictness_level",
}

func scoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score [record-json]",
		Short: "Score a single review and show how each voter contributed",
		Long: `Score one review and print the fired voters, their weights and signed
contributions, the calibrated probability and the final decision.

The review is either a JSON object argument (same fields as a corpus line, or
- to read one line from stdin) or built from flags.

Examples:
  sieve score '{"text":"Use code SAVE20 at our website!","rating":5}'
  sieve score --text "Great pasta, $18 for two" --category Restaurant --rating 4
  sieve score --format json --strictness 1 '{"text":"..."}'`,
		Args: cobra.MaximumNArgs(1),
		RunE: runScore,
	}

	cmd.Flags().String("text", "", "review text")
	cmd.Flags().Int("rating", 0, "star rating (1-5, 0 = absent)")
	cmd.Flags().String("category", "", "business category")
	cmd.Flags().String("user-id", "", "reviewer id")
	cmd.Flags().String("gmap-id", "", "business id")
	cmd.Flags().Float64("strictness", 0, "weight strictness level")
	cmd.Flags().String("format", "table", "output format: table, json")

	return cmd
}

// scoreResult is the JSON shape of a scored review.
type scoreResult struct {
	Votes         model.VoteSet                     `json:"lf_outputs"`
	Decision      string                            `json:"label_str"`
	Contributions []model.Contribution              `json:"contributions"`
	Features      model.FeatureSet                  `json:"features"`
	Entities      map[classification.EntityKind]int `json:"entities"`
	Probability   float64                           `json:"p_untrust"`
	RawScore      float64                           `json:"score"`
	FinalLabel    int                               `json:"final_label"`
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, scoreFlagKeys)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")

	line, err := recordLine(cmd, args)
	if err != nil {
		return err
	}
	fields, err := model.ParseObject(line)
	if err != nil {
		return common.NewUserError("record must be a JSON object", err)
	}
	rec, err := model.DecodeRecord(fields)
	if err != nil {
		return common.NewUserError("record has invalid fields", err)
	}

	scorer, err := engine.NewScorerFromConfig(cfg)
	if err != nil {
		return common.NewUserError("cannot build the voter suite", err)
	}
	labeled := scorer.Score(rec)

	res := scoreResult{
		Votes:         labeled.Votes,
		Decision:      labeled.Decision.String(),
		Contributions: labeled.Result.Contributions,
		Features:      labeled.Features,
		Entities:      classification.Entities.CountByKind(rec.Text),
		Probability:   labeled.Result.Probability,
		RawScore:      labeled.Result.RawScore,
		FinalLabel:    int(labeled.Decision),
	}
	if res.Contributions == nil {
		res.Contributions = []model.Contribution{}
	}

	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case "table":
		printScore(cmd.OutOrStdout(), res, len(labeled.Votes))
		return nil
	default:
		return common.NewUserError("unknown --format", fmt.Errorf("%w: %q", common.ErrUnsupportedFormat, format))
	}
}

// recordLine returns the record JSON from the argument, stdin, or flags.
func recordLine(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 1 {
		if args[0] != stdio {
			return []byte(args[0]), nil
		}
		data, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), 16<<20))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrInputRead, err)
		}
		return data, nil
	}

	obj := map[string]any{}
	text, _ := cmd.Flags().GetString("text")
	obj["text"] = text
	if rating, _ := cmd.Flags().GetInt("rating"); rating != 0 {
		obj["rating"] = rating
	}
	for flag, key := range map[string]string{"category": "category", "user-id": "user_id", "gmap-id": "gmap_id"} {
		if v, _ := cmd.Flags().GetString(flag); v != "" {
			obj[key] = v
		}
	}
	return json.Marshal(obj)
}

func printScore(w io.Writer, res scoreResult, voters int) {
	fmt.Fprintln(w, cli.FormatTitle("Score"))
	fmt.Fprintln(w, cli.TableHeaderStyle.Render(
		fmt.Sprintf("%-24s %-8s %10s %8s %13s", "Voter", "Vote", "Confidence", "Weight", "Contribution")))

	if len(res.Contributions) == 0 {
		fmt.Fprintln(w, cli.SubtleStyle.Render("no voter fired"))
	}
	for _, c := range res.Contributions {
		fmt.Fprintf(w, "%-24s %-8s %10.3f %8.2f %+13.3f\n",
			c.Name, c.Label, c.Confidence, c.Weight, c.Signed)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %d of %d voters fired\n", cli.BoldStyle.Render("Votes:"), len(res.Contributions), voters)
	fmt.Fprintf(w, "%s %s\n", cli.BoldStyle.Render("Entities:"), formatEntities(res.Entities))
	fmt.Fprintf(w, "%s %+.4f\n", cli.BoldStyle.Render("Score:"), res.RawScore)
	fmt.Fprintf(w, "%s %.4f\n", cli.BoldStyle.Render("p_untrust:"), res.Probability)
	fmt.Fprintf(w, "%s %s (%d)\n", cli.BoldStyle.Render("Decision:"),
		cli.LabelStyle(res.Decision).Render(res.Decision), res.FinalLabel)
}

func formatEntities(counts map[classification.EntityKind]int) string {
	kinds := []classification.EntityKind{
		classification.EntityMoney, classification.EntityTime,
		classification.EntityQuantity, classification.EntityFood,
	}
	parts := make([]string, 0, len(kinds))
	for _, k := range kinds {
		if n := counts[k]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", k, n))
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, " ")
}
