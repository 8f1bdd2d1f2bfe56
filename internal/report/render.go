package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Veraticus/sieve/internal/cli"
	"github.com/Veraticus/sieve/internal/common"
	"gopkg.in/yaml.v3"
)

// Encoding formats for Encode.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Encode writes r as JSON or YAML.
func Encode(w io.Writer, r Report, format string) error {
	switch strings.ToLower(format) {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		return nil
	case FormatYAML, "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: report format %q", common.ErrUnsupportedFormat, format)
	}
}

// Render draws the report as a terminal box.
func Render(r Report) string {
	var b strings.Builder

	b.WriteString(cli.FormatSection(cli.ChartIcon, "Overall") + "\n")
	fmt.Fprintf(&b, "  Total rows:     %d\n", r.Overall.Total)
	writeLine(&b, "trustworthy", r.Overall.Trustworthy, r.Overall.TrustworthyPct)
	writeLine(&b, "untrustworthy", r.Overall.Untrustworthy, r.Overall.UntrustworthyPct)
	writeLine(&b, "ignore", r.Overall.Ignore, r.Overall.IgnorePct)
	writeLine(&b, "errors", r.Overall.Errors, r.Overall.ErrorPct)

	if len(r.ByRating) > 0 {
		b.WriteString("\n" + cli.FormatSection(cli.StarIcon, "By rating") + "\n")
		for _, rb := range r.ByRating {
			label := fmt.Sprintf("%d", rb.Rating)
			if rb.Rating == 0 {
				label = "n/a"
			}
			fmt.Fprintf(&b, "  %-4s %s\n", label, ratio(rb.Breakdown))
		}
	}

	if len(r.ByCategory) > 0 {
		b.WriteString("\n" + cli.FormatSection(cli.StoreIcon, "Top categories") + "\n")
		for _, cb := range r.ByCategory {
			fmt.Fprintf(&b, "  %-24s %s\n", truncate(cb.Category, 24), ratio(cb.Breakdown))
		}
	}

	b.WriteString("\n" + cli.FormatSection(cli.RobotIcon, "Suspected bot reviews") + "\n")
	if r.Robot == nil {
		b.WriteString(cli.SubtleStyle.Render("  none flagged") + "\n")
	} else {
		fmt.Fprintf(&b, "  %d flagged, %s\n", r.Robot.Total, ratio(*r.Robot))
	}

	if len(r.Voters) > 0 {
		b.WriteString("\n" + cli.FormatSection(cli.InfoIcon, "Voter activity") + "\n")
		for _, v := range r.Voters {
			fmt.Fprintf(&b, "  %-24s %6d  %5.1f%%\n", v.Name, v.Fired, v.Percent)
		}
	}

	return cli.RenderBox(cli.SieveIcon+" Labeling report", strings.TrimRight(b.String(), "\n"))
}

func writeLine(b *strings.Builder, label string, n int, pct float64) {
	name := cli.LabelStyle(label).Render(fmt.Sprintf("%-14s", label))
	fmt.Fprintf(b, "  %s  %7d  (%5.1f%%)\n", name, n, pct)
}

func ratio(bd Breakdown) string {
	return fmt.Sprintf("%d/%d untrustworthy (%.1f%%), %d/%d trustworthy (%.1f%%)",
		bd.Untrustworthy, bd.Total, bd.UntrustworthyPct,
		bd.Trustworthy, bd.Total, bd.TrustworthyPct)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
