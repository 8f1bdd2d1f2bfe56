// Package report summarizes emitted rows: label distribution overall, by
// rating, by business category, and for the suspected-bot subset.
package report

import (
	"sort"

	"github.com/Veraticus/sieve/internal/model"
)

// DefaultTopCategories is the number of categories kept in a report.
const DefaultTopCategories = 10

// UnknownCategory labels rows without a usable business category.
const UnknownCategory = "unknown"

// Breakdown counts decisions over a set of rows.
type Breakdown struct {
	Total            int     `json:"total" yaml:"total"`
	Trustworthy      int     `json:"trustworthy" yaml:"trustworthy"`
	Untrustworthy    int     `json:"untrustworthy" yaml:"untrustworthy"`
	Ignore           int     `json:"ignore" yaml:"ignore"`
	Errors           int     `json:"errors" yaml:"errors"`
	TrustworthyPct   float64 `json:"trustworthy_pct" yaml:"trustworthy_pct"`
	UntrustworthyPct float64 `json:"untrustworthy_pct" yaml:"untrustworthy_pct"`
	IgnorePct        float64 `json:"ignore_pct" yaml:"ignore_pct"`
	ErrorPct         float64 `json:"error_pct" yaml:"error_pct"`
}

func (b *Breakdown) add(row model.OutputRow) {
	b.Total++
	if row.Failed() {
		b.Errors++
		return
	}
	switch row.Labeled.Decision {
	case model.DecisionTrustworthy:
		b.Trustworthy++
	case model.DecisionUntrustworthy:
		b.Untrustworthy++
	default:
		b.Ignore++
	}
}

func (b Breakdown) withPercentages() Breakdown {
	if b.Total == 0 {
		return b
	}
	pct := func(n int) float64 { return float64(n) / float64(b.Total) * 100 }
	b.TrustworthyPct = pct(b.Trustworthy)
	b.UntrustworthyPct = pct(b.Untrustworthy)
	b.IgnorePct = pct(b.Ignore)
	b.ErrorPct = pct(b.Errors)
	return b
}

// RatingBreakdown is the distribution for one star rating. Rating 0 means
// the rating was absent.
type RatingBreakdown struct {
	Breakdown `yaml:",inline"`
	Rating    int `json:"rating" yaml:"rating"`
}

// CategoryBreakdown is the distribution for one primary business category.
type CategoryBreakdown struct {
	Breakdown `yaml:",inline"`
	Category  string `json:"category" yaml:"category"`
}

// VoterFires counts how often a voter expressed an opinion.
type VoterFires struct {
	Name    string  `json:"name" yaml:"name"`
	Fired   int     `json:"fired" yaml:"fired"`
	Percent float64 `json:"percent" yaml:"percent"`
}

// Report is the derived summary of a run.
type Report struct {
	Robot      *Breakdown          `json:"robot_review,omitempty" yaml:"robot_review,omitempty"`
	ByRating   []RatingBreakdown   `json:"by_rating" yaml:"by_rating"`
	ByCategory []CategoryBreakdown `json:"by_category" yaml:"by_category"`
	Voters     []VoterFires        `json:"voters" yaml:"voters"`
	Overall    Breakdown           `json:"overall" yaml:"overall"`
}

// Builder accumulates rows one at a time so the full output never has to
// be held in memory. It is not safe for concurrent use.
type Builder struct {
	ratings    map[int]*Breakdown
	categories map[string]*Breakdown
	robot      *Breakdown
	voterFires map[string]int
	voterOrder []string
	overall    Breakdown
	scored     int
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		ratings:    make(map[int]*Breakdown),
		categories: make(map[string]*Breakdown),
		voterFires: make(map[string]int),
	}
}

// Add folds one emitted row into the report. Error rows count toward the
// overall and bot distributions only.
func (b *Builder) Add(row model.OutputRow) {
	b.overall.add(row)

	if row.Record.RobotReview {
		if b.robot == nil {
			b.robot = &Breakdown{}
		}
		b.robot.add(row)
	}

	if row.Failed() {
		return
	}
	b.scored++

	rating := b.ratings[row.Record.Rating]
	if rating == nil {
		rating = &Breakdown{}
		b.ratings[row.Record.Rating] = rating
	}
	rating.add(row)

	name := row.Record.Category.Primary()
	if name == "" {
		name = UnknownCategory
	}
	cat := b.categories[name]
	if cat == nil {
		cat = &Breakdown{}
		b.categories[name] = cat
	}
	cat.add(row)

	for _, v := range row.Labeled.Votes {
		if _, seen := b.voterFires[v.Source]; !seen {
			b.voterFires[v.Source] = 0
			b.voterOrder = append(b.voterOrder, v.Source)
		}
		if v.Fired() {
			b.voterFires[v.Source]++
		}
	}
}

// Build produces the report, keeping the topN categories by volume (ties
// broken by name). topN <= 0 uses DefaultTopCategories.
func (b *Builder) Build(topN int) Report {
	if topN <= 0 {
		topN = DefaultTopCategories
	}

	r := Report{
		Overall:    b.overall.withPercentages(),
		ByRating:   make([]RatingBreakdown, 0, len(b.ratings)),
		ByCategory: make([]CategoryBreakdown, 0, min(topN, len(b.categories))),
		Voters:     make([]VoterFires, 0, len(b.voterOrder)),
	}

	for rating, bd := range b.ratings {
		r.ByRating = append(r.ByRating, RatingBreakdown{Rating: rating, Breakdown: bd.withPercentages()})
	}
	sort.Slice(r.ByRating, func(i, j int) bool { return r.ByRating[i].Rating < r.ByRating[j].Rating })

	cats := make([]CategoryBreakdown, 0, len(b.categories))
	for name, bd := range b.categories {
		cats = append(cats, CategoryBreakdown{Category: name, Breakdown: bd.withPercentages()})
	}
	sort.Slice(cats, func(i, j int) bool {
		if cats[i].Total != cats[j].Total {
			return cats[i].Total > cats[j].Total
		}
		return cats[i].Category < cats[j].Category
	})
	if len(cats) > topN {
		cats = cats[:topN]
	}
	r.ByCategory = append(r.ByCategory, cats...)

	if b.robot != nil {
		robot := b.robot.withPercentages()
		r.Robot = &robot
	}

	for _, name := range b.voterOrder {
		vf := VoterFires{Name: name, Fired: b.voterFires[name]}
		if b.scored > 0 {
			vf.Percent = float64(vf.Fired) / float64(b.scored) * 100
		}
		r.Voters = append(r.Voters, vf)
	}

	return r
}
