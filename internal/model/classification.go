package model

// Decision is the final three-way outcome for a record.
type Decision int

// Decision constants. The integer values are the final_label contract
// consumed by downstream trainers.
const (
	DecisionIgnore        Decision = -1
	DecisionTrustworthy   Decision = 0
	DecisionUntrustworthy Decision = 1
)

// Decisions lists every outcome in report order.
var Decisions = []Decision{DecisionTrustworthy, DecisionUntrustworthy, DecisionIgnore}

// String returns the decision name used in label_str.
func (d Decision) String() string {
	switch d {
	case DecisionTrustworthy:
		return "trustworthy"
	case DecisionUntrustworthy:
		return "untrustworthy"
	default:
		return "ignore"
	}
}

// Contribution is one summed term of an aggregation, kept for auditing.
type Contribution struct {
	Name       string  `json:"name"`
	Label      Label   `json:"label"`
	Confidence float64 `json:"confidence"`
	Weight     float64 `json:"weight"`
	Signed     float64 `json:"contribution"`
}

// AggregationResult is the calibrated score for one record.
type AggregationResult struct {
	Contributions []Contribution `json:"contributions"`
	Probability   float64        `json:"p_untrust"`
	RawScore      float64        `json:"score"`
}

// Labeled bundles everything derived from a successfully scored record.
type Labeled struct {
	Votes    VoteSet
	Result   AggregationResult
	Features FeatureSet
	Decision Decision
}
