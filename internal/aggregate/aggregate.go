package aggregate

import (
	"math"

	"github.com/Veraticus/sieve/internal/model"
)

// Aggregate sums the signed, weighted confidences of non-abstaining votes
// and maps the sum through the logistic function. It is pure: the result
// depends only on votes and table.
func Aggregate(votes model.VoteSet, table WeightTable) model.AggregationResult {
	var (
		raw  float64
		hits []model.Contribution
	)
	for _, v := range votes {
		if !v.Fired() {
			continue
		}
		sign := -1.0
		if v.Label == model.LabelUntrust {
			sign = 1.0
		}
		w := table.Weight(v.Source)
		c := sign * w * v.Confidence
		raw += c
		hits = append(hits, model.Contribution{
			Name:       v.Source,
			Label:      v.Label,
			Confidence: v.Confidence,
			Weight:     w,
			Signed:     c,
		})
	}

	return model.AggregationResult{
		Probability:   Sigmoid(raw),
		RawScore:      raw,
		Contributions: hits,
	}
}

// Probability bounds. Sigmoid never returns exactly 0 or 1.
var (
	minProbability = math.Nextafter(0, 1)
	maxProbability = math.Nextafter(1, 0)
)

// Sigmoid is the logistic function, evaluated without overflow and clamped
// to the open interval (0, 1).
func Sigmoid(x float64) float64 {
	var p float64
	if x >= 0 {
		p = 1 / (1 + math.Exp(-x))
	} else {
		e := math.Exp(x)
		p = e / (1 + e)
	}
	return math.Min(math.Max(p, minProbability), maxProbability)
}
