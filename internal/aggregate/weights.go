// Package aggregate turns a VoteSet into a calibrated untrust probability.
package aggregate

import (
	"sort"

	"github.com/Veraticus/sieve/internal/labeling"
)

// DefaultWeight is used for any voter missing from a table.
const DefaultWeight = 1.0

// PoliticalContent has a base weight but no voter in the fixed suite; it is
// kept so externally produced votes under that name are weighed correctly.
const PoliticalContent = "political_content"

var baseWeights = map[string]float64{
	labeling.Promo:                2.0,
	labeling.NearDuplicate:        1.8,
	labeling.SentimentConflict:    1.8,
	labeling.OffTopic:             0.6,
	labeling.UserBurst:            1.2,
	labeling.BusinessBurst:        1.2,
	labeling.TooShort:             0.6,
	labeling.Template:             0.8,
	labeling.EntitySparse:         0.6,
	labeling.FormatNoise:          0.6,
	labeling.TrustSignal:          2.5,
	labeling.SuspiciousPatterns:   1.2,
	labeling.BrandMentioning:      1.0,
	labeling.TimeSensitiveContent: 1.5,
	PoliticalContent:              3.0,
}

// Per-unit strictness increments.
var strictnessRates = map[string]float64{
	labeling.Promo:             1.0,
	labeling.SentimentConflict: 1.0,
	PoliticalContent:           1.0,
	labeling.OffTopic:          0.5,
	labeling.NearDuplicate:     0.5,
}

// WeightPolicy derives weight tables from a strictness level.
type WeightPolicy struct {
	Strictness float64
}

// Table returns a fresh snapshot for the policy's strictness.
func (p WeightPolicy) Table() WeightTable {
	return Weights(p.Strictness)
}

// WeightTable is an immutable name to weight snapshot. The zero value
// weighs every voter at DefaultWeight.
type WeightTable struct {
	weights    map[string]float64
	strictness float64
}

// Weights computes the table for strictness. The result shares no state
// with any other table.
func Weights(strictness float64) WeightTable {
	w := make(map[string]float64, len(baseWeights))
	for name, base := range baseWeights {
		w[name] = base + strictness*strictnessRates[name]
	}
	return WeightTable{weights: w, strictness: strictness}
}

// FixedWeights builds a table from explicit values, mainly for tests and
// audits of hand-tuned weightings.
func FixedWeights(weights map[string]float64) WeightTable {
	w := make(map[string]float64, len(weights))
	for name, v := range weights {
		w[name] = v
	}
	return WeightTable{weights: w}
}

// Weight returns the weight for name, or DefaultWeight when absent.
func (t WeightTable) Weight(name string) float64 {
	if w, ok := t.weights[name]; ok {
		return w
	}
	return DefaultWeight
}

// Strictness returns the level the table was derived from.
func (t WeightTable) Strictness() float64 {
	return t.strictness
}

// Entry is one row of a rendered weight table.
type Entry struct {
	Name   string  `json:"name" yaml:"name"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// Entries lists the table sorted by name.
func (t WeightTable) Entries() []Entry {
	out := make([]Entry, 0, len(t.weights))
	for name, w := range t.weights {
		out = append(out, Entry{Name: name, Weight: w})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
