// Package engine runs the labeling pipeline over a stream of records:
// extract, vote, aggregate, decide, then emit rows in input order.
package engine

import (
	"fmt"

	"github.com/Veraticus/sieve/internal/aggregate"
	"github.com/Veraticus/sieve/internal/classification"
	"github.com/Veraticus/sieve/internal/config"
	"github.com/Veraticus/sieve/internal/decision"
	"github.com/Veraticus/sieve/internal/features"
	"github.com/Veraticus/sieve/internal/labeling"
	"github.com/Veraticus/sieve/internal/model"
)

// Scorer labels a single record. Every field is immutable after
// construction, so one Scorer is shared by all workers.
type Scorer struct {
	extractor *features.Extractor
	suite     *labeling.Suite
	weights   aggregate.WeightTable
	policy    decision.Policy
}

// NewScorer assembles a scorer from its parts.
func NewScorer(extractor *features.Extractor, suite *labeling.Suite, weights aggregate.WeightTable, policy decision.Policy) *Scorer {
	return &Scorer{
		extractor: extractor,
		suite:     suite,
		weights:   weights,
		policy:    policy,
	}
}

// NewScorerFromConfig builds the extractor, off-topic detector, voter
// suite, weight snapshot and decision policy described by cfg.
func NewScorerFromConfig(cfg *config.Config) (*Scorer, error) {
	extractor := features.NewExtractor(cfg.FoodCategories)

	detector, err := classification.NewOffTopicDetector(cfg.OffTopic, extractor.FoodCategories())
	if err != nil {
		return nil, fmt.Errorf("failed to create off-topic detector: %w", err)
	}

	return NewScorer(
		extractor,
		labeling.NewSuite(cfg.Thresholds, detector),
		aggregate.Weights(cfg.Strictness),
		decision.FromConfig(cfg.Decision),
	), nil
}

// Score runs the full pipeline for one record.
func (s *Scorer) Score(rec model.Record) model.Labeled {
	fs := s.extractor.Extract(rec)
	votes := s.suite.Vote(&rec, fs)
	result := aggregate.Aggregate(votes, s.weights)
	return model.Labeled{
		Features: fs,
		Votes:    votes,
		Result:   result,
		Decision: s.policy.Decide(result.Probability),
	}
}

// Weights returns the snapshot used for aggregation.
func (s *Scorer) Weights() aggregate.WeightTable {
	return s.weights
}

// Policy returns the decision policy.
func (s *Scorer) Policy() decision.Policy {
	return s.policy
}
