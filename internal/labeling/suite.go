package labeling

import (
	"github.com/Veraticus/sieve/internal/classification"
	"github.com/Veraticus/sieve/internal/config"
	"github.com/Veraticus/sieve/internal/model"
	"golang.org/x/text/unicode/norm"
)

// voters is the fixed suite, in output order.
var voters = []Voter{
	{Name: Promo, Fn: votePromo},
	{Name: TooShort, Fn: voteTooShort},
	{Name: Template, Fn: voteTemplate},
	{Name: EntitySparse, Fn: voteEntitySparse},
	{Name: OffTopic, Fn: voteOffTopic},
	{Name: FormatNoise, Fn: voteFormatNoise},
	{Name: TrustSignal, Fn: voteTrustSignal},
	{Name: SentimentConflict, Fn: voteSentimentConflict},
	{Name: UserBurst, Fn: voteUserBurst},
	{Name: UserExtremeHistory, Fn: voteUserExtremeHistory},
	{Name: BusinessBurst, Fn: voteBusinessBurst},
	{Name: NearDuplicate, Fn: voteNearDuplicate},
	{Name: SuspiciousPatterns, Fn: voteSuspiciousPatterns},
	{Name: BrandMentioning, Fn: voteBrandMentioning},
	{Name: TimeSensitiveContent, Fn: voteTimeSensitive},
}

// Names returns the voter names in suite order.
func Names() []string {
	names := make([]string, len(voters))
	for i, v := range voters {
		names[i] = v.Name
	}
	return names
}

// Suite runs every voter against a record. It is immutable and safe for
// concurrent use.
type Suite struct {
	offTopic   classification.OffTopicDetector
	thresholds config.Thresholds
}

// NewSuite binds the voters to thresholds and an off-topic detector.
func NewSuite(thresholds config.Thresholds, offTopic classification.OffTopicDetector) *Suite {
	return &Suite{thresholds: thresholds, offTopic: offTopic}
}

// Vote returns one vote per voter in suite order. No voter sees another's
// output.
func (s *Suite) Vote(rec *model.Record, fs model.FeatureSet) model.VoteSet {
	in := Input{
		Record:     rec,
		Features:   fs,
		Thresholds: &s.thresholds,
		OffTopic:   s.offTopic,
		Text:       norm.NFC.String(rec.Text),
	}

	votes := make(model.VoteSet, len(voters))
	for i, v := range voters {
		votes[i] = v.Fn(in)
	}
	return votes
}
