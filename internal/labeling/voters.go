// Package labeling implements the fixed suite of labeling functions. Each
// voter is a pure function of one record's features and raw fields.
package labeling

import (
	"github.com/Veraticus/sieve/internal/classification"
	"github.com/Veraticus/sieve/internal/config"
	"github.com/Veraticus/sieve/internal/model"
)

// Voter names, also used as weight-table keys.
const (
	Promo                = "promo"
	TooShort             = "too_short"
	Template             = "template"
	EntitySparse         = "entity_sparse"
	OffTopic             = "offtopic"
	FormatNoise          = "format_noise"
	TrustSignal          = "trust_signal"
	SentimentConflict    = "sent_conflict"
	UserBurst            = "user_burst"
	UserExtremeHistory   = "user_extreme_hist"
	BusinessBurst        = "biz_burst"
	NearDuplicate        = "near_dupe"
	SuspiciousPatterns   = "suspicious_patterns"
	BrandMentioning      = "brand_mentioning"
	TimeSensitiveContent = "time_sensitive_content"
)

// Input is everything a voter may look at.
type Input struct {
	OffTopic   classification.OffTopicDetector
	Record     *model.Record
	Thresholds *config.Thresholds
	Text       string // NFC-normalized record text
	Features   model.FeatureSet
}

// Voter is one labeling function.
type Voter struct {
	Fn   func(Input) model.Vote
	Name string
}

// Length bounds of the too_short and template voters.
const (
	shortTokens       = 5
	shortChars        = 12
	templateMaxChars  = 100
	templateMinPhrase = 2
)

func votePromo(in Input) model.Vote {
	if !classification.Promo.Matches(in.Text) {
		return model.Abstain(Promo)
	}
	if in.Features.HasURL || in.Features.HasPhone {
		return model.Untrust(Promo, 0.95)
	}
	return model.Untrust(Promo, 0.80)
}

func voteTooShort(in Input) model.Vote {
	if in.Features.TokenCount <= shortTokens || in.Features.CharCount <= shortChars {
		return model.Untrust(TooShort, 0.70)
	}
	return model.Abstain(TooShort)
}

func voteTemplate(in Input) model.Vote {
	if in.Text == "" || in.Features.EntityCount != 0 {
		return model.Abstain(Template)
	}
	matches := classification.Template.Count(in.Text)
	if matches > 0 && (in.Features.CharCount < templateMaxChars || matches >= templateMinPhrase) {
		return model.Untrust(Template, 0.80)
	}
	return model.Abstain(Template)
}

func voteEntitySparse(in Input) model.Vote {
	if in.Features.CharCount > shortChars && in.Features.EntityCount == 0 {
		return model.Untrust(EntitySparse, 0.60)
	}
	return model.Abstain(EntitySparse)
}

func voteOffTopic(in Input) model.Vote {
	if in.OffTopic != nil && in.OffTopic.IsOffTopic(in.Record.Category, in.Text) {
		return model.Untrust(OffTopic, 0.75)
	}
	return model.Abstain(OffTopic)
}

func voteFormatNoise(in Input) model.Vote {
	if in.Text == "" {
		return model.Abstain(FormatNoise)
	}
	f, th := in.Features, in.Thresholds
	if f.NonAlphanumRatio > th.MaxNonAlnumRatio ||
		f.LongestCharRun > th.MaxRepeatedChars ||
		f.LongestPunctuationRun > th.MaxRepeatedPunctuation {
		return model.Untrust(FormatNoise, 0.60)
	}
	return model.Abstain(FormatNoise)
}

// voteTrustSignal evaluates the promo vocabulary itself so it never
// depends on another voter's output.
func voteTrustSignal(in Input) model.Vote {
	if in.Features.EntityCount >= in.Thresholds.MinEntitiesForTrust && !classification.Promo.Matches(in.Text) {
		return model.Trust(TrustSignal, 0.70)
	}
	return model.Abstain(TrustSignal)
}

func voteSentimentConflict(in Input) model.Vote {
	s, hi := in.Record.Signals, in.Thresholds.SentimentConflictThreshold
	switch in.Record.Rating {
	case 1, 2:
		if s.SentimentPositive != nil && *s.SentimentPositive >= hi {
			return model.Untrust(SentimentConflict, 0.85)
		}
	case 4, 5:
		if s.SentimentNegative != nil && *s.SentimentNegative >= hi {
			return model.Untrust(SentimentConflict, 0.85)
		}
	}
	return model.Abstain(SentimentConflict)
}

func voteUserBurst(in Input) model.Vote {
	n := in.Record.Signals.UserDailyCount
	if n != nil && *n >= in.Thresholds.MaxDailyReviews {
		return model.Untrust(UserBurst, 0.80)
	}
	return model.Abstain(UserBurst)
}

func voteUserExtremeHistory(in Input) model.Vote {
	r := in.Record.Signals.UserExtremeRatio
	if r != nil && *r >= in.Thresholds.MaxExtremeRatingRatio {
		return model.Untrust(UserExtremeHistory, 0.60)
	}
	return model.Abstain(UserExtremeHistory)
}

func voteBusinessBurst(in Input) model.Vote {
	if b := in.Record.Signals.BusinessBurst; b != nil && *b {
		return model.Untrust(BusinessBurst, 0.70)
	}
	return model.Abstain(BusinessBurst)
}

func voteNearDuplicate(in Input) model.Vote {
	if d := in.Record.Signals.NearDuplicate; d != nil && *d {
		return model.Untrust(NearDuplicate, 0.95)
	}
	return model.Abstain(NearDuplicate)
}

// voteSuspiciousPatterns checks emoji, caps, and repetition in that order;
// the first hit decides the confidence.
func voteSuspiciousPatterns(in Input) model.Vote {
	if in.Text == "" {
		return model.Abstain(SuspiciousPatterns)
	}
	f, th := in.Features, in.Thresholds
	switch {
	case f.EmojiCount > th.MaxEmojis:
		return model.Untrust(SuspiciousPatterns, 0.75)
	case f.UppercaseRatio > th.MaxCapsRatio:
		return model.Untrust(SuspiciousPatterns, 0.70)
	case f.WordCount > 3 && float64(f.MaxWordFrequency) > float64(f.WordCount)*th.MaxWordRepetitionRatio:
		return model.Untrust(SuspiciousPatterns, 0.65)
	}
	return model.Abstain(SuspiciousPatterns)
}

func voteBrandMentioning(in Input) model.Vote {
	if in.Features.BrandMentions > in.Thresholds.MaxBrandMentions {
		return model.Untrust(BrandMentioning, 0.60)
	}
	return model.Abstain(BrandMentioning)
}

func voteTimeSensitive(in Input) model.Vote {
	if classification.TimeSensitive.Matches(in.Text) {
		return model.Untrust(TimeSensitiveContent, 0.80)
	}
	return model.Abstain(TimeSensitiveContent)
}
