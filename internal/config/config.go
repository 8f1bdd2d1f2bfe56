package config

import (
	"fmt"
	"strings"

	"github.com/Veraticus/sieve/internal/common"
	"github.com/spf13/viper"
)

// Off-topic detector variants.
const (
	DetectorInline   = "inline"
	DetectorExternal = "external"
)

// DefaultFoodCategories are the business categories whose reviews use the
// food off-topic vocabulary.
var DefaultFoodCategories = []string{
	"restaurant", "cafe", "food", "bar", "bakery", "pizzeria",
	"diner", "bistro", "grill", "steakhouse", "seafood", "bbq",
	"fast food", "casual dining", "fine dining", "ethnic food",
	"food truck", "food court", "delicatessen", "grocery store",
}

// Decision holds the two probability cutoffs.
type Decision struct {
	TauHigh float64
	TauLow  float64
}

// Sampling bounds corpus construction.
type Sampling struct {
	PerBusinessCap int
	TotalRecordCap int
}

// Thresholds are the voter trigger bounds.
type Thresholds struct {
	MinEntitiesForTrust        int
	MaxEmojis                  int
	MaxCapsRatio               float64
	MaxWordRepetitionRatio     float64
	MaxBrandMentions           int
	MaxDailyReviews            int
	MaxExtremeRatingRatio      float64
	SentimentConflictThreshold float64
	MaxNonAlnumRatio           float64
	MaxRepeatedChars           int
	MaxRepeatedPunctuation     int
}

// OffTopic selects the off-topic detector.
type OffTopic struct {
	Detector     string
	KeywordsFile string
}

// Batch tunes the runner.
type Batch struct {
	ChunkSize     int
	Workers       int
	PreviewLength int
}

// Config is the full process-wide configuration.
type Config struct {
	OffTopic       OffTopic
	Logging        Logging
	FoodCategories []string
	Thresholds     Thresholds
	Decision       Decision
	Sampling       Sampling
	Batch          Batch
	Strictness     float64
	TopCategories  int
}

// Logging configures slog output.
type Logging struct {
	Level  string
	Format string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Decision: Decision{TauHigh: 0.30, TauLow: 0.70},
		Sampling: Sampling{PerBusinessCap: 80, TotalRecordCap: 50000},
		Thresholds: Thresholds{
			MinEntitiesForTrust:        1,
			MaxEmojis:                  7,
			MaxCapsRatio:               0.90,
			MaxWordRepetitionRatio:     0.7,
			MaxBrandMentions:           5,
			MaxDailyReviews:            12,
			MaxExtremeRatingRatio:      0.995,
			SentimentConflictThreshold: 0.99,
			MaxNonAlnumRatio:           0.7,
			MaxRepeatedChars:           6,
			MaxRepeatedPunctuation:     5,
		},
		Strictness:     0.0,
		FoodCategories: append([]string(nil), DefaultFoodCategories...),
		OffTopic:       OffTopic{Detector: DetectorInline},
		Batch:          Batch{ChunkSize: 1000, PreviewLength: 200},
		TopCategories:  10,
		Logging:        Logging{Level: "info", Format: "console"},
	}
}

// SetDefaults registers every key with its default so env vars and
// config files can override them.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("decision.tau_high", d.Decision.TauHigh)
	v.SetDefault("decision.tau_low", d.Decision.TauLow)
	v.SetDefault("sampling.per_business_cap", d.Sampling.PerBusinessCap)
	v.SetDefault("sampling.total_record_cap", d.Sampling.TotalRecordCap)
	v.SetDefault("thresholds.min_entities_for_trust", d.Thresholds.MinEntitiesForTrust)
	v.SetDefault("thresholds.max_emojis", d.Thresholds.MaxEmojis)
	v.SetDefault("thresholds.max_caps_ratio", d.Thresholds.MaxCapsRatio)
	v.SetDefault("thresholds.max_word_repetition_ratio", d.Thresholds.MaxWordRepetitionRatio)
	v.SetDefault("thresholds.max_brand_mentions", d.Thresholds.MaxBrandMentions)
	v.SetDefault("thresholds.max_daily_reviews", d.Thresholds.MaxDailyReviews)
	v.SetDefault("thresholds.max_extreme_rating_ratio", d.Thresholds.MaxExtremeRatingRatio)
	v.SetDefault("thresholds.sentiment_conflict_threshold", d.Thresholds.SentimentConflictThreshold)
	v.SetDefault("thresholds.max_non_alnum_ratio", d.Thresholds.MaxNonAlnumRatio)
	v.SetDefault("thresholds.max_repeated_chars", d.Thresholds.MaxRepeatedChars)
	v.SetDefault("thresholds.max_repeated_punctuation", d.Thresholds.MaxRepeatedPunctuation)
	v.SetDefault("weights.strictness_level", d.Strictness)
	v.SetDefault("categories.food", d.FoodCategories)
	v.SetDefault("offtopic.detector", d.OffTopic.Detector)
	v.SetDefault("offtopic.keywords_file", "")
	v.SetDefault("batch.chunk_size", d.Batch.ChunkSize)
	v.SetDefault("batch.workers", d.Batch.Workers)
	v.SetDefault("batch.preview_length", d.Batch.PreviewLength)
	v.SetDefault("report.top_categories", d.TopCategories)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// Load reads the configuration from v, falling back to the global viper
// instance when v is nil. The result is validated.
func Load(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.GetViper()
	}
	SetDefaults(v)

	cfg := Config{
		Decision: Decision{
			TauHigh: v.GetFloat64("decision.tau_high"),
			TauLow:  v.GetFloat64("decision.tau_low"),
		},
		Sampling: Sampling{
			PerBusinessCap: v.GetInt("sampling.per_business_cap"),
			TotalRecordCap: v.GetInt("sampling.total_record_cap"),
		},
		Thresholds: Thresholds{
			MinEntitiesForTrust:        v.GetInt("thresholds.min_entities_for_trust"),
			MaxEmojis:                  v.GetInt("thresholds.max_emojis"),
			MaxCapsRatio:               v.GetFloat64("thresholds.max_caps_ratio"),
			MaxWordRepetitionRatio:     v.GetFloat64("thresholds.max_word_repetition_ratio"),
			MaxBrandMentions:           v.GetInt("thresholds.max_brand_mentions"),
			MaxDailyReviews:            v.GetInt("thresholds.max_daily_reviews"),
			MaxExtremeRatingRatio:      v.GetFloat64("thresholds.max_extreme_rating_ratio"),
			SentimentConflictThreshold: v.GetFloat64("thresholds.sentiment_conflict_threshold"),
			MaxNonAlnumRatio:           v.GetFloat64("thresholds.max_non_alnum_ratio"),
			MaxRepeatedChars:           v.GetInt("thresholds.max_repeated_chars"),
			MaxRepeatedPunctuation:     v.GetInt("thresholds.max_repeated_punctuation"),
		},
		Strictness:     v.GetFloat64("weights.strictness_level"),
		FoodCategories: normalizeCategories(v.GetStringSlice("categories.food")),
		OffTopic: OffTopic{
			Detector:     strings.ToLower(strings.TrimSpace(v.GetString("offtopic.detector"))),
			KeywordsFile: ExpandPath(v.GetString("offtopic.keywords_file")),
		},
		Batch: Batch{
			ChunkSize:     v.GetInt("batch.chunk_size"),
			Workers:       v.GetInt("batch.workers"),
			PreviewLength: v.GetInt("batch.preview_length"),
		},
		TopCategories: v.GetInt("report.top_categories"),
		Logging: Logging{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks ranges and cross-field requirements. Thresholds with
// tau_high <= tau_low are accepted; the decision policy reports them.
func (c *Config) Validate() error {
	var problems []string

	inUnit := func(name string, x float64) {
		if x < 0 || x > 1 {
			problems = append(problems, fmt.Sprintf("%s must be in [0,1], got %v", name, x))
		}
	}
	nonNegative := func(name string, x int) {
		if x < 0 {
			problems = append(problems, fmt.Sprintf("%s must not be negative, got %d", name, x))
		}
	}

	inUnit("decision.tau_high", c.Decision.TauHigh)
	inUnit("decision.tau_low", c.Decision.TauLow)
	inUnit("thresholds.max_caps_ratio", c.Thresholds.MaxCapsRatio)
	inUnit("thresholds.max_word_repetition_ratio", c.Thresholds.MaxWordRepetitionRatio)
	inUnit("thresholds.max_extreme_rating_ratio", c.Thresholds.MaxExtremeRatingRatio)
	inUnit("thresholds.sentiment_conflict_threshold", c.Thresholds.SentimentConflictThreshold)
	inUnit("thresholds.max_non_alnum_ratio", c.Thresholds.MaxNonAlnumRatio)

	nonNegative("sampling.per_business_cap", c.Sampling.PerBusinessCap)
	nonNegative("sampling.total_record_cap", c.Sampling.TotalRecordCap)
	nonNegative("thresholds.min_entities_for_trust", c.Thresholds.MinEntitiesForTrust)
	nonNegative("thresholds.max_emojis", c.Thresholds.MaxEmojis)
	nonNegative("thresholds.max_brand_mentions", c.Thresholds.MaxBrandMentions)
	nonNegative("thresholds.max_daily_reviews", c.Thresholds.MaxDailyReviews)
	nonNegative("thresholds.max_repeated_chars", c.Thresholds.MaxRepeatedChars)
	nonNegative("thresholds.max_repeated_punctuation", c.Thresholds.MaxRepeatedPunctuation)
	nonNegative("batch.workers", c.Batch.Workers)
	nonNegative("batch.preview_length", c.Batch.PreviewLength)
	nonNegative("report.top_categories", c.TopCategories)

	if c.Strictness < 0 {
		problems = append(problems, fmt.Sprintf("weights.strictness_level must not be negative, got %v", c.Strictness))
	}
	if c.Batch.ChunkSize <= 0 {
		problems = append(problems, fmt.Sprintf("batch.chunk_size must be positive, got %d", c.Batch.ChunkSize))
	}
	if len(c.FoodCategories) == 0 {
		problems = append(problems, "categories.food must not be empty")
	}

	switch c.OffTopic.Detector {
	case DetectorInline:
	case DetectorExternal:
		if c.OffTopic.KeywordsFile == "" {
			problems = append(problems, "offtopic.keywords_file is required for the external detector")
		}
	default:
		problems = append(problems, fmt.Sprintf("offtopic.detector must be %q or %q, got %q",
			DetectorInline, DetectorExternal, c.OffTopic.Detector))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", common.ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

func normalizeCategories(in []string) []string {
	out := make([]string, 0, len(in))
	for _, c := range in {
		c = strings.ToLower(strings.TrimSpace(c))
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}
