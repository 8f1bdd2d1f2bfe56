package classification

import (
	"fmt"
	"os"
	"strings"

	"github.com/Veraticus/sieve/internal/common"
	"github.com/Veraticus/sieve/internal/config"
	"github.com/Veraticus/sieve/internal/model"
	"gopkg.in/yaml.v3"
)

// OffTopicDetector decides whether a review talks about something other
// than the business it was left on.
type OffTopicDetector interface {
	Name() string
	IsOffTopic(category model.Category, text string) bool
}

// FoodCategories is the set of business categories treated as food-related.
type FoodCategories map[string]struct{}

// NewFoodCategories normalizes names into a set.
func NewFoodCategories(names []string) FoodCategories {
	set := make(FoodCategories, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

// IsFood reports whether any of the record's categories is food-related.
// Unknown categories count as food, the conservative choice that keeps
// delivery talk on-topic.
func (fc FoodCategories) IsFood(category model.Category) bool {
	if category.IsUnknown() {
		return true
	}
	for _, c := range category.Normalized() {
		if _, ok := fc[c]; ok {
			return true
		}
	}
	return false
}

// keywordDetector switches between a food and a general vocabulary.
type keywordDetector struct {
	food    *Vocabulary
	general *Vocabulary
	foods   FoodCategories
	name    string
}

func (d *keywordDetector) Name() string {
	return d.name
}

func (d *keywordDetector) IsOffTopic(category model.Category, text string) bool {
	if text == "" {
		return false
	}
	if d.foods.IsFood(category) {
		return d.food.Matches(text)
	}
	return d.general.Matches(text)
}

// NewInlineDetector uses the built-in vocabularies. Food businesses are
// checked without the delivery terms since those are on-topic for them.
func NewInlineDetector(foods FoodCategories) OffTopicDetector {
	return &keywordDetector{
		name:    config.DetectorInline,
		foods:   foods,
		food:    inlineFood,
		general: inlineGeneral,
	}
}

var (
	inlineFood    = mustVocabulary("offtopic_food", OffTopicTerms)
	inlineGeneral = mustVocabulary("offtopic_general", append(append([]string(nil), DeliveryTerms...), OffTopicTerms...))
)

// KeywordsFile is the on-disk format of the external detector.
//
//	food:    [political, crypto, ...]
//	general: [shipping, refund, political, ...]
type KeywordsFile struct {
	Food    []string `yaml:"food"`
	General []string `yaml:"general"`
}

// LoadKeywordsFile reads and validates an external keyword list.
func LoadKeywordsFile(path string) (*KeywordsFile, error) {
	data, err := os.ReadFile(config.ExpandPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read keywords file: %w", err)
	}

	var kf KeywordsFile
	if err := yaml.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("failed to parse keywords file %s: %w", path, err)
	}
	if len(kf.Food) == 0 || len(kf.General) == 0 {
		return nil, fmt.Errorf("%w: keywords file %s needs non-empty food and general lists",
			common.ErrInvalidConfig, path)
	}
	return &kf, nil
}

// NewExternalDetector builds a detector from a loaded keyword file.
func NewExternalDetector(kf *KeywordsFile, foods FoodCategories) (OffTopicDetector, error) {
	food, err := NewVocabulary("offtopic_food", kf.Food)
	if err != nil {
		return nil, err
	}
	general, err := NewVocabulary("offtopic_general", kf.General)
	if err != nil {
		return nil, err
	}
	return &keywordDetector{
		name:    config.DetectorExternal,
		foods:   foods,
		food:    food,
		general: general,
	}, nil
}

// NewOffTopicDetector selects the detector named in cfg. It is called once
// at startup; an unreadable keyword file is a configuration error, not a
// silent switch to the inline variant.
func NewOffTopicDetector(cfg config.OffTopic, foods FoodCategories) (OffTopicDetector, error) {
	switch cfg.Detector {
	case config.DetectorInline, "":
		return NewInlineDetector(foods), nil
	case config.DetectorExternal:
		kf, err := LoadKeywordsFile(cfg.KeywordsFile)
		if err != nil {
			return nil, err
		}
		return NewExternalDetector(kf, foods)
	default:
		return nil, fmt.Errorf("%w: unknown off-topic detector %q", common.ErrInvalidConfig, cfg.Detector)
	}
}
