// Package features derives the per-record FeatureSet shared by every voter.
package features

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Veraticus/sieve/internal/classification"
	"github.com/Veraticus/sieve/internal/config"
	"github.com/Veraticus/sieve/internal/model"
	"golang.org/x/text/unicode/norm"
)

// Extractor computes FeatureSets. It holds only immutable lookup tables
// and is safe for concurrent use.
type Extractor struct {
	foods classification.FoodCategories
}

// NewExtractor builds an extractor for the given food-business categories.
func NewExtractor(foodCategories []string) *Extractor {
	return &Extractor{foods: classification.NewFoodCategories(foodCategories)}
}

var defaultExtractor = NewExtractor(config.DefaultFoodCategories)

// Extract uses the default food categories.
func Extract(rec model.Record) model.FeatureSet {
	return defaultExtractor.Extract(rec)
}

// FoodCategories exposes the extractor's category set.
func (e *Extractor) FoodCategories() classification.FoodCategories {
	return e.foods
}

// Extract never fails. Empty text yields zero counts; URL and phone flags
// prefer upstream metadata and fall back to scanning the text.
func (e *Extractor) Extract(rec model.Record) model.FeatureSet {
	text := norm.NFC.String(rec.Text)

	fs := model.FeatureSet{
		IsFood:   e.foods.IsFood(rec.Category),
		HasURL:   flag(rec.Signals.HasURL, text, classification.HasURL),
		HasPhone: flag(rec.Signals.HasPhone, text, classification.HasPhone),
	}
	if text == "" {
		return fs
	}

	fs.TokenCount = len(strings.Fields(text))
	fs.CharCount = utf8.RuneCountInString(text)
	fs.EntityCount = classification.Entities.Count(classification.StripPlaceholders(text))
	fs.BrandMentions = classification.Brand.Count(text)

	var upper, nonAlnum int
	for _, r := range text {
		switch {
		case isEmoji(r):
			fs.EmojiCount++
			nonAlnum++
		case unicode.IsUpper(r):
			upper++
		case unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsSpace(r):
		default:
			nonAlnum++
		}
	}
	fs.UppercaseRatio = ratio(upper, fs.CharCount)
	fs.NonAlphanumRatio = ratio(nonAlnum, fs.CharCount)

	fs.WordCount, fs.MaxWordFrequency = wordFrequency(text)
	fs.RepeatedWordRatio = ratio(fs.MaxWordFrequency, fs.WordCount)

	fs.LongestCharRun, fs.LongestPunctuationRun = longestRuns(text)

	return fs
}

func flag(upstream *bool, text string, scan func(string) bool) bool {
	if upstream != nil {
		return *upstream
	}
	return text != "" && scan(text)
}

func ratio(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}

// isEmoji covers the emoticon, pictograph, transport, and supplemental
// symbol blocks.
func isEmoji(r rune) bool {
	switch {
	case r >= 0x1F600 && r <= 0x1F67F:
	case r >= 0x1F300 && r <= 0x1F5FF:
	case r >= 0x1F680 && r <= 0x1F6FF:
	case r >= 0x1F980 && r <= 0x1F9FF:
	default:
		return false
	}
	return true
}

func wordFrequency(text string) (words, maxFreq int) {
	fields := strings.Fields(strings.ToLower(text))
	freq := make(map[string]int, len(fields))
	for _, w := range fields {
		freq[w]++
		if freq[w] > maxFreq {
			maxFreq = freq[w]
		}
	}
	return len(fields), maxFreq
}

// longestRuns returns the longest run of one repeated character (line
// breaks excluded) and the longest run of repeated '!' or '?'.
func longestRuns(text string) (chars, punct int) {
	var prev rune
	run := 0
	for _, r := range text {
		if r == prev && r != '\n' {
			run++
		} else {
			run = 1
		}
		prev = r
		if r == '\n' {
			continue
		}
		if run > chars {
			chars = run
		}
		if (r == '!' || r == '?') && run > punct {
			punct = run
		}
	}
	return chars, punct
}
