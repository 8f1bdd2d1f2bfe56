// Package classification holds the keyword vocabularies, entity patterns,
// and off-topic detectors shared by feature extraction and the voters.
package classification

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Veraticus/sieve/internal/common"
)

// EntityKind names a structured-entity category.
type EntityKind string

const (
	// EntityMoney matches currency amounts.
	EntityMoney EntityKind = "money"
	// EntityTime matches clock times, dates, and relative day words.
	EntityTime EntityKind = "time"
	// EntityQuantity matches counted units such as "5 days" or "table of 4".
	EntityQuantity EntityKind = "quantity"
	// EntityFood matches dish and ingredient names.
	EntityFood EntityKind = "food"
)

// Pattern is one named entity regex.
type Pattern struct {
	Name  string
	Kind  EntityKind
	Regex string
	// CaseSensitive disables the default (?i) prefix. Inline (?i:...)
	// groups still apply.
	CaseSensitive bool
}

// CompiledPattern holds a compiled regex pattern with metadata.
type CompiledPattern struct {
	compiledRegex *regexp.Regexp
	Pattern
}

// PatternDetector counts entity matches across a fixed list of patterns.
// It is immutable after construction and safe for concurrent use.
type PatternDetector struct {
	patterns []CompiledPattern
}

// NewPatternDetector compiles patterns in order.
func NewPatternDetector(patterns []Pattern) (*PatternDetector, error) {
	compiled := make([]CompiledPattern, 0, len(patterns))

	for _, p := range patterns {
		regexStr := p.Regex
		if !p.CaseSensitive && !strings.HasPrefix(regexStr, "(?i)") {
			regexStr = "(?i)" + regexStr
		}

		regex, err := regexp.Compile(regexStr)
		if err != nil {
			return nil, fmt.Errorf("failed to compile pattern %s: %w", p.Name, err)
		}

		compiled = append(compiled, CompiledPattern{
			Pattern:       p,
			compiledRegex: regex,
		})
	}

	return &PatternDetector{patterns: compiled}, nil
}

// Count returns the total number of matches over all patterns. Patterns
// are counted independently, so a span matching two kinds counts twice.
func (pd *PatternDetector) Count(text string) int {
	if text == "" {
		return 0
	}
	total := 0
	for _, p := range pd.patterns {
		total += len(p.compiledRegex.FindAllStringIndex(text, -1))
	}
	return total
}

// CountByKind breaks Count down per entity kind.
func (pd *PatternDetector) CountByKind(text string) map[EntityKind]int {
	counts := make(map[EntityKind]int, len(pd.patterns))
	if text == "" {
		return counts
	}
	for _, p := range pd.patterns {
		if n := len(p.compiledRegex.FindAllStringIndex(text, -1)); n > 0 {
			counts[p.Kind] += n
		}
	}
	return counts
}

// Vocabulary is a compiled word-bounded keyword list.
type Vocabulary struct {
	re   *regexp.Regexp
	name string
}

// NewVocabulary compiles terms into a case-insensitive vocabulary.
func NewVocabulary(name string, terms []string) (*Vocabulary, error) {
	re, err := common.CompileWords(terms)
	if err != nil {
		return nil, fmt.Errorf("failed to compile vocabulary %s: %w", name, err)
	}
	return &Vocabulary{name: name, re: re}, nil
}

func mustVocabulary(name string, terms []string) *Vocabulary {
	v, err := NewVocabulary(name, terms)
	if err != nil {
		panic(err)
	}
	return v
}

// Name returns the vocabulary name.
func (v *Vocabulary) Name() string {
	return v.name
}

// Matches reports whether any term occurs in text.
func (v *Vocabulary) Matches(text string) bool {
	return text != "" && v.re.MatchString(text)
}

// Count returns the number of non-overlapping term occurrences.
func (v *Vocabulary) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(v.re.FindAllStringIndex(text, -1))
}
