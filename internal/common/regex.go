package common

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// WordAlternation builds a case-insensitive, word-bounded alternation of
// literal terms. Longer terms are placed first so "contact me directly"
// wins over "contact me". Inner whitespace matches any run of spaces.
func WordAlternation(terms []string) string {
	cleaned := make([]string, 0, len(terms))
	seen := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		cleaned = append(cleaned, t)
	}
	sort.SliceStable(cleaned, func(i, j int) bool {
		return len(cleaned[i]) > len(cleaned[j])
	})

	quoted := make([]string, len(cleaned))
	for i, t := range cleaned {
		parts := strings.Fields(t)
		for k, p := range parts {
			parts[k] = regexp.QuoteMeta(p)
		}
		quoted[i] = strings.Join(parts, `\s+`)
	}
	return `(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`
}

// CompileWords compiles WordAlternation(terms). An empty term list is an error.
func CompileWords(terms []string) (*regexp.Regexp, error) {
	if len(terms) == 0 {
		return nil, fmt.Errorf("%w: empty vocabulary", ErrInvalidConfig)
	}
	re, err := regexp.Compile(WordAlternation(terms))
	if err != nil {
		return nil, fmt.Errorf("failed to compile vocabulary: %w", err)
	}
	return re, nil
}
