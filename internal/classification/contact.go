package classification

import (
	"regexp"
	"strings"
	"unicode"
)

// Placeholder tokens written by the upstream PII sanitizer.
const (
	PlaceholderURL   = "<url>"
	PlaceholderPhone = "<phone>"
	PlaceholderEmail = "<email>"
)

var (
	urlPattern   = regexp.MustCompile(`(?i)\b(?:https?://|www\.)[^\s"\)\]]+`)
	emailPattern = regexp.MustCompile(`(?i)\b[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}\b`)
	// RE2 has no lookaround; the surrounding characters are checked in code.
	phoneCandidate = regexp.MustCompile(`\+?\d[\d\s\-.()]{6,}\d`)
)

// Phone numbers carry between 8 and 15 digits.
const (
	minPhoneDigits = 8
	maxPhoneDigits = 15
)

// HasURL reports whether text carries a link: a <url> or <email>
// placeholder, or a raw URL or address the sanitizer missed.
func HasURL(text string) bool {
	lower := strings.ToLower(text)
	if strings.Contains(lower, PlaceholderURL) || strings.Contains(lower, PlaceholderEmail) {
		return true
	}
	return urlPattern.MatchString(text) || emailPattern.MatchString(text)
}

// HasPhone reports whether text carries a <phone> placeholder or a raw
// phone number.
func HasPhone(text string) bool {
	if strings.Contains(strings.ToLower(text), PlaceholderPhone) {
		return true
	}
	for _, loc := range phoneCandidate.FindAllStringIndex(text, -1) {
		if !isolated(text, loc[0], loc[1]) {
			continue
		}
		digits := 0
		for _, r := range text[loc[0]:loc[1]] {
			if unicode.IsDigit(r) {
				digits++
			}
		}
		if digits >= minPhoneDigits && digits <= maxPhoneDigits {
			return true
		}
	}
	return false
}

func isolated(text string, start, end int) bool {
	if start > 0 && isASCIIAlnum(text[start-1]) {
		return false
	}
	if end < len(text) && isASCIIAlnum(text[end]) {
		return false
	}
	return true
}

func isASCIIAlnum(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

var placeholderReplacer = strings.NewReplacer(
	PlaceholderURL, " ", PlaceholderPhone, " ", PlaceholderEmail, " ",
	strings.ToUpper(PlaceholderURL), " ", strings.ToUpper(PlaceholderPhone), " ",
	strings.ToUpper(PlaceholderEmail), " ",
)

// StripPlaceholders blanks sanitizer tokens so they never count as entities.
func StripPlaceholders(text string) string {
	return placeholderReplacer.Replace(text)
}
