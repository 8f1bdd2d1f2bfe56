package testutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Review is a fixture record. Zero fields are omitted from the JSON form.
type Review struct {
	Category any     `json:"category,omitempty"`
	UserID   string  `json:"user_id,omitempty"`
	GmapID   string  `json:"gmap_id,omitempty"`
	Name     string  `json:"name,omitempty"`
	Text     string  `json:"text,omitempty"`
	Time     any     `json:"time,omitempty"`
	SentPos  float64 `json:"sent_pos,omitempty"`
	SentNeg  float64 `json:"sent_neg,omitempty"`
	Rating   int     `json:"rating,omitempty"`
	Robot    bool    `json:"robot_review,omitempty"`
}

// Fixture reviews covering the three canonical outcomes.
var (
	// GenericPraise trips only the template and entity-sparse voters.
	GenericPraise = Review{
		UserID: "u-generic", GmapID: "g-bistro", Rating: 5, Category: "restaurant",
		Text: "great food, highly recommend to everyone",
	}

	// DetailedVisit carries money, quantity and time entities.
	DetailedVisit = Review{
		UserID: "u-detail", GmapID: "g-bistro", Rating: 4, Category: "restaurant",
		Text: "Paid $45 for a table of 4 on Saturday at 7:00 pm, great service",
	}

	// Promotion advertises a contact channel and a link.
	Promotion = Review{
		UserID: "u-promo", GmapID: "g-shop", Rating: 5, Robot: true,
		Text: "Contact me on WhatsApp for a discount code, https://example.com",
	}
)

// Scenarios returns the three fixture reviews in a stable order.
func Scenarios() []Review {
	return []Review{GenericPraise, DetailedVisit, Promotion}
}

// Line encodes a review as one JSONL line without the trailing newline.
func (r Review) Line() string {
	data, err := json.Marshal(r)
	if err != nil {
		panic(fmt.Sprintf("testutil: cannot encode review: %v", err))
	}
	return string(data)
}

// JSONL joins reviews into a newline-terminated corpus.
func JSONL(reviews ...Review) string {
	var b strings.Builder
	for _, r := range reviews {
		b.WriteString(r.Line())
		b.WriteByte('\n')
	}
	return b.String()
}

// Corpus builds n reviews spread over the given number of businesses.
func Corpus(n, businesses int) []Review {
	if businesses <= 0 {
		businesses = 1
	}
	out := make([]Review, n)
	for i := range out {
		out[i] = Review{
			UserID:   fmt.Sprintf("u%d", i),
			GmapID:   fmt.Sprintf("g%d", i%businesses),
			Rating:   i%5 + 1,
			Category: "restaurant",
			Text:     fmt.Sprintf("visit %d was fine", i),
		}
	}
	return out
}

// WriteFile writes content into a temp file and returns its path.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}
