package features

import (
	"testing"

	"github.com/Veraticus/sieve/internal/model"
	"github.com/stretchr/testify/assert"
)

func boolPtr(b bool) *bool { return &b }

func TestExtract_EmptyText(t *testing.T) {
	fs := Extract(model.Record{Category: model.UnknownCategory()})

	assert.Equal(t, model.FeatureSet{IsFood: true}, fs)
}

func TestExtract_Counts(t *testing.T) {
	fs := Extract(model.Record{
		Text:     "Paid $45 for a table of 4 on Saturday at 7:00 pm, great service",
		Category: model.SingleCategory("restaurant"),
	})

	assert.Equal(t, 14, fs.TokenCount)
	assert.Equal(t, 63, fs.CharCount)
	assert.Equal(t, 4, fs.EntityCount)
	assert.Equal(t, 1, fs.BrandMentions)
	assert.Equal(t, 0, fs.EmojiCount)
	assert.True(t, fs.IsFood)
	assert.False(t, fs.HasURL)
	assert.False(t, fs.HasPhone)
	assert.InDelta(t, 2.0/63, fs.UppercaseRatio, 1e-9)
	assert.InDelta(t, 3.0/63, fs.NonAlphanumRatio, 1e-9)
	assert.Equal(t, 14, fs.WordCount)
	assert.Equal(t, 1, fs.MaxWordFrequency)
}

func TestExtract_NFC(t *testing.T) {
	composed := Extract(model.Record{Text: "caf\u00e9 ok"})
	decomposed := Extract(model.Record{Text: "cafe\u0301 ok"})

	assert.Equal(t, composed, decomposed)
	assert.Equal(t, 7, composed.CharCount)
}

func TestExtract_Emoji(t *testing.T) {
	fs := Extract(model.Record{Text: "yum 😀😀🍕🚀🦀 ok"})

	assert.Equal(t, 5, fs.EmojiCount)
	assert.Equal(t, 2, fs.LongestCharRun)
}

func TestExtract_Runs(t *testing.T) {
	fs := Extract(model.Record{Text: "soooooo good!!!!\n\n\n\nwow??"})

	assert.Equal(t, 6, fs.LongestCharRun)
	assert.Equal(t, 4, fs.LongestPunctuationRun)
}

func TestExtract_RepeatedWords(t *testing.T) {
	fs := Extract(model.Record{Text: "Good good GOOD good food"})

	assert.Equal(t, 5, fs.WordCount)
	assert.Equal(t, 4, fs.MaxWordFrequency)
	assert.InDelta(t, 0.8, fs.RepeatedWordRatio, 1e-9)
}

func TestExtract_ContactFlags(t *testing.T) {
	tests := []struct {
		rec       model.Record
		name      string
		wantURL   bool
		wantPhone bool
	}{
		{
			name:    "recomputed from placeholder",
			rec:     model.Record{Text: "see <url> or call <phone>"},
			wantURL: true, wantPhone: true,
		},
		{
			name: "upstream metadata wins",
			rec: model.Record{
				Text:    "see <url>",
				Signals: model.Signals{HasURL: boolPtr(false), HasPhone: boolPtr(true)},
			},
			wantURL: false, wantPhone: true,
		},
		{
			name:    "raw url",
			rec:     model.Record{Text: "https://example.com"},
			wantURL: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := Extract(tt.rec)
			assert.Equal(t, tt.wantURL, fs.HasURL)
			assert.Equal(t, tt.wantPhone, fs.HasPhone)
		})
	}
}

func TestExtract_PlaceholdersAreNotEntities(t *testing.T) {
	fs := Extract(model.Record{Text: "<phone> <url> <email>"})
	assert.Equal(t, 0, fs.EntityCount)
}

func TestExtractor_Categories(t *testing.T) {
	e := NewExtractor([]string{"taqueria"})

	assert.True(t, e.Extract(model.Record{Category: model.SingleCategory("Taqueria")}).IsFood)
	assert.False(t, e.Extract(model.Record{Category: model.SingleCategory("restaurant")}).IsFood)
}
