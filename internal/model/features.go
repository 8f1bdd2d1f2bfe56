package model

// FeatureSet is derived once per record and shared by every voter.
type FeatureSet struct {
	TokenCount            int     `json:"len_tok"`
	CharCount             int     `json:"len_char"`
	EntityCount           int     `json:"entity_count"`
	EmojiCount            int     `json:"emoji_count"`
	BrandMentions         int     `json:"brand_mentions"`
	WordCount             int     `json:"word_count"`
	MaxWordFrequency      int     `json:"max_word_frequency"`
	LongestCharRun        int     `json:"longest_char_run"`
	LongestPunctuationRun int     `json:"longest_punct_run"`
	UppercaseRatio        float64 `json:"caps_ratio"`
	RepeatedWordRatio     float64 `json:"word_repetition_ratio"`
	NonAlphanumRatio      float64 `json:"non_alnum_ratio"`
	IsFood                bool    `json:"is_food"`
	HasURL                bool    `json:"has_url"`
	HasPhone              bool    `json:"has_phone"`
}
