package model

import (
	"encoding/json"
	"strconv"
)

// ErrorMarker replaces derived columns of rows whose processing failed.
const ErrorMarker = "ERROR"

// Columns is the flat output schema, in order.
var Columns = []string{
	"comment_id", "user_id", "gmap_id", "name", "rating", "time", "category", "robot_review", "text",
	"len_tok", "len_char", "entity_count", "emoji_count", "caps_ratio", "word_repetition_ratio",
	"non_alnum_ratio", "brand_mentions", "is_food", "has_url", "has_phone",
	"p_untrust", "score", "final_label", "label_str", "lf_outputs", "error",
}

// OutputRow is one emitted result. Exactly one row exists per valid input line.
type OutputRow struct {
	Labeled *Labeled // nil when processing failed
	Preview string
	Error   string
	Record  Record
	Seq     int
}

// NewOutputRow builds a row for a successfully scored record.
func NewOutputRow(seq int, rec Record, labeled Labeled, previewLen int) OutputRow {
	return OutputRow{
		Seq:     seq,
		Record:  rec,
		Preview: TextPreview(rec.Text, previewLen),
		Labeled: &labeled,
	}
}

// NewErrorRow builds a row whose derived columns carry ErrorMarker.
func NewErrorRow(seq int, rec Record, err error, previewLen int) OutputRow {
	msg := ErrorMarker
	if err != nil {
		msg = err.Error()
	}
	return OutputRow{
		Seq:     seq,
		Record:  rec,
		Preview: TextPreview(rec.Text, previewLen),
		Error:   msg,
	}
}

// Failed reports whether the row is an error row.
func (r OutputRow) Failed() bool {
	return r.Labeled == nil
}

// TextPreview truncates text to limit runes, appending "..." when cut.
func TextPreview(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}

// derived returns the derived column values, or ErrorMarker for each on failure.
func (r OutputRow) derived() []any {
	const n = 16
	out := make([]any, n)
	if r.Labeled == nil {
		for i := range out {
			out[i] = ErrorMarker
		}
		return out
	}
	f := r.Labeled.Features
	res := r.Labeled.Result
	return []any{
		f.TokenCount, f.CharCount, f.EntityCount, f.EmojiCount, f.UppercaseRatio, f.RepeatedWordRatio,
		f.NonAlphanumRatio, f.BrandMentions, f.IsFood, f.HasURL, f.HasPhone,
		res.Probability, res.RawScore, int(r.Labeled.Decision), r.Labeled.Decision.String(), r.Labeled.Votes,
	}
}

func (r OutputRow) rating() any {
	if r.Record.Rating == 0 {
		return nil
	}
	return r.Record.Rating
}

// MarshalJSON writes the row as an object keyed by Columns.
func (r OutputRow) MarshalJSON() ([]byte, error) {
	head := []any{
		r.Seq, r.Record.UserID, r.Record.GmapID, r.Record.Name, r.rating(), r.Record.Time,
		r.Record.Category, r.Record.RobotReview, r.Preview,
	}
	values := append(head, r.derived()...)
	var errVal any
	if r.Error != "" {
		errVal = r.Error
	}
	values = append(values, errVal)

	buf := make([]byte, 0, 512)
	buf = append(buf, '{')
	for i, col := range Columns {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendQuote(buf, col)
		buf = append(buf, ':')
		b, err := json.Marshal(values[i])
		if err != nil {
			return nil, err
		}
		buf = append(buf, b...)
	}
	buf = append(buf, '}')
	return buf, nil
}

// Cells renders the row as strings in Columns order.
func (r OutputRow) Cells() ([]string, error) {
	head := []any{
		r.Seq, r.Record.UserID, r.Record.GmapID, r.Record.Name, r.rating(), r.Record.Time,
		r.Record.Category.String(), r.Record.RobotReview, r.Preview,
	}
	values := append(head, r.derived()...)
	values = append(values, r.Error)

	cells := make([]string, len(values))
	for i, v := range values {
		s, err := cell(v)
		if err != nil {
			return nil, err
		}
		cells[i] = s
	}
	return cells, nil
}

func cell(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case int:
		return strconv.Itoa(t), nil
	case bool:
		return strconv.FormatBool(t), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}
