// Package model defines the core domain models used throughout the application.
package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrFieldType is returned when a record field has an unexpected JSON type.
var ErrFieldType = errors.New("unexpected field type")

// Record is one review read from the input corpus.
type Record struct {
	UserID      string
	GmapID      string
	Name        string
	Time        string // raw timestamp, kept verbatim for output
	Text        string
	Category    Category
	Signals     Signals
	Rating      int // 0 when absent
	RobotReview bool
}

// Signals carries per-record statistics computed upstream of the engine.
// A nil field means the statistic was not supplied.
type Signals struct {
	SentimentPositive *float64
	SentimentNegative *float64
	UserDailyCount    *int
	UserExtremeRatio  *float64
	BusinessBurst     *bool
	NearDuplicate     *bool
	HasURL            *bool
	HasPhone          *bool
}

// ParseObject splits a JSON line into its top-level fields.
// It fails only when the line is not a JSON object.
func ParseObject(line []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, errors.New("line is not a JSON object")
	}
	return fields, nil
}

// DecodeRecord builds a Record from parsed fields. Every field is decoded
// even after a failure so identifiers survive into error rows; the first
// error encountered is returned.
func DecodeRecord(fields map[string]json.RawMessage) (Record, error) {
	var (
		rec  Record
		errs []error
	)
	keep := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	rec.UserID, _ = decodeString(fields, "user_id", &errs)
	rec.GmapID, _ = decodeString(fields, "gmap_id", &errs)
	rec.Name, _ = decodeString(fields, "name", &errs)

	// text falls back to the sanitizer's alternate columns
	for _, key := range []string{"text", "original_text", "processed_text"} {
		if s, ok := decodeString(fields, key, &errs); ok && s != "" {
			rec.Text = s
			break
		}
	}

	if raw, ok := present(fields, "time"); ok {
		rec.Time = rawScalar(raw)
	}

	if raw, ok := present(fields, "rating"); ok {
		r, err := decodeRating(raw)
		keep(err)
		rec.Rating = r
	}

	if raw, ok := present(fields, "category"); ok {
		cat, err := decodeCategory(raw)
		keep(fieldErr("category", err))
		rec.Category = cat
	}

	rec.RobotReview = derefBool(decodeBool(fields, "robot_review", &errs))

	rec.Signals.SentimentPositive = decodeFloat(fields, "sent_pos", &errs)
	rec.Signals.SentimentNegative = decodeFloat(fields, "sent_neg", &errs)
	rec.Signals.UserExtremeRatio = decodeFloat(fields, "user_extreme_ratio", &errs)
	if raw, ok := present(fields, "user_daily_count"); ok {
		n, err := decodeCount(raw)
		keep(fieldErr("user_daily_count", err))
		if err == nil {
			rec.Signals.UserDailyCount = &n
		}
	}
	rec.Signals.BusinessBurst = decodeBool(fields, "biz_burst", &errs)
	rec.Signals.NearDuplicate = decodeBool(fields, "near_dupe", &errs)
	rec.Signals.HasURL = decodeBool(fields, "has_url", &errs)
	rec.Signals.HasPhone = decodeBool(fields, "has_phone", &errs)

	if len(errs) > 0 {
		return rec, errs[0]
	}
	return rec, nil
}

func present(fields map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	raw, ok := fields[key]
	if !ok || isNull(raw) {
		return nil, false
	}
	return raw, true
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func fieldErr(key string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("field %q: %w", key, err)
}

func decodeString(fields map[string]json.RawMessage, key string, errs *[]error) (string, bool) {
	raw, ok := present(fields, key)
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		*errs = append(*errs, fmt.Errorf("field %q: %w: want string", key, ErrFieldType))
		return "", false
	}
	return s, true
}

func decodeFloat(fields map[string]json.RawMessage, key string, errs *[]error) *float64 {
	raw, ok := present(fields, key)
	if !ok {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil || math.IsNaN(f) {
		*errs = append(*errs, fmt.Errorf("field %q: %w: want number", key, ErrFieldType))
		return nil
	}
	return &f
}

func decodeBool(fields map[string]json.RawMessage, key string, errs *[]error) *bool {
	raw, ok := present(fields, key)
	if !ok {
		return nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		*errs = append(*errs, fmt.Errorf("field %q: %w: want boolean", key, ErrFieldType))
		return nil
	}
	return &b
}

func derefBool(b *bool) bool {
	return b != nil && *b
}

// decodeRating accepts integers and integral floats in 1..5 ("5" as a
// string is rejected). Zero reads as absent.
func decodeRating(raw json.RawMessage) (int, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, fmt.Errorf("field %q: %w: want integer", "rating", ErrFieldType)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("field %q: %w: want integer, got %v", "rating", ErrFieldType, f)
	}
	if f != 0 && (f < 1 || f > 5) {
		return 0, fmt.Errorf("field %q: %w: rating %v out of range 1..5", "rating", ErrFieldType, f)
	}
	return int(f), nil
}

// maxDailyCount bounds user_daily_count well inside int on every platform.
const maxDailyCount = math.MaxInt32

func decodeCount(raw json.RawMessage) (int, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil || math.IsNaN(f) {
		return 0, fmt.Errorf("%w: want integer", ErrFieldType)
	}
	if f != math.Trunc(f) || f < 0 || f > maxDailyCount {
		return 0, fmt.Errorf("%w: want non-negative integer, got %v", ErrFieldType, f)
	}
	return int(f), nil
}

// rawScalar returns a string value unquoted and any other literal verbatim.
func rawScalar(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

func decodeCategory(raw json.RawMessage) (Category, error) {
	trimmed := bytes.TrimSpace(raw)
	if isNull(trimmed) {
		return UnknownCategory(), nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return UnknownCategory(), err
		}
		if strings.TrimSpace(s) == "" {
			return UnknownCategory(), nil
		}
		return SingleCategory(s), nil
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return UnknownCategory(), err
		}
		names := make([]string, 0, len(items))
		for _, item := range items {
			if isNull(item) {
				continue
			}
			if bytes.HasPrefix(bytes.TrimSpace(item), []byte("{")) || bytes.HasPrefix(bytes.TrimSpace(item), []byte("[")) {
				return UnknownCategory(), fmt.Errorf("%w: nested value in category list", ErrFieldType)
			}
			// numeric ids and booleans carry no category information
			var name string
			if err := json.Unmarshal(item, &name); err != nil {
				continue
			}
			names = append(names, name)
		}
		if len(names) == 0 {
			return UnknownCategory(), nil
		}
		return ManyCategories(names...), nil
	case '{':
		return UnknownCategory(), fmt.Errorf("%w: want string or list", ErrFieldType)
	default:
		// numeric ids and booleans carry no category information
		return UnknownCategory(), nil
	}
}

// RecordError is a per-record failure. It becomes an error row and never
// aborts a run.
type RecordError struct {
	Err  error
	Line int
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}
