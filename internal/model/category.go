package model

import (
	"encoding/json"
	"strings"
)

// CategoryKind tells how the business category arrived on the wire.
type CategoryKind int

const (
	// CategoryUnknown means the field was absent, null, or a numeric id.
	CategoryUnknown CategoryKind = iota
	// CategorySingle means the field was a single string.
	CategorySingle
	// CategoryMany means the field was an ordered list of strings.
	CategoryMany
)

// Category is the business category of a record, resolved once at decode time.
// The original spelling is kept for output; Normalized holds the
// lower-cased, trimmed list used for vocabulary lookups.
type Category struct {
	values     []string
	normalized []string
	Kind       CategoryKind
}

// SingleCategory builds a category from one string.
func SingleCategory(name string) Category {
	return newCategory(CategorySingle, []string{name})
}

// ManyCategories builds a category from an ordered list.
func ManyCategories(names ...string) Category {
	if len(names) == 0 {
		return UnknownCategory()
	}
	return newCategory(CategoryMany, names)
}

// UnknownCategory returns the empty category.
func UnknownCategory() Category {
	return Category{Kind: CategoryUnknown}
}

func newCategory(kind CategoryKind, names []string) Category {
	values := make([]string, 0, len(names))
	normalized := make([]string, 0, len(names))
	for _, n := range names {
		values = append(values, n)
		normalized = append(normalized, strings.ToLower(strings.TrimSpace(n)))
	}
	return Category{Kind: kind, values: values, normalized: normalized}
}

// Normalized returns the lower-cased category list.
func (c Category) Normalized() []string {
	return append([]string(nil), c.normalized...)
}

// Primary returns the first category, or "" when unknown.
func (c Category) Primary() string {
	if len(c.values) == 0 {
		return ""
	}
	return c.values[0]
}

// IsUnknown reports whether no usable category was supplied.
func (c Category) IsUnknown() bool {
	return c.Kind == CategoryUnknown
}

// String renders the category for flat outputs such as CSV.
func (c Category) String() string {
	switch c.Kind {
	case CategorySingle:
		return c.values[0]
	case CategoryMany:
		return strings.Join(c.values, "|")
	default:
		return ""
	}
}

// MarshalJSON writes the category back in its original shape.
func (c Category) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case CategorySingle:
		return json.Marshal(c.values[0])
	case CategoryMany:
		return json.Marshal(c.values)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts a string, a list of scalars, a number, or null.
func (c *Category) UnmarshalJSON(data []byte) error {
	cat, err := decodeCategory(data)
	if err != nil {
		return err
	}
	*c = cat
	return nil
}
