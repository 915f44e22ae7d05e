package filter

import (
	"fmt"
	"slices"

	"github.com/kailas-cloud/docapi/internal/domain"
	domdoc "github.com/kailas-cloud/docapi/internal/domain/document"
)

// MaxFields is the maximum number of metadata fields in one filter.
const MaxFields = 32

// MaxValuesPerField is the maximum number of allowed values per field.
const MaxValuesPerField = 1024

// Filter selects documents by metadata: every listed field must hold one of its allowed values.
// The zero value selects everything.
type Filter struct {
	fields map[string][]string
}

// New validates and creates a Filter. A nil or empty map means "no restriction".
func New(fields map[string][]string) (Filter, error) {
	if len(fields) > MaxFields {
		return Filter{}, fmt.Errorf("too many filter fields (max %d): %w", MaxFields, domain.ErrInvalidFilter)
	}
	if len(fields) == 0 {
		return Filter{}, nil
	}

	c := make(map[string][]string, len(fields))
	for k, vals := range fields {
		if k == "" {
			return Filter{}, fmt.Errorf("filter field name is required: %w", domain.ErrInvalidFilter)
		}
		if len(vals) > MaxValuesPerField {
			return Filter{}, fmt.Errorf(
				"too many values for field %q (max %d): %w", k, MaxValuesPerField, domain.ErrInvalidFilter,
			)
		}
		c[k] = slices.Clone(vals)
		if c[k] == nil {
			c[k] = []string{}
		}
	}
	return Filter{fields: c}, nil
}

// MustNew is New for literals known to be valid.
func MustNew(fields map[string][]string) Filter {
	f, err := New(fields)
	if err != nil {
		panic(err)
	}
	return f
}

// IsEmpty reports whether the filter has no conditions.
func (f Filter) IsEmpty() bool { return len(f.fields) == 0 }

// Fields returns the filtered field names in sorted order.
func (f Filter) Fields() []string {
	keys := make([]string, 0, len(f.fields))
	for k := range f.fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Values returns the allowed values for a field.
func (f Filter) Values(field string) []string { return f.fields[field] }

// Matches reports whether a document satisfies every field condition.
// An empty value list matches nothing; a document without the field never matches.
func (f Filter) Matches(doc *domdoc.Document) bool {
	for k, vals := range f.fields {
		v, ok := doc.MetaString(k)
		if !ok || !slices.Contains(vals, v) {
			return false
		}
	}
	return true
}

// Split partitions the filter by field: pushdown holds the fields for which
// indexed returns true, residual holds the rest.
func (f Filter) Split(indexed func(field string) bool) (pushdown, residual Filter) {
	for k, vals := range f.fields {
		if indexed(k) {
			if pushdown.fields == nil {
				pushdown.fields = make(map[string][]string)
			}
			pushdown.fields[k] = vals
			continue
		}
		if residual.fields == nil {
			residual.fields = make(map[string][]string)
		}
		residual.fields[k] = vals
	}
	return pushdown, residual
}
