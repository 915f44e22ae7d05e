package document

import (
	"strings"

	"github.com/kailas-cloud/docapi/internal/domain/filter"
)

// tagSeparator is the TAG SEPARATOR of the filter index.
const tagSeparator = ";"

var tagEscaper = strings.NewReplacer(
	`\`, `\\`,
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"[", "\\[",
	"]", "\\]",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"|", "\\|",
	"/", "\\/",
	"?", "\\?",
	" ", "\\ ",
)

func escapeTag(s string) string {
	return tagEscaper.Replace(s)
}

// tagSafe reports whether an exact-match value survives TAG indexing unchanged:
// non-empty, no separator, no surrounding whitespace.
func tagSafe(v string) bool {
	if v == "" || strings.Contains(v, tagSeparator) {
		return false
	}
	return strings.TrimSpace(v) == v
}

// buildQuery renders the pushdown part of a filter as an FT.SEARCH query.
// Each field becomes @field:{v1 | v2}; fields are intersected.
func buildQuery(f filter.Filter) string {
	if f.IsEmpty() {
		return "*"
	}

	parts := make([]string, 0, len(f.Fields()))
	for _, field := range f.Fields() {
		vals := f.Values(field)
		escaped := make([]string, len(vals))
		for i, v := range vals {
			escaped[i] = escapeTag(v)
		}
		parts = append(parts, "@"+field+":{"+strings.Join(escaped, " | ")+"}")
	}
	return strings.Join(parts, " ")
}
