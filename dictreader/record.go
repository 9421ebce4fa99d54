package dictreader

import (
	"strings"

	"xldict/worksheet"
)

// Record is one data row. Values has an entry for every field name, plus the
// rest key when the row overflowed and a rest key is configured.
type Record struct {
	// LineNum is the 1-based position of the row in the worksheet.
	LineNum int
	Values  map[string]any
	// Rest holds the cells beyond the last field name, blanks included. The
	// rest key entry in Values is a separate copy.
	Rest []any
}

func (r Record) Get(key string) (any, bool) {
	value, ok := r.Values[key]
	return value, ok
}

// Text returns the first present key's value as trimmed text.
func (r Record) Text(keys ...string) string {
	for _, key := range keys {
		if value, ok := r.Values[key]; ok {
			return strings.TrimSpace(worksheet.Text(value))
		}
	}
	return ""
}

func (r Record) HasRest() bool {
	return len(r.Rest) > 0
}
