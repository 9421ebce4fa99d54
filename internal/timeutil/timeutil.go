package timeutil

import "time"

// isoLayouts are tried in order by ParseISO.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

func StartOfDay(value time.Time) time.Time {
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, value.Location())
}

// IsMidnight reports whether value carries a date without a time of day.
func IsMidnight(value time.Time) bool {
	return value.Equal(StartOfDay(value))
}

// ParseISO parses an ISO 8601 date or date-time as written by spreadsheet
// applications. Values without an offset are UTC.
func ParseISO(raw string) (time.Time, bool) {
	for _, layout := range isoLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
