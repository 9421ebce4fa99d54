// Package worksheet supplies the rows a dictreader consumes: a forward-only
// sequence of rows whose cells are already decoded into Go scalars.
package worksheet

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"xldict/internal/timeutil"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported input format")
	ErrNoSheets          = errors.New("workbook has no sheets")
)

// Cell is a decoded cell value: string, int64, float64, bool, time.Time,
// or nil for a blank cell.
type Cell = any

// Row is one worksheet row. Trailing blank cells may be omitted, so rows of
// the same sheet can differ in length.
type Row []Cell

// Worksheet yields rows in order. Next returns io.EOF once the rows are
// exhausted.
type Worksheet interface {
	Next() (Row, error)
}

// Sheet is a Worksheet backed by an opened file.
type Sheet interface {
	Worksheet
	Name() string
	Close() error
}

func IsBlank(cell Cell) bool {
	return cell == nil
}

// IsBlank reports whether every cell of the row is blank. An empty row is blank.
func (r Row) IsBlank() bool {
	for _, cell := range r {
		if !IsBlank(cell) {
			return false
		}
	}
	return true
}

// NonBlank returns the number of non-blank cells.
func (r Row) NonBlank() int {
	count := 0
	for _, cell := range r {
		if !IsBlank(cell) {
			count++
		}
	}
	return count
}

// Text renders a cell the way it is used as a field name or plain-text
// output value. Blank cells render as "".
func Text(cell Cell) string {
	switch value := cell.(type) {
	case nil:
		return ""
	case string:
		return value
	case time.Time:
		if timeutil.IsMidnight(value) {
			return value.Format("2006-01-02")
		}
		return value.Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	default:
		return fmt.Sprint(value)
	}
}

func textCell(value string) Cell {
	if value == "" {
		return nil
	}
	return value
}
