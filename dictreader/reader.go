// Package dictreader maps worksheet rows to records keyed by field name, in
// the manner of a delimited-text dict reader.
//
// Field names come from Options.FieldNames or, when none are given, from the
// first row of the worksheet with blank cells dropped. Each following row
// that is not entirely blank becomes one Record. A row with more non-blank
// cells than field names keeps the surplus raw cells, starting at the first
// unmatched column, in Record.Rest (and under the rest key when one is
// configured). A row with fewer non-blank cells than field names has the
// trailing unmatched fields set to the rest value.
package dictreader

import (
	"errors"
	"io"
	"iter"

	"xldict/worksheet"
)

type Options struct {
	// FieldNames overrides header inference. Nil means "use the first row".
	FieldNames []string
	// RestKey is the key overflow cells are stored under. Nil means no key;
	// the overflow is then only available as Record.Rest.
	RestKey *string
	// RestValue fills fields a short row has no value for.
	RestValue any
}

// Reader is a single-pass, forward-only record producer. It is not safe for
// concurrent use.
type Reader struct {
	ws        worksheet.Worksheet
	restKey   *string
	restValue any

	fieldNames []string
	resolved   bool

	lineNum int
	done    bool
}

func New(ws worksheet.Worksheet, options Options) *Reader {
	reader := &Reader{
		ws:        ws,
		restValue: options.RestValue,
	}
	if options.RestKey != nil {
		key := *options.RestKey
		reader.restKey = &key
	}
	if options.FieldNames != nil {
		reader.fieldNames = append([]string{}, options.FieldNames...)
		reader.resolved = true
	}
	return reader
}

// FieldNames returns the field names, consuming the header row on the first
// call when none were supplied. Resolution happens at most once. An empty
// worksheet resolves to nil without error.
func (r *Reader) FieldNames() ([]string, error) {
	if r.resolved {
		return r.fieldNames, nil
	}

	row, err := r.ws.Next()
	if errors.Is(err, io.EOF) {
		r.resolved = true
		r.done = true
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.lineNum++

	names := make([]string, 0, len(row))
	for _, cell := range row {
		if worksheet.IsBlank(cell) {
			continue
		}
		names = append(names, worksheet.Text(cell))
	}
	r.fieldNames = names
	r.resolved = true
	return r.fieldNames, nil
}

// SetFieldNames replaces the field names for all rows read afterwards.
func (r *Reader) SetFieldNames(names []string) {
	if names == nil {
		r.fieldNames = nil
	} else {
		r.fieldNames = append([]string{}, names...)
	}
	r.resolved = true
}

// RestKey returns the configured overflow key.
func (r *Reader) RestKey() (string, bool) {
	if r.restKey == nil {
		return "", false
	}
	return *r.restKey, true
}

// LineNum is the number of rows consumed from the worksheet so far, counting
// the header row and skipped blank rows.
func (r *Reader) LineNum() int {
	return r.lineNum
}

// Next returns the next record, or io.EOF once the worksheet is exhausted.
// Rows whose cells are all blank are skipped. Worksheet errors are returned
// as they are.
func (r *Reader) Next() (Record, error) {
	fieldNames, err := r.FieldNames()
	if err != nil {
		return Record{}, err
	}
	if r.done {
		return Record{}, io.EOF
	}

	for {
		row, err := r.ws.Next()
		if errors.Is(err, io.EOF) {
			r.done = true
			return Record{}, io.EOF
		}
		if err != nil {
			return Record{}, err
		}
		r.lineNum++

		if row.IsBlank() {
			continue
		}
		return r.build(fieldNames, row), nil
	}
}

// All ranges over the remaining records. A worksheet error is yielded once
// and ends the sequence.
func (r *Reader) All() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for {
			record, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(Record{}, err)
				return
			}
			if !yield(record, nil) {
				return
			}
		}
	}
}

// ReadAll drains the reader.
func (r *Reader) ReadAll() ([]Record, error) {
	records := make([]Record, 0, 64)
	for record, err := range r.All() {
		if err != nil {
			return records, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (r *Reader) build(fieldNames []string, row worksheet.Row) Record {
	lf := len(fieldNames)
	lr := row.NonBlank()

	record := Record{
		LineNum: r.lineNum,
		Values:  make(map[string]any, lf+1),
	}
	for i := 0; i < min(lf, len(row)); i++ {
		record.Values[fieldNames[i]] = row[i]
	}

	switch {
	case lf < lr:
		// The comparison counts non-blank cells, the overflow is the raw tail.
		record.Rest = append([]any{}, row[lf:]...)
		if r.restKey != nil {
			record.Values[*r.restKey] = append([]any{}, row[lf:]...)
		}
	case lf > lr:
		for i := lr; i < lf; i++ {
			if i < len(row) && !worksheet.IsBlank(row[i]) {
				continue
			}
			record.Values[fieldNames[i]] = r.restValue
		}
	}

	return record
}
