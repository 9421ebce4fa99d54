package worksheet

import "io"

// SliceSheet serves rows from memory.
type SliceSheet struct {
	name string
	rows []Row
	next int
}

func NewSliceSheet(name string, rows ...Row) *SliceSheet {
	return &SliceSheet{name: name, rows: rows}
}

// FromStrings builds a SliceSheet from plain text rows; "" becomes a blank cell.
func FromStrings(name string, rows ...[]string) *SliceSheet {
	converted := make([]Row, 0, len(rows))
	for _, values := range rows {
		row := make(Row, len(values))
		for i, value := range values {
			row[i] = textCell(value)
		}
		converted = append(converted, row)
	}
	return NewSliceSheet(name, converted...)
}

func (s *SliceSheet) Next() (Row, error) {
	if s.next >= len(s.rows) {
		return nil, io.EOF
	}
	row := s.rows[s.next]
	s.next++
	return row, nil
}

func (s *SliceSheet) Name() string {
	return s.name
}

func (s *SliceSheet) Close() error {
	return nil
}
