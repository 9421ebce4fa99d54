package worksheet

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/extrame/xls"
	log "github.com/sirupsen/logrus"
)

// XLSSheet reads one sheet of a legacy BIFF workbook. Cell values come back
// as text; empty cells are blank.
type XLSSheet struct {
	sheet  *xls.WorkSheet
	next   int
	closer io.Closer
}

// OpenXLS selects sheet by name, or the first sheet when name is empty.
func OpenXLS(path, sheet string) (*XLSSheet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open xls file %s: %w", path, err)
	}

	selected, err := newXLSSheet(file, path, sheet)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return selected, nil
}

func newXLSSheet(source io.ReadSeekCloser, path, sheet string) (*XLSSheet, error) {
	workbook, err := xls.OpenReader(source, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls file %s: %w", path, err)
	}
	if workbook.NumSheets() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSheets, path)
	}

	name := strings.TrimSpace(sheet)
	for i := 0; i < workbook.NumSheets(); i++ {
		candidate := workbook.GetSheet(i)
		if candidate == nil {
			continue
		}
		if name == "" || candidate.Name == name {
			log.WithFields(log.Fields{"file": path, "sheet": candidate.Name}).Debug("opened xls sheet")
			return &XLSSheet{sheet: candidate, closer: source}, nil
		}
	}
	return nil, fmt.Errorf("sheet %s does not exist in %s", name, path)
}

func (s *XLSSheet) Next() (Row, error) {
	if s.next > int(s.sheet.MaxRow) {
		return nil, io.EOF
	}
	index := s.next
	s.next++

	source := s.sheet.Row(index)
	if source == nil {
		if s.sheet.MaxRow == 0 {
			return nil, io.EOF
		}
		return Row{}, nil
	}
	row := make(Row, source.LastCol())
	for col := range row {
		row[col] = textCell(source.Col(col))
	}
	return row, nil
}

func (s *XLSSheet) Name() string {
	return s.sheet.Name
}

func (s *XLSSheet) Close() error {
	if err := s.closer.Close(); err != nil {
		return fmt.Errorf("close xls sheet %s: %w", s.sheet.Name, err)
	}
	return nil
}
