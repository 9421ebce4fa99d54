package worksheet

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"xldict/internal/timeutil"
)

// ExcelSheet reads one worksheet of an xlsx/xlsm workbook row by row. Cell
// types and number formats are looked up per cell, which makes excelize load
// the whole worksheet on the first non-empty cell.
type ExcelSheet struct {
	file   *excelize.File
	rows   *excelize.Rows
	name   string
	rowNum int
	styles map[int]bool
}

// OpenExcel opens path and selects sheet by name. An empty name selects the
// active sheet. A missing sheet surfaces excelize.ErrSheetNotExist.
func OpenExcel(path, sheet string) (*ExcelSheet, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open excel file %s: %w", path, err)
	}

	name := strings.TrimSpace(sheet)
	if name == "" {
		name = file.GetSheetName(file.GetActiveSheetIndex())
	}
	if name == "" {
		_ = file.Close()
		return nil, fmt.Errorf("%w: %s", ErrNoSheets, path)
	}

	rows, err := file.Rows(name)
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("read rows from sheet %s: %w", name, err)
	}

	log.WithFields(log.Fields{"file": path, "sheet": name}).Debug("opened excel sheet")
	return &ExcelSheet{
		file:   file,
		rows:   rows,
		name:   name,
		styles: make(map[int]bool),
	}, nil
}

func (s *ExcelSheet) Name() string {
	return s.name
}

func (s *ExcelSheet) Next() (Row, error) {
	if !s.rows.Next() {
		if err := s.rows.Error(); err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", s.name, err)
		}
		return nil, io.EOF
	}
	s.rowNum++

	raw, err := s.rows.Columns(excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %s row %d: %w", s.name, s.rowNum, err)
	}

	row := make(Row, len(raw))
	for col, value := range raw {
		if value == "" {
			continue
		}
		cell, err := s.decode(col+1, value)
		if err != nil {
			return nil, err
		}
		row[col] = cell
	}
	return row, nil
}

func (s *ExcelSheet) Close() error {
	rowsErr := s.rows.Close()
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("close excel sheet %s: %w", s.name, err)
	}
	if rowsErr != nil {
		return fmt.Errorf("close excel rows %s: %w", s.name, rowsErr)
	}
	return nil
}

func (s *ExcelSheet) decode(col int, raw string) (Cell, error) {
	ref, err := excelize.CoordinatesToCellName(col, s.rowNum)
	if err != nil {
		return nil, fmt.Errorf("cell name for column %d row %d: %w", col, s.rowNum, err)
	}
	cellType, err := s.file.GetCellType(s.name, ref)
	if err != nil {
		return nil, fmt.Errorf("cell type %s!%s: %w", s.name, ref, err)
	}

	switch cellType {
	case excelize.CellTypeBool:
		switch strings.ToUpper(raw) {
		case "1", "TRUE":
			return true, nil
		case "0", "FALSE":
			return false, nil
		}
		return raw, nil
	case excelize.CellTypeDate:
		return parseISODate(raw), nil
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		number, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return raw, nil
		}
		isDate, err := s.hasDateFormat(ref)
		if err != nil {
			return nil, err
		}
		if isDate {
			if value, err := excelize.ExcelDateToTime(number, false); err == nil {
				return value, nil
			}
		}
		return numberCell(number), nil
	default:
		return raw, nil
	}
}

func (s *ExcelSheet) hasDateFormat(ref string) (bool, error) {
	styleID, err := s.file.GetCellStyle(s.name, ref)
	if err != nil {
		return false, fmt.Errorf("cell style %s!%s: %w", s.name, ref, err)
	}
	if isDate, ok := s.styles[styleID]; ok {
		return isDate, nil
	}

	style, err := s.file.GetStyle(styleID)
	if err != nil {
		return false, fmt.Errorf("style %d: %w", styleID, err)
	}
	isDate := isDateNumFmt(style.NumFmt)
	s.styles[styleID] = isDate
	return isDate, nil
}

// isDateNumFmt reports whether a built-in number format renders dates or times.
func isDateNumFmt(id int) bool {
	switch {
	case id >= 14 && id <= 22:
		return true
	case id >= 45 && id <= 47:
		return true
	default:
		return false
	}
}

func numberCell(value float64) Cell {
	if value == float64(int64(value)) && value >= -1<<53 && value <= 1<<53 {
		return int64(value)
	}
	return value
}

func parseISODate(raw string) Cell {
	if parsed, ok := timeutil.ParseISO(raw); ok {
		return parsed
	}
	return raw
}
