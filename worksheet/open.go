package worksheet

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	FormatCSV   = "csv"
	FormatExcel = "excel"
	FormatXLS   = "xls"
)

type OpenOptions struct {
	// Format overrides extension based detection: csv|tsv|excel|xlsx|xlsm|xls.
	Format string
	// Sheet selects a worksheet by name. Empty selects the active (xlsx) or
	// first (xls) sheet. Ignored for delimited text.
	Sheet string
	CSV   CSVOptions
}

// Open opens path as a single worksheet.
func Open(path string, options OpenOptions) (Sheet, error) {
	format, err := InferFormat(path, options.Format)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatCSV:
		csvOptions := options.CSV
		if csvOptions.Delimiter == 0 && isTSV(path, options.Format) {
			csvOptions.Delimiter = '\t'
		}
		return OpenCSV(path, csvOptions)
	case FormatExcel:
		return OpenExcel(path, options.Sheet)
	case FormatXLS:
		return OpenXLS(path, options.Sheet)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// InferFormat normalizes an explicit format, or derives one from the file
// extension when format is empty.
func InferFormat(path, format string) (string, error) {
	if value := strings.ToLower(strings.TrimSpace(format)); value != "" {
		switch value {
		case "csv", "tsv", "txt":
			return FormatCSV, nil
		case "excel", "xlsx", "xlsm", "xltx", "xltm":
			return FormatExcel, nil
		case "xls":
			return FormatXLS, nil
		default:
			return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
		}
	}

	extension := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch extension {
	case "csv", "tsv", "txt":
		return FormatCSV, nil
	case "xlsx", "xlsm", "xltx", "xltm":
		return FormatExcel, nil
	case "xls":
		return FormatXLS, nil
	default:
		return "", fmt.Errorf("%w: file extension of %s", ErrUnsupportedFormat, path)
	}
}

func isTSV(path, format string) bool {
	if strings.EqualFold(strings.TrimSpace(format), "tsv") {
		return true
	}
	return strings.EqualFold(filepath.Ext(path), ".tsv")
}
