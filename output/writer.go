package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"xldict/dictreader"
)

const (
	FormatJSONL = "jsonl"
	FormatTable = "table"
	FormatCSV   = "csv"

	// DefaultRestKey names the overflow when no rest key is configured.
	DefaultRestKey = "_rest"
)

// Table is the records read from one worksheet.
type Table struct {
	FieldNames []string
	RestKey    *string
	Records    []dictreader.Record
}

func (t Table) hasOverflow() bool {
	for _, record := range t.Records {
		if record.HasRest() {
			return true
		}
	}
	return false
}

type Writer interface {
	Write(w io.Writer, table Table) error
}

func WriterForFormat(format string) (Writer, error) {
	switch normalizeFormat(format) {
	case "", FormatJSONL, "json", "ndjson":
		return &JSONLinesWriter{}, nil
	case FormatTable, "text":
		return &TableWriter{}, nil
	case FormatCSV:
		return &CSVWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteFile writes tables to path, creating or truncating it.
func WriteFile(path string, writer Writer, tables ...Table) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output %s: %w", path, err)
	}
	defer file.Close()

	for _, table := range tables {
		if err := writer.Write(file, table); err != nil {
			return err
		}
	}
	return file.Close()
}

func normalizeFormat(value string) string {
	return strings.TrimSpace(strings.ToLower(value))
}
