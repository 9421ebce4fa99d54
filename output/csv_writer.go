package output

import (
	"encoding/csv"
	"fmt"
	"io"

	"xldict/worksheet"
)

// CSVWriter writes the field names as header and appends overflow cells as
// trailing columns.
type CSVWriter struct{}

func (w *CSVWriter) Write(out io.Writer, table Table) error {
	writer := csv.NewWriter(out)

	if err := writer.Write(table.FieldNames); err != nil {
		return fmt.Errorf("write csv headers: %w", err)
	}

	for _, record := range table.Records {
		row := make([]string, 0, len(table.FieldNames)+len(record.Rest))
		for _, name := range table.FieldNames {
			row = append(row, worksheet.Text(record.Values[name]))
		}
		for _, cell := range record.Rest {
			row = append(row, worksheet.Text(cell))
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", record.LineNum, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv output: %w", err)
	}

	return nil
}
