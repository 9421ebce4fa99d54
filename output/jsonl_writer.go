package output

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
)

// JSONLinesWriter writes one object per record. Overflow goes under the rest
// key, or DefaultRestKey when none is configured.
type JSONLinesWriter struct{}

func (w *JSONLinesWriter) Write(out io.Writer, table Table) error {
	encoder := json.NewEncoder(out)
	encoder.SetEscapeHTML(false)

	for _, record := range table.Records {
		object := record.Values
		if record.HasRest() && table.RestKey == nil {
			object = maps.Clone(record.Values)
			object[DefaultRestKey] = record.Rest
		}
		if object == nil {
			object = map[string]any{}
		}
		if err := encoder.Encode(object); err != nil {
			return fmt.Errorf("write json record %d: %w", record.LineNum, err)
		}
	}
	return nil
}
