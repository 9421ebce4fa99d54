// Package profile summarizes the columns of a set of dict records.
package profile

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"

	"xldict/dictreader"
	"xldict/worksheet"
)

type Column struct {
	Name     string `json:"name"`
	Total    int    `json:"total"`
	Blank    int    `json:"blank"`
	Distinct int    `json:"distinct"`
	Numeric  int    `json:"numeric"`
	// Summary is nil when the column has no numeric values.
	Summary *Summary `json:"summary,omitempty"`
}

type Summary struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"stdDev"`
}

type Profile struct {
	Records  int      `json:"records"`
	Overflow int      `json:"overflow"`
	Columns  []Column `json:"columns"`
}

// Build profiles fieldNames over records. A field missing from a record counts
// as blank.
func Build(fieldNames []string, records []dictreader.Record) (Profile, error) {
	result := Profile{
		Records: len(records),
		Columns: make([]Column, 0, len(fieldNames)),
	}
	for _, record := range records {
		if record.HasRest() {
			result.Overflow++
		}
	}

	for _, name := range fieldNames {
		column, err := buildColumn(name, records)
		if err != nil {
			return Profile{}, err
		}
		result.Columns = append(result.Columns, column)
	}
	return result, nil
}

func buildColumn(name string, records []dictreader.Record) (Column, error) {
	column := Column{Name: name, Total: len(records)}
	distinct := make(map[string]struct{}, len(records))
	numbers := make([]float64, 0, len(records))

	for _, record := range records {
		value := record.Values[name]
		if worksheet.IsBlank(value) {
			column.Blank++
			continue
		}
		distinct[worksheet.Text(value)] = struct{}{}
		if number, ok := numericValue(value); ok {
			numbers = append(numbers, number)
		}
	}
	column.Distinct = len(distinct)
	column.Numeric = len(numbers)
	if len(numbers) == 0 {
		return column, nil
	}

	summary, err := summarize(numbers)
	if err != nil {
		return Column{}, fmt.Errorf("summarize column %s: %w", name, err)
	}
	column.Summary = &summary
	return column, nil
}

func summarize(data []float64) (Summary, error) {
	var (
		summary Summary
		err     error
	)
	if summary.Min, err = stats.Min(data); err != nil {
		return Summary{}, err
	}
	if summary.Max, err = stats.Max(data); err != nil {
		return Summary{}, err
	}
	if summary.Mean, err = stats.Mean(data); err != nil {
		return Summary{}, err
	}
	if summary.Median, err = stats.Median(data); err != nil {
		return Summary{}, err
	}
	if summary.StdDev, err = stats.StandardDeviation(data); err != nil {
		return Summary{}, err
	}
	return summary, nil
}

// Delimited text has no types, so numeric-looking strings count as numbers.
func numericValue(value any) (float64, bool) {
	switch v := value.(type) {
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	case float64:
		return v, true
	case json.Number:
		number, err := v.Float64()
		return number, err == nil
	case string:
		number, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return number, err == nil
	default:
		return 0, false
	}
}
