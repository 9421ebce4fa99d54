package output

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xldict/dictreader"
	"xldict/profile"
)

func sampleTable() Table {
	return Table{
		FieldNames: []string{"name", "joined"},
		Records: []dictreader.Record{
			{
				LineNum: 2,
				Values:  map[string]any{"name": "alice", "joined": time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)},
			},
			{
				LineNum: 4,
				Values:  map[string]any{"name": "bob", "joined": nil},
				Rest:    []any{"x", nil},
			},
		},
	}
}

func TestWriterForFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format string
		want   Writer
	}{
		{format: "", want: &JSONLinesWriter{}},
		{format: "JSONL", want: &JSONLinesWriter{}},
		{format: "table", want: &TableWriter{}},
		{format: " csv ", want: &CSVWriter{}},
	}
	for _, tc := range tests {
		got, err := WriterForFormat(tc.format)
		require.NoError(t, err)
		assert.IsType(t, tc.want, got)
	}

	_, err := WriterForFormat("xlsx")
	require.Error(t, err)
}

func TestJSONLinesWriter_PutsOverflowUnderDefaultKey(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, (&JSONLinesWriter{}).Write(&buf, sampleTable()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"name":"alice","joined":"2026-03-05T00:00:00Z"}`, lines[0])
	assert.JSONEq(t, `{"name":"bob","joined":null,"_rest":["x",null]}`, lines[1])
}

func TestJSONLinesWriter_KeepsConfiguredRestKey(t *testing.T) {
	t.Parallel()

	restKey := "extra"
	table := Table{
		FieldNames: []string{"a"},
		RestKey:    &restKey,
		Records: []dictreader.Record{
			{LineNum: 2, Values: map[string]any{"a": int64(1), "extra": []any{"b"}}, Rest: []any{"b"}},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, (&JSONLinesWriter{}).Write(&buf, table))
	assert.JSONEq(t, `{"a":1,"extra":["b"]}`, buf.String())
}

func TestTableWriter_AddsRestColumnOnOverflow(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, (&TableWriter{}).Write(&buf, sampleTable()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"LINE", "name", "joined", "_rest"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"2", "alice", "2026-03-05"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"4", "bob", "x,"}, strings.Fields(lines[2]))
}

func TestCSVWriter_AppendsOverflowColumns(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, WriteFile(path, &CSVWriter{}, sampleTable()))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"name", "joined"},
		{"alice", "2026-03-05"},
		{"bob", "", "x", ""},
	}, rows)
}

func TestWriteProfile(t *testing.T) {
	t.Parallel()

	result := profile.Profile{
		Records:  3,
		Overflow: 1,
		Columns: []profile.Column{
			{Name: "name", Total: 3, Distinct: 2},
			{Name: "age", Total: 3, Blank: 1, Distinct: 2, Numeric: 2, Summary: &profile.Summary{Min: 30, Max: 41, Mean: 35.5, Median: 35.5, StdDev: 5.5}},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteProfile(&buf, result))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, []string{"name", "3", "0", "2", "0", "-", "-", "-", "-", "-"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"age", "3", "1", "2", "2", "30", "41", "35.5", "35.5", "5.5"}, strings.Fields(lines[2]))
	assert.Equal(t, "records: 3, overflow: 1", lines[3])
}

func TestFormatNumber(t *testing.T) {
	t.Parallel()

	tests := map[float64]string{
		0:       "0",
		30:      "30",
		35.5:    "35.5",
		8.16497: "8.165",
		-2.25:   "-2.25",
	}
	for value, want := range tests {
		if got := formatNumber(value); got != want {
			t.Fatalf("formatNumber(%v) = %q, want %q", value, got, want)
		}
	}
}
