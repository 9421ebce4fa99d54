package worksheet

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestInferFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		path    string
		format  string
		want    string
		wantErr bool
	}{
		{name: "csv extension", path: "data.csv", want: FormatCSV},
		{name: "tsv extension", path: "data.TSV", want: FormatCSV},
		{name: "xlsx extension", path: "book.xlsx", want: FormatExcel},
		{name: "xlsm extension", path: "book.xlsm", want: FormatExcel},
		{name: "legacy xls", path: "book.xls", want: FormatXLS},
		{name: "explicit overrides extension", path: "book.out", format: "Excel", want: FormatExcel},
		{name: "explicit tsv", path: "book.out", format: "tsv", want: FormatCSV},
		{name: "unknown extension", path: "notes.md", wantErr: true},
		{name: "unknown explicit", path: "data.csv", format: "parquet", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := InferFormat(tc.path, tc.format)
			if tc.wantErr {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("unexpected format: want %q, got %q", tc.want, got)
			}
		})
	}
}

func TestOpen_TSVUsesTabDelimiter(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data.tsv")
	if err := os.WriteFile(path, []byte("a\tb\n1\t2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	sheet, err := Open(path, OpenOptions{})
	if err != nil {
		t.Fatalf("open tsv: %v", err)
	}
	defer sheet.Close()

	row, err := sheet.Next()
	if err != nil {
		t.Fatalf("read header: %v", err)
	}
	if len(row) != 2 || row[0] != "a" || row[1] != "b" {
		t.Fatalf("unexpected header: %#v", row)
	}
}

func TestOpen_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Open(filepath.Join(t.TempDir(), "missing.csv"), OpenOptions{}); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
