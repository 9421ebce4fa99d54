package worksheet

import (
	"errors"
	"io"
	"testing"
	"time"
)

func TestRow_IsBlankAndNonBlank(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		row      Row
		blank    bool
		nonBlank int
	}{
		{name: "empty", row: Row{}, blank: true, nonBlank: 0},
		{name: "nil cells", row: Row{nil, nil}, blank: true, nonBlank: 0},
		{name: "mixed", row: Row{"a", nil, int64(0)}, blank: false, nonBlank: 2},
		{name: "false is a value", row: Row{false}, blank: false, nonBlank: 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.row.IsBlank(); got != tc.blank {
				t.Fatalf("IsBlank: want %v, got %v", tc.blank, got)
			}
			if got := tc.row.NonBlank(); got != tc.nonBlank {
				t.Fatalf("NonBlank: want %d, got %d", tc.nonBlank, got)
			}
		})
	}
}

func TestText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cell Cell
		want string
	}{
		{name: "blank", cell: nil, want: ""},
		{name: "string", cell: "abc", want: "abc"},
		{name: "int", cell: int64(42), want: "42"},
		{name: "float", cell: 43.5, want: "43.5"},
		{name: "large float", cell: 43.0e12, want: "43000000000000"},
		{name: "bool", cell: true, want: "true"},
		{name: "date", cell: time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), want: "2026-03-05"},
		{name: "datetime", cell: time.Date(2026, 3, 5, 9, 30, 0, 0, time.UTC), want: "2026-03-05T09:30:00Z"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Text(tc.cell); got != tc.want {
				t.Fatalf("unexpected text: want %q, got %q", tc.want, got)
			}
		})
	}
}

func TestFromStrings_EmptyStringsAreBlank(t *testing.T) {
	t.Parallel()

	sheet := FromStrings("Sheet1", []string{"a", "", "c"}, []string{})

	first, err := sheet.Next()
	if err != nil {
		t.Fatalf("read first row: %v", err)
	}
	if len(first) != 3 || first[0] != "a" || first[1] != nil || first[2] != "c" {
		t.Fatalf("unexpected first row: %#v", first)
	}

	second, err := sheet.Next()
	if err != nil {
		t.Fatalf("read second row: %v", err)
	}
	if !second.IsBlank() {
		t.Fatalf("expected blank second row, got %#v", second)
	}

	if _, err := sheet.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
	if sheet.Name() != "Sheet1" {
		t.Fatalf("unexpected name %q", sheet.Name())
	}
}
