package worksheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

type CSVOptions struct {
	// Delimiter defaults to ',' (or '\t' for .tsv files opened through Open).
	Delimiter  rune
	LazyQuotes bool
	// Encoding is one of "", "utf-8", "utf-16", "utf-16le", "utf-16be",
	// "latin1", "windows-1252". A byte order mark always wins.
	Encoding string
}

// CSVSheet reads delimited text as a single worksheet. Empty fields are blank
// cells.
type CSVSheet struct {
	reader *csv.Reader
	closer io.Closer
	name   string
	line   int
}

func OpenCSV(path string, options CSVOptions) (*CSVSheet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv file %s: %w", path, err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	sheet, err := newCSVSheet(file, name, options)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	sheet.closer = file

	log.WithFields(log.Fields{"file": path, "encoding": options.Encoding}).Debug("opened csv sheet")
	return sheet, nil
}

// NewCSVSheet reads delimited text from r. The caller keeps ownership of r.
func NewCSVSheet(r io.Reader, name string, options CSVOptions) (*CSVSheet, error) {
	return newCSVSheet(r, name, options)
}

func newCSVSheet(r io.Reader, name string, options CSVOptions) (*CSVSheet, error) {
	decoder, err := decoderFor(options.Encoding)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(decoder.NewDecoder())))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = options.LazyQuotes
	if options.Delimiter != 0 {
		if !validDelimiter(options.Delimiter) {
			return nil, fmt.Errorf("invalid csv delimiter %q", options.Delimiter)
		}
		reader.Comma = options.Delimiter
	}

	return &CSVSheet{reader: reader, name: name}, nil
}

func (s *CSVSheet) Next() (Row, error) {
	record, err := s.reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("read csv row %d: %w", s.line+1, err)
	}
	s.line++

	row := make(Row, len(record))
	for i, value := range record {
		row[i] = textCell(value)
	}
	return row, nil
}

func (s *CSVSheet) Name() string {
	return s.name
}

func (s *CSVSheet) Close() error {
	if s.closer == nil {
		return nil
	}
	if err := s.closer.Close(); err != nil {
		return fmt.Errorf("close csv sheet %s: %w", s.name, err)
	}
	return nil
}

func decoderFor(name string) (encoding.Encoding, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-") {
	case "", "utf-8", "utf8":
		return unicode.UTF8, nil
	case "utf-16", "utf-16le":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), nil
	case "utf-16be":
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM), nil
	case "latin1", "iso-8859-1":
		return charmap.ISO8859_1, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	default:
		return nil, fmt.Errorf("unsupported csv encoding %q", name)
	}
}

func validDelimiter(r rune) bool {
	return r != '"' && r != '\r' && r != '\n' && r != utf8.RuneError && utf8.ValidRune(r)
}
