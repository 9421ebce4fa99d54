package importer

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"xldict/config"
	"xldict/dictreader"
	"xldict/worksheet"
)

type Result struct {
	BatchID          string
	FilesProcessed   int
	RowsRead         int
	RecordsRead      int
	BlankRowsSkipped int
	OverflowRecords  int
	Files            []FileResult
}

// FileResult is everything read from one worksheet.
type FileResult struct {
	Path       string
	Format     string
	Sheet      string
	FieldNames []string
	RestKey    *string
	Records    []dictreader.Record
	// RowsRead counts every consumed row, the header included.
	RowsRead         int
	BlankRowsSkipped int
}

func (f FileResult) OverflowRecords() int {
	count := 0
	for _, record := range f.Records {
		if record.HasRest() {
			count++
		}
	}
	return count
}

type RunOptions struct {
	Format     string
	Sheet      string
	FieldNames []string
	RestKey    *string
	RestValue  any
	CSV        worksheet.CSVOptions
	Rules      []config.Rule
}

// OptionsFromConfig builds run options from the reader, csv and rules sections.
func OptionsFromConfig(cfg config.Config) (RunOptions, error) {
	delimiter, err := cfg.CSV.DelimiterRune()
	if err != nil {
		return RunOptions{}, fmt.Errorf("csv delimiter: %w", err)
	}

	options := RunOptions{
		Format:     cfg.Reader.Format,
		Sheet:      cfg.Reader.Sheet,
		FieldNames: cfg.Reader.FieldNames,
		RestKey:    cfg.Reader.RestKey,
		CSV: worksheet.CSVOptions{
			Delimiter:  delimiter,
			LazyQuotes: cfg.CSV.LazyQuotes,
			Encoding:   cfg.CSV.Encoding,
		},
		Rules: cfg.Rules,
	}
	if cfg.Reader.RestValue != nil {
		options.RestValue = *cfg.Reader.RestValue
	}
	return options, nil
}

func Run(paths []string, options RunOptions) (*Result, error) {
	if len(paths) == 0 {
		return nil, errors.New("no input files")
	}

	result := &Result{
		BatchID: uuid.NewString(),
		Files:   make([]FileResult, 0, len(paths)),
	}
	for _, path := range paths {
		file, err := ReadFile(path, options)
		if err != nil {
			return nil, err
		}

		result.FilesProcessed++
		result.RowsRead += file.RowsRead
		result.RecordsRead += len(file.Records)
		result.BlankRowsSkipped += file.BlankRowsSkipped
		result.OverflowRecords += file.OverflowRecords()
		result.Files = append(result.Files, file)
	}

	log.WithFields(log.Fields{
		"batch":   result.BatchID,
		"files":   result.FilesProcessed,
		"records": result.RecordsRead,
	}).Debug("import finished")
	return result, nil
}

// ReadFile reads one worksheet, applying the first rule whose template
// matches path.
func ReadFile(path string, options RunOptions) (FileResult, error) {
	resolved := resolveOptionsForFile(path, options)

	sheet, err := worksheet.Open(path, worksheet.OpenOptions{
		Format: resolved.Format,
		Sheet:  resolved.Sheet,
		CSV:    resolved.CSV,
	})
	if err != nil {
		return FileResult{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer sheet.Close()

	format, _ := worksheet.InferFormat(path, resolved.Format)
	reader := dictreader.New(sheet, dictreader.Options{
		FieldNames: resolved.FieldNames,
		RestKey:    resolved.RestKey,
		RestValue:  resolved.RestValue,
	})

	records, err := reader.ReadAll()
	if err != nil {
		return FileResult{}, fmt.Errorf("read %s line %d: %w", path, reader.LineNum()+1, err)
	}
	fieldNames, err := reader.FieldNames()
	if err != nil {
		return FileResult{}, fmt.Errorf("read field names from %s: %w", path, err)
	}

	dataRows := reader.LineNum()
	if resolved.FieldNames == nil && dataRows > 0 {
		dataRows--
	}

	file := FileResult{
		Path:             path,
		Format:           format,
		Sheet:            sheet.Name(),
		FieldNames:       fieldNames,
		RestKey:          resolved.RestKey,
		Records:          records,
		RowsRead:         reader.LineNum(),
		BlankRowsSkipped: dataRows - len(records),
	}
	log.WithFields(log.Fields{
		"file":    path,
		"sheet":   file.Sheet,
		"line":    file.RowsRead,
		"records": len(records),
	}).Debug("worksheet read")
	return file, nil
}

// Rule values take precedence over the run options they replace.
func resolveOptionsForFile(path string, options RunOptions) RunOptions {
	resolved := options
	rule, ok := MatchRuleByTemplate(path, options.Rules)
	if !ok {
		return resolved
	}

	log.WithFields(log.Fields{"file": path, "rule": rule.Name}).Debug("rule matched")
	if sheet := strings.TrimSpace(rule.Sheet); sheet != "" {
		resolved.Sheet = sheet
	}
	if len(rule.FieldNames) > 0 {
		resolved.FieldNames = rule.FieldNames
	}
	if rule.RestKey != nil {
		resolved.RestKey = rule.RestKey
	}
	return resolved
}

func MatchRuleByTemplate(path string, rules []config.Rule) (config.Rule, bool) {
	baseName := filepath.Base(path)
	for _, rule := range rules {
		template := strings.TrimSpace(rule.FileTemplate)
		if template == "" {
			continue
		}
		matchesBase, err := filepath.Match(template, baseName)
		if err == nil && matchesBase {
			return rule, true
		}
		matchesFull, err := filepath.Match(template, path)
		if err == nil && matchesFull {
			return rule, true
		}
	}
	return config.Rule{}, false
}
