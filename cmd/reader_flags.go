package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"xldict/config"
	"xldict/importer"
)

// readerFlags are shared by every command that reads worksheets. A flag only
// overrides the config value when it was set on the command line.
type readerFlags struct {
	inputs     []string
	format     string
	sheet      string
	fieldNames []string
	restKey    string
	restValue  string
	delimiter  string
	encoding   string
	lazyQuotes bool
}

func (f *readerFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringArrayVarP(&f.inputs, "input", "i", nil, "Input file path (repeatable)")
	flags.StringVarP(&f.format, "format", "f", "", "Input format: csv|tsv|excel|xls (optional, inferred from extension when omitted)")
	flags.StringVar(&f.sheet, "sheet", "", "Worksheet name (default: active sheet)")
	flags.StringSliceVar(&f.fieldNames, "fieldnames", nil, "Explicit field names; the first row is data when set")
	flags.StringVar(&f.restKey, "restkey", "", "Key that collects the cells of rows longer than the field names")
	flags.StringVar(&f.restValue, "restval", "", "Value for fields missing from short rows (default: blank)")
	flags.StringVar(&f.delimiter, "delimiter", "", `CSV delimiter, a single character or \t`)
	flags.StringVar(&f.encoding, "encoding", "", "CSV encoding: utf-8|utf-16|utf-16le|utf-16be|latin1|windows-1252")
	flags.BoolVar(&f.lazyQuotes, "lazy-quotes", false, "Allow malformed quotes in CSV input")

	_ = cmd.MarkFlagRequired("input")
}

func (f *readerFlags) runOptions(cmd *cobra.Command, cfg config.Config) (importer.RunOptions, error) {
	options, err := importer.OptionsFromConfig(cfg)
	if err != nil {
		return importer.RunOptions{}, err
	}

	changed := cmd.Flags().Changed
	if changed("format") {
		options.Format = f.format
	}
	if changed("sheet") {
		options.Sheet = f.sheet
	}
	if changed("fieldnames") {
		names := make([]string, 0, len(f.fieldNames))
		for i, name := range f.fieldNames {
			name = strings.TrimSpace(name)
			if name == "" {
				return importer.RunOptions{}, fmt.Errorf("--fieldnames[%d] must not be blank", i)
			}
			names = append(names, name)
		}
		options.FieldNames = names
	}
	if changed("restkey") {
		restKey := f.restKey
		options.RestKey = &restKey
	}
	if changed("restval") {
		options.RestValue = f.restValue
	}
	if changed("delimiter") {
		delimiter, err := config.ParseDelimiter(f.delimiter)
		if err != nil {
			return importer.RunOptions{}, fmt.Errorf("--delimiter: %w", err)
		}
		options.CSV.Delimiter = delimiter
	}
	if changed("encoding") {
		options.CSV.Encoding = f.encoding
	}
	if changed("lazy-quotes") {
		options.CSV.LazyQuotes = f.lazyQuotes
	}

	return options, nil
}

func resolveDBPath(flagValue string, cfg *config.Config) string {
	if strings.TrimSpace(flagValue) != "" {
		return flagValue
	}
	return cfg.Storage.DB
}
