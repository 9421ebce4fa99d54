package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"xldict/config"
	"xldict/dictreader"
	"xldict/output"
	"xldict/storage"
)

var (
	exportFormat  string
	exportOutput  string
	exportDBPath  string
	exportBatchID string
	exportSheet   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export an imported batch from SQLite to JSON lines, CSV or a text table",
	Long: `Export the records of one batch from SQLite.

Without --batch the most recent batch is exported. CSV holds a single sheet, so
batches with more than one sheet need --sheet for CSV output.

Output format can be selected explicitly via --format or inferred from --output extension.`,
	Example: `
  # Export the latest batch as JSON lines
  xldict export --output ./records.jsonl

  # Export one sheet of a batch to CSV
  xldict export --batch 0b6f... --sheet Data --output ./data.csv
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}

		format := exportFormat
		if strings.TrimSpace(format) == "" {
			format = detectExportFormat(exportOutput)
		}

		store, err := storage.OpenSQLite(resolveDBPath(exportDBPath, cfg))
		if err != nil {
			return err
		}
		defer store.Close()

		batchID, err := resolveBatchID(store, exportBatchID)
		if err != nil {
			return err
		}
		tables, err := loadBatchTables(store, batchID, exportSheet)
		if err != nil {
			return err
		}
		if format == output.FormatCSV && len(tables) > 1 {
			return fmt.Errorf("batch %s has %d sheets; csv export needs --sheet", batchID, len(tables))
		}

		writer, err := output.WriterForFormat(format)
		if err != nil {
			return err
		}
		if err := output.WriteFile(exportOutput, writer, tables...); err != nil {
			return err
		}

		records := 0
		for _, table := range tables {
			records += len(table.Records)
		}
		fmt.Printf("Export completed. Batch: %s, Sheets: %d, Records: %d, Format: %s, File: %s\n", batchID, len(tables), records, format, exportOutput)
		return nil
	},
}

func detectExportFormat(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case "csv":
		return output.FormatCSV
	case "txt":
		return output.FormatTable
	default:
		return output.FormatJSONL
	}
}

func resolveBatchID(store *storage.SQLiteStore, batchID string) (string, error) {
	if strings.TrimSpace(batchID) != "" {
		return strings.TrimSpace(batchID), nil
	}
	latest, ok, err := store.LatestBatch()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("no batches imported yet")
	}
	return latest.ID, nil
}

// loadBatchTables groups the stored records of a batch by source sheet, in
// import order. A non-empty sheet keeps only sheets with that name.
func loadBatchTables(store *storage.SQLiteStore, batchID, sheet string) ([]output.Table, error) {
	sheets, err := store.ListSheets(batchID)
	if err != nil {
		return nil, fmt.Errorf("load batch %s: %w", batchID, err)
	}
	records, err := store.ListRecords(batchID)
	if err != nil {
		return nil, fmt.Errorf("load batch %s: %w", batchID, err)
	}

	bySheet := make(map[[2]string][]dictreader.Record, len(sheets))
	for _, record := range records {
		key := [2]string{record.SourceFile, record.Sheet}
		bySheet[key] = append(bySheet[key], record.DictRecord())
	}

	tables := make([]output.Table, 0, len(sheets))
	for _, stored := range sheets {
		if sheet != "" && stored.Sheet != sheet {
			continue
		}
		tables = append(tables, output.Table{
			FieldNames: stored.FieldNames,
			RestKey:    stored.RestKey,
			Records:    bySheet[[2]string{stored.SourceFile, stored.Sheet}],
		})
	}
	if len(tables) == 0 && sheet != "" {
		return nil, fmt.Errorf("batch %s has no sheet %q", batchID, sheet)
	}
	return tables, nil
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "Output format: jsonl|csv|table (optional, inferred from output extension)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path")
	exportCmd.Flags().StringVar(&exportDBPath, "db", "", "Path to local SQLite database (default: storage.db from config)")
	exportCmd.Flags().StringVar(&exportBatchID, "batch", "", "Batch id (default: latest batch)")
	exportCmd.Flags().StringVar(&exportSheet, "sheet", "", "Only export sheets with this name")

	_ = exportCmd.MarkFlagRequired("output")
}
