package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"xldict/config"
	"xldict/importer"
	"xldict/storage"
)

var (
	importFlags  readerFlags
	importDBPath string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import worksheets into a local SQLite database",
	Long: `Read every input worksheet and persist the records as one batch in SQLite.

Each batch gets a new id. Field names and rest key are stored per sheet so the
batch can be exported with the same columns. Rules from the configuration
(file_template match) override sheet, field names and rest key per file.`,
	Example: `
  # Import two files as one batch
  xldict import -i ./a.xlsx -i ./b.csv --db ./xldict.db

  # Import a headerless file
  xldict import -i ./raw.csv --fieldnames id,name --restkey extra

  # Import with custom config file
  xldict --configFile ./custom-xldict.yaml import -i ./book.xlsx
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}
		options, err := importFlags.runOptions(cmd, *cfg)
		if err != nil {
			return err
		}

		result, err := importer.Run(importFlags.inputs, options)
		if err != nil {
			return err
		}

		store, err := storage.OpenSQLite(resolveDBPath(importDBPath, cfg))
		if err != nil {
			return err
		}
		defer store.Close()

		inserted, err := store.InsertBatch(result)
		if err != nil {
			return err
		}

		fmt.Printf("Import completed. Batch: %s, Files: %d, Rows read: %d, Records: %d, Blank rows skipped: %d, Overflow records: %d, Records persisted: %d\n",
			result.BatchID,
			result.FilesProcessed,
			result.RowsRead,
			result.RecordsRead,
			result.BlankRowsSkipped,
			result.OverflowRecords,
			inserted,
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importFlags.register(importCmd)
	importCmd.Flags().StringVar(&importDBPath, "db", "", "Path to local SQLite database (default: storage.db from config)")
}
