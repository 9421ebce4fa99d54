package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"xldict/config"
	"xldict/importer"
	"xldict/output"
)

var (
	dumpFlags  readerFlags
	dumpOutput string
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the records of one or more worksheets",
	Long: `Read each input worksheet and print one record per data row.

The first non-consumed row is the header unless --fieldnames is set. Blank rows
are skipped but still counted in the LINE column.`,
	Example: `
  # Table view of the active sheet
  xldict dump -i ./book.xlsx

  # JSON lines with explicit field names
  xldict dump -i ./raw.csv --fieldnames id,name,email --output jsonl

  # Semicolon separated latin1 export
  xldict dump -i ./export.csv --delimiter ";" --encoding latin1
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}
		options, err := dumpFlags.runOptions(cmd, *cfg)
		if err != nil {
			return err
		}
		return runDump(cmd.OutOrStdout(), dumpFlags.inputs, options, dumpOutput)
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)

	dumpFlags.register(dumpCmd)
	dumpCmd.Flags().StringVarP(&dumpOutput, "output", "o", output.FormatTable, "Output format: table|jsonl|csv")
}

func runDump(out io.Writer, paths []string, options importer.RunOptions, format string) error {
	writer, err := output.WriterForFormat(format)
	if err != nil {
		return err
	}

	for i, path := range paths {
		file, err := importer.ReadFile(path, options)
		if err != nil {
			return err
		}
		if len(paths) > 1 && format == output.FormatTable {
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "# %s [%s]\n", file.Path, file.Sheet)
		}
		if err := writer.Write(out, tableFromFile(file)); err != nil {
			return err
		}
	}
	return nil
}

func tableFromFile(file importer.FileResult) output.Table {
	return output.Table{FieldNames: file.FieldNames, RestKey: file.RestKey, Records: file.Records}
}
