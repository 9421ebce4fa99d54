package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"xldict/config"
	"xldict/importer"
	"xldict/output"
	"xldict/profile"
)

var describeFlags readerFlags

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Print column statistics for one or more worksheets",
	Long: `Profile every field of the input worksheets: blank, distinct and numeric
counts, and min/max/mean/median/stddev over numeric values.

Numeric-looking text (CSV) counts as numeric.`,
	Example: `
  # Profile a sheet
  xldict describe -i ./book.xlsx --sheet Data
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}
		options, err := describeFlags.runOptions(cmd, *cfg)
		if err != nil {
			return err
		}
		return runDescribe(cmd.OutOrStdout(), describeFlags.inputs, options)
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)

	describeFlags.register(describeCmd)
}

func runDescribe(out io.Writer, paths []string, options importer.RunOptions) error {
	for i, path := range paths {
		file, err := importer.ReadFile(path, options)
		if err != nil {
			return err
		}
		result, err := profile.Build(file.FieldNames, file.Records)
		if err != nil {
			return err
		}

		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "# %s [%s], rows read: %d, blank rows skipped: %d\n", file.Path, file.Sheet, file.RowsRead, file.BlankRowsSkipped)
		if err := output.WriteProfile(out, result); err != nil {
			return err
		}
	}
	return nil
}
