package cmd

import "github.com/spf13/cobra"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage xldict configuration file values.",
	Long: `Create, edit, display, and delete the xldict configuration file.

The configuration stores reader defaults and per-file rules:
- reader.format / sheet / fieldnames / restkey / restval
- csv.delimiter / lazy_quotes / encoding
- storage.db, serve.port, log.level
- rules[].name / file_template / sheet / fieldnames / restkey

Every key can be overridden by an XLDICT_ environment variable, for example
XLDICT_STORAGE_DB. A .env file in the working directory is loaded first.`,
	Example: `
  # Create default config in $HOME/.xldict.yaml
  xldict config create

  # Show active config and source file
  xldict config show

  # Open active config in editor (creates example if missing)
  xldict config edit

  # Delete active config file
  xldict config delete
`,
}

func init() {
	rootCmd.AddCommand(configCmd)
}
