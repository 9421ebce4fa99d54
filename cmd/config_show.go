package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"xldict/config"
)

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show active configuration values.",
	Long: `Display the currently loaded configuration and the resolved config file path.

This command validates the configuration before printing values.`,
	Example: `
  # Show active configuration
  xldict config show
`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			fmt.Println("Invalid config:", err)
			return
		}

		if configPath := viper.ConfigFileUsed(); configPath != "" {
			fmt.Println("Config file loaded from:", configPath)
		} else {
			fmt.Println("No config file loaded, using defaults and environment.")
		}
		fmt.Println("Configuration:")
		printConfig(cmd.OutOrStdout(), *cfg)
	},
}

func printConfig(out io.Writer, cfg config.Config) {
	fmt.Fprintf(out, "reader.format: %s\n", cfg.Reader.Format)
	fmt.Fprintf(out, "reader.sheet: %s\n", cfg.Reader.Sheet)
	fmt.Fprintf(out, "reader.fieldnames: %s\n", formatFieldNames(cfg.Reader.FieldNames))
	fmt.Fprintf(out, "reader.restkey: %s\n", formatOptional(cfg.Reader.RestKey))
	fmt.Fprintf(out, "reader.restval: %s\n", formatOptional(cfg.Reader.RestValue))
	fmt.Fprintf(out, "csv.delimiter: %q\n", cfg.CSV.Delimiter)
	fmt.Fprintf(out, "csv.lazy_quotes: %t\n", cfg.CSV.LazyQuotes)
	fmt.Fprintf(out, "csv.encoding: %s\n", cfg.CSV.Encoding)
	fmt.Fprintf(out, "storage.db: %s\n", cfg.Storage.DB)
	fmt.Fprintf(out, "serve.port: %d\n", cfg.Serve.Port)
	fmt.Fprintf(out, "log.level: %s\n", cfg.Log.Level)
	fmt.Fprintf(out, "rules: %d\n", len(cfg.Rules))
	for i, rule := range cfg.Rules {
		fmt.Fprintf(out, "rules[%d].name: %s\n", i, rule.Name)
		fmt.Fprintf(out, "rules[%d].file_template: %s\n", i, rule.FileTemplate)
		fmt.Fprintf(out, "rules[%d].sheet: %s\n", i, rule.Sheet)
		fmt.Fprintf(out, "rules[%d].fieldnames: %s\n", i, formatFieldNames(rule.FieldNames))
		fmt.Fprintf(out, "rules[%d].restkey: %s\n", i, formatOptional(rule.RestKey))
	}
}

func formatFieldNames(names []string) string {
	if len(names) == 0 {
		return "(first row)"
	}
	return strings.Join(names, ", ")
}

func formatOptional(value *string) string {
	if value == nil {
		return "(unset)"
	}
	return fmt.Sprintf("%q", *value)
}

func init() {
	configCmd.AddCommand(configShowCmd)
}
