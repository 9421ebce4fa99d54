/*
Copyright © 2025 riad@rsworld.eu

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"xldict/config"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "xldict",
	Short: "Read spreadsheet rows as dictionaries keyed by column header.",
	Long: `
**********************************************
*                 XLDICT                     *
**********************************************

This CLI reads worksheets row by row and maps every data row onto the header
row (or explicit field names). Short rows are padded with a rest value, long
rows keep their overflow cells under a rest key, blank rows are skipped.

Records can be printed, profiled, imported into a local SQLite database,
exported again or served as JSON.

Supported input formats:
- Excel: .xlsx, .xlsm, .xltx, .xltm
- Legacy Excel: .xls
- Delimited text: .csv, .tsv, .txt
`,
	Example: `
  # Create configuration file
  xldict config create

  # Print the records of the active sheet
  xldict dump -i ./book.xlsx

  # Use explicit field names and collect overflow under "extra"
  xldict dump -i ./raw.csv --fieldnames id,name --restkey extra --output jsonl

  # Column statistics
  xldict describe -i ./book.xlsx --sheet Data

  # Import several files as one batch
  xldict import -i ./a.xlsx -i ./b.csv

  # Export the latest batch
  xldict export --output ./records.jsonl
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return configureLogging(viper.GetString(config.KeyLogLevel), verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	config.SetDefaults()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "configFile", "", "Config file override (default discovery: $HOME/.xldict.yaml, then ./.xldict.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// initConfig reads in .env, the config file and ENV variables if set.
func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: reading .env failed: %v\n", err)
	}

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".xldict" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".xldict")
	}

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// Without a config file the defaults apply.
	if err := viper.ReadInConfig(); err != nil && cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Reading config file %s failed: %v\n", cfgFile, err)
	}
}

func configureLogging(level string, debug bool) error {
	log.SetOutput(os.Stderr)
	if debug {
		log.SetLevel(log.DebugLevel)
		return nil
	}
	if strings.TrimSpace(level) == "" {
		level = "info"
	}

	parsed, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log.level: %w", err)
	}
	log.SetLevel(parsed)
	return nil
}
