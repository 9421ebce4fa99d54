package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configDeleteYes bool

var configDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the active configuration file.",
	Long: `Delete the configuration file currently selected by xldict.

If no configuration file is active, the command returns an error. Without --yes
the deletion has to be confirmed by typing Y.`,
	Example: `
  # Delete active config
  xldict config delete

  # Delete config at a custom path without prompting
  xldict --configFile ./custom-xldict.yaml config delete --yes
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var input io.Reader
		if !configDeleteYes {
			input = cmd.InOrStdin()
		}
		return deleteConfigFile(input, cmd.OutOrStdout(), viper.ConfigFileUsed())
	},
}

// deleteConfigFile removes path after confirmation. A nil input skips the prompt.
func deleteConfigFile(input io.Reader, out io.Writer, path string) error {
	if path == "" {
		return fmt.Errorf("no configuration file found")
	}

	if input != nil {
		confirmed, err := confirmDeletePrompt(input, out, "config file "+path)
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Fprintln(out, "Deletion cancelled.")
			return nil
		}
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("configuration file %s does not exist", path)
		}
		return fmt.Errorf("error deleting configuration file: %w", err)
	}

	fmt.Fprintf(out, "Configuration file successfully deleted: %s\n", path)
	return nil
}

func init() {
	configCmd.AddCommand(configDeleteCmd)
	configDeleteCmd.Flags().BoolVarP(&configDeleteYes, "yes", "y", false, "Delete without asking for confirmation")
}
