package cmd

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"xldict/config"
	"xldict/output"
)

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the active config in an editor.",
	Long: `Open the active xldict config file in your editor.

Editor selection order:
1) $VISUAL
2) $EDITOR
3) vi

If no config file exists yet, this command creates one with an example template first.
After the editor exits, the content is validated as xldict YAML config and the
resulting reader settings and file rules are printed.`,
	Example: `
  # Edit active config
  xldict config edit
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := resolveConfigEditPath(cfgFile, viper.ConfigFileUsed())
		if err != nil {
			return err
		}

		created, err := ensureConfigFileWithTemplate(configPath)
		if err != nil {
			return err
		}
		if created {
			fmt.Printf("No config file found. Created example config at: %s\n", configPath)
		}

		editor := resolveEditorValue(os.Getenv("VISUAL"), os.Getenv("EDITOR"))
		editorCommand, err := buildEditorCommand(editor, configPath)
		if err != nil {
			return err
		}
		editorCommand.Stdin = os.Stdin
		editorCommand.Stdout = os.Stdout
		editorCommand.Stderr = os.Stderr
		if err := editorCommand.Run(); err != nil {
			return fmt.Errorf("opening editor failed: %w", err)
		}

		return validateConfigFile(cmd.OutOrStdout(), configPath)
	},
}

// validateConfigFile validates the file at path and reports how it will read
// worksheets.
func validateConfigFile(out io.Writer, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config failed: %w", err)
	}
	cfg, err := config.ValidateYAMLContent(content)
	if err != nil {
		return fmt.Errorf("config validation failed in %s: %w", path, err)
	}

	fmt.Fprintf(out, "Configuration saved and validated: %s\n", path)
	reportReaderSettings(out, cfg)
	return nil
}

func reportReaderSettings(out io.Writer, cfg *config.Config) {
	format := cfg.Reader.Format
	if format == "" {
		format = "from file extension"
	}
	fmt.Fprintf(out, "  format: %s\n", format)
	fmt.Fprintf(out, "  field names: %s\n", formatFieldNames(cfg.Reader.FieldNames))
	fmt.Fprintf(out, "  overflow: %s\n", describeRestKey(cfg.Reader.RestKey))
	if len(cfg.Rules) == 0 {
		fmt.Fprintln(out, "  rules: none")
		return
	}
	fmt.Fprintf(out, "  rules: %d\n", len(cfg.Rules))
	for _, rule := range cfg.Rules {
		fmt.Fprintf(out, "    %s -> %s", rule.FileTemplate, rule.Name)
		if rule.Sheet != "" {
			fmt.Fprintf(out, ", sheet %s", rule.Sheet)
		}
		if len(rule.FieldNames) > 0 {
			fmt.Fprintf(out, ", field names %s", strings.Join(rule.FieldNames, ", "))
		}
		if rule.RestKey != nil {
			fmt.Fprintf(out, ", overflow %s", describeRestKey(rule.RestKey))
		}
		fmt.Fprintln(out)
	}
}

func describeRestKey(restKey *string) string {
	if restKey == nil {
		return fmt.Sprintf("kept separately (%q in output)", output.DefaultRestKey)
	}
	return fmt.Sprintf("under key %q", *restKey)
}

func resolveConfigEditPath(configFileFlag, configFileUsed string) (string, error) {
	if strings.TrimSpace(configFileFlag) != "" {
		return configFileFlag, nil
	}
	if strings.TrimSpace(configFileUsed) != "" {
		return configFileUsed, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".xldict.yaml"), nil
}

func ensureConfigFileWithTemplate(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return false, nil
	}
	if !os.IsNotExist(err) {
		return false, fmt.Errorf("checking config file failed: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("creating config directory failed: %w", err)
	}
	if err := os.WriteFile(path, []byte(config.ExampleYAML()), 0o600); err != nil {
		return false, fmt.Errorf("creating example config failed: %w", err)
	}

	return true, nil
}

func resolveEditorValue(visual, editor string) string {
	if strings.TrimSpace(visual) != "" {
		return visual
	}
	if strings.TrimSpace(editor) != "" {
		return editor
	}
	return "vi"
}

func buildEditorCommand(editorValue, configPath string) (*exec.Cmd, error) {
	fields := strings.Fields(strings.TrimSpace(editorValue))
	if len(fields) == 0 {
		return nil, fmt.Errorf("editor command is empty")
	}

	args := append(fields[1:], configPath)
	return exec.Command(fields[0], args...), nil
}

func init() {
	configCmd.AddCommand(configEditCmd)
}
