package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"xldict/config"
	"xldict/storage"
)

var (
	deleteDBPath  string
	deleteBatchID string
	deleteAll     bool
)

var (
	deletePromptInput  io.Reader = os.Stdin
	deletePromptOutput io.Writer = os.Stdout
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete one batch, all batches, or the complete SQLite database file",
	Long: `Destructive database cleanup command.

With --batch only that batch is deleted. With --all every batch is deleted but
the database file stays. Without either flag the complete SQLite database file
is deleted. Before deletion, an interactive security prompt requires typing
exactly "Y".`,
	Example: `
  # Delete one batch
  xldict delete --batch 0b6f...

  # Delete every batch
  xldict delete --all

  # Delete the complete SQLite file
  xldict delete --db ./xldict.db
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if deleteAll && strings.TrimSpace(deleteBatchID) != "" {
			return fmt.Errorf("--batch and --all are mutually exclusive")
		}

		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}
		dbPath := resolveDBPath(deleteDBPath, cfg)

		target := fmt.Sprintf("database file %q", dbPath)
		switch {
		case strings.TrimSpace(deleteBatchID) != "":
			target = fmt.Sprintf("batch %q in %q", deleteBatchID, dbPath)
		case deleteAll:
			target = fmt.Sprintf("all batches in %q", dbPath)
		}

		confirmed, err := confirmDeletePrompt(deletePromptInput, deletePromptOutput, target)
		if err != nil {
			return err
		}
		if !confirmed {
			return fmt.Errorf("delete aborted: confirmation was not 'Y'")
		}

		if strings.TrimSpace(deleteBatchID) == "" && !deleteAll {
			if err := removeDatabaseFile(dbPath); err != nil {
				return err
			}
			fmt.Printf("Deleted database file: %s\n", dbPath)
			return nil
		}

		deleted, err := deleteRecords(dbPath, strings.TrimSpace(deleteBatchID))
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d records from %s\n", deleted, dbPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)

	deleteCmd.Flags().StringVar(&deleteDBPath, "db", "", "Path to local SQLite database (default: storage.db from config)")
	deleteCmd.Flags().StringVar(&deleteBatchID, "batch", "", "Delete only this batch")
	deleteCmd.Flags().BoolVar(&deleteAll, "all", false, "Delete every batch and keep the database file")
}

func confirmDeletePrompt(input io.Reader, output io.Writer, target string) (bool, error) {
	if input == nil {
		return false, fmt.Errorf("delete confirmation input is not available")
	}

	if output == nil {
		output = io.Discard
	}

	if _, err := fmt.Fprintf(output, "Delete %s? Type Y to confirm: ", target); err != nil {
		return false, fmt.Errorf("write delete confirmation prompt: %w", err)
	}

	line, err := bufio.NewReader(input).ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			line = strings.TrimSpace(line)
			return line == "Y", nil
		}
		return false, fmt.Errorf("read delete confirmation: %w", err)
	}
	return strings.TrimSpace(line) == "Y", nil
}

// deleteRecords deletes one batch, or every batch when batchID is empty.
func deleteRecords(dbPath, batchID string) (int64, error) {
	if _, err := os.Stat(dbPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("database file not found: %s", dbPath)
		}
		return 0, fmt.Errorf("stat database file: %w", err)
	}

	store, err := storage.OpenSQLite(dbPath)
	if err != nil {
		return 0, err
	}
	defer store.Close()

	if batchID == "" {
		return store.DeleteAll()
	}
	deleted, err := store.DeleteBatch(batchID)
	if errors.Is(err, storage.ErrBatchNotFound) {
		return 0, fmt.Errorf("batch %s: %w", batchID, err)
	}
	return deleted, err
}

func removeDatabaseFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("database file not found: %s", path)
		}
		return fmt.Errorf("stat database file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("database path is a directory: %s", path)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete database file: %w", err)
	}
	return nil
}
