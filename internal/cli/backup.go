// Package cli provides the command-line interface for the journal application.
package cli

import (
	"github.com/spf13/cobra"

	apperrors "tradevault/internal/errors"
)

// addBackupCommands adds export/import commands.
func addBackupCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Backup export and import",
		Long: `Export the journal to a versioned JSON file, or restore one.

Import replaces each collection the file carries; collections absent
from the file are left untouched.`,
	}

	cmd.AddCommand(newBackupExportCmd(app))
	cmd.AddCommand(newBackupImportCmd(app))

	rootCmd.AddCommand(cmd)
}

func newBackupExportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the journal to a JSON backup",
		Example: `  tradevault backup export
  tradevault backup export --dir ~/backups`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := requireStore(app); err != nil {
				return err
			}

			dir, _ := cmd.Flags().GetString("dir")
			if dir == "" {
				dir = app.Config.Backup.Dir
			}

			path, err := app.Store.WriteBackup(dir)
			if err != nil {
				output.Error("Export failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]string{"path": path})
			}
			output.Success("✓ Backup written")
			output.Println(path)
			return nil
		},
	}

	cmd.Flags().String("dir", "", "target directory (default: configured backup dir)")

	return cmd
}

func newBackupImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Restore the journal from a JSON backup",
		Long: `Restore the journal from a backup file.

The file must carry a version and a trades array; a malformed file is
rejected in full, nothing is partially imported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := requireStore(app); err != nil {
				return err
			}

			result, err := app.Store.ImportBackupFile(args[0])
			if err != nil {
				if ie, ok := apperrors.IsImportError(err); ok {
					output.Error("%s", ie.Message)
				} else {
					output.Error("Import failed: %v", err)
				}
				return err
			}

			if output.IsJSON() {
				return output.JSON(result)
			}
			output.Success("✓ Backup imported")
			output.Printf("  Trades:   %d\n", result.TradesImported)
			output.Printf("  Accounts: %d\n", result.AccountsImported)
			return nil
		},
	}
}
