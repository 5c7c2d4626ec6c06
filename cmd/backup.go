package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export or import the whole task list to the backup bin",
}

var backupExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Overwrite the backup with the current task list",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			if err := a.sync.ExportToBackup(cmd.Context()); err != nil {
				return err
			}
			binID, _ := a.sync.BackupBinID(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d tasks to bin %s\n", len(a.sync.GetAllTasks()), binID)
			return nil
		})
	},
}

var backupImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Replace the local task list with the backup content",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			n, err := a.sync.ImportFromBackup(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d tasks\n", n)
			return nil
		})
	},
}

var backupResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget the backup bin id; the next export creates a new bin",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			if err := a.backup.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "backup bin forgotten")
			return nil
		})
	},
}

func init() {
	backupCmd.AddCommand(backupExportCmd, backupImportCmd, backupResetCmd)
	rootCmd.AddCommand(backupCmd)
}
