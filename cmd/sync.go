package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push every pending task to the cloud now",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			report, err := a.sync.SyncPendingTasks(cmd.Context())
			if err != nil {
				return err
			}
			if report.Pushed == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to sync")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pushed %d tasks, backup exported: %t\n", report.Pushed, report.BackupExported)
			return nil
		})
	},
}

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Download the signed-in user's tasks, overwriting local copies",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			n, err := a.sync.LoadTasksForUser(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pulled %d tasks\n", n)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(syncCmd, pullCmd)
}
