package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login <user-id>",
	Short: "Sign in and pull the user's tasks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			ctx := cmd.Context()
			if err := a.session.SignIn(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s\n", args[0])

			n, err := a.sync.LoadTasksForUser(ctx)
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "pull skipped: %v\n", err)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pulled %d tasks\n", n)
			return nil
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out; local tasks stay on this device",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			if n := a.sync.GetPendingSyncCount(); n > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "warning: %d tasks were never synced\n", n)
			}
			if err := a.session.SignOut(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd)
}
