package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"easyplan-sync.com/easyplan-sync/internal/services"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show identity, connectivity and pending sync state",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			st, err := a.sync.Status(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			user := "guest"
			if st.SignedIn {
				user = st.UserID
			}
			binID := st.BackupBinID
			if binID == "" {
				binID = "none"
			}
			fmt.Fprintf(out, "user:     %s\n", user)
			fmt.Fprintf(out, "online:   %t\n", st.Online)
			fmt.Fprintf(out, "tasks:    %d\n", st.TaskCount)
			fmt.Fprintf(out, "pending:  %d\n", st.PendingCount)
			fmt.Fprintf(out, "backup:   %s\n", binID)
			if st.Online {
				primaryState := "reachable"
				if err := a.primary.Ping(cmd.Context()); err != nil {
					primaryState = "unreachable (" + err.Error() + ")"
				}
				fmt.Fprintf(out, "primary:  %s\n", primaryState)
			}
			return nil
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show completion statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			st := a.stats.Calculate(a.sync.GetAllTasks(), a.sync.Now())
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "tasks:            %d (%d done, %d open)\n", st.TotalTasks, st.CompletedTasks, st.PendingTasks)
			fmt.Fprintf(out, "completion rate:  %s\n", services.FormatCompletionRate(st.CompletionRate))
			fmt.Fprintf(out, "done today/week:  %d / %d\n", st.CompletedToday, st.CompletedThisWeek)
			fmt.Fprintf(out, "avg completion:   %s\n", (time.Duration(st.AverageCompletionMillis) * time.Millisecond).Round(time.Minute))
			fmt.Fprintf(out, "overdue:          %d\n", st.OverdueTasks)
			fmt.Fprintf(out, "streak:           %d days\n", st.CompletionStreak)
			fmt.Fprintf(out, "productivity:     %d (%s)\n", st.ProductivityScore, st.ProductivityLevel)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(statusCmd, statsCmd)
}
