package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"easyplan-sync.com/easyplan-sync/internal/http/validators"
	"easyplan-sync.com/easyplan-sync/pkg/constants"
	model "easyplan-sync.com/easyplan-sync/pkg/models"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
}

var taskFlags struct {
	title       string
	description string
	due         string
	at          string
	priority    string
	category    string
	color       string
	date        string
	today       bool
}

func addTaskFieldFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&taskFlags.description, "desc", "d", "", "description")
	cmd.Flags().StringVar(&taskFlags.due, "due", "", "due date (yyyy-MM-dd)")
	cmd.Flags().StringVar(&taskFlags.at, "time", "", "due time (HH:MM)")
	cmd.Flags().StringVarP(&taskFlags.priority, "priority", "p", "", "high, medium or low")
	cmd.Flags().StringVarP(&taskFlags.category, "category", "c", "", "work, personal, study, health, shopping or other")
	cmd.Flags().StringVar(&taskFlags.color, "color", "", "display color (hex)")
}

var taskAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a task",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			req := validators.TaskRequest{
				Title:       strings.Join(args, " "),
				Description: taskFlags.description,
				DueDate:     taskFlags.due,
				Priority:    taskFlags.priority,
				Category:    taskFlags.category,
				Color:       taskFlags.color,
			}
			if taskFlags.at != "" {
				req.DueTime = &taskFlags.at
			}
			if err := validators.ValidateTaskRequest(&req); err != nil {
				return err
			}
			task, err := req.ToTask("", a.sync.Location())
			if err != nil {
				return err
			}

			created, status, err := a.sync.AddTask(cmd.Context(), task)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s (%s)\n", created.ID, status)
			return nil
		})
	},
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			tasks := a.sync.GetAllTasks()
			switch {
			case taskFlags.date != "":
				day, err := validators.ParseDate(taskFlags.date, a.sync.Location())
				if err != nil {
					return err
				}
				tasks = a.sync.GetTasksForDate(day)
			case taskFlags.today:
				tasks = a.sync.GetTodayTasks()
			}
			printTasks(cmd.OutOrStdout(), tasks, a)
			return nil
		})
	},
}

var taskDoneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark a task as completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			task, err := a.sync.GetTask(args[0])
			if err != nil {
				return err
			}
			if task.IsCompleted {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is already completed\n", task.ID)
				return nil
			}
			_, status, err := a.sync.ToggleCompletion(cmd.Context(), task.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "completed %s (%s)\n", task.ID, status)
			return nil
		})
	},
}

var taskToggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Flip a task between completed and open",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			task, status, err := a.sync.ToggleCompletion(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s completed=%t (%s)\n", task.ID, task.IsCompleted, status)
			return nil
		})
	},
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			status, err := a.sync.DeleteTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s (%s)\n", args[0], status)
			return nil
		})
	},
}

var taskEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a task; only the given flags change",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			task, err := a.sync.GetTask(args[0])
			if err != nil {
				return err
			}
			if err := applyEdits(cmd, task, a.sync.Location()); err != nil {
				return err
			}

			updated, status, err := a.sync.UpdateTask(cmd.Context(), task)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %s (%s)\n", updated.ID, status)
			return nil
		})
	},
}

func applyEdits(cmd *cobra.Command, task *model.Task, loc *time.Location) error {
	flags := cmd.Flags()
	if flags.Changed("title") {
		task.Title = taskFlags.title
	}
	if flags.Changed("desc") {
		task.Description = taskFlags.description
	}
	if flags.Changed("due") {
		if taskFlags.due == "" {
			task.DueDate = nil
		} else {
			due, err := validators.ParseDate(taskFlags.due, loc)
			if err != nil {
				return err
			}
			task.DueDate = &due
		}
	}
	if flags.Changed("time") {
		if err := validators.ValidateDueTime(taskFlags.at); err != nil {
			return err
		}
		task.DueTime = nil
		if taskFlags.at != "" {
			at := taskFlags.at
			task.DueTime = &at
		}
	}
	if flags.Changed("priority") {
		task.Priority = constants.ParsePriority(taskFlags.priority)
	}
	if flags.Changed("category") {
		task.Category = constants.ParseCategory(taskFlags.category)
	}
	if flags.Changed("color") {
		task.Color = taskFlags.color
	}
	return nil
}

func printTasks(w io.Writer, tasks []*model.Task, a *app) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "no tasks")
		return
	}
	for _, t := range tasks {
		mark := " "
		if t.IsCompleted {
			mark = "x"
		}
		due := "-"
		if t.DueDate != nil {
			due = t.DueDate.In(a.sync.Location()).Format(model.DateLayout)
			if t.DueTime != nil {
				due += " " + *t.DueTime
			}
		}
		fmt.Fprintf(w, "[%s] %s  %-16s  %-8s %-9s %s\n",
			mark, t.ID, due, t.Priority.DisplayName(), t.Category.DisplayName(), t.Title)
	}
}

func init() {
	addTaskFieldFlags(taskAddCmd)
	addTaskFieldFlags(taskEditCmd)
	taskEditCmd.Flags().StringVarP(&taskFlags.title, "title", "t", "", "title")

	taskListCmd.Flags().StringVar(&taskFlags.date, "date", "", "only tasks due on this day (yyyy-MM-dd)")
	taskListCmd.Flags().BoolVar(&taskFlags.today, "today", false, "only tasks due today")

	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskDoneCmd, taskToggleCmd, taskDeleteCmd, taskEditCmd)
	rootCmd.AddCommand(taskCmd)
}
