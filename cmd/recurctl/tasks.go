package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cyp0633/librecur/calendar"
	"github.com/cyp0633/librecur/storage"
)

func newTasksCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Manage the stored tasks conflicts are checked against",
	}
	cmd.AddCommand(
		newTasksAddCommand(a),
		newTasksListCommand(a),
		newTasksDeleteCommand(a),
		newTasksCompleteCommand(a),
		newTasksImportCommand(a),
	)
	return cmd
}

func newTasksAddCommand(a *app) *cobra.Command {
	var id, title, due string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Store a task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			when, err := parseDate(due)
			if err != nil {
				return fmt.Errorf("--due: %w", err)
			}
			if id == "" {
				id = uuid.NewString()
			}

			task := &storage.Task{ID: id, UserID: a.cfg.UserID, Title: title, Due: when}
			if err := a.store.CreateTask(cmd.Context(), task); err != nil {
				return err
			}
			a.log.Info().Str("id", id).Str("due", formatDate(when)).Msg("task added")
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "task ID (default a new UUID)")
	cmd.Flags().StringVar(&title, "title", "", "task title")
	cmd.Flags().StringVar(&due, "due", "", "due date")
	_ = cmd.MarkFlagRequired("due")
	return cmd
}

func newTasksListCommand(a *app) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored tasks by due date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := &storage.ListOptions{}
			if from != "" {
				start, err := parseDate(from)
				if err != nil {
					return fmt.Errorf("--from: %w", err)
				}
				opts.Start = &start
			}
			if to != "" {
				end, err := parseDate(to)
				if err != nil {
					return fmt.Errorf("--to: %w", err)
				}
				opts.End = &end
			}

			tasks, err := a.store.ListTasks(cmd.Context(), a.cfg.UserID, opts)
			if err != nil {
				return err
			}
			for _, task := range tasks {
				line := fmt.Sprintf("%s\t%s\t%s", formatDate(task.Due), task.ID, task.Title)
				if task.Done() {
					line += "\tdone"
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first due day")
	cmd.Flags().StringVar(&to, "to", "", "last due day")
	return cmd
}

func newTasksDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID...",
		Short: "Delete stored tasks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, id := range args {
				if err := a.store.DeleteTask(cmd.Context(), a.cfg.UserID, id); err != nil {
					return fmt.Errorf("delete %s: %w", id, err)
				}
			}
			return nil
		},
	}
}

func newTasksCompleteCommand(a *app) *cobra.Command {
	var rf ruleFlags

	cmd := &cobra.Command{
		Use:   "complete ID",
		Short: "Complete a recurring task and store its next instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rule, err := rf.rule(a.now())
			if err != nil {
				return err
			}
			done, err := a.planner.Complete(cmd.Context(), a.cfg.UserID, args[0], rule)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "completed %s\n", done.Task.ID)
			if done.Next == nil {
				fmt.Fprintln(out, "series has ended")
				return nil
			}
			fmt.Fprintf(out, "next %s\t%s\n", formatDate(done.Next.Due), done.Next.ID)
			return nil
		},
	}

	rf.register(cmd.Flags())
	return cmd
}

func newTasksImportCommand(a *app) *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Store one task per VTODO or VEVENT due date in an iCalendar file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			dates, err := calendar.DueDates(string(b))
			if err != nil {
				return err
			}

			for _, due := range dates {
				task := &storage.Task{ID: uuid.NewString(), UserID: a.cfg.UserID, Title: title, Due: due}
				if err := a.store.CreateTask(cmd.Context(), task); err != nil {
					return err
				}
			}
			a.log.Info().Int("count", len(dates)).Str("file", args[0]).Msg("tasks imported")
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d tasks\n", len(dates))
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "imported", "title for the imported tasks")
	return cmd
}
