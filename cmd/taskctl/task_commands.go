package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/task-manager/client"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// bulkConcurrency bounds the requests `done` and `rm` keep in flight.
const bulkConcurrency = 4

var (
	addDescription string
	addDue         string
	addStatus      string

	editTitle       string
	editDescription string
	editDue         string
	editStatus      string
	editCompleted   bool

	activityLimit int
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List your tasks",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := openSession(cmd.Context(), true)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), formatTaskTable(session.Tasks()))
		return nil
	},
}

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := openSession(cmd.Context(), true)
		if err != nil {
			return err
		}
		created, err := session.CreateTask(cmd.Context(), client.TaskInput{
			Title:       args[0],
			Description: addDescription,
			DueDate:     addDue,
			Status:      addStatus,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", created.ID)
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := openSession(cmd.Context(), true)
		if err != nil {
			return err
		}
		found, err := session.Task(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), formatTaskDetail(*found))
		return nil
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change fields of a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var patch client.TaskPatch
		flags := cmd.Flags()
		if flags.Changed("title") {
			patch.Title = &editTitle
		}
		if flags.Changed("description") {
			patch.Description = &editDescription
		}
		if flags.Changed("due") {
			patch.DueDate = &editDue
		}
		if flags.Changed("status") {
			patch.Status = &editStatus
		}
		if flags.Changed("completed") {
			patch.Completed = &editCompleted
		}
		if patch == (client.TaskPatch{}) {
			return errors.New("nothing to change, pass at least one of --title, --description, --due, --status, --completed")
		}

		session, err := openSession(cmd.Context(), true)
		if err != nil {
			return err
		}
		updated, err := session.UpdateTask(cmd.Context(), args[0], patch)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), formatTaskDetail(*updated))
		return nil
	},
}

var doneCmd = &cobra.Command{
	Use:   "done <id>...",
	Short: "Mark tasks completed",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := openSession(cmd.Context(), true)
		if err != nil {
			return err
		}
		return forEachID(cmd.Context(), args, func(ctx context.Context, id string) error {
			if _, err := session.CompleteTask(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Completed %s\n", id)
			return nil
		})
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <id>...",
	Short: "Delete tasks",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := openSession(cmd.Context(), true)
		if err != nil {
			return err
		}
		return forEachID(cmd.Context(), args, func(ctx context.Context, id string) error {
			if err := session.DeleteTask(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
			return nil
		})
	},
}

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Show recent activity on your account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := openSession(cmd.Context(), true)
		if err != nil {
			return err
		}
		entries, err := session.Activity(cmd.Context(), activityLimit)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), formatActivityTable(entries))
		return nil
	},
}

// forEachID runs fn for every id with bounded concurrency. Every id is
// attempted; the returned error joins all failures.
func forEachID(ctx context.Context, ids []string, fn func(context.Context, string) error) error {
	errs := make([]error, len(ids))

	var g errgroup.Group
	g.SetLimit(bulkConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			if err := fn(ctx, id); err != nil {
				errs[i] = fmt.Errorf("%s: %w", id, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

func init() {
	addCmd.Flags().StringVarP(&addDescription, "description", "d", "", "task description")
	addCmd.Flags().StringVar(&addDue, "due", "", "due date (YYYY-MM-DD or RFC 3339)")
	addCmd.Flags().StringVar(&addStatus, "status", "", "initial status")

	editCmd.Flags().StringVar(&editTitle, "title", "", "new title")
	editCmd.Flags().StringVarP(&editDescription, "description", "d", "", "new description")
	editCmd.Flags().StringVar(&editDue, "due", "", "new due date")
	editCmd.Flags().StringVar(&editStatus, "status", "", "new status")
	editCmd.Flags().BoolVar(&editCompleted, "completed", false, "set the completed flag")

	activityCmd.Flags().IntVarP(&activityLimit, "limit", "n", 20, "number of entries")

	rootCmd.AddCommand(listCmd, addCmd, showCmd, editCmd, doneCmd, rmCmd, activityCmd)
}
