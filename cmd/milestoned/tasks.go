package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/chepyr/milestone-tracker/internal/client"
	"github.com/chepyr/milestone-tracker/internal/models"
	"github.com/spf13/cobra"
)

var serverURL string

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List tasks with status counters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tasks, err := client.New(serverURL).ListTasks(cmd.Context())
		if err != nil {
			return err
		}
		return printTasks(cmd.OutOrStdout(), tasks)
	},
}

var showCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show one task with its milestones",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		task, err := client.New(serverURL).GetTask(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printTask(cmd.OutOrStdout(), task)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{tasksCmd, showCmd} {
		cmd.Flags().StringVarP(&serverURL, "server", "s", defaultServerURL, "base URL of the tracker API")
	}
}

func printTasks(out io.Writer, tasks []models.Task) error {
	counts := client.CountByStatus(tasks)
	fmt.Fprintf(out, "Total: %d  Pending: %d  In progress: %d  Completed: %d\n\n",
		counts.Total, counts.Pending, counts.InProgress, counts.Completed)

	if len(tasks) == 0 {
		fmt.Fprintln(out, "No tasks yet.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tPRIORITY\tCREATED")
	for _, t := range tasks {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Title, client.StatusLabel(t.Status), t.Priority, client.FormatDate(t.CreatedAt))
	}
	return w.Flush()
}

func printTask(out io.Writer, task *models.TaskDetail) error {
	fmt.Fprintf(out, "%s [%s, %s priority]\n", task.Title, client.StatusLabel(task.Status), task.Priority)
	fmt.Fprintf(out, "%s\n", task.Description)
	fmt.Fprintf(out, "Created %s\n\n", client.FormatDate(task.CreatedAt))

	milestones := client.SortMilestones(task.Milestones)
	if len(milestones) == 0 {
		fmt.Fprintln(out, "No milestones.")
		return nil
	}
	done, total := client.Progress(milestones)
	fmt.Fprintf(out, "Milestones (%d/%d completed)\n", done, total)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, m := range milestones {
		mark := " "
		if m.Status == models.StatusCompleted {
			mark = "x"
		}
		fmt.Fprintf(w, "[%s]\t%d\t%s\t%s\n", mark, m.OrderIndex, m.Title, client.StatusLabel(m.Status))
	}
	return w.Flush()
}
