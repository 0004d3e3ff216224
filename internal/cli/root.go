// Package cli implements the todo command-line client on top of the task use case.
package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/fastygo/todo/api/transport"
	"github.com/fastygo/todo/domain"
	taskUC "github.com/fastygo/todo/usecase/task"
)

const displayLayout = "2006-01-02 15:04"

// RootCommand is the `todo` command with its subcommands.
type RootCommand struct {
	cmd     *cobra.Command
	tasks   *taskUC.UseCase
	loc     *time.Location
	timeout time.Duration
}

func NewRootCommand(tasks *taskUC.UseCase, loc *time.Location, timeout time.Duration) *RootCommand {
	if loc == nil {
		loc = time.UTC
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	root := &RootCommand{tasks: tasks, loc: loc, timeout: timeout}

	root.cmd = &cobra.Command{
		Use:   "todo",
		Short: "Manage tasks from the command line",
		Long: `todo manages the same task store the HTTP server uses.

The store is selected with STORAGE_DRIVER (postgres, mysql, sqlite, bolt, redis, memory).
Due dates accept RFC3339 timestamps or local forms such as "2024-07-01 18:00",
read in APP_TIMEZONE.

EXAMPLES:
  todo add "Write report" --due 2024-07-01T18:00
  todo list --order due
  todo close 3`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.addSubcommands()
	return root
}

func (r *RootCommand) Execute(ctx context.Context) error {
	return r.cmd.ExecuteContext(ctx)
}

// Command exposes the cobra command for argument and output wiring.
func (r *RootCommand) Command() *cobra.Command {
	return r.cmd
}

func (r *RootCommand) addSubcommands() {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := r.context(cmd)
			defer cancel()

			orderKey, _ := cmd.Flags().GetString("order")
			tasks, err := r.tasks.ListTasks(ctx, domain.ParseOrder(orderKey))
			if err != nil {
				return err
			}
			if len(tasks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tasks found")
				return nil
			}
			return r.printTasks(cmd.OutOrStdout(), tasks)
		},
	}
	listCmd.Flags().String("order", string(domain.OrderPost), "sort order: post (newest first) or due (earliest deadline first)")

	addCmd := &cobra.Command{
		Use:   "add TITLE",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := r.context(cmd)
			defer cancel()

			due, err := r.dueFlag(cmd)
			if err != nil {
				return err
			}
			task, err := r.tasks.CreateTask(ctx, strings.Join(args, " "), due)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created task %d\n", task.ID)
			return nil
		},
	}
	addCmd.Flags().String("due", "", "due date")

	showCmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := r.context(cmd)
			defer cancel()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			task, err := r.tasks.GetTask(ctx, id)
			if err != nil {
				return err
			}
			return r.printTasks(cmd.OutOrStdout(), []domain.Task{*task})
		},
	}

	editCmd := &cobra.Command{
		Use:   "edit ID TITLE",
		Short: "Replace a task's title and due date",
		Long:  "Replace a task's title and due date. Omitting --due clears the deadline.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := r.context(cmd)
			defer cancel()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			due, err := r.dueFlag(cmd)
			if err != nil {
				return err
			}
			task, err := r.tasks.UpdateTask(ctx, id, strings.Join(args[1:], " "), due)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated task %d\n", task.ID)
			return nil
		},
	}
	editCmd.Flags().String("due", "", "due date")

	closeCmd := &cobra.Command{
		Use:   "close ID",
		Short: "Mark a task completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := r.context(cmd)
			defer cancel()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			task, err := r.tasks.CloseTask(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Closed task %d\n", task.ID)
			return nil
		},
	}

	rmCmd := &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := r.context(cmd)
			defer cancel()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := r.tasks.DeleteTask(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %d\n", id)
			return nil
		},
	}

	r.cmd.AddCommand(listCmd, addCmd, showCmd, editCmd, closeCmd, rmCmd)
}

func (r *RootCommand) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, r.timeout)
}

func (r *RootCommand) dueFlag(cmd *cobra.Command) (*time.Time, error) {
	value, _ := cmd.Flags().GetString("due")
	return transport.ParseTimestamp(value, r.loc)
}

// printTasks renders a borderless table. Colours are dropped when out is not a terminal.
func (r *RootCommand) printTasks(out io.Writer, tasks []domain.Task) error {
	now := r.tasks.Now()
	renderer := lipgloss.NewRenderer(out)
	cell := renderer.NewStyle().PaddingRight(2)
	header := cell.Bold(true)
	late := cell.Foreground(lipgloss.Color("9"))

	rows := make([][]string, 0, len(tasks))
	overdue := make([]bool, 0, len(tasks))
	for i := range tasks {
		task := &tasks[i]
		due := "-"
		if task.DueAt != nil {
			due = task.DueAt.In(r.loc).Format(displayLayout)
		}
		flag := ""
		if task.IsOverdue(now) {
			flag = "yes"
		}
		overdue = append(overdue, flag != "")
		rows = append(rows, []string{
			strconv.FormatInt(task.ID, 10),
			task.Title,
			due,
			strings.ToLower(string(task.State())),
			flag,
		})
	}

	t := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		BorderHeader(false).
		Headers("ID", "TITLE", "DUE", "STATE", "OVERDUE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return header
			case row >= 0 && row < len(overdue) && overdue[row]:
				return late
			default:
				return cell
			}
		})

	_, err := fmt.Fprintln(out, t.Render())
	return err
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrTaskNotFound
	}
	return id, nil
}
