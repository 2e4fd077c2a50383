package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"google.golang.org/grpc/status"

	"github.com/gurkanbulca/taskboard/internal/grpcapi"
	"github.com/gurkanbulca/taskboard/internal/middleware"
)

type dialFunc func(ctx context.Context, addr string) (*grpcapi.Client, func() error, error)

type cli struct {
	dial    dialFunc
	out     io.Writer
	addr    string
	timeout time.Duration
	asJSON  bool
}

func newRootCmd(dial dialFunc, out io.Writer) *cobra.Command {
	c := &cli{dial: dial, out: out}

	root := &cobra.Command{
		Use:           "taskctl",
		Short:         "Manage tasks and categories on a taskboard server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	defaultAddr := os.Getenv("TASKBOARD_ADDR")
	if defaultAddr == "" {
		defaultAddr = "localhost:50051"
	}
	root.PersistentFlags().StringVar(&c.addr, "addr", defaultAddr, "server address")
	root.PersistentFlags().DurationVar(&c.timeout, "timeout", 10*time.Second, "per-command timeout")
	root.PersistentFlags().BoolVar(&c.asJSON, "json", false, "print raw JSON")

	root.AddCommand(c.tasksCmd(), c.categoriesCmd())
	return root
}

// run dials the server, calls fn and closes the connection.
func (c *cli) run(cmd *cobra.Command, fn func(ctx context.Context, client *grpcapi.Client) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
	defer cancel()

	client, closeConn, err := c.dial(ctx, c.addr)
	if err != nil {
		return err
	}
	defer closeConn()
	return describe(fn(ctx, client))
}

// describe turns a status error into a readable message.
func describe(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	violations := middleware.FieldViolations(err)
	if len(violations) == 0 {
		return fmt.Errorf("%s: %s", st.Code(), st.Message())
	}
	fields := make([]string, 0, len(violations))
	for f, reason := range violations {
		fields = append(fields, f+" "+reason)
	}
	sort.Strings(fields)
	return fmt.Errorf("invalid input: %s", strings.Join(fields, "; "))
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func list(values []string) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, v)
	}
	return out
}

func (c *cli) printJSON(v any) error {
	raw, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.out, string(raw))
	return err
}

func (c *cli) tasksCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "tasks", Short: "List and change tasks"}

	var (
		search     string
		statuses   []string
		priorities []string
		categories []string
	)
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks matching the filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, client *grpcapi.Client) error {
				tasks, err := client.ListTasks(ctx, map[string]any{
					"search":   search,
					"status":   list(statuses),
					"priority": list(priorities),
					"category": list(categories),
				})
				if err != nil {
					return err
				}
				if c.asJSON {
					return c.printJSON(tasks)
				}
				return c.printTasks(tasks)
			})
		},
	}
	listCmd.Flags().StringVarP(&search, "search", "s", "", "match title or description")
	listCmd.Flags().StringSliceVar(&statuses, "status", nil, "active, completed")
	listCmd.Flags().StringSliceVar(&priorities, "priority", nil, "low, medium, high")
	listCmd.Flags().StringSliceVar(&categories, "category", nil, "category ids")

	var (
		category    int
		priority    string
		due         string
		description string
	)
	addCmd := &cobra.Command{
		Use:   "add TITLE",
		Short: "Create a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := map[string]any{"title": args[0], "categoryId": category}
			if priority != "" {
				fields["priority"] = priority
			}
			if due != "" {
				fields["dueDate"] = due
			}
			if description != "" {
				fields["description"] = description
			}
			return c.run(cmd, func(ctx context.Context, client *grpcapi.Client) error {
				task, err := client.CreateTask(ctx, fields)
				if err != nil {
					return err
				}
				return c.printTask("created", task)
			})
		},
	}
	addCmd.Flags().IntVarP(&category, "category", "c", 0, "category id (required)")
	addCmd.Flags().StringVarP(&priority, "priority", "p", "", "low, medium or high")
	addCmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD)")
	addCmd.Flags().StringVarP(&description, "description", "d", "", "longer description")

	doneCmd := &cobra.Command{
		Use:   "done ID",
		Short: "Toggle a task between active and completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return c.run(cmd, func(ctx context.Context, client *grpcapi.Client) error {
				task, err := client.ToggleTaskComplete(ctx, id)
				if err != nil {
					return err
				}
				return c.printTask("toggled", task)
			})
		},
	}

	rmCmd := &cobra.Command{
		Use:   "rm ID",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return c.run(cmd, func(ctx context.Context, client *grpcapi.Client) error {
				task, err := client.DeleteTask(ctx, id)
				if err != nil {
					return err
				}
				return c.printTask("deleted", task)
			})
		},
	}

	cmd.AddCommand(listCmd, addCmd, doneCmd, rmCmd)
	return cmd
}

func (c *cli) categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "categories", Aliases: []string{"cat"}, Short: "List and change categories"}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List categories with their task counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, client *grpcapi.Client) error {
				categories, err := client.ListCategories(ctx)
				if err != nil {
					return err
				}
				if c.asJSON {
					return c.printJSON(categories)
				}
				table := newTable(c.out, "ID", "Name", "Color", "Icon", "Tasks")
				for _, raw := range categories {
					cat, _ := raw.(map[string]any)
					table.Append([]string{cell(cat["id"]), cell(cat["name"]), cell(cat["color"]), cell(cat["icon"]), cell(cat["taskCount"])})
				}
				table.Render()
				return nil
			})
		},
	}

	var color, icon string
	addCmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := map[string]any{"name": args[0]}
			if color != "" {
				fields["color"] = color
			}
			if icon != "" {
				fields["icon"] = icon
			}
			return c.run(cmd, func(ctx context.Context, client *grpcapi.Client) error {
				cat, err := client.CreateCategory(ctx, fields)
				if err != nil {
					return err
				}
				if c.asJSON {
					return c.printJSON(cat)
				}
				_, err = fmt.Fprintf(c.out, "created category %v %q\n", cat["id"], cat["name"])
				return err
			})
		},
	}
	addCmd.Flags().StringVar(&color, "color", "", "hex color")
	addCmd.Flags().StringVar(&icon, "icon", "", "icon name")

	rmCmd := &cobra.Command{
		Use:   "rm ID",
		Short: "Delete a category; its tasks keep the old id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return c.run(cmd, func(ctx context.Context, client *grpcapi.Client) error {
				cat, err := client.DeleteCategory(ctx, id)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(c.out, "deleted category %v %q\n", cat["id"], cat["name"])
				return err
			})
		},
	}

	cmd.AddCommand(listCmd, addCmd, rmCmd)
	return cmd
}

func (c *cli) printTask(verb string, task map[string]any) error {
	if c.asJSON {
		return c.printJSON(task)
	}
	state := "active"
	if done, _ := task["completed"].(bool); done {
		state = "completed"
	}
	_, err := fmt.Fprintf(c.out, "%s task %v %q (%s, %v)\n", verb, task["id"], task["title"], state, task["priority"])
	return err
}

func (c *cli) printTasks(tasks []any) error {
	table := newTable(c.out, "ID", "Done", "Priority", "Due", "Category", "Title")
	for _, raw := range tasks {
		t, _ := raw.(map[string]any)
		done := " "
		if completed, _ := t["completed"].(bool); completed {
			done = "x"
		}
		due := "-"
		if d, ok := t["dueDate"].(string); ok {
			due = d
			if overdue, _ := t["overdue"].(bool); overdue {
				due += " !"
			}
		}
		category := "-"
		if id, ok := t["categoryId"].(float64); ok {
			category = strconv.Itoa(int(id))
		}
		table.Append([]string{cell(t["id"]), done, cell(t["priority"]), due, category, cell(t["title"])})
	}
	table.Render()
	return nil
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetCenterSeparator("")
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	return table
}

func cell(v any) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(v)
}
