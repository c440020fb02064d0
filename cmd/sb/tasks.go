package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"sprintboard/internal/app"
	"sprintboard/internal/domain"
	"sprintboard/internal/engine"
	"sprintboard/internal/repo"
)

func taskCmd() *cobra.Command {
	task := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
		Long:  "Tasks live in a log. Fields: title, location, description, storyPoint, priority, status, tags. Every accepted change appends '<actor> changed the task's <field> to <value>' to the task history.",
	}
	task.AddCommand(taskCreateCmd())
	task.AddCommand(taskListCmd())
	task.AddCommand(taskGetCmd())
	task.AddCommand(taskSetCmd())
	task.AddCommand(taskHistoryCmd())
	task.AddCommand(taskDeleteCmd())
	return task
}

func taskCreateCmd() *cobra.Command {
	var opts engine.TaskCreateOptions
	var logRef, storyPoint, priority, status, tags string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ActorID = viper.GetString("actor-id")
			var err error
			if storyPoint != "" {
				sp, err := strconv.ParseFloat(storyPoint, 64)
				if err != nil {
					return fmt.Errorf("--story-point %q is not a number", storyPoint)
				}
				opts.StoryPoint = &sp
			}
			if opts.Priority, err = domain.ParsePriority(priority); err != nil {
				return err
			}
			if opts.Status, err = domain.ParseStatus(status); err != nil {
				return err
			}
			if opts.Tags, err = domain.ParseTagList(tags); err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				l, err := app.ResolveLog(ctx, e, logRef, opts.ActorID)
				if err != nil {
					return err
				}
				opts.LogID = l.ID
				st, err := e.CreateTask(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(domain.NewTaskView(st.Task, st.Meta))
			})
		},
	}
	cmd.Flags().StringVar(&opts.Title, "title", "", "title")
	cmd.Flags().StringVar(&opts.Description, "description", "", "description (max 1000 characters)")
	cmd.Flags().StringVar(&logRef, "log", "", "log id or title (defaults to the backlog)")
	cmd.Flags().StringVar(&storyPoint, "story-point", "", "story point estimate (1-10)")
	cmd.Flags().StringVar(&priority, "priority", "unspecified", "priority (unspecified, low, medium, important, urgent)")
	cmd.Flags().StringVar(&status, "status", "not_started", "status (not_started, planning, integration, development, testing, complete)")
	cmd.Flags().StringVar(&tags, "tags", "", "comma separated tags (frontend, backend, uiux, api)")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func taskListCmd() *cobra.Command {
	var logRef, status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				var f repo.TaskFilter
				if logRef != "" {
					l, err := app.ResolveLog(ctx, e, logRef, viper.GetString("actor-id"))
					if err != nil {
						return err
					}
					f.LogID = l.ID
				}
				if status != "" {
					s, err := domain.ParseStatus(status)
					if err != nil {
						return err
					}
					f.Status = s.Key()
				}
				tasks, err := e.ListTasks(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					views := make([]domain.TaskView, 0, len(tasks))
					for _, st := range tasks {
						views = append(views, domain.NewTaskView(st.Task, st.Meta))
					}
					return printJSON(views)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Log", "Status", "Priority", "SP", "Tags", "Updated"})
				for _, st := range tasks {
					v := domain.NewTaskView(st.Task, st.Meta)
					sp := ""
					if v.StoryPoint != nil {
						sp = strconv.FormatFloat(*v.StoryPoint, 'f', -1, 64)
					}
					tw.AppendRow(table.Row{v.ID, v.Title, v.LocationTitle, v.Status, v.Priority, sp, st.Task.Tags().String(), displayStamp(e.Config, v.UpdatedAt)})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&logRef, "log", "", "log id or title filter")
	cmd.Flags().StringVar(&status, "status", "", "status filter")
	return cmd
}

func taskGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				st, err := e.GetTask(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(domain.NewTaskView(st.Task, st.Meta))
			})
		},
	}
}

func taskSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <id> <field> <value>",
		Short: "Change one task field",
		Long:  "Sets the task modifier to --actor-id, then changes the field. Locations take a log id; tags take a list or a 4-digit bit vector such as 1010.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				key, raw := args[1], args[2]
				if key == domain.FieldLocation.String() {
					l, err := app.ResolveLog(ctx, e, raw, viper.GetString("actor-id"))
					if err != nil {
						return err
					}
					raw = l.ID
				}
				st, err := e.SetFieldRaw(ctx, args[0], viper.GetString("actor-id"), key, raw)
				if err != nil {
					return err
				}
				return printJSONOrTable(domain.NewTaskView(st.Task, st.Meta))
			})
		},
	}
}

func taskHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <id>",
		Short: "Show the change history of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				history, err := e.History(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(history)
				}
				for i, entry := range history {
					fmt.Printf("%3d  %s\n", i+1, entry)
				}
				return nil
			})
		},
	}
}

func taskDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				return e.DeleteTask(ctx, args[0], viper.GetString("actor-id"))
			})
		},
	}
}
