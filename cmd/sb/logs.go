package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"sprintboard/internal/app"
	"sprintboard/internal/domain"
	"sprintboard/internal/engine"
)

func logCmd() *cobra.Command {
	log := &cobra.Command{
		Use:   "log",
		Short: "Manage logs",
		Long:  "Logs are where tasks live. Active logs (sprints) own a start/end window; inactive logs (backlogs) never open. A log whose end has passed is immutable and accepts no tasks.",
	}
	log.AddCommand(logCreateCmd())
	log.AddCommand(logListCmd())
	log.AddCommand(logShowCmd())
	log.AddCommand(logRescheduleCmd())
	return log
}

func logCreateCmd() *cobra.Command {
	var title, start, end string
	var inactive bool
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a log",
		RunE: func(cmd *cobra.Command, args []string) error {
			actor := viper.GetString("actor-id")
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				var (
					l   *domain.Log
					err error
				)
				if inactive {
					if start != "" || end != "" {
						return fmt.Errorf("--start/--end apply to active logs only")
					}
					l, err = e.CreateInactiveLog(ctx, title, actor)
				} else {
					startAt, perr := parseOptionalTime(e.Config, start)
					if perr != nil {
						return perr
					}
					endAt, perr := parseOptionalTime(e.Config, end)
					if perr != nil {
						return perr
					}
					l, err = e.CreateActiveLog(ctx, title, startAt, endAt, actor)
				}
				if err != nil {
					return err
				}
				return printJSONOrTable(domain.NewLogView(l))
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "title")
	cmd.Flags().StringVar(&start, "start", "", "window start (active logs)")
	cmd.Flags().StringVar(&end, "end", "", "window end (active logs)")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "create an inactive log (no window)")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func logListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				if _, err := app.EnsureBacklog(ctx, e, viper.GetString("actor-id")); err != nil {
					return err
				}
				logs, err := e.ListLogs(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					views := make([]domain.LogView, 0, len(logs))
					for _, l := range logs {
						views = append(views, domain.NewLogView(l))
					}
					return printJSON(views)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Kind", "Active", "Immutable", "Start", "End"})
				for _, l := range logs {
					start, end := "-", "-"
					if a := l.Activity(); a != nil {
						start, end = displayTime(e.Config, a.Start()), displayTime(e.Config, a.End())
					}
					tw.AppendRow(table.Row{l.ID, l.Title, l.Kind(), l.IsActive(), l.IsImmutable(), start, end})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func logShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|title>",
		Short: "Show a log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				l, err := app.ResolveLog(ctx, e, args[0], viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(domain.NewLogView(l))
			})
		},
	}
}

func logRescheduleCmd() *cobra.Command {
	var start, end string
	cmd := &cobra.Command{
		Use:   "reschedule <id|title>",
		Short: "Move the window of an active log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor := viper.GetString("actor-id")
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				startAt, err := parseTime(e.Config, start)
				if err != nil {
					return err
				}
				endAt, err := parseTime(e.Config, end)
				if err != nil {
					return err
				}
				target, err := app.ResolveLog(ctx, e, args[0], actor)
				if err != nil {
					return err
				}
				l, err := e.RescheduleLog(ctx, target.ID, startAt, endAt, actor)
				if err != nil {
					return err
				}
				return printJSONOrTable(domain.NewLogView(l))
			})
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "new window start")
	cmd.Flags().StringVar(&end, "end", "", "new window end")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}
