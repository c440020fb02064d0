package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"sprintboard/internal/engine"
	"sprintboard/internal/refresh"
)

func refreshCmd() *cobra.Command {
	var watch bool
	var schedule string
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Recompute activity windows",
		Long:  "Recomputes every active log window against the clock and stores the ones that changed. With --watch it keeps running on the configured cron schedule until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				if !watch {
					res, err := e.RefreshActivities(ctx, viper.GetString("actor-id"))
					if err != nil {
						return err
					}
					return printJSONOrTable(res)
				}
				if schedule == "" {
					schedule = e.Config.Refresh.Schedule
				}
				s, err := refresh.New(schedule, e, e.Logger, refresh.WithAfterRun(func(engine.RefreshResult) {
					if err := e.WriteMetrics(); err != nil {
						e.Logger.Warn("metrics export failed", "error", err)
					}
				}))
				if err != nil {
					return err
				}
				ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
				defer stop()
				if _, err := s.RunOnce(ctx); err != nil {
					return err
				}
				return s.Run(ctx)
			})
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "keep refreshing on a schedule")
	cmd.Flags().StringVar(&schedule, "schedule", "", "cron schedule (defaults to refresh.schedule in board.yml)")
	return cmd
}

func eventsCmd() *cobra.Command {
	evts := &cobra.Command{
		Use:   "events",
		Short: "Board event log",
		Long:  "Every write to the board is appended here: log and task creation, task changes, reschedules and refreshes.",
	}
	evts.AddCommand(eventsTailCmd())
	return evts
}

func eventsTailCmd() *cobra.Command {
	var n int
	var evtType, entityKind, entityID string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				events, err := e.LatestEvents(ctx, n, evtType, entityKind, entityID)
				if err != nil {
					return err
				}
				return printJSONOrTable(events)
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&evtType, "type", "", "event type filter")
	cmd.Flags().StringVar(&entityKind, "entity-kind", "", "entity kind (task, log)")
	cmd.Flags().StringVar(&entityID, "entity-id", "", "entity id")
	return cmd
}
