// Package refresh keeps stored activity windows in step with the clock.
//
// A Scheduler runs the refresh sweep on a cron schedule until its context
// is cancelled:
//
//	s, err := refresh.New("@every 1m", eng, logger)
//	if err != nil {
//		return err
//	}
//	return s.Run(ctx)
package refresh

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/robfig/cron/v3"

	"sprintboard/internal/engine"
)

// ErrInvalidSchedule is returned when the schedule cannot be parsed.
var ErrInvalidSchedule = errors.New("invalid refresh schedule")

// Actor is recorded on the events written by scheduled sweeps.
const Actor = "refresh"

// Runner performs one sweep.
type Runner interface {
	RefreshActivities(ctx context.Context, actorID string) (engine.RefreshResult, error)
}

type Scheduler struct {
	spec     string
	schedule cron.Schedule
	runner   Runner
	logger   *slog.Logger
	after    func(engine.RefreshResult)
	runs     atomic.Int64
}

type Option func(*Scheduler)

// WithAfterRun registers fn to be called after every successful sweep.
func WithAfterRun(fn func(engine.RefreshResult)) Option {
	return func(s *Scheduler) { s.after = fn }
}

func New(spec string, runner Runner, logger *slog.Logger, opts ...Option) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, errors.Join(ErrInvalidSchedule, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{spec: spec, schedule: schedule, runner: runner, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// RunOnce performs a single sweep.
func (s *Scheduler) RunOnce(ctx context.Context) (engine.RefreshResult, error) {
	res, err := s.runner.RefreshActivities(ctx, Actor)
	s.runs.Add(1)
	if err != nil {
		s.logger.Error("activity refresh failed", "error", err)
		return res, err
	}
	if len(res.Changed) > 0 {
		s.logger.Info("activity windows changed", "checked", res.Checked, "changed", res.Changed)
	}
	if s.after != nil {
		s.after(res)
	}
	return res, nil
}

// Runs reports how many sweeps have been attempted.
func (s *Scheduler) Runs() int64 {
	return s.runs.Load()
}

// Run blocks, sweeping on schedule, until ctx is cancelled. Overlapping
// sweeps are skipped.
func (s *Scheduler) Run(ctx context.Context) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{s.logger})))
	c.Schedule(s.schedule, cron.FuncJob(func() {
		_, _ = s.RunOnce(ctx)
	}))
	s.logger.Info("refresh scheduler started", "schedule", s.spec)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info("refresh scheduler stopped")
	return nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct{ l *slog.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error(msg, append(keysAndValues, "error", err)...)
}
