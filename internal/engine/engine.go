package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"sprintboard/internal/config"
	"sprintboard/internal/domain"
	"sprintboard/internal/events"
	"sprintboard/internal/metrics"
	"sprintboard/internal/repo"
	"sprintboard/internal/signal"
)

type Engine struct {
	DB      *sql.DB
	Repo    repo.Repo
	Events  events.Writer
	Config  *config.Config
	Env     *domain.Env
	Metrics *metrics.Recorder
	Logger  *slog.Logger
	Now     func() time.Time

	locks *keyedMutex
}

type Option func(*Engine)

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.Logger = l
		e.Env.Logger = l
	}
}

// WithSignals shares a signal registry across engines.
func WithSignals(reg *signal.Registry) Option {
	return func(e *Engine) {
		e.Env.Signals = reg
		e.Metrics = metrics.NewRecorder(reg)
	}
}

func New(db *sql.DB, cfg *config.Config, opts ...Option) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	e := &Engine{
		DB:     db,
		Config: cfg,
		Logger: slog.Default(),
		Now:    time.Now,
		locks:  newKeyedMutex(),
	}
	e.Env = domain.NewEnv(signal.NewRegistry(), e.now, e.Logger)
	e.Metrics = metrics.NewRecorder(e.Env.Signals)
	for _, opt := range opts {
		opt(e)
	}
	e.Repo = repo.Repo{DB: db, Env: e.Env}
	e.Events = events.Writer{Now: e.now}
	return e
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Engine) stamp() string {
	return e.now().UTC().Format(time.RFC3339)
}

// observe recomputes the window of an active log before it is used.
func observe(l *domain.Log) *domain.Log {
	if a := l.Activity(); a != nil {
		a.RecomputeStatus()
	}
	return l
}

// CreateActiveLog creates a log around a new activity window.
func (e *Engine) CreateActiveLog(ctx context.Context, title string, start, end *time.Time, actorID string) (*domain.Log, error) {
	l, err := e.Env.NewActiveLog(title, e.Env.NewActivity(start, end))
	if err != nil {
		return nil, err
	}
	return l, e.insertLog(ctx, l, actorID)
}

func (e *Engine) CreateInactiveLog(ctx context.Context, title, actorID string) (*domain.Log, error) {
	l, err := e.Env.NewInactiveLog(title)
	if err != nil {
		return nil, err
	}
	return l, e.insertLog(ctx, l, actorID)
}

func (e *Engine) insertLog(ctx context.Context, l *domain.Log, actorID string) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertLogTx(ctx, tx, l, e.stamp()); err != nil {
		return err
	}
	payload := events.EventPayload{"title": l.Title, "kind": string(l.Kind())}
	if view := domain.NewActivityView(l.Activity()); view != nil {
		payload["start"] = view.Start
		payload["end"] = view.End
	}
	if err := e.Events.Append(ctx, tx, events.LogCreated, "log", l.ID, actorID, payload); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	e.Logger.Info("log created", "log_id", l.ID, "title", l.Title, "kind", l.Kind())
	return nil
}

func (e *Engine) GetLog(ctx context.Context, id string) (*domain.Log, error) {
	l, err := e.Repo.GetLog(ctx, id)
	if err != nil {
		return nil, err
	}
	return observe(l), nil
}

func (e *Engine) ListLogs(ctx context.Context) ([]*domain.Log, error) {
	logs, err := e.Repo.ListLogs(ctx)
	if err != nil {
		return nil, err
	}
	for _, l := range logs {
		observe(l)
	}
	return logs, nil
}

// RescheduleLog moves the window of an active log.
func (e *Engine) RescheduleLog(ctx context.Context, id string, start, end time.Time, actorID string) (*domain.Log, error) {
	unlock := e.locks.Lock("log:" + id)
	defer unlock()
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	l, err := e.Repo.GetLogTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	observe(l)
	if err := l.ChangeDates(start, end); err != nil {
		e.Logger.Info("reschedule rejected", "log_id", id, "error", err)
		return nil, err
	}
	if err := e.Repo.UpdateActivityTx(ctx, tx, l.ID, l.Activity(), e.stamp()); err != nil {
		return nil, err
	}
	view := domain.NewActivityView(l.Activity())
	if err := e.Events.Append(ctx, tx, events.LogRescheduled, "log", l.ID, actorID, events.EventPayload{"start": view.Start, "end": view.End}); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return l, nil
}

// TaskCreateOptions are parameters for creating a task.
type TaskCreateOptions struct {
	LogID       string
	Title       string
	Description string
	StoryPoint  *float64
	Priority    domain.Priority
	Status      domain.Status
	Tags        domain.TagSet
	ActorID     string
}

func (e *Engine) CreateTask(ctx context.Context, opts TaskCreateOptions) (repo.StoredTask, error) {
	if opts.ActorID == "" {
		return repo.StoredTask{}, errors.New("actor is required")
	}
	if opts.LogID == "" {
		return repo.StoredTask{}, errors.New("log is required")
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return repo.StoredTask{}, err
	}
	defer tx.Rollback()
	l, err := e.Repo.GetLogTx(ctx, tx, opts.LogID)
	if err != nil {
		return repo.StoredTask{}, fmt.Errorf("log %s: %w", opts.LogID, err)
	}
	taskOpts := []domain.TaskOption{
		domain.WithDescription(opts.Description),
		domain.WithPriority(opts.Priority),
		domain.WithStatus(opts.Status),
		domain.WithTags(opts.Tags),
	}
	if opts.StoryPoint != nil {
		taskOpts = append(taskOpts, domain.WithStoryPoint(*opts.StoryPoint))
	}
	t, err := e.Env.NewTask(opts.Title, observe(l), opts.ActorID, taskOpts...)
	if err != nil {
		return repo.StoredTask{}, err
	}
	now := e.stamp()
	meta := domain.TaskMeta{CreatedBy: opts.ActorID, CreatedAt: now, UpdatedAt: now}
	if err := e.Repo.InsertTaskTx(ctx, tx, t, meta); err != nil {
		return repo.StoredTask{}, err
	}
	if err := e.Events.Append(ctx, tx, events.TaskCreated, "task", t.ID(), opts.ActorID, events.EventPayload{"title": t.Title(), "log_id": l.ID}); err != nil {
		return repo.StoredTask{}, err
	}
	if err := tx.Commit(); err != nil {
		return repo.StoredTask{}, err
	}
	e.Logger.Info("task created", "task_id", t.ID(), "log_id", l.ID, "actor", opts.ActorID)
	return repo.StoredTask{Task: t, Meta: meta}, nil
}

func (e *Engine) GetTask(ctx context.Context, id string) (repo.StoredTask, error) {
	st, err := e.Repo.GetTask(ctx, id)
	if err != nil {
		return repo.StoredTask{}, err
	}
	observe(st.Task.Location())
	return st, nil
}

func (e *Engine) ListTasks(ctx context.Context, f repo.TaskFilter) ([]repo.StoredTask, error) {
	tasks, err := e.Repo.ListTasks(ctx, f)
	if err != nil {
		return nil, err
	}
	seen := map[*domain.Log]bool{}
	for _, st := range tasks {
		if l := st.Task.Location(); !seen[l] {
			seen[l] = true
			observe(l)
		}
	}
	return tasks, nil
}

// History returns the audit trail of a task, oldest first.
func (e *Engine) History(ctx context.Context, taskID string) ([]string, error) {
	if _, err := e.Repo.GetTask(ctx, taskID); err != nil {
		return nil, err
	}
	return e.Repo.ListHistory(ctx, taskID)
}

// SetField sets the modifier to actorID and then applies key=value to the
// stored task. Calls for one task run one at a time.
func (e *Engine) SetField(ctx context.Context, taskID, actorID, key string, value any) (repo.StoredTask, error) {
	return e.mutate(ctx, taskID, actorID, key, func(context.Context, *sql.Tx) (any, error) {
		return value, nil
	})
}

// SetFieldRaw is SetField for text input; see ParseValue.
func (e *Engine) SetFieldRaw(ctx context.Context, taskID, actorID, key, raw string) (repo.StoredTask, error) {
	return e.mutate(ctx, taskID, actorID, key, func(ctx context.Context, tx *sql.Tx) (any, error) {
		return e.ParseValue(ctx, tx, key, raw)
	})
}

func (e *Engine) mutate(ctx context.Context, taskID, actorID, key string, resolve func(context.Context, *sql.Tx) (any, error)) (repo.StoredTask, error) {
	if actorID == "" {
		return repo.StoredTask{}, errors.New("actor is required")
	}
	unlock := e.locks.Lock("task:" + taskID)
	defer unlock()

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return repo.StoredTask{}, err
	}
	defer tx.Rollback()
	st, err := e.Repo.GetTaskTx(ctx, tx, taskID)
	if err != nil {
		return repo.StoredTask{}, err
	}
	t := st.Task
	observe(t.Location())
	value, err := resolve(ctx, tx)
	if err != nil {
		return repo.StoredTask{}, err
	}
	known := len(t.History())
	if err := t.SetField("modifier", actorID); err != nil {
		return repo.StoredTask{}, err
	}
	if err := t.SetField(key, value); err != nil {
		e.Metrics.ObserveRejection(key, kindLabel(err))
		e.Logger.Info("task mutation rejected", "task_id", taskID, "field", key, "actor", actorID, "error", err)
		return repo.StoredTask{}, err
	}
	history := t.History()
	outcome := metrics.Noop
	if len(history) > known {
		outcome = metrics.Accepted
		st.Meta.UpdatedAt = e.stamp()
	}
	if err := e.Repo.UpdateTaskTx(ctx, tx, t, known, st.Meta.UpdatedAt); err != nil {
		return repo.StoredTask{}, err
	}
	if outcome == metrics.Accepted {
		if err := e.Events.Append(ctx, tx, events.TaskUpdated, "task", t.ID(), actorID, events.EventPayload{"field": key, "entry": history[len(history)-1]}); err != nil {
			return repo.StoredTask{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return repo.StoredTask{}, err
	}
	e.Metrics.ObserveMutation(key, outcome)
	e.Logger.Debug("task mutation applied", "task_id", taskID, "field", key, "actor", actorID, "outcome", outcome)
	return st, nil
}

func (e *Engine) DeleteTask(ctx context.Context, taskID, actorID string) error {
	unlock := e.locks.Lock("task:" + taskID)
	defer unlock()
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.DeleteTaskTx(ctx, tx, taskID); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, events.TaskDeleted, "task", taskID, actorID, nil); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	e.Logger.Info("task deleted", "task_id", taskID, "actor", actorID)
	return nil
}

// RefreshResult summarises a refresh sweep.
type RefreshResult struct {
	Checked int      `json:"checked"`
	Changed []string `json:"changed"`
}

// RefreshActivities recomputes every active log window and stores the ones
// whose state moved.
func (e *Engine) RefreshActivities(ctx context.Context, actorID string) (RefreshResult, error) {
	var res RefreshResult
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return res, err
	}
	defer tx.Rollback()
	logs, err := e.Repo.ListLogsTx(ctx, tx, domain.KindActive)
	if err != nil {
		return res, err
	}
	now := e.stamp()
	for _, l := range logs {
		a := l.Activity()
		before := *domain.NewActivityView(a)
		a.RecomputeStatus()
		after := *domain.NewActivityView(a)
		res.Checked++
		if sameWindow(before, after) {
			continue
		}
		if err := e.Repo.UpdateActivityTx(ctx, tx, l.ID, a, now); err != nil {
			return res, err
		}
		if err := e.Events.Append(ctx, tx, events.ActivityRefreshed, "log", l.ID, actorID, events.EventPayload{"open": after.Open, "start": after.Start}); err != nil {
			return res, err
		}
		res.Changed = append(res.Changed, l.ID)
	}
	if err := tx.Commit(); err != nil {
		return res, err
	}
	e.Metrics.ObserveRefresh(len(res.Changed))
	e.Logger.Debug("activity refresh", "checked", res.Checked, "changed", len(res.Changed))
	return res, nil
}

// LatestEvents returns the newest board events first.
func (e *Engine) LatestEvents(ctx context.Context, limit int, evtType, entityKind, entityID string) ([]domain.Event, error) {
	return e.Repo.LatestEvents(ctx, limit, evtType, entityKind, entityID)
}

// WriteMetrics exports the collectors to the configured textfile.
func (e *Engine) WriteMetrics() error {
	return e.Metrics.WriteTextfile(e.Config.Metrics.Textfile)
}

func sameWindow(a, b domain.ActivityView) bool {
	return a.Open == b.Open && equalPtr(a.Start, b.Start) && equalPtr(a.End, b.End)
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func kindLabel(err error) string {
	kind := domain.KindOf(err)
	if kind == nil {
		return "other"
	}
	return strings.ReplaceAll(kind.Error(), " ", "_")
}
