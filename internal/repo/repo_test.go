package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprintboard/internal/db"
	"sprintboard/internal/domain"
	"sprintboard/internal/repo"
)

var now = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newRepo(t *testing.T) (repo.Repo, context.Context) {
	t.Helper()
	conn, err := db.OpenAndBootstrap(db.Config{Workspace: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	env := domain.NewEnv(nil, func() time.Time { return now }, nil)
	return repo.Repo{DB: conn, Env: env}, context.Background()
}

func insertLog(t *testing.T, r repo.Repo, ctx context.Context, l *domain.Log) {
	t.Helper()
	tx, err := r.DB.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()
	require.NoError(t, r.InsertLogTx(ctx, tx, l, now.Format(time.RFC3339)))
	require.NoError(t, tx.Commit())
}

func TestLogRoundTrip(t *testing.T) {
	r, ctx := newRepo(t)
	start, end := now.Add(time.Hour), now.Add(48*time.Hour)
	sprint, err := r.Env.NewActiveLog("Sprint 1", r.Env.NewActivity(&start, &end))
	require.NoError(t, err)
	backlog, err := r.Env.NewInactiveLog("Backlog")
	require.NoError(t, err)
	insertLog(t, r, ctx, sprint)
	insertLog(t, r, ctx, backlog)

	got, err := r.GetLog(ctx, sprint.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.KindActive, got.Kind())
	assert.Equal(t, "Sprint 1", got.Title)
	require.NotNil(t, got.Activity())
	assert.True(t, start.Equal(*got.Activity().Start()))
	assert.True(t, end.Equal(*got.Activity().End()))

	got, err = r.FindLogByTitle(ctx, "Backlog")
	require.NoError(t, err)
	assert.Equal(t, backlog.ID, got.ID)
	assert.Nil(t, got.Activity())

	logs, err := r.ListLogs(ctx)
	require.NoError(t, err)
	assert.Len(t, logs, 2)

	_, err = r.GetLog(ctx, "missing")
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestTaskRoundTrip(t *testing.T) {
	r, ctx := newRepo(t)
	backlog, err := r.Env.NewInactiveLog("Backlog")
	require.NoError(t, err)
	insertLog(t, r, ctx, backlog)

	task, err := r.Env.NewTask("Write docs", backlog, "alice",
		domain.WithStoryPoint(3), domain.WithPriority(domain.PriorityMedium),
		domain.WithTags(domain.NewTagSet(domain.TagFrontEnd, domain.TagAPI)))
	require.NoError(t, err)
	meta := domain.TaskMeta{CreatedBy: "alice", CreatedAt: "2024-01-01T00:00:00Z", UpdatedAt: "2024-01-01T00:00:00Z"}

	tx, err := r.DB.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, r.InsertTaskTx(ctx, tx, task, meta))
	require.NoError(t, tx.Commit())

	require.NoError(t, task.SetField("modifier", "bob"))
	require.NoError(t, task.SetField("title", "Write better docs"))
	tx, err = r.DB.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, r.UpdateTaskTx(ctx, tx, task, 1, "2024-01-02T00:00:00Z"))
	require.NoError(t, tx.Commit())

	stored, err := r.GetTask(ctx, task.ID())
	require.NoError(t, err)
	got := stored.Task
	assert.Equal(t, "Write better docs", got.Title())
	assert.Equal(t, domain.PriorityMedium, got.Priority())
	assert.Equal(t, "1001", got.Tags().BitVector())
	assert.Equal(t, "bob", got.Modifier())
	sp, ok := got.StoryPoint()
	require.True(t, ok)
	assert.Equal(t, 3.0, sp)
	assert.Equal(t, task.History(), got.History())
	assert.Equal(t, "2024-01-02T00:00:00Z", stored.Meta.UpdatedAt)

	list, err := r.ListTasks(ctx, repo.TaskFilter{LogID: backlog.ID})
	require.NoError(t, err)
	require.Len(t, list, 1)

	list, err = r.ListTasks(ctx, repo.TaskFilter{Status: "complete"})
	require.NoError(t, err)
	assert.Empty(t, list)

	tx, err = r.DB.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, r.DeleteTaskTx(ctx, tx, task.ID()))
	require.NoError(t, tx.Commit())
	_, err = r.GetTask(ctx, task.ID())
	assert.ErrorIs(t, err, repo.ErrNotFound)

	history, err := r.ListHistory(ctx, task.ID())
	require.NoError(t, err)
	assert.Empty(t, history)
}
