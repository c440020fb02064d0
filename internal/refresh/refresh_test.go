package refresh_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprintboard/internal/config"
	"sprintboard/internal/db"
	"sprintboard/internal/engine"
	"sprintboard/internal/logging"
	"sprintboard/internal/refresh"
)

type fakeRunner struct {
	mu     sync.Mutex
	calls  int
	actors []string
	err    error
}

func (f *fakeRunner) RefreshActivities(ctx context.Context, actorID string) (engine.RefreshResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.actors = append(f.actors, actorID)
	return engine.RefreshResult{Checked: 1, Changed: []string{"log-1"}}, f.err
}

func (f *fakeRunner) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestNewRejectsBadSchedule(t *testing.T) {
	_, err := refresh.New("whenever", &fakeRunner{}, logging.Discard())
	assert.ErrorIs(t, err, refresh.ErrInvalidSchedule)
}

func TestRunOnce(t *testing.T) {
	runner := &fakeRunner{}
	var seen []engine.RefreshResult
	s, err := refresh.New("@every 1m", runner, logging.Discard(), refresh.WithAfterRun(func(res engine.RefreshResult) {
		seen = append(seen, res)
	}))
	require.NoError(t, err)

	res, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"log-1"}, res.Changed)
	assert.Equal(t, []string{refresh.Actor}, runner.actors)
	assert.Len(t, seen, 1)
	assert.EqualValues(t, 1, s.Runs())
}

func TestRunOnceError(t *testing.T) {
	runner := &fakeRunner{err: errors.New("db down")}
	called := false
	s, err := refresh.New("@every 1m", runner, logging.Discard(), refresh.WithAfterRun(func(engine.RefreshResult) { called = true }))
	require.NoError(t, err)

	_, err = s.RunOnce(context.Background())
	assert.Error(t, err)
	assert.False(t, called)
}

func TestRunUntilCancelled(t *testing.T) {
	runner := &fakeRunner{}
	s, err := refresh.New("@every 1s", runner, logging.Discard())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return runner.Calls() > 0 }, 5*time.Second, 50*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestRunOnceAgainstEngine(t *testing.T) {
	conn, err := db.OpenAndBootstrap(db.Config{Workspace: t.TempDir()})
	require.NoError(t, err)
	defer conn.Close()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	eng := engine.New(conn, config.Default(), engine.WithLogger(logging.Discard()))
	eng.Now = func() time.Time { return now }
	ctx := context.Background()

	start, end := now.Add(time.Hour), now.Add(2*time.Hour)
	sprint, err := eng.CreateActiveLog(ctx, "Sprint", &start, &end, "tester")
	require.NoError(t, err)

	s, err := refresh.New("@every 1m", eng, logging.Discard())
	require.NoError(t, err)
	now = now.Add(3 * time.Hour)
	res, err := s.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{sprint.ID}, res.Changed)

	evts, err := eng.LatestEvents(ctx, 5, "activity.refreshed", "", "")
	require.NoError(t, err)
	require.Len(t, evts, 1)
	assert.Equal(t, refresh.Actor, evts[0].ActorID)
}
