package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sprintboard/internal/domain"
	"sprintboard/internal/signal"
)

var t0 = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time          { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newEnv() (*domain.Env, *clock) {
	clk := &clock{now: t0}
	return domain.NewEnv(signal.NewRegistry(), clk.Now, nil), clk
}

func at(d time.Duration) *time.Time {
	t := t0.Add(d)
	return &t
}

// openLog returns an active log whose window has been recomputed to open.
// It moves the clock past the window's end.
func openLog(t *testing.T, env *domain.Env, clk *clock, title string) *domain.Log {
	t.Helper()
	act := env.NewActivity(at(time.Hour), at(2*time.Hour))
	l, err := env.NewActiveLog(title, act)
	require.NoError(t, err)
	clk.now = t0.Add(3 * time.Hour)
	act.RecomputeStatus()
	require.True(t, l.IsActive())
	return l
}
