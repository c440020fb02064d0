package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprintboard/internal/domain"
)

func TestActiveLogAllocatesFreshActivity(t *testing.T) {
	env, _ := newEnv()
	a, err := env.NewActiveLog("Sprint 1", nil)
	require.NoError(t, err)
	b, err := env.NewActiveLog("Sprint 2", nil)
	require.NoError(t, err)

	require.NotNil(t, a.Activity())
	require.NotNil(t, b.Activity())
	assert.NotSame(t, a.Activity(), b.Activity())
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, domain.KindActive, a.Kind())
}

func TestActiveLogRejectsSharedActivity(t *testing.T) {
	env, _ := newEnv()
	act := env.NewActivity(nil, nil)
	_, err := env.NewActiveLog("Sprint 1", act)
	require.NoError(t, err)
	_, err = env.NewActiveLog("Sprint 2", act)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestLogRequiresTitle(t *testing.T) {
	env, _ := newEnv()
	_, err := env.NewActiveLog("", nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = env.NewInactiveLog("")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestInactiveLog(t *testing.T) {
	env, clk := newEnv()
	l, err := env.NewInactiveLog("Backlog")
	require.NoError(t, err)
	assert.Equal(t, domain.KindInactive, l.Kind())
	assert.Nil(t, l.Activity())
	for i := 0; i < 3; i++ {
		assert.False(t, l.IsActive())
		assert.False(t, l.IsImmutable())
		clk.Advance(1000 * time.Hour)
	}
}

func TestActiveLogImmutability(t *testing.T) {
	env, clk := newEnv()
	l, err := env.NewActiveLog("Sprint 1", env.NewActivity(at(time.Hour), at(2*time.Hour)))
	require.NoError(t, err)
	assert.False(t, l.IsImmutable())

	clk.now = t0.Add(2 * time.Hour)
	assert.False(t, l.IsImmutable(), "end reached but not passed")

	clk.Advance(time.Second)
	assert.True(t, l.IsImmutable())
	assert.False(t, l.IsActive(), "window not recomputed yet")

	l.Activity().RecomputeStatus()
	assert.True(t, l.IsActive())
}

func TestActiveLogWithoutEndIsNeverImmutable(t *testing.T) {
	env, clk := newEnv()
	l, err := env.NewActiveLog("Sprint 1", nil)
	require.NoError(t, err)
	clk.Advance(1000 * time.Hour)
	assert.False(t, l.IsImmutable())
}

func TestRestoreLog(t *testing.T) {
	env, _ := newEnv()
	l, err := env.RestoreLog("log-1", "Backlog", domain.KindInactive, nil)
	require.NoError(t, err)
	assert.Equal(t, "log-1", l.ID)

	_, err = env.RestoreLog("log-2", "Odd", domain.LogKind("Archived"), nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestLogChangeDates(t *testing.T) {
	env, _ := newEnv()
	backlog, err := env.NewInactiveLog("Backlog")
	require.NoError(t, err)
	assert.ErrorIs(t, backlog.ChangeDates(t0.Add(time.Hour), t0.Add(2*time.Hour)), domain.ErrInvalidState)

	sprint, err := env.NewActiveLog("Sprint", nil)
	require.NoError(t, err)
	require.NoError(t, sprint.ChangeDates(t0.Add(time.Hour), t0.Add(2*time.Hour)))
	assert.Equal(t, t0.Add(2*time.Hour), *sprint.Activity().End())
}
