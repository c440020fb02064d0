package signal_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprintboard/internal/signal"
)

var errKind = errors.New("kind")

func TestRaiseDeduplicatesByMessage(t *testing.T) {
	reg := signal.NewRegistry()
	a := reg.Raise(errKind, "X")
	b := reg.Raise(errKind, "X")
	c := reg.Raise(errKind, "Y")

	require.Same(t, a, b)
	assert.Equal(t, a.ID, b.ID)
	assert.NotEqual(t, a.ID, c.ID)
	assert.Equal(t, 2, reg.Len())
}

func TestRaiseKeepsFirstKind(t *testing.T) {
	reg := signal.NewRegistry()
	other := errors.New("other")
	first := reg.Raise(errKind, "boom")
	second := reg.Raise(other, "boom")

	require.Same(t, first, second)
	assert.ErrorIs(t, second, errKind)
	assert.NotErrorIs(t, second, other)
}

func TestErrorFormat(t *testing.T) {
	reg := signal.NewRegistry()
	s := reg.Raisef(errKind, "field %s missing", "title")
	assert.Equal(t, fmt.Sprintf("Error %s: field title missing", s.ID), s.Error())
}

func TestLookup(t *testing.T) {
	reg := signal.NewRegistry()
	s := reg.Raise(errKind, "lookup me")

	got, ok := reg.Lookup(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)

	got, ok = reg.ByMessage("lookup me")
	require.True(t, ok)
	assert.Same(t, s, got)

	_, ok = reg.ByMessage("never raised")
	assert.False(t, ok)
}

func TestRaiseConcurrent(t *testing.T) {
	reg := signal.NewRegistry()
	const workers = 32
	got := make([]*signal.Signal, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = reg.Raise(errKind, "shared")
			reg.Raisef(errKind, "own %d", i)
		}(i)
	}
	wg.Wait()

	for _, s := range got[1:] {
		assert.Same(t, got[0], s)
	}
	assert.Equal(t, workers+1, reg.Len())
}
