package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprintboard/internal/domain"
)

func TestStatusParsing(t *testing.T) {
	for _, s := range []domain.Status{domain.StatusNotStarted, domain.StatusPlanning, domain.StatusIntegration, domain.StatusDevelopment, domain.StatusTesting, domain.StatusComplete} {
		byKey, err := domain.ParseStatus(s.Key())
		require.NoError(t, err)
		byLabel, err := domain.ParseStatus(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, byKey)
		assert.Equal(t, s, byLabel)
	}
	_, err := domain.ParseStatus("done")
	assert.Error(t, err)
	assert.Equal(t, "In-progress: Testing", domain.StatusTesting.String())
	assert.True(t, domain.StatusTesting.InProgress())
	assert.True(t, domain.StatusNotStarted < domain.StatusComplete)
}

func TestPriorityParsing(t *testing.T) {
	p, err := domain.ParsePriority("important")
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityImportant, p)
	assert.Equal(t, "Important", p.String())
	_, err = domain.ParsePriority("critical")
	assert.Error(t, err)
}

func TestTagSetBitVector(t *testing.T) {
	set := domain.NewTagSet(domain.TagFrontEnd, domain.TagUIUX)
	assert.Equal(t, "1010", set.BitVector())
	assert.Equal(t, "Front-end, UI/UX", set.String())

	parsed, err := domain.ParseBitVector("0101")
	require.NoError(t, err)
	assert.Equal(t, domain.NewTagSet(domain.TagBackEnd, domain.TagAPI), parsed)

	for _, bad := range []string{"", "101", "10101", "10a0"} {
		_, err := domain.ParseBitVector(bad)
		assert.Error(t, err, bad)
	}

	list, err := domain.ParseTagList("api, UI/UX,frontend")
	require.NoError(t, err)
	assert.Equal(t, "1011", list.BitVector())
}

func TestParseField(t *testing.T) {
	for _, f := range domain.Fields() {
		got, ok := domain.ParseField(f.String())
		require.True(t, ok)
		assert.Equal(t, f, got)
	}
	_, ok := domain.ParseField("StoryPoint")
	assert.False(t, ok)
	assert.Len(t, domain.Fields(), 9)
}
