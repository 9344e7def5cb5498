package framework

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeID(path ...string) TestID {
	return TestID{Path: path}
}

func TestRegexFiltersWithNoPatternsMatchEverything(t *testing.T) {
	var filters RegexFilters
	assert.True(t, filters.AsFilter(makeID("add", "basic")))
}

func TestRegexFiltersMustMatch(t *testing.T) {
	var filters RegexFilters
	require.NoError(t, filters.MustMatch.Set("^add/"))
	require.NoError(t, filters.MustMatch.Set("crash"))

	assert.True(t, filters.AsFilter(makeID("add", "basic")))
	assert.True(t, filters.AsFilter(makeID("mul", "crashes")))
	assert.False(t, filters.AsFilter(makeID("mul", "basic")))
}

func TestRegexFiltersMustNotMatchWins(t *testing.T) {
	var filters RegexFilters
	require.NoError(t, filters.MustMatch.Set("^add/"))
	require.NoError(t, filters.MustNotMatch.Set("bad-input"))

	assert.True(t, filters.AsFilter(makeID("add", "basic")))
	assert.False(t, filters.AsFilter(makeID("add", "bad-input")))
}

func TestRegexListRejectsInvalidPattern(t *testing.T) {
	var list RegexList
	assert.Error(t, list.Set("("))
	assert.False(t, list.IsDefined())
}

func TestPrintFilterDescription(t *testing.T) {
	var filters RegexFilters
	var buf bytes.Buffer
	PrintFilterDescription(&buf, filters)
	assert.Empty(t, buf.String())

	require.NoError(t, filters.MustNotMatch.Set("slow"))
	PrintFilterDescription(&buf, filters)
	assert.Contains(t, buf.String(), `skip any matching "slow"`)
}
