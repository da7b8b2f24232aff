package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileLiteralEscapesMetacharacters(t *testing.T) {
	p, err := Compile("a.b", true)
	require.NoError(t, err)

	assert.True(t, p.Matches("a.b"))
	assert.False(t, p.Matches("axb"))
}

func TestCompileRegexUsesMetacharacters(t *testing.T) {
	p, err := Compile("a.b", false)
	require.NoError(t, err)

	assert.True(t, p.Matches("a.b"))
	assert.True(t, p.Matches("axb"))
}

func TestCompileRejectsInvalidRegex(t *testing.T) {
	_, err := Compile("(unclosed", false)
	assert.Error(t, err)
}

func TestFindReturnsOffsetAndCaptures(t *testing.T) {
	p, err := Compile(`(\d+)-(\d+)`, false)
	require.NoError(t, err)

	m, ok := p.Find("order 12-34 placed")
	require.True(t, ok)
	assert.Equal(t, "12-34", m.Match)
	assert.Equal(t, 6, m.Index)
	assert.Equal(t, "12", m.Captures["1"])
	assert.Equal(t, "34", m.Captures["2"])
}

func TestFindNoMatch(t *testing.T) {
	p, err := Compile(`\d+`, false)
	require.NoError(t, err)

	_, ok := p.Find("no digits here")
	assert.False(t, ok)
}

func TestFindAllReturnsEveryMatch(t *testing.T) {
	p, err := Compile(`\d+`, false)
	require.NoError(t, err)

	matches := p.FindAll("a1 b22 c333")
	require.Len(t, matches, 3)
	assert.Equal(t, "1", matches[0].Match)
	assert.Equal(t, "22", matches[1].Match)
	assert.Equal(t, "333", matches[2].Match)
}

func TestSplitOnPattern(t *testing.T) {
	p, err := Compile(`,\s*`, false)
	require.NoError(t, err)

	parts := p.Split("a, b,c")
	assert.Equal(t, []string{"a", "b", "c"}, parts)
}

func TestNamedCapturesAreAlsoKeyedByName(t *testing.T) {
	p, err := Compile(`(?P<year>\d{4})-(?P<month>\d{2})`, false)
	require.NoError(t, err)

	m, ok := p.Find("2024-03")
	require.True(t, ok)
	assert.Equal(t, "2024", m.Captures["year"])
	assert.Equal(t, "2024", m.Captures["1"])
	assert.Equal(t, "03", m.Captures["month"])
}

func TestSourcePreservesOriginalText(t *testing.T) {
	p, err := Compile("a.b", true)
	require.NoError(t, err)
	assert.Equal(t, "a.b", p.Source())
}
