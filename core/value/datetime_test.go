package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateDisplayRoundTrip(t *testing.T) {
	d := Date{Y: 2024, M: 3, D: 9}
	assert.Equal(t, "2024-03-09", d.Display())

	parsed, err := ParseDate(d.Display())
	require.NoError(t, err)
	assert.Equal(t, d, parsed)
}

func TestParseDateRejectsGarbage(t *testing.T) {
	_, err := ParseDate("not-a-date")
	assert.Error(t, err)
}

func TestTimeDisplayRoundTrip(t *testing.T) {
	tm := Time{H: 9, Min: 5, Sec: 3}
	assert.Equal(t, "09:05:03", tm.Display())

	parsed, err := ParseTime(tm.Display())
	require.NoError(t, err)
	assert.Equal(t, tm, parsed)
}

func TestParseTimeRejectsGarbage(t *testing.T) {
	_, err := ParseTime("noon")
	assert.Error(t, err)
}

func TestDateAndTimeAlwaysTruthy(t *testing.T) {
	assert.True(t, Date{}.Truthy())
	assert.True(t, Time{}.Truthy())
}
