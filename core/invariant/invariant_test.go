package invariant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotNilPassesOnNonNil(t *testing.T) {
	assert.NotPanics(t, func() { NotNil("x", "name") })
}

func TestNotNilPanicsOnNilInterface(t *testing.T) {
	assert.Panics(t, func() { NotNil(nil, "arg") })
}

func TestPreconditionPassesWhenTrue(t *testing.T) {
	assert.NotPanics(t, func() { Precondition(true, "should hold") })
}

func TestPreconditionPanicsWhenFalse(t *testing.T) {
	assert.PanicsWithValue(t, "precondition failed: value was 3", func() {
		Precondition(false, "value was %d", 3)
	})
}

func TestPostconditionPanicsWhenFalse(t *testing.T) {
	assert.PanicsWithValue(t, "postcondition failed: empty", func() {
		Postcondition(false, "empty")
	})
}

func TestInvariantPanicsWhenFalse(t *testing.T) {
	assert.PanicsWithValue(t, "invariant violated: unreachable", func() {
		Invariant(false, "unreachable")
	})
}
