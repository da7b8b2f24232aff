package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"equal numbers", Number(1), Number(1), true},
		{"numbers within epsilon", Number(1), Number(1 + epsilon/2), true},
		{"different numbers", Number(1), Number(2), false},
		{"equal text", Text("a"), Text("a"), true},
		{"different text", Text("a"), Text("b"), false},
		{"equal bool", Bool(true), Bool(true), true},
		{"different bool", Bool(true), Bool(false), false},
		{"null equals null", Null, Null, true},
		{"null does not equal text", Null, Text(""), false},
		{"mismatched types", Number(1), Text("1"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
		})
	}
}

func TestLess(t *testing.T) {
	lt, ok := Less(Number(1), Number(2))
	assert.True(t, ok)
	assert.True(t, lt)

	lt, ok = Less(Text("a"), Text("b"))
	assert.True(t, ok)
	assert.True(t, lt)

	_, ok = Less(Bool(true), Bool(false))
	assert.False(t, ok)

	_, ok = Less(Number(1), Text("1"))
	assert.False(t, ok)
}

func TestContainsList(t *testing.T) {
	l := NewList(Number(1), Number(2), Number(3))
	has, ok := Contains(l, Number(2))
	assert.True(t, ok)
	assert.True(t, has)

	has, ok = Contains(l, Number(9))
	assert.True(t, ok)
	assert.False(t, has)
}

func TestContainsObjectKey(t *testing.T) {
	o := NewObject()
	o.Set("name", Text("ada"))
	has, ok := Contains(o, Text("name"))
	assert.True(t, ok)
	assert.True(t, has)

	has, ok = Contains(o, Text("missing"))
	assert.True(t, ok)
	assert.False(t, has)

	_, ok = Contains(o, Number(1))
	assert.False(t, ok)
}

func TestContainsTextSubstring(t *testing.T) {
	has, ok := Contains(Text("hello world"), Text("world"))
	assert.True(t, ok)
	assert.True(t, has)

	has, ok = Contains(Text("hello"), Text(""))
	assert.True(t, ok)
	assert.True(t, has)

	has, ok = Contains(Text("hello"), Text("bye"))
	assert.True(t, ok)
	assert.False(t, has)
}
