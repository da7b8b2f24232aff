package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNumberDisplay(t *testing.T) {
	tests := []struct {
		name string
		n    Number
		want string
	}{
		{"integral", Number(42), "42"},
		{"negative integral", Number(-7), "-7"},
		{"fractional", Number(3.5), "3.5"},
		{"zero", Number(0), "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.n.Display())
		})
	}
}

func TestNumberTruthy(t *testing.T) {
	assert.True(t, Number(1).Truthy())
	assert.False(t, Number(0).Truthy())
}

func TestTextTruthy(t *testing.T) {
	assert.True(t, Text("x").Truthy())
	assert.False(t, Text("").Truthy())
}

func TestNullSingleton(t *testing.T) {
	assert.True(t, IsNull(Null))
	assert.False(t, IsNull(Text("")))
	assert.Equal(t, "nothing", Null.Display())
	assert.False(t, Null.Truthy())
}

func TestListDisplay(t *testing.T) {
	l := NewList(Number(1), Text("two"), Bool(true))
	assert.Equal(t, `[1, two, true]`, l.Display())
}

func TestListReferenceSemantics(t *testing.T) {
	l := NewList(Number(1))
	alias := l
	alias.Elements = append(alias.Elements, Number(2))
	assert.Equal(t, 2, len(l.Elements))
}

func TestObjectPreservesInsertionOrder(t *testing.T) {
	o := NewObject()
	o.Set("z", Number(1))
	o.Set("a", Number(2))
	o.Set("m", Number(3))
	assert.Equal(t, []string{"z", "a", "m"}, o.Keys())
}

func TestObjectDeleteRemovesFromOrder(t *testing.T) {
	o := NewObject()
	o.Set("a", Number(1))
	o.Set("b", Number(2))
	o.Delete("a")
	_, ok := o.Get("a")
	assert.False(t, ok)
	assert.Equal(t, []string{"b"}, o.Keys())
}

func TestSortedKeysDoesNotMutateInsertionOrder(t *testing.T) {
	o := NewObject()
	o.Set("z", Number(1))
	o.Set("a", Number(2))
	assert.Equal(t, []string{"a", "z"}, SortedKeys(o))
	assert.Equal(t, []string{"z", "a"}, o.Keys())
}
