package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToJSONScalars(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"number", Number(3), "3"},
		{"text", Text("hi"), `"hi"`},
		{"bool", Bool(true), "true"},
		{"null", Null, "null"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToJSON(tt.v)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToJSONList(t *testing.T) {
	l := NewList(Number(1), Text("two"), Bool(false))
	got, err := ToJSON(l)
	require.NoError(t, err)
	assert.Equal(t, `[1,"two",false]`, got)
}

func TestToJSONObject(t *testing.T) {
	o := NewObject()
	o.Set("name", Text("ada"))
	o.Set("active", Bool(true))
	got, err := ToJSON(o)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"ada","active":true}`, got)
}

func TestFromJSONRoundTripsStructure(t *testing.T) {
	v, err := FromJSON(`{"tags":["a","b"],"count":2,"active":null}`)
	require.NoError(t, err)

	obj, ok := v.(*Object)
	require.True(t, ok)

	tags, ok := obj.Get("tags")
	require.True(t, ok)
	list, ok := tags.(*List)
	require.True(t, ok)
	assert.Equal(t, 2, len(list.Elements))
	assert.Equal(t, Text("a"), list.Elements[0])

	count, ok := obj.Get("count")
	require.True(t, ok)
	assert.Equal(t, Number(2), count)

	active, ok := obj.Get("active")
	require.True(t, ok)
	assert.True(t, IsNull(active))
}

func TestFromJSONArray(t *testing.T) {
	v, err := FromJSON(`[1, 2, 3]`)
	require.NoError(t, err)
	list, ok := v.(*List)
	require.True(t, ok)
	assert.Equal(t, []Value{Number(1), Number(2), Number(3)}, list.Elements)
}

func TestFromJSONRejectsGarbage(t *testing.T) {
	_, err := FromJSON(`not json`)
	assert.Error(t, err)
}
