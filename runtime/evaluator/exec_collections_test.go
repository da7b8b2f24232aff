package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfl-lang/wflcore/core/ast"
	"github.com/wfl-lang/wflcore/core/value"
)

func newTestInterp() *Interp {
	i := New(nil, nil, nil)
	i.WithTimeout(0)
	return i
}

func numLit(n float64) *ast.Literal  { return &ast.Literal{Kind: ast.LitFloat, Float: n} }
func strLit(s string) *ast.Literal   { return &ast.Literal{Kind: ast.LitString, Str: s} }
func ident(name string) *ast.Identifier { return &ast.Identifier{Name: name} }

func TestExecCreateListBindsNamedList(t *testing.T) {
	i := newTestInterp()
	env := value.NewGlobal()
	stmt := &ast.CreateList{Name: "xs", Elements: []ast.Expression{numLit(1), numLit(2)}}

	_, flow, err := ExecStmt(i, env, stmt)
	require.NoError(t, err)
	assert.True(t, flow.IsNone())

	v, err := env.Get("xs")
	require.NoError(t, err)
	lst := v.(*value.List)
	assert.Equal(t, []value.Value{value.Number(1), value.Number(2)}, lst.Elements)
}

func TestExecCreateMapBindsNamedObject(t *testing.T) {
	i := newTestInterp()
	env := value.NewGlobal()
	stmt := &ast.CreateMap{Name: "m", Entries: []ast.MapEntry{
		{Key: "a", Value: numLit(1)},
		{Key: "b", Value: strLit("two")},
	}}

	_, _, err := ExecStmt(i, env, stmt)
	require.NoError(t, err)

	v, err := env.Get("m")
	require.NoError(t, err)
	obj := v.(*value.Object)
	av, _ := obj.Get("a")
	assert.Equal(t, value.Number(1), av)
	bv, _ := obj.Get("b")
	assert.Equal(t, value.Text("two"), bv)
}

func TestExecCreateDateDefaultsToToday(t *testing.T) {
	i := newTestInterp()
	env := value.NewGlobal()
	stmt := &ast.CreateDate{Name: "d"}

	_, _, err := ExecStmt(i, env, stmt)
	require.NoError(t, err)

	v, err := env.Get("d")
	require.NoError(t, err)
	_, ok := v.(value.Date)
	assert.True(t, ok)
}

func TestExecCreateDateFromText(t *testing.T) {
	i := newTestInterp()
	env := value.NewGlobal()
	stmt := &ast.CreateDate{Name: "d", Value: strLit("2024-03-09")}

	_, _, err := ExecStmt(i, env, stmt)
	require.NoError(t, err)

	v, err := env.Get("d")
	require.NoError(t, err)
	assert.Equal(t, value.Date{Y: 2024, M: 3, D: 9}, v)
}

func TestExecCreateDateInvalidTextErrors(t *testing.T) {
	i := newTestInterp()
	env := value.NewGlobal()
	stmt := &ast.CreateDate{Name: "d", Value: strLit("nope")}

	_, _, err := ExecStmt(i, env, stmt)
	assert.Error(t, err)
}

func TestExecPushAppendsThroughReferenceSemantics(t *testing.T) {
	i := newTestInterp()
	env := value.NewGlobal()
	lst := value.NewList(value.Number(1))
	require.NoError(t, env.Define("xs", lst))

	stmt := &ast.PushStatement{Value: numLit(2), Into: ident("xs")}
	_, _, err := ExecStmt(i, env, stmt)
	require.NoError(t, err)

	assert.Equal(t, []value.Value{value.Number(1), value.Number(2)}, lst.Elements)
}

func TestExecPushIntoNonListErrors(t *testing.T) {
	i := newTestInterp()
	env := value.NewGlobal()
	require.NoError(t, env.Define("x", value.Number(1)))

	stmt := &ast.PushStatement{Value: numLit(2), Into: ident("x")}
	_, _, err := ExecStmt(i, env, stmt)
	assert.Error(t, err)
}

func TestExecAddToListBehavesLikePush(t *testing.T) {
	i := newTestInterp()
	env := value.NewGlobal()
	lst := value.NewList()
	require.NoError(t, env.Define("xs", lst))

	stmt := &ast.AddToStatement{Value: numLit(9), Target: ident("xs")}
	_, _, err := ExecStmt(i, env, stmt)
	require.NoError(t, err)
	assert.Equal(t, []value.Value{value.Number(9)}, lst.Elements)
}

func TestExecAddToNumberAssignsBackToIdentifier(t *testing.T) {
	i := newTestInterp()
	env := value.NewGlobal()
	require.NoError(t, env.Define("total", value.Number(5)))

	stmt := &ast.AddToStatement{Value: numLit(3), Target: ident("total")}
	result, _, err := ExecStmt(i, env, stmt)
	require.NoError(t, err)
	assert.Equal(t, value.Number(8), result)

	v, _ := env.Get("total")
	assert.Equal(t, value.Number(8), v)
}

func TestExecAddToNumberWithNonNumberValueErrors(t *testing.T) {
	i := newTestInterp()
	env := value.NewGlobal()
	require.NoError(t, env.Define("total", value.Number(5)))

	stmt := &ast.AddToStatement{Value: strLit("x"), Target: ident("total")}
	_, _, err := ExecStmt(i, env, stmt)
	assert.Error(t, err)
}

func TestExecRemoveFromListRemovesFirstMatch(t *testing.T) {
	i := newTestInterp()
	env := value.NewGlobal()
	lst := value.NewList(value.Number(1), value.Number(2), value.Number(1))
	require.NoError(t, env.Define("xs", lst))

	stmt := &ast.RemoveFromList{Value: numLit(1), From: ident("xs")}
	_, _, err := ExecStmt(i, env, stmt)
	require.NoError(t, err)
	assert.Equal(t, []value.Value{value.Number(2), value.Number(1)}, lst.Elements)
}

func TestExecClearListEmptiesElements(t *testing.T) {
	i := newTestInterp()
	env := value.NewGlobal()
	lst := value.NewList(value.Number(1), value.Number(2))
	require.NoError(t, env.Define("xs", lst))

	stmt := &ast.ClearList{List: ident("xs")}
	_, _, err := ExecStmt(i, env, stmt)
	require.NoError(t, err)
	assert.Empty(t, lst.Elements)
}
