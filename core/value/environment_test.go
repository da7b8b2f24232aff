package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefineAndGet(t *testing.T) {
	env := NewGlobal()
	require.NoError(t, env.Define("x", Number(1)))
	v, err := env.Get("x")
	require.NoError(t, err)
	assert.Equal(t, Number(1), v)
}

func TestGetUnboundNameErrors(t *testing.T) {
	env := NewGlobal()
	_, err := env.Get("missing")
	assert.Error(t, err)
}

func TestChildSeesParentBindings(t *testing.T) {
	parent := NewGlobal()
	require.NoError(t, parent.Define("x", Number(1)))
	child := NewChild(parent)
	v, err := child.Get("x")
	require.NoError(t, err)
	assert.Equal(t, Number(1), v)
}

func TestDefineInChildShadowsParent(t *testing.T) {
	parent := NewGlobal()
	require.NoError(t, parent.Define("x", Number(1)))
	child := NewChild(parent)
	require.NoError(t, child.Define("x", Number(2)))

	childVal, _ := child.Get("x")
	assert.Equal(t, Number(2), childVal)

	parentVal, _ := parent.Get("x")
	assert.Equal(t, Number(1), parentVal)
}

func TestAssignWalksUpToExistingBinding(t *testing.T) {
	parent := NewGlobal()
	require.NoError(t, parent.Define("x", Number(1)))
	child := NewChild(parent)

	require.NoError(t, child.Assign("x", Number(9)))

	v, _ := parent.Get("x")
	assert.Equal(t, Number(9), v)
	assert.False(t, child.HasLocal("x"))
}

func TestAssignToUndefinedFails(t *testing.T) {
	env := NewGlobal()
	err := env.Assign("ghost", Number(1))
	assert.Error(t, err)
}

func TestDeclareOrAssignRebindsCurrentScopeInsteadOfShadowing(t *testing.T) {
	env := NewGlobal()
	require.NoError(t, env.Define("x", Number(1)))
	require.NoError(t, env.DeclareOrAssign("x", Number(2)))

	v, _ := env.Get("x")
	assert.Equal(t, Number(2), v)
}

func TestDeclareOrAssignInChildDoesNotTouchParent(t *testing.T) {
	parent := NewGlobal()
	require.NoError(t, parent.Define("x", Number(1)))
	child := NewChild(parent)

	require.NoError(t, child.DeclareOrAssign("x", Number(2)))

	parentVal, _ := parent.Get("x")
	assert.Equal(t, Number(1), parentVal)
	childVal, _ := child.Get("x")
	assert.Equal(t, Number(2), childVal)
}

func TestConstantCannotBeRedefinedOrAssigned(t *testing.T) {
	env := NewGlobal()
	require.NoError(t, env.DefineConstant("pi", Number(3)))

	assert.Error(t, env.Define("pi", Number(4)))
	assert.Error(t, env.Assign("pi", Number(4)))
	assert.Error(t, env.DeclareOrAssign("pi", Number(4)))

	v, _ := env.Get("pi")
	assert.Equal(t, Number(3), v)
}

func TestNamesCollectsWholeChainWithoutDuplicates(t *testing.T) {
	parent := NewGlobal()
	require.NoError(t, parent.Define("x", Number(1)))
	child := NewChild(parent)
	require.NoError(t, child.Define("y", Number(2)))
	require.NoError(t, child.Define("x", Number(3)))

	names := child.Names()
	assert.ElementsMatch(t, []string{"x", "y"}, names)
}
