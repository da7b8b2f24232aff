package interpreter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfl-lang/wflcore/core/value"
)

func TestBindScriptArgsPositionalAndFlags(t *testing.T) {
	env := value.NewGlobal()
	err := bindScriptArgs(env, []string{"build", "--verbose", "--out", "bin/app"}, "/work", "script.wfl")
	require.Nil(t, err)

	positional, getErr := env.Get("positional_args")
	require.NoError(t, getErr)
	list := positional.(*value.List)
	assert.Equal(t, []value.Value{value.Text("build")}, list.Elements)

	verbose, getErr := env.Get("flag_verbose")
	require.NoError(t, getErr)
	assert.Equal(t, value.Bool(true), verbose)

	out, getErr := env.Get("flag_out")
	require.NoError(t, getErr)
	assert.Equal(t, value.Text("bin/app"), out)

	argCount, getErr := env.Get("arg_count")
	require.NoError(t, getErr)
	assert.Equal(t, value.Number(4), argCount)

	programName, getErr := env.Get("program_name")
	require.NoError(t, getErr)
	assert.Equal(t, value.Text("script.wfl"), programName)

	currentDir, getErr := env.Get("current_directory")
	require.NoError(t, getErr)
	assert.Equal(t, value.Text("/work"), currentDir)
}

func TestBindScriptArgsRepeatedFlagLastWriteWins(t *testing.T) {
	env := value.NewGlobal()
	err := bindScriptArgs(env, []string{"--mode", "dev", "--mode", "prod"}, "/work", "script.wfl")
	require.Nil(t, err)

	mode, getErr := env.Get("flag_mode")
	require.NoError(t, getErr)
	assert.Equal(t, value.Text("prod"), mode)
}

func TestBindScriptArgsTrailingFlagWithNoValueIsBoolTrue(t *testing.T) {
	env := value.NewGlobal()
	err := bindScriptArgs(env, []string{"--dry-run"}, "/work", "script.wfl")
	require.Nil(t, err)

	v, getErr := env.Get("flag_dry-run")
	require.NoError(t, getErr)
	assert.Equal(t, value.Bool(true), v)
}

func TestBindScriptArgsArgsListHoldsEveryRawToken(t *testing.T) {
	env := value.NewGlobal()
	raw := []string{"a", "--b", "c"}
	err := bindScriptArgs(env, raw, "/work", "script.wfl")
	require.Nil(t, err)

	args, getErr := env.Get("args")
	require.NoError(t, getErr)
	list := args.(*value.List)
	require.Len(t, list.Elements, 3)
	assert.Equal(t, value.Text("a"), list.Elements[0])
	assert.Equal(t, value.Text("--b"), list.Elements[1])
	assert.Equal(t, value.Text("c"), list.Elements[2])
}

func TestAsRuntimeErrorWrapsPlainErrors(t *testing.T) {
	re := asRuntimeError(assertError{"boom"})
	assert.Equal(t, "boom", re.Message)
}

type assertError struct{ msg string }

func (e assertError) Error() string { return e.msg }
