// Package interpreter wires ExpressionEvaluator, StatementExecutor,
// ContainerRuntime and WebServerRuntime together behind the single
// public entry point a host embeds (spec §4.7 InterpreterCore): global
// environment, shared IoHost, script arguments, and the handful of
// flags (step mode, test mode) that only make sense at the top level.
package interpreter

import (
	"strings"
	"weak"

	"github.com/wfl-lang/wflcore/core/ast"
	"github.com/wfl-lang/wflcore/core/invariant"
	"github.com/wfl-lang/wflcore/core/value"
	"github.com/wfl-lang/wflcore/core/wflerr"
	"github.com/wfl-lang/wflcore/runtime/container"
	"github.com/wfl-lang/wflcore/runtime/evaluator"
	"github.com/wfl-lang/wflcore/runtime/iohost"
	"github.com/wfl-lang/wflcore/runtime/webserver"
)

// Core is the public entry point a host (CLI, test harness, embedder)
// drives. It owns the global Environment and the Interp/ContainerRuntime/
// WebServerRuntime triple, wiring the container package's definition
// lookup and method runner back into this package's evaluator calls
// (the one seam those two packages can't close on their own without a
// cycle).
type Core struct {
	global     *value.Environment
	interp     *evaluator.Interp
	host       *iohost.IoHost
	sourceFile string
	scriptArgs []string
}

// New builds a Core with a fresh global environment, the caller's
// IoHost, and the spec's default 300s timeout. Callers are expected to
// pre-populate the returned Environment with stdlib + display bindings
// before calling Interpret (spec §1: stdlib registration is an
// external collaborator).
func New(host *iohost.IoHost) *Core {
	invariant.NotNil(host, "host")

	global := value.NewGlobal()
	containers := container.New(
		func(name string) (*value.ContainerDefinition, bool) {
			v, err := global.Get(name)
			if err != nil {
				return nil, false
			}
			def, ok := v.(*value.ContainerDefinition)
			return def, ok
		},
		nil, // set below once interp exists, since running a method needs it
	)
	servers := webserver.New()
	interp := evaluator.New(host, containers, servers)
	interp.Global = global
	containers.Run = methodRunner(interp)

	return &Core{global: global, interp: interp, host: host}
}

// methodRunner builds the container package's MethodRunner callback: a
// fresh child of the global environment binds `this`, and the method
// body runs through the same Invoke machinery an ordinary action call
// uses (spec §4.4.6), by wrapping it as an anonymous Function bound to
// that child environment.
func methodRunner(interp *evaluator.Interp) container.MethodRunner {
	return func(recv *value.ContainerInstance, method *value.MethodDef, args []value.Value) (value.Value, error) {
		methodEnv := value.NewChild(interp.Global)
		if recv != nil {
			if err := methodEnv.Define("this", recv); err != nil {
				return nil, err
			}
		}
		fn := &value.Function{
			Name:   method.Name,
			Params: method.Params,
			Body:   method.Body,
			Env:    weak.Make(methodEnv),
		}
		return evaluator.Invoke(interp, fn, args, 0, 0)
	}
}

// Global exposes the environment for stdlib pre-registration.
func (c *Core) Global() *value.Environment { return c.global }

// WithTimeout sets the run's time budget in seconds (0 disables it,
// spec §4.7).
func (c *Core) WithTimeout(seconds int) { c.interp.WithTimeout(seconds) }

// SetStepMode toggles single-step tracing (consumed by an external
// debugger collaborator; this package only carries the flag).
func (c *Core) SetStepMode(on bool) { c.interp.StepMode = on }

// SetTestMode records the test-mode flag on the Interp. No evaluator
// code reads it, so `wait for` polling is the same with it on or off.
func (c *Core) SetTestMode(on bool) { c.interp.TestMode = on }

// SetSourceFile records the script path, used for relative file/import
// resolution by the host.
func (c *Core) SetSourceFile(path string) { c.sourceFile = path }

// SourceFile returns the path set by SetSourceFile.
func (c *Core) SourceFile() string { return c.sourceFile }

// SetScriptArgs records the raw argv (excluding argv[0]) used to
// populate the script-argument surface (spec §6.5) on Interpret.
func (c *Core) SetScriptArgs(args []string) { c.scriptArgs = args }

// Interpret populates the script-argument bindings, executes the
// program's top-level statements, auto-invokes a top-level `main`
// action if one is defined, and returns at most one RuntimeError
// (spec §4.7, §7: "execution stops at the first").
func (c *Core) Interpret(program *ast.Program, currentDirectory, programName string) (value.Value, []*wflerr.RuntimeError) {
	invariant.NotNil(program, "program")

	c.interp.ResetClock()
	if err := bindScriptArgs(c.global, c.scriptArgs, currentDirectory, programName); err != nil {
		return nil, []*wflerr.RuntimeError{err}
	}

	result, _, err := evaluator.ExecBlock(c.interp, c.global, program.Statements)
	if err != nil {
		return nil, []*wflerr.RuntimeError{asRuntimeError(err)}
	}

	if mainFn, lookErr := c.global.Get("main"); lookErr == nil {
		if fn, ok := mainFn.(*value.Function); ok {
			v, callErr := evaluator.Invoke(c.interp, fn, nil, 0, 0)
			if callErr != nil {
				return nil, []*wflerr.RuntimeError{asRuntimeError(callErr)}
			}
			return v, nil
		}
	}
	return result, nil
}

func asRuntimeError(err error) *wflerr.RuntimeError {
	if re, ok := err.(*wflerr.RuntimeError); ok {
		return re
	}
	return wflerr.New(err.Error(), 0, 0)
}

// bindScriptArgs implements spec §6.5: args/positional_args/arg_count/
// program_name/current_directory plus last-write-wins flag_<name>
// bindings (SPEC_FULL's explicit resolution of the repeated-flag case).
func bindScriptArgs(env *value.Environment, rawArgs []string, currentDirectory, programName string) *wflerr.RuntimeError {
	argVals := make([]value.Value, len(rawArgs))
	for idx, a := range rawArgs {
		argVals[idx] = value.Text(a)
	}
	if err := env.DeclareOrAssign("args", value.NewList(argVals...)); err != nil {
		return wflerr.New(err.Error(), 0, 0)
	}

	var positional []value.Value
	for idx := 0; idx < len(rawArgs); idx++ {
		a := rawArgs[idx]
		if strings.HasPrefix(a, "--") {
			name := strings.TrimPrefix(a, "--")
			var flagVal value.Value = value.Bool(true)
			if idx+1 < len(rawArgs) && !strings.HasPrefix(rawArgs[idx+1], "--") {
				flagVal = value.Text(rawArgs[idx+1])
				idx++
			}
			// last-write-wins: a later occurrence of the same flag
			// simply overwrites the earlier binding.
			if err := env.DeclareOrAssign("flag_"+name, flagVal); err != nil {
				return wflerr.New(err.Error(), 0, 0)
			}
			continue
		}
		positional = append(positional, value.Text(a))
	}

	if err := env.DeclareOrAssign("positional_args", value.NewList(positional...)); err != nil {
		return wflerr.New(err.Error(), 0, 0)
	}
	if err := env.DeclareOrAssign("arg_count", value.Number(len(rawArgs))); err != nil {
		return wflerr.New(err.Error(), 0, 0)
	}
	if err := env.DeclareOrAssign("program_name", value.Text(programName)); err != nil {
		return wflerr.New(err.Error(), 0, 0)
	}
	if err := env.DeclareOrAssign("current_directory", value.Text(currentDirectory)); err != nil {
		return wflerr.New(err.Error(), 0, 0)
	}
	return nil
}
