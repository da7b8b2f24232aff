package value

import (
	"weak"

	"github.com/wfl-lang/wflcore/core/wflerr"
)

type binding struct {
	value    Value
	constant bool
}

// Environment is the lexical scope chain (spec §3.2). A global
// environment has no parent; a child environment holds a strong
// reference to its parent so the chain stays alive as long as any
// descendant scope does. Function closures, by contrast, only ever
// hold a *weak* reference to the Environment they close over (spec
// §3.1): see Function.Env.
type Environment struct {
	vars   map[string]binding
	parent *Environment
}

// NewGlobal creates a parentless environment. Callers are expected to
// pre-populate it with stdlib bindings and `display` per spec §3.2;
// internal/interpreter registers none of these itself and exposes the
// environment to the embedding host through Core.Global for that.
func NewGlobal() *Environment {
	return &Environment{vars: make(map[string]binding)}
}

// NewChild creates a scope whose parent is env.
func NewChild(parent *Environment) *Environment {
	return &Environment{vars: make(map[string]binding), parent: parent}
}

// Weak returns a weak reference to env, suitable for storing on a
// Function value or event handler so that invoking it after the
// defining scope is collected fails with EnvDropped rather than
// keeping the scope alive forever.
func Weak(env *Environment) weak.Pointer[Environment] {
	return weak.Make(env)
}

// Define binds name in the current scope (spec §3.2): errors on rebind
// of a constant, otherwise overwrites even if name exists in a parent.
func (e *Environment) Define(name string, v Value) error {
	if b, exists := e.vars[name]; exists && b.constant {
		return wflerr.New("cannot redefine constant '"+name+"'", 0, 0)
	}
	e.vars[name] = binding{value: v}
	return nil
}

// DefineConstant binds name as an immutable constant in the current scope.
func (e *Environment) DefineConstant(name string, v Value) error {
	if b, exists := e.vars[name]; exists && b.constant {
		return wflerr.New("cannot redefine constant '"+name+"'", 0, 0)
	}
	e.vars[name] = binding{value: v, constant: true}
	return nil
}

// DeclareOrAssign implements the §4.2 special case: if name is already
// present in the CURRENT scope (no upward walk), this performs an
// assignment instead of a shadowing define. This is what lets `store x
// as ...` inside a container method write back to a `this.x` property
// that was shadowed as a local.
func (e *Environment) DeclareOrAssign(name string, v Value) error {
	if b, exists := e.vars[name]; exists {
		if b.constant {
			return wflerr.New("cannot assign to constant '"+name+"'", 0, 0)
		}
		e.vars[name] = binding{value: v}
		return nil
	}
	e.vars[name] = binding{value: v}
	return nil
}

// HasLocal reports whether name is bound in the current scope only
// (no upward walk).
func (e *Environment) HasLocal(name string) bool {
	_, ok := e.vars[name]
	return ok
}

// Assign walks upward to find name's binding and mutates it in place
// (spec §3.2). It does NOT implicitly create a binding (spec §4.2).
func (e *Environment) Assign(name string, v Value) error {
	for env := e; env != nil; env = env.parent {
		if b, exists := env.vars[name]; exists {
			if b.constant {
				return wflerr.New("cannot assign to constant '"+name+"'", 0, 0)
			}
			env.vars[name] = binding{value: v}
			return nil
		}
	}
	return wflerr.New("cannot assign to undefined variable '"+name+"'", 0, 0)
}

// Get walks upward and returns the bound value. Reference-semantic
// values (List/Object/ContainerInstance) share their interior across
// the "clone" implied by Go's value copy of the interface, since those
// variants are backed by a pointer.
func (e *Environment) Get(name string) (Value, error) {
	for env := e; env != nil; env = env.parent {
		if b, exists := env.vars[name]; exists {
			return b.value, nil
		}
	}
	return nil, wflerr.New("'"+name+"' not found", 0, 0)
}

// Names returns every name visible from e, nearest scope first, used
// by fuzzy "did you mean" suggestions on lookup failures.
func (e *Environment) Names() []string {
	seen := make(map[string]bool)
	var out []string
	for env := e; env != nil; env = env.parent {
		for name := range env.vars {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}
