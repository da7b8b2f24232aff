// Package container implements ContainerRuntime (spec §4.4.6, §4.5):
// definition registration, instantiation along a parent chain, method
// dispatch (including parent-method calls with a pinned receiver),
// and event attach/trigger. It is deliberately evaluator-agnostic: it
// takes a call-back for "run this method body in this environment"
// so runtime/evaluator can own statement execution while this package
// owns the prototype-chain bookkeeping, the same separation the
// teacher draws between its executor and its decorator registry.
package container

import (
	"fmt"

	"github.com/wfl-lang/wflcore/core/value"
	"github.com/wfl-lang/wflcore/core/wflerr"
)

// DefinitionLookup resolves a container type name to its definition in
// the calling scope (spec §4.5: "method dispatch at call time
// re-resolves the definition, tolerating redefinition").
type DefinitionLookup func(name string) (*value.ContainerDefinition, bool)

// MethodRunner executes a method body in a fresh environment that
// binds `this` and the method's parameters; it is supplied by
// runtime/evaluator since only the evaluator knows how to execute
// ast.Statement bodies.
type MethodRunner func(recv *value.ContainerInstance, method *value.MethodDef, args []value.Value) (value.Value, error)

// Runtime bundles the two collaborators every container operation
// needs: a way to resolve definitions by name, and a way to run method
// bodies.
type Runtime struct {
	Lookup DefinitionLookup
	Run    MethodRunner
}

// New creates a Runtime bound to the given collaborators.
func New(lookup DefinitionLookup, run MethodRunner) *Runtime {
	return &Runtime{Lookup: lookup, Run: run}
}

// chain walks from def up through Parent names, re-resolving each via
// Lookup, and returns the definitions from most-derived to base.
func (r *Runtime) chain(def *value.ContainerDefinition) ([]*value.ContainerDefinition, error) {
	chain := []*value.ContainerDefinition{def}
	seen := map[string]bool{def.Name: true}
	cur := def
	for cur.Parent != "" {
		if seen[cur.Parent] {
			return nil, wflerr.New("circular container inheritance involving '"+cur.Parent+"'", 0, 0)
		}
		parentDef, ok := r.Lookup(cur.Parent)
		if !ok {
			return nil, wflerr.New("unknown parent container '"+cur.Parent+"'", 0, 0)
		}
		chain = append(chain, parentDef)
		seen[cur.Parent] = true
		cur = parentDef
	}
	return chain, nil
}

// Instantiate builds a new ContainerInstance for def (spec §4.4.6):
// parent instances are built recursively along the extends chain,
// properties are unioned base-first then overridden by this
// definition's defaults, explicit initializers apply last, and
// `initialize` is invoked automatically when args are non-empty.
func (r *Runtime) Instantiate(def *value.ContainerDefinition, args []value.Value, initializers map[string]value.Value) (*value.ContainerInstance, error) {
	if _, err := r.chain(def); err != nil {
		return nil, err
	}
	inst := value.NewContainerInstance(def.Name)

	if def.Parent != "" {
		parentDef, ok := r.Lookup(def.Parent)
		if !ok {
			return nil, wflerr.New("unknown parent container '"+def.Parent+"'", 0, 0)
		}
		parentInst, err := r.Instantiate(parentDef, nil, nil)
		if err != nil {
			return nil, err
		}
		inst.Parent = parentInst
		for k, v := range parentInst.Properties {
			inst.Properties[k] = v
		}
	}

	for _, name := range def.PropertyOrder {
		inst.Properties[name] = def.Properties[name]
	}
	for name, v := range initializers {
		inst.Properties[name] = v
	}

	if len(args) > 0 {
		method, _, ok := r.resolveMethod(def, "initialize")
		if !ok {
			return nil, wflerr.New("container '"+def.Name+"' has no 'initialize' method for the given arguments", 0, 0)
		}
		if _, err := r.Run(inst, method, args); err != nil {
			return nil, err
		}
	}
	return inst, nil
}

// resolveMethod walks def's extends chain looking for name, returning
// the owning definition alongside the method (spec §4.4.6: "method
// resolution walks the extends chain until a match or chain end").
func (r *Runtime) resolveMethod(def *value.ContainerDefinition, name string) (*value.MethodDef, *value.ContainerDefinition, bool) {
	chain, err := r.chain(def)
	if err != nil {
		return nil, nil, false
	}
	for _, d := range chain {
		if m, ok := d.Methods[name]; ok {
			return m, d, true
		}
	}
	return nil, nil, false
}

// CallMethod dispatches methodName on recv, re-resolving recv's
// container type through Lookup before walking the chain (spec §4.5).
func (r *Runtime) CallMethod(recv *value.ContainerInstance, methodName string, args []value.Value) (value.Value, error) {
	def, ok := r.Lookup(recv.ContainerType)
	if !ok {
		return nil, wflerr.New("unknown container type '"+recv.ContainerType+"'", 0, 0)
	}
	method, _, ok := r.resolveMethod(def, methodName)
	if !ok {
		return nil, wflerr.New(fmt.Sprintf("container '%s' has no method '%s'", recv.ContainerType, methodName), 0, 0)
	}
	return r.Run(recv, method, args)
}

// CallStaticMethod dispatches a method directly on a ContainerDefinition
// (the SPEC_FULL static-dispatch expansion), without an instance
// receiver; `this` is unbound inside the body.
func (r *Runtime) CallStaticMethod(def *value.ContainerDefinition, methodName string, args []value.Value) (value.Value, error) {
	method, ok := def.StaticMethods[methodName]
	if !ok {
		return nil, wflerr.New(fmt.Sprintf("container '%s' has no static method '%s'", def.Name, methodName), 0, 0)
	}
	return r.Run(nil, method, args)
}

// CallParentMethod implements `parent.m(...)` (spec §4.4.6): resolves
// m starting from this.parent.container_type's definition, but keeps
// `this` bound to the original receiver, not the parent instance.
func (r *Runtime) CallParentMethod(recv *value.ContainerInstance, methodName string, args []value.Value) (value.Value, error) {
	if recv.Parent == nil {
		return nil, wflerr.New("'parent' used without a parent container", 0, 0)
	}
	parentDef, ok := r.Lookup(recv.Parent.ContainerType)
	if !ok {
		return nil, wflerr.New("unknown parent container type '"+recv.Parent.ContainerType+"'", 0, 0)
	}
	method, _, ok := r.resolveMethod(parentDef, methodName)
	if !ok {
		return nil, wflerr.New(fmt.Sprintf("parent container '%s' has no method '%s'", parentDef.Name, methodName), 0, 0)
	}
	// `this` stays the original receiver, per spec: the parent lookup
	// only selects which method body runs.
	return r.Run(recv, method, args)
}

// LookupEvent resolves eventName on instanceType's container
// definition (spec §4.4.6: "on X.E ... attaches a handler to the event
// on instance X's container definition"). It is the one place
// `instanceType` ever keys an event lookup; triggering an event never
// goes through a container type at all (see evaluator's execTriggerEvent).
func (r *Runtime) LookupEvent(instanceType, eventName string) (*value.ContainerEvent, error) {
	def, ok := r.Lookup(instanceType)
	if !ok {
		return nil, wflerr.New("unknown container type '"+instanceType+"'", 0, 0)
	}
	ev, ok := def.Events[eventName]
	if !ok {
		return nil, wflerr.New(fmt.Sprintf("container '%s' has no event '%s'", instanceType, eventName), 0, 0)
	}
	return ev, nil
}

// AttachHandler implements `on X.E { body }` (spec §4.4.6): it mutates
// the event's handler list on X's *definition*, preserving the
// documented source ambiguity (§9 Design Notes: "preserve source
// behavior unless the ambiguity is formally resolved") rather than
// storing handlers per-instance.
func (r *Runtime) AttachHandler(instanceType, eventName string, handler *value.EventHandler) (*value.ContainerEvent, error) {
	ev, err := r.LookupEvent(instanceType, eventName)
	if err != nil {
		return nil, err
	}
	ev.Handlers = append(ev.Handlers, handler)
	return ev, nil
}

// TriggerEvent runs every handler attached to ev in registration
// order, synchronously (spec §4.4.6, §5 ordering guarantees). Unlike
// AttachHandler, it never takes a container type: `trigger E(args)`
// resolves E as a bare environment lookup (spec §4.4.6's trigger form
// carries no instance qualifier), so by the time the evaluator calls
// here ev is already the resolved ContainerEvent value. runHandler is
// supplied by the evaluator since handlers execute ast.Statement
// bodies in their captured env.
func (r *Runtime) TriggerEvent(ev *value.ContainerEvent, args []value.Value, runHandler func(h *value.EventHandler, args []value.Value) error) error {
	for _, h := range ev.Handlers {
		if err := runHandler(h, args); err != nil {
			return err
		}
	}
	return nil
}
