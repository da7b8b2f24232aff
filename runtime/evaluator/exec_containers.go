package evaluator

import (
	"github.com/wfl-lang/wflcore/core/ast"
	"github.com/wfl-lang/wflcore/core/controlflow"
	"github.com/wfl-lang/wflcore/core/value"
	"github.com/wfl-lang/wflcore/core/wflerr"
)

// execContainerDecl registers a ContainerDefinition in env (spec
// §4.4.6). Property defaults are evaluated eagerly, right here at
// definition time.
func execContainerDecl(i *Interp, env *value.Environment, s *ast.ContainerDecl) (value.Value, controlflow.ControlFlow, error) {
	def := value.NewContainerDefinition(s.Name)
	def.Parent = s.Parent
	def.Interfaces = append(def.Interfaces, s.Interfaces...)

	for _, p := range s.Properties {
		v := value.Value(value.Null)
		if p.Default != nil {
			var err error
			v, err = EvalExpr(i, env, p.Default)
			if err != nil {
				return nil, controlflow.NoneFlow, err
			}
		}
		def.Properties[p.Name] = v
		def.PropertyOrder = append(def.PropertyOrder, p.Name)
	}
	for _, m := range s.Methods {
		def.Methods[m.Name] = &value.MethodDef{Name: m.Name, Params: m.Params, Body: m.Body}
	}
	for _, m := range s.StaticMethods {
		def.StaticMethods[m.Name] = &value.MethodDef{Name: m.Name, Params: m.Params, Body: m.Body}
	}
	for _, ev := range s.Events {
		def.Events[ev.Name] = &value.ContainerEvent{Name: ev.Name, Params: ev.Params}
	}
	for _, p := range s.StaticProperties {
		v := value.Value(value.Null)
		if p.Default != nil {
			var err error
			v, err = EvalExpr(i, env, p.Default)
			if err != nil {
				return nil, controlflow.NoneFlow, err
			}
		}
		def.StaticProperties[p.Name] = v
	}

	if err := env.Define(s.Name, def); err != nil {
		return nil, controlflow.NoneFlow, repositioned(err, s.Pos())
	}
	return def, controlflow.NoneFlow, nil
}

func execInterfaceDecl(i *Interp, env *value.Environment, s *ast.InterfaceDecl) (value.Value, controlflow.ControlFlow, error) {
	def := &value.InterfaceDefinition{Name: s.Name, Extends: append([]string{}, s.Extends...), Actions: append([]string{}, s.Actions...)}
	if err := env.Define(s.Name, def); err != nil {
		return nil, controlflow.NoneFlow, repositioned(err, s.Pos())
	}
	return def, controlflow.NoneFlow, nil
}

// execCreateInstance implements `create CT called NAME [with args]
// [: initializers]` (spec §4.4.6).
func execCreateInstance(i *Interp, env *value.Environment, s *ast.CreateInstance) (value.Value, controlflow.ControlFlow, error) {
	defVal, err := env.Get(s.Container)
	if err != nil {
		return nil, controlflow.NoneFlow, repositioned(err, s.Pos())
	}
	def, ok := defVal.(*value.ContainerDefinition)
	if !ok {
		return nil, controlflow.NoneFlow, wflerr.New("'"+s.Container+"' is not a container", s.Pos().Line, s.Pos().Column)
	}

	args := make([]value.Value, 0, len(s.Args))
	for _, a := range s.Args {
		v, err := EvalExpr(i, env, a)
		if err != nil {
			return nil, controlflow.NoneFlow, err
		}
		args = append(args, v)
	}
	initializers := make(map[string]value.Value, len(s.Initializers))
	for _, init := range s.Initializers {
		v, err := EvalExpr(i, env, init.Value)
		if err != nil {
			return nil, controlflow.NoneFlow, err
		}
		initializers[init.Name] = v
	}

	inst, err := i.Containers.Instantiate(def, args, initializers)
	if err != nil {
		return nil, controlflow.NoneFlow, repositioned(err, s.Pos())
	}
	if err := env.Define(s.InstanceName, inst); err != nil {
		return nil, controlflow.NoneFlow, repositioned(err, s.Pos())
	}
	return inst, controlflow.NoneFlow, nil
}

// execEventDecl implements the standalone/global `event E(params)`
// form (spec §4.4.6: "or globally as a first-class ContainerEvent
// value"): the event lives under its bare name in the declaring scope,
// with no container attached to it at all.
func execEventDecl(i *Interp, env *value.Environment, s *ast.EventDecl) (value.Value, controlflow.ControlFlow, error) {
	ev := &value.ContainerEvent{Name: s.Name, Params: append([]string{}, s.Params...)}
	if err := env.Define(s.Name, ev); err != nil {
		return nil, controlflow.NoneFlow, repositioned(err, s.Pos())
	}
	return ev, controlflow.NoneFlow, nil
}

// execOnEventHandler implements `on X.E { body }` (spec §4.4.6). X
// must already be bound: to a container instance, in which case the
// event is looked up on X's container definition, or (an env-level
// fallback covering the standalone/global form from spec §4.4.6's
// `event E(params)` note) directly to a ContainerEvent value, in which
// case the handler attaches to it with no container indirection at
// all. Either way the handler carries a weak reference to env, the
// scope in which the `on` statement itself executed.
func execOnEventHandler(i *Interp, env *value.Environment, s *ast.OnEventHandler) (value.Value, controlflow.ControlFlow, error) {
	v, err := env.Get(s.Instance)
	if err != nil {
		return nil, controlflow.NoneFlow, repositioned(err, s.Pos())
	}
	handler := &value.EventHandler{Body: s.Body, Env: value.Weak(env)}

	switch src := v.(type) {
	case *value.ContainerInstance:
		ev, err := i.Containers.AttachHandler(src.ContainerType, s.Event, handler)
		if err != nil {
			return nil, controlflow.NoneFlow, repositioned(err, s.Pos())
		}
		// Rebind the event's bare name so a later bare `trigger E(args)`
		// sees the handler just attached (spec §4.4.6's trigger form has
		// no instance/type qualifier at all -- it resolves purely by
		// name against env, the same as the standalone form).
		if err := env.Define(s.Event, ev); err != nil {
			return nil, controlflow.NoneFlow, repositioned(err, s.Pos())
		}
	case *value.ContainerEvent:
		src.Handlers = append(src.Handlers, handler)
	default:
		return nil, controlflow.NoneFlow, wflerr.New("'"+s.Instance+"' is not a container instance or event", s.Pos().Line, s.Pos().Column)
	}
	return value.Null, controlflow.NoneFlow, nil
}

// execTriggerEvent implements `trigger E(args)` (spec §4.4.6): E is
// resolved as a bare environment lookup, exactly like a variable
// reference -- there is no instance or container-type qualifier on
// this form (contrast `on X.E`, which does name an instance). Every
// attached handler then runs synchronously in registration order, in a
// fresh child env binding the event's declared parameters (extras
// bind to Null).
func execTriggerEvent(i *Interp, env *value.Environment, s *ast.TriggerEvent) (value.Value, controlflow.ControlFlow, error) {
	v, err := env.Get(s.Event)
	if err != nil {
		return nil, controlflow.NoneFlow, repositioned(err, s.Pos())
	}
	ev, ok := v.(*value.ContainerEvent)
	if !ok {
		return nil, controlflow.NoneFlow, wflerr.New("'"+s.Event+"' is not an event", s.Pos().Line, s.Pos().Column)
	}

	args := make([]value.Value, 0, len(s.Args))
	for _, a := range s.Args {
		argVal, err := EvalExpr(i, env, a)
		if err != nil {
			return nil, controlflow.NoneFlow, err
		}
		args = append(args, argVal)
	}

	triggerErr := i.Containers.TriggerEvent(ev, args, func(h *value.EventHandler, hargs []value.Value) error {
		definingEnv := h.Env.Value()
		if definingEnv == nil {
			// spec §4.5: dropped environments make the handler
			// silently skippable.
			return nil
		}
		handlerEnv := value.NewChild(definingEnv)
		// bind declared event parameters positionally; extras bind Null.
		for idx, pname := range ev.Params {
			var pv value.Value = value.Null
			if idx < len(hargs) {
				pv = hargs[idx]
			}
			if err := handlerEnv.Define(pname, pv); err != nil {
				return err
			}
		}
		_, _, runErr := ExecBlock(i, handlerEnv, h.Body)
		return runErr
	})
	if triggerErr != nil {
		return nil, controlflow.NoneFlow, repositioned(triggerErr, s.Pos())
	}
	return value.Null, controlflow.NoneFlow, nil
}
