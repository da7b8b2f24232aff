package evaluator

import (
	"github.com/wfl-lang/wflcore/core/ast"
	"github.com/wfl-lang/wflcore/core/controlflow"
	"github.com/wfl-lang/wflcore/core/value"
	"github.com/wfl-lang/wflcore/core/wflerr"
)

// countLoopIterationCap is the safety valve on loops whose end bound
// is small enough that an off-by-one in user logic shouldn't be able
// to spin forever (spec §4.4.3): "10 001 for END <= 1 000 000;
// unbounded (rely on timeout) for larger."
const countLoopIterationCap = 10001

func execCountLoop(i *Interp, env *value.Environment, s *ast.CountLoop) (value.Value, controlflow.ControlFlow, error) {
	startV, err := evalNumber(i, env, s.Start)
	if err != nil {
		return nil, controlflow.NoneFlow, err
	}
	endV, err := evalNumber(i, env, s.End)
	if err != nil {
		return nil, controlflow.NoneFlow, err
	}
	step := 1.0
	if s.Step != nil {
		step, err = evalNumber(i, env, s.Step)
		if err != nil {
			return nil, controlflow.NoneFlow, err
		}
	}

	varName := s.VarName
	if varName == "" {
		varName = "count"
	}

	capped := endV <= 1_000_000
	restore := i.EnterCountLoop()
	defer restore()

	result := value.Value(value.Null)
	cur := startV
	iterations := 0
	for {
		if s.Downward {
			if cur < endV {
				break
			}
		} else if cur > endV {
			break
		}
		if capped && iterations >= countLoopIterationCap {
			break
		}
		if err := i.CheckTimeout(s.Pos().Line, s.Pos().Column); err != nil {
			return nil, controlflow.NoneFlow, err
		}
		i.SetCurrentCount(cur)

		iterEnv := value.NewChild(env)
		if err := iterEnv.Define(varName, value.Number(cur)); err != nil {
			return nil, controlflow.NoneFlow, err
		}
		v, flow, err := ExecBlock(i, iterEnv, s.Body)
		if err != nil {
			return nil, controlflow.NoneFlow, err
		}
		result = v
		if flow.Tag == controlflow.Break {
			break
		}
		if flow.Unwinds() {
			return result, flow, nil
		}
		iterations++
		if s.Downward {
			cur -= step
		} else {
			cur += step
		}
	}
	return result, controlflow.NoneFlow, nil
}

func evalNumber(i *Interp, env *value.Environment, expr ast.Expression) (float64, error) {
	v, err := EvalExpr(i, env, expr)
	if err != nil {
		return 0, err
	}
	n, ok := v.(value.Number)
	if !ok {
		return 0, wflerr.New("expected a number, got "+v.TypeName(), expr.Pos().Line, expr.Pos().Column)
	}
	return float64(n), nil
}

func execForEachLoop(i *Interp, env *value.Environment, s *ast.ForEachLoop) (value.Value, controlflow.ControlFlow, error) {
	coll, err := EvalExpr(i, env, s.Collection)
	if err != nil {
		return nil, controlflow.NoneFlow, err
	}
	var items []value.Value
	switch c := coll.(type) {
	case *value.List:
		items = append(items, c.Elements...)
	case *value.Object:
		for _, k := range c.Keys() {
			v, _ := c.Get(k)
			items = append(items, v)
		}
	default:
		return nil, controlflow.NoneFlow, wflerr.New("for-each requires a list or object, got "+coll.TypeName(), s.Pos().Line, s.Pos().Column)
	}
	if s.Reversed {
		for l, r := 0, len(items)-1; l < r; l, r = l+1, r-1 {
			items[l], items[r] = items[r], items[l]
		}
	}

	result := value.Value(value.Null)
	for _, item := range items {
		if err := i.CheckTimeout(s.Pos().Line, s.Pos().Column); err != nil {
			return nil, controlflow.NoneFlow, err
		}
		iterEnv := value.NewChild(env)
		if err := iterEnv.Define(s.ItemName, item); err != nil {
			return nil, controlflow.NoneFlow, err
		}
		v, flow, err := ExecBlock(i, iterEnv, s.Body)
		if err != nil {
			return nil, controlflow.NoneFlow, err
		}
		result = v
		if flow.Tag == controlflow.Break {
			break
		}
		if flow.Unwinds() {
			return result, flow, nil
		}
	}
	return result, controlflow.NoneFlow, nil
}

func execWhileLoop(i *Interp, env *value.Environment, s *ast.WhileLoop) (value.Value, controlflow.ControlFlow, error) {
	result := value.Value(value.Null)
	for {
		if err := i.CheckTimeout(s.Pos().Line, s.Pos().Column); err != nil {
			return nil, controlflow.NoneFlow, err
		}
		cond, err := EvalExpr(i, env, s.Cond)
		if err != nil {
			return nil, controlflow.NoneFlow, err
		}
		if !cond.Truthy() {
			break
		}
		iterEnv := value.NewChild(env)
		v, flow, err := ExecBlock(i, iterEnv, s.Body)
		if err != nil {
			return nil, controlflow.NoneFlow, err
		}
		result = v
		if flow.Tag == controlflow.Break {
			break
		}
		if flow.Unwinds() {
			return result, flow, nil
		}
	}
	return result, controlflow.NoneFlow, nil
}

func execRepeatUntilLoop(i *Interp, env *value.Environment, s *ast.RepeatUntilLoop) (value.Value, controlflow.ControlFlow, error) {
	result := value.Value(value.Null)
	for {
		if err := i.CheckTimeout(s.Pos().Line, s.Pos().Column); err != nil {
			return nil, controlflow.NoneFlow, err
		}
		iterEnv := value.NewChild(env)
		v, flow, err := ExecBlock(i, iterEnv, s.Body)
		if err != nil {
			return nil, controlflow.NoneFlow, err
		}
		result = v
		if flow.Tag == controlflow.Break {
			break
		}
		if flow.Unwinds() {
			return result, flow, nil
		}
		cond, err := EvalExpr(i, env, s.Cond)
		if err != nil {
			return nil, controlflow.NoneFlow, err
		}
		if cond.Truthy() {
			break
		}
	}
	return result, controlflow.NoneFlow, nil
}

// execRepeatWhileLoop: pre-tested, with a single fresh child env
// scoped to the whole loop invocation (spec §4.4.3), unlike the other
// loop forms which create a fresh env per iteration.
func execRepeatWhileLoop(i *Interp, env *value.Environment, s *ast.RepeatWhileLoop) (value.Value, controlflow.ControlFlow, error) {
	loopEnv := value.NewChild(env)
	result := value.Value(value.Null)
	for {
		if err := i.CheckTimeout(s.Pos().Line, s.Pos().Column); err != nil {
			return nil, controlflow.NoneFlow, err
		}
		cond, err := EvalExpr(i, loopEnv, s.Cond)
		if err != nil {
			return nil, controlflow.NoneFlow, err
		}
		if !cond.Truthy() {
			break
		}
		v, flow, err := ExecBlock(i, loopEnv, s.Body)
		if err != nil {
			return nil, controlflow.NoneFlow, err
		}
		result = v
		if flow.Tag == controlflow.Break {
			break
		}
		if flow.Unwinds() {
			return result, flow, nil
		}
	}
	return result, controlflow.NoneFlow, nil
}

func execForeverLoop(i *Interp, env *value.Environment, s *ast.ForeverLoop) (value.Value, controlflow.ControlFlow, error) {
	result := value.Value(value.Null)
	for {
		if err := i.CheckTimeout(s.Pos().Line, s.Pos().Column); err != nil {
			return nil, controlflow.NoneFlow, err
		}
		iterEnv := value.NewChild(env)
		v, flow, err := ExecBlock(i, iterEnv, s.Body)
		if err != nil {
			return nil, controlflow.NoneFlow, err
		}
		result = v
		if flow.Tag == controlflow.Break {
			break
		}
		if flow.Unwinds() {
			return result, flow, nil
		}
	}
	return result, controlflow.NoneFlow, nil
}

// execMainLoop suppresses the time-budget check for its entire body
// (spec §4.4.3, §5, §9): the suppression flag is always reset via a
// deferred restore, including on error paths.
func execMainLoop(i *Interp, env *value.Environment, s *ast.MainLoop) (value.Value, controlflow.ControlFlow, error) {
	restore := i.EnterMainLoop()
	defer restore()

	result := value.Value(value.Null)
	for {
		iterEnv := value.NewChild(env)
		v, flow, err := ExecBlock(i, iterEnv, s.Body)
		if err != nil {
			return nil, controlflow.NoneFlow, err
		}
		result = v
		if flow.Tag == controlflow.Break {
			break
		}
		if flow.Unwinds() {
			return result, flow, nil
		}
	}
	return result, controlflow.NoneFlow, nil
}
