package evaluator

import (
	"github.com/wfl-lang/wflcore/core/ast"
	"github.com/wfl-lang/wflcore/core/controlflow"
	"github.com/wfl-lang/wflcore/core/value"
	"github.com/wfl-lang/wflcore/core/wflerr"
)

func execCreateList(i *Interp, env *value.Environment, s *ast.CreateList) (value.Value, controlflow.ControlFlow, error) {
	elems := make([]value.Value, 0, len(s.Elements))
	for _, e := range s.Elements {
		v, err := EvalExpr(i, env, e)
		if err != nil {
			return nil, controlflow.NoneFlow, err
		}
		elems = append(elems, v)
	}
	lst := value.NewList(elems...)
	if err := env.DeclareOrAssign(s.Name, lst); err != nil {
		return nil, controlflow.NoneFlow, repositioned(err, s.Pos())
	}
	return lst, controlflow.NoneFlow, nil
}

func execCreateMap(i *Interp, env *value.Environment, s *ast.CreateMap) (value.Value, controlflow.ControlFlow, error) {
	obj := value.NewObject()
	for _, entry := range s.Entries {
		v, err := EvalExpr(i, env, entry.Value)
		if err != nil {
			return nil, controlflow.NoneFlow, err
		}
		obj.Set(entry.Key, v)
	}
	if err := env.DeclareOrAssign(s.Name, obj); err != nil {
		return nil, controlflow.NoneFlow, repositioned(err, s.Pos())
	}
	return obj, controlflow.NoneFlow, nil
}

func execCreateDate(i *Interp, env *value.Environment, s *ast.CreateDate) (value.Value, controlflow.ControlFlow, error) {
	var d value.Date
	if s.Value == nil {
		d = value.TodayDate()
	} else {
		v, err := EvalExpr(i, env, s.Value)
		if err != nil {
			return nil, controlflow.NoneFlow, err
		}
		switch vv := v.(type) {
		case value.Date:
			d = vv
		case value.Text:
			parsed, perr := value.ParseDate(string(vv))
			if perr != nil {
				return nil, controlflow.NoneFlow, wflerr.New("invalid date '"+string(vv)+"'", s.Pos().Line, s.Pos().Column)
			}
			d = parsed
		default:
			return nil, controlflow.NoneFlow, wflerr.New("expected a date or text, got "+v.TypeName(), s.Pos().Line, s.Pos().Column)
		}
	}
	if err := env.DeclareOrAssign(s.Name, d); err != nil {
		return nil, controlflow.NoneFlow, repositioned(err, s.Pos())
	}
	return d, controlflow.NoneFlow, nil
}

func execCreateTime(i *Interp, env *value.Environment, s *ast.CreateTime) (value.Value, controlflow.ControlFlow, error) {
	var t value.Time
	if s.Value == nil {
		t = value.NowTime()
	} else {
		v, err := EvalExpr(i, env, s.Value)
		if err != nil {
			return nil, controlflow.NoneFlow, err
		}
		switch vv := v.(type) {
		case value.Time:
			t = vv
		case value.Text:
			parsed, perr := value.ParseTime(string(vv))
			if perr != nil {
				return nil, controlflow.NoneFlow, wflerr.New("invalid time '"+string(vv)+"'", s.Pos().Line, s.Pos().Column)
			}
			t = parsed
		default:
			return nil, controlflow.NoneFlow, wflerr.New("expected a time or text, got "+v.TypeName(), s.Pos().Line, s.Pos().Column)
		}
	}
	if err := env.DeclareOrAssign(s.Name, t); err != nil {
		return nil, controlflow.NoneFlow, repositioned(err, s.Pos())
	}
	return t, controlflow.NoneFlow, nil
}

// execPush implements `push V into L` (spec §4.4.7): L must already
// be a list, since Lists have reference semantics the mutation is
// visible through every alias.
func execPush(i *Interp, env *value.Environment, s *ast.PushStatement) (value.Value, controlflow.ControlFlow, error) {
	v, err := EvalExpr(i, env, s.Value)
	if err != nil {
		return nil, controlflow.NoneFlow, err
	}
	target, err := EvalExpr(i, env, s.Into)
	if err != nil {
		return nil, controlflow.NoneFlow, err
	}
	lst, ok := target.(*value.List)
	if !ok {
		return nil, controlflow.NoneFlow, wflerr.New("cannot push into "+target.TypeName(), s.Pos().Line, s.Pos().Column)
	}
	lst.Elements = append(lst.Elements, v)
	return lst, controlflow.NoneFlow, nil
}

// execAddTo implements `add V to TARGET` (spec §4.4.7): TARGET may be
// a list (push alias) or a number (arithmetic += semantics).
func execAddTo(i *Interp, env *value.Environment, s *ast.AddToStatement) (value.Value, controlflow.ControlFlow, error) {
	v, err := EvalExpr(i, env, s.Value)
	if err != nil {
		return nil, controlflow.NoneFlow, err
	}
	target, err := EvalExpr(i, env, s.Target)
	if err != nil {
		return nil, controlflow.NoneFlow, err
	}
	switch t := target.(type) {
	case *value.List:
		t.Elements = append(t.Elements, v)
		return t, controlflow.NoneFlow, nil
	case value.Number:
		n, ok := v.(value.Number)
		if !ok {
			return nil, controlflow.NoneFlow, wflerr.New("cannot add "+v.TypeName()+" to a number", s.Pos().Line, s.Pos().Column)
		}
		sum := value.Number(float64(t) + float64(n))
		if id, isIdent := s.Target.(*ast.Identifier); isIdent {
			if aerr := env.Assign(id.Name, sum); aerr != nil {
				return nil, controlflow.NoneFlow, repositioned(aerr, s.Pos())
			}
		}
		return sum, controlflow.NoneFlow, nil
	default:
		return nil, controlflow.NoneFlow, wflerr.New("cannot add to "+target.TypeName(), s.Pos().Line, s.Pos().Column)
	}
}

// execRemoveFromList removes the first occurrence of Value, compared
// via value.Equal (spec §4.4.7).
func execRemoveFromList(i *Interp, env *value.Environment, s *ast.RemoveFromList) (value.Value, controlflow.ControlFlow, error) {
	v, err := EvalExpr(i, env, s.Value)
	if err != nil {
		return nil, controlflow.NoneFlow, err
	}
	target, err := EvalExpr(i, env, s.From)
	if err != nil {
		return nil, controlflow.NoneFlow, err
	}
	lst, ok := target.(*value.List)
	if !ok {
		return nil, controlflow.NoneFlow, wflerr.New("cannot remove from "+target.TypeName(), s.Pos().Line, s.Pos().Column)
	}
	for idx, e := range lst.Elements {
		if value.Equal(e, v) {
			lst.Elements = append(lst.Elements[:idx], lst.Elements[idx+1:]...)
			break
		}
	}
	return lst, controlflow.NoneFlow, nil
}

func execClearList(i *Interp, env *value.Environment, s *ast.ClearList) (value.Value, controlflow.ControlFlow, error) {
	target, err := EvalExpr(i, env, s.List)
	if err != nil {
		return nil, controlflow.NoneFlow, err
	}
	lst, ok := target.(*value.List)
	if !ok {
		return nil, controlflow.NoneFlow, wflerr.New("cannot clear "+target.TypeName(), s.Pos().Line, s.Pos().Column)
	}
	lst.Elements = lst.Elements[:0]
	return lst, controlflow.NoneFlow, nil
}
