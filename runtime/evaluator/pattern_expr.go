package evaluator

import (
	"github.com/wfl-lang/wflcore/core/ast"
	"github.com/wfl-lang/wflcore/core/value"
	"github.com/wfl-lang/wflcore/core/wflerr"
	"github.com/wfl-lang/wflcore/runtime/pattern"
)

// resolvePattern evaluates patExpr and accepts either a Value::Pattern
// or, per spec §4.3 ("Text overloads accept a Text pattern and behave
// as literal"), a Text value compiled as a literal pattern on the fly.
func resolvePattern(i *Interp, env *value.Environment, patExpr ast.Expression) (value.CompiledPattern, error) {
	v, err := EvalExpr(i, env, patExpr)
	if err != nil {
		return nil, err
	}
	switch p := v.(type) {
	case value.Pattern:
		return p.Compiled, nil
	case value.Text:
		return pattern.Compile(string(p), true)
	default:
		return nil, wflerr.New("expected a pattern or text, got "+v.TypeName(), patExpr.Pos().Line, patExpr.Pos().Column)
	}
}

func evalPatternMatch(i *Interp, env *value.Environment, e *ast.PatternMatchExpr) (value.Value, error) {
	subject, err := evalTextSubject(i, env, e.Subject)
	if err != nil {
		return nil, err
	}
	p, err := resolvePattern(i, env, e.Pattern)
	if err != nil {
		return nil, err
	}
	return value.Bool(p.Matches(subject)), nil
}

func evalPatternFind(i *Interp, env *value.Environment, e *ast.PatternFindExpr) (value.Value, error) {
	subject, err := evalTextSubject(i, env, e.Subject)
	if err != nil {
		return nil, err
	}
	p, err := resolvePattern(i, env, e.Pattern)
	if err != nil {
		return nil, err
	}
	if e.All {
		matches := p.FindAll(subject)
		elems := make([]value.Value, len(matches))
		for idx, m := range matches {
			elems[idx] = matchToObject(m)
		}
		return value.NewList(elems...), nil
	}
	m, ok := p.Find(subject)
	if !ok {
		return value.Null, nil
	}
	return matchToObject(m), nil
}

func matchToObject(m value.PatternMatch) *value.Object {
	obj := value.NewObject()
	obj.Set("match", value.Text(m.Match))
	obj.Set("index", value.Number(float64(m.Index)))
	obj.Set("length", value.Number(float64(m.Length)))
	captures := value.NewObject()
	for k, v := range m.Captures {
		captures.Set(k, value.Text(v))
	}
	obj.Set("captures", captures)
	return obj
}

func evalPatternReplace(i *Interp, env *value.Environment, e *ast.PatternReplaceExpr) (value.Value, error) {
	subject, err := evalTextSubject(i, env, e.Subject)
	if err != nil {
		return nil, err
	}
	p, err := resolvePattern(i, env, e.Pattern)
	if err != nil {
		return nil, err
	}
	replVal, err := EvalExpr(i, env, e.Replacement)
	if err != nil {
		return nil, err
	}
	repl, ok := replVal.(value.Text)
	if !ok {
		return nil, wflerr.New("replacement must be text", e.Pos().Line, e.Pos().Column)
	}
	// No backreferences in the replacement string (spec §9 open
	// question: explicitly unimplemented).
	matches := p.FindAll(subject)
	if len(matches) == 0 {
		return value.Text(subject), nil
	}
	var out []byte
	last := 0
	for _, m := range matches {
		out = append(out, subject[last:m.Index]...)
		out = append(out, repl...)
		last = m.Index + m.Length
	}
	out = append(out, subject[last:]...)
	return value.Text(string(out)), nil
}

func evalPatternSplit(i *Interp, env *value.Environment, e *ast.PatternSplitExpr) (value.Value, error) {
	subject, err := evalTextSubject(i, env, e.Subject)
	if err != nil {
		return nil, err
	}
	p, err := resolvePattern(i, env, e.Pattern)
	if err != nil {
		return nil, err
	}
	parts := p.Split(subject)
	elems := make([]value.Value, len(parts))
	for idx, s := range parts {
		elems[idx] = value.Text(s)
	}
	return value.NewList(elems...), nil
}

func evalTextSubject(i *Interp, env *value.Environment, expr ast.Expression) (string, error) {
	v, err := EvalExpr(i, env, expr)
	if err != nil {
		return "", err
	}
	t, ok := v.(value.Text)
	if !ok {
		return "", wflerr.New("expected text, got "+v.TypeName(), expr.Pos().Line, expr.Pos().Column)
	}
	return string(t), nil
}
