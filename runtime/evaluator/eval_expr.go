package evaluator

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/wfl-lang/wflcore/core/ast"
	"github.com/wfl-lang/wflcore/core/controlflow"
	"github.com/wfl-lang/wflcore/core/value"
	"github.com/wfl-lang/wflcore/core/wflerr"
	"github.com/wfl-lang/wflcore/runtime/pattern"
)

// EvalExpr evaluates expr to a Value against env (spec §4.3). It is
// the ExpressionEvaluator half of the mutually recursive evaluator;
// ExecStmt (exec_stmt.go) is the other half.
func EvalExpr(i *Interp, env *value.Environment, expr ast.Expression) (value.Value, error) {
	if err := i.CheckTimeout(expr.Pos().Line, expr.Pos().Column); err != nil {
		return nil, err
	}
	switch e := expr.(type) {
	case *ast.Literal:
		return evalLiteral(i, env, e)
	case *ast.Identifier:
		return lookupIdentifier(i, env, e.Name, e.Line, e.Column)
	case *ast.BinaryExpr:
		return evalBinary(i, env, e)
	case *ast.UnaryExpr:
		return evalUnary(i, env, e)
	case *ast.CallExpr:
		return evalCall(i, env, e)
	case *ast.MemberAccess:
		return evalMemberAccess(i, env, e)
	case *ast.PropertyAccess:
		return evalPropertyAccess(i, env, e)
	case *ast.IndexExpr:
		return evalIndex(i, env, e)
	case *ast.MethodCall:
		return evalMethodCall(i, env, e)
	case *ast.ParentMethodCall:
		return evalParentMethodCall(i, env, e)
	case *ast.StaticMemberAccess:
		return evalStaticMemberAccess(i, env, e)
	case *ast.PatternMatchExpr:
		return evalPatternMatch(i, env, e)
	case *ast.PatternFindExpr:
		return evalPatternFind(i, env, e)
	case *ast.PatternReplaceExpr:
		return evalPatternReplace(i, env, e)
	case *ast.PatternSplitExpr:
		return evalPatternSplit(i, env, e)
	case *ast.IOExpr:
		return evalIOExpr(i, env, e)
	case *ast.AwaitExpr:
		return evalAwait(i, env, e)
	case *ast.FunctionLiteral:
		return &value.Function{Name: e.Name, Params: e.Params, Body: e.Body, Env: value.Weak(env), Line: e.Line, Column: e.Column}, nil
	default:
		return nil, wflerr.New(fmt.Sprintf("unhandled expression type %T", expr), expr.Pos().Line, expr.Pos().Column)
	}
}

func evalLiteral(i *Interp, env *value.Environment, lit *ast.Literal) (value.Value, error) {
	switch lit.Kind {
	case ast.LitString:
		return value.Text(lit.Str), nil
	case ast.LitInteger:
		return value.Number(float64(lit.Int)), nil
	case ast.LitFloat:
		return value.Number(lit.Float), nil
	case ast.LitBoolean:
		return value.Bool(lit.Bool), nil
	case ast.LitNothing:
		return value.Null, nil
	case ast.LitPattern:
		compiled, err := pattern.Compile(lit.Str, false)
		if err != nil {
			return nil, wflerr.New("invalid pattern: "+err.Error(), lit.Line, lit.Column)
		}
		return value.Pattern{Compiled: compiled}, nil
	case ast.LitList:
		elems := make([]value.Value, 0, len(lit.Elements))
		for _, el := range lit.Elements {
			v, err := EvalExpr(i, env, el)
			if err != nil {
				return nil, err
			}
			elems = append(elems, v)
		}
		return value.NewList(elems...), nil
	default:
		return nil, wflerr.New("unknown literal kind", lit.Line, lit.Column)
	}
}

// ---- Numeric / boolean semantics (spec §4.3) ----

func evalBinary(i *Interp, env *value.Environment, e *ast.BinaryExpr) (value.Value, error) {
	left, err := EvalExpr(i, env, e.Left)
	if err != nil {
		return nil, err
	}
	right, err := EvalExpr(i, env, e.Right)
	if err != nil {
		return nil, err
	}
	pos := e.Pos()

	switch e.Op {
	case ast.OpAdd:
		ln, lok := left.(value.Number)
		rn, rok := right.(value.Number)
		if lok && rok {
			return value.Number(float64(ln) + float64(rn)), nil
		}
		if isTextOperand(left) || isTextOperand(right) {
			return value.Text(left.Display() + right.Display()), nil
		}
		return nil, wflerr.New("cannot add "+left.TypeName()+" and "+right.TypeName(), pos.Line, pos.Column)
	case ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod:
		ln, lok := left.(value.Number)
		rn, rok := right.(value.Number)
		if !lok || !rok {
			return nil, wflerr.New("arithmetic requires two numbers", pos.Line, pos.Column)
		}
		return evalArith(e.Op, float64(ln), float64(rn), pos.Line, pos.Column)
	case ast.OpEq:
		return value.Bool(value.Equal(left, right)), nil
	case ast.OpNeq:
		return value.Bool(!value.Equal(left, right)), nil
	case ast.OpLt, ast.OpGt, ast.OpLte, ast.OpGte:
		return evalOrdering(e.Op, left, right, pos.Line, pos.Column)
	case ast.OpAnd:
		return value.Bool(left.Truthy() && right.Truthy()), nil
	case ast.OpOr:
		return value.Bool(left.Truthy() || right.Truthy()), nil
	case ast.OpContains:
		ok, comparable := value.Contains(left, right)
		if !comparable {
			return nil, wflerr.New("'contains' not supported between "+left.TypeName()+" and "+right.TypeName(), pos.Line, pos.Column)
		}
		return value.Bool(ok), nil
	default:
		return nil, wflerr.New("unknown operator", pos.Line, pos.Column)
	}
}

func isTextOperand(v value.Value) bool {
	_, ok := v.(value.Text)
	return ok
}

func evalArith(op ast.Operator, l, r float64, line, col int) (value.Value, error) {
	switch op {
	case ast.OpSub:
		return value.Number(l - r), nil
	case ast.OpMul:
		return value.Number(l * r), nil
	case ast.OpDiv:
		if r == 0 {
			return nil, wflerr.New("Division by zero", line, col)
		}
		result := l / r
		if math.IsInf(result, 0) || math.IsNaN(result) {
			return nil, wflerr.New("division produced a non-finite result", line, col)
		}
		return value.Number(result), nil
	case ast.OpMod:
		if r == 0 {
			return nil, wflerr.New("Modulo by zero", line, col)
		}
		result := math.Mod(l, r)
		if math.IsInf(result, 0) || math.IsNaN(result) {
			return nil, wflerr.New("modulo produced a non-finite result", line, col)
		}
		return value.Number(result), nil
	}
	return nil, wflerr.New("unknown arithmetic operator", line, col)
}

func evalOrdering(op ast.Operator, left, right value.Value, line, col int) (value.Value, error) {
	lt, ok := value.Less(left, right)
	if !ok {
		return nil, wflerr.New("cannot order "+left.TypeName()+" and "+right.TypeName(), line, col)
	}
	eq := value.Equal(left, right)
	switch op {
	case ast.OpLt:
		return value.Bool(lt), nil
	case ast.OpGt:
		return value.Bool(!lt && !eq), nil
	case ast.OpLte:
		return value.Bool(lt || eq), nil
	case ast.OpGte:
		return value.Bool(!lt), nil
	}
	return nil, wflerr.New("unknown ordering operator", line, col)
}

func evalUnary(i *Interp, env *value.Environment, e *ast.UnaryExpr) (value.Value, error) {
	v, err := EvalExpr(i, env, e.Operand)
	if err != nil {
		return nil, err
	}
	pos := e.Pos()
	switch e.Op {
	case ast.UnaryNot:
		return value.Bool(!v.Truthy()), nil
	case ast.UnaryNeg:
		n, ok := v.(value.Number)
		if !ok {
			return nil, wflerr.New("cannot negate "+v.TypeName(), pos.Line, pos.Column)
		}
		return value.Number(-float64(n)), nil
	default:
		return nil, wflerr.New("unknown unary operator", pos.Line, pos.Column)
	}
}

// ---- Calls ----

func evalCall(i *Interp, env *value.Environment, e *ast.CallExpr) (value.Value, error) {
	callee, err := EvalExpr(i, env, e.Callee)
	if err != nil {
		return nil, err
	}
	args := make([]value.Value, 0, len(e.Args))
	for _, a := range e.Args {
		v, err := EvalExpr(i, env, a)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return Invoke(i, callee, args, e.Pos().Line, e.Pos().Column)
}

// Invoke calls a Function or NativeFunction value with args (spec
// §4.4.5). It is exported so statement execution (action calls,
// initialize, event triggers) can share the same call machinery.
func Invoke(i *Interp, callee value.Value, args []value.Value, line, col int) (value.Value, error) {
	switch fn := callee.(type) {
	case *value.Function:
		return invokeFunction(i, fn, args, line, col)
	case *value.NativeFunction:
		if fn.Arity >= 0 && len(args) != fn.Arity {
			return nil, wflerr.New(fmt.Sprintf("'%s' expects %d argument(s), got %d", fn.Name, fn.Arity, len(args)), line, col)
		}
		v, err := fn.Fn(args)
		if err != nil {
			return nil, wflerr.New(err.Error(), line, col)
		}
		return v, nil
	default:
		return nil, wflerr.New("value of type "+callee.TypeName()+" is not callable", line, col)
	}
}

func invokeFunction(i *Interp, fn *value.Function, args []value.Value, line, col int) (value.Value, error) {
	if len(args) != len(fn.Params) {
		return nil, wflerr.New(fmt.Sprintf("'%s' expects %d argument(s), got %d", displayName(fn), len(fn.Params), len(args)), line, col)
	}
	definingEnv := fn.Env.Value()
	if definingEnv == nil {
		return nil, wflerr.WithKind("defining environment was dropped", line, col, wflerr.EnvDropped)
	}
	callEnv := value.NewChild(definingEnv)
	for idx, p := range fn.Params {
		if err := callEnv.Define(p, args[idx]); err != nil {
			return nil, err
		}
	}
	if err := i.PushFrame(displayName(fn), line, col); err != nil {
		return nil, err
	}
	result, flow, err := ExecBlock(i, callEnv, fn.Body)
	if err != nil {
		i.PopFrame(snapshotLocals(callEnv, fn.Params))
		return nil, err
	}
	i.PopFrame(nil)
	if flow.Tag == controlflow.Return {
		return flow.Value, nil
	}
	return result, nil
}

func displayName(fn *value.Function) string {
	if fn.Name != "" {
		return fn.Name
	}
	return "<anonymous function>"
}

func snapshotLocals(env *value.Environment, params []string) map[string]value.Value {
	locals := make(map[string]value.Value, len(params))
	for _, p := range params {
		if v, err := env.Get(p); err == nil {
			locals[p] = v
		}
	}
	return locals
}

// ---- Member / index / method access ----

func evalMemberAccess(i *Interp, env *value.Environment, e *ast.MemberAccess) (value.Value, error) {
	obj, err := EvalExpr(i, env, e.Object)
	if err != nil {
		return nil, err
	}
	pos := e.Pos()
	switch o := obj.(type) {
	case *value.Object:
		v, ok := o.Get(e.Prop)
		if !ok {
			return nil, wflerr.New("no such property '"+e.Prop+"'", pos.Line, pos.Column)
		}
		return v, nil
	case *value.ContainerInstance:
		v, ok := o.Properties[e.Prop]
		if !ok {
			return nil, wflerr.New("no such property '"+e.Prop+"'", pos.Line, pos.Column)
		}
		return v, nil
	case *value.List:
		return listOrTextLengthProperty(o.Elements, e.Prop, pos.Line, pos.Column)
	case value.Text:
		return textLengthProperty(string(o), e.Prop, pos.Line, pos.Column)
	default:
		return nil, wflerr.New("cannot access property of "+obj.TypeName(), pos.Line, pos.Column)
	}
}

func evalPropertyAccess(i *Interp, env *value.Environment, e *ast.PropertyAccess) (value.Value, error) {
	obj, err := EvalExpr(i, env, e.Object)
	if err != nil {
		return nil, err
	}
	key, err := EvalExpr(i, env, e.Key)
	if err != nil {
		return nil, err
	}
	o, ok := obj.(*value.Object)
	if !ok {
		return nil, wflerr.New("property access requires an object", e.Pos().Line, e.Pos().Column)
	}
	keyText, ok := key.(value.Text)
	if !ok {
		return nil, wflerr.New("property key must be text", e.Pos().Line, e.Pos().Column)
	}
	v, ok := o.Get(string(keyText))
	if !ok {
		return value.Null, nil
	}
	return v, nil
}

func evalIndex(i *Interp, env *value.Environment, e *ast.IndexExpr) (value.Value, error) {
	coll, err := EvalExpr(i, env, e.Collection)
	if err != nil {
		return nil, err
	}
	idx, err := EvalExpr(i, env, e.Index)
	if err != nil {
		return nil, err
	}
	pos := e.Pos()
	switch c := coll.(type) {
	case *value.List:
		n, ok := idx.(value.Number)
		if !ok {
			return nil, wflerr.New("list index must be a number", pos.Line, pos.Column)
		}
		idxInt := int(n)
		if idxInt < 1 || idxInt > len(c.Elements) {
			return nil, wflerr.New(fmt.Sprintf("index %d out of bounds (length %d)", idxInt, len(c.Elements)), pos.Line, pos.Column)
		}
		return c.Elements[idxInt-1], nil
	case *value.Object:
		key, ok := idx.(value.Text)
		if !ok {
			return nil, wflerr.New("object key must be text", pos.Line, pos.Column)
		}
		v, ok := c.Get(string(key))
		if !ok {
			return nil, wflerr.New("no such key '"+string(key)+"'", pos.Line, pos.Column)
		}
		return v, nil
	default:
		return nil, wflerr.New("cannot index "+coll.TypeName(), pos.Line, pos.Column)
	}
}

func listOrTextLengthProperty(elems []value.Value, prop string, line, col int) (value.Value, error) {
	switch prop {
	case "length", "size", "count":
		return value.Number(float64(len(elems))), nil
	default:
		return nil, wflerr.New("no such property '"+prop+"'", line, col)
	}
}

func textLengthProperty(s, prop string, line, col int) (value.Value, error) {
	switch prop {
	case "length", "size", "count":
		return value.Number(float64(utf8.RuneCountInString(s))), nil
	default:
		return nil, wflerr.New("no such property '"+prop+"'", line, col)
	}
}

// evalMethodCall dispatches by receiver type (spec §4.3).
func evalMethodCall(i *Interp, env *value.Environment, e *ast.MethodCall) (value.Value, error) {
	recv, err := EvalExpr(i, env, e.Receiver)
	if err != nil {
		return nil, err
	}
	args := make([]value.Value, 0, len(e.Args))
	for _, a := range e.Args {
		v, err := EvalExpr(i, env, a)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	pos := e.Pos()
	switch r := recv.(type) {
	case *value.ContainerInstance:
		return i.Containers.CallMethod(r, e.Method, args)
	case *value.List:
		return listMethod(r, e.Method, args, pos.Line, pos.Column)
	case *value.Object:
		return objectMethod(r, e.Method, args, pos.Line, pos.Column)
	case value.Text:
		return textMethod(string(r), e.Method, args, pos.Line, pos.Column)
	default:
		return nil, wflerr.New("type "+recv.TypeName()+" has no method '"+e.Method+"'", pos.Line, pos.Column)
	}
}

func listMethod(l *value.List, method string, args []value.Value, line, col int) (value.Value, error) {
	switch method {
	case "size", "length", "count":
		return value.Number(float64(len(l.Elements))), nil
	case "isEmpty":
		return value.Bool(len(l.Elements) == 0), nil
	case "contains":
		if len(args) != 1 {
			return nil, wflerr.New("contains expects 1 argument", line, col)
		}
		ok, _ := value.Contains(l, args[0])
		return value.Bool(ok), nil
	case "get":
		if len(args) != 1 {
			return nil, wflerr.New("get expects 1 argument", line, col)
		}
		n, ok := args[0].(value.Number)
		if !ok {
			return nil, wflerr.New("get expects a number index", line, col)
		}
		idx := int(n)
		if idx < 1 || idx > len(l.Elements) {
			return nil, wflerr.New(fmt.Sprintf("index %d out of bounds (length %d)", idx, len(l.Elements)), line, col)
		}
		return l.Elements[idx-1], nil
	default:
		return nil, wflerr.New("list has no method '"+method+"'", line, col)
	}
}

func objectMethod(o *value.Object, method string, args []value.Value, line, col int) (value.Value, error) {
	switch method {
	case "size", "length", "count":
		return value.Number(float64(len(o.Keys()))), nil
	case "keys":
		keys := o.Keys()
		elems := make([]value.Value, len(keys))
		for idx, k := range keys {
			elems[idx] = value.Text(k)
		}
		return value.NewList(elems...), nil
	case "values":
		keys := o.Keys()
		elems := make([]value.Value, len(keys))
		for idx, k := range keys {
			v, _ := o.Get(k)
			elems[idx] = v
		}
		return value.NewList(elems...), nil
	case "containsKey":
		if len(args) != 1 {
			return nil, wflerr.New("containsKey expects 1 argument", line, col)
		}
		key, ok := args[0].(value.Text)
		if !ok {
			return nil, wflerr.New("containsKey expects a text key", line, col)
		}
		_, exists := o.Get(string(key))
		return value.Bool(exists), nil
	default:
		return nil, wflerr.New("object has no method '"+method+"'", line, col)
	}
}

var titleCaser = cases.Title(language.Und)

func textMethod(s, method string, args []value.Value, line, col int) (value.Value, error) {
	switch method {
	case "length", "size", "count":
		return value.Number(float64(utf8.RuneCountInString(s))), nil
	case "contains":
		arg, err := requireText(args, "contains", line, col)
		if err != nil {
			return nil, err
		}
		return value.Bool(strings.Contains(s, arg)), nil
	case "startsWith":
		arg, err := requireText(args, "startsWith", line, col)
		if err != nil {
			return nil, err
		}
		return value.Bool(strings.HasPrefix(s, arg)), nil
	case "endsWith":
		arg, err := requireText(args, "endsWith", line, col)
		if err != nil {
			return nil, err
		}
		return value.Bool(strings.HasSuffix(s, arg)), nil
	case "toUpper":
		return value.Text(cases.Upper(language.Und).String(s)), nil
	case "toLower":
		return value.Text(cases.Lower(language.Und).String(s)), nil
	case "trim":
		return value.Text(strings.TrimSpace(s)), nil
	case "substring":
		return textSubstring(s, args, line, col)
	default:
		return nil, wflerr.New("text has no method '"+method+"'", line, col)
	}
}

func requireText(args []value.Value, method string, line, col int) (string, error) {
	if len(args) != 1 {
		return "", wflerr.New(method+" expects 1 argument", line, col)
	}
	t, ok := args[0].(value.Text)
	if !ok {
		return "", wflerr.New(method+" expects a text argument", line, col)
	}
	return string(t), nil
}

// textSubstring is char-aware (Unicode scalar indexing, spec §4.3).
func textSubstring(s string, args []value.Value, line, col int) (value.Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, wflerr.New("substring expects 1 or 2 arguments", line, col)
	}
	runes := []rune(s)
	startN, ok := args[0].(value.Number)
	if !ok {
		return nil, wflerr.New("substring start must be a number", line, col)
	}
	start := int(startN)
	if start < 0 || start > len(runes) {
		return nil, wflerr.New("substring start out of bounds", line, col)
	}
	end := len(runes)
	if len(args) == 2 {
		ln, ok := args[1].(value.Number)
		if !ok {
			return nil, wflerr.New("substring length must be a number", line, col)
		}
		end = start + int(ln)
		if end > len(runes) {
			end = len(runes)
		}
	}
	if end < start {
		end = start
	}
	return value.Text(string(runes[start:end])), nil
}

func evalParentMethodCall(i *Interp, env *value.Environment, e *ast.ParentMethodCall) (value.Value, error) {
	thisVal, err := env.Get("this")
	if err != nil {
		return nil, wflerr.New("'parent' used outside a container method", e.Pos().Line, e.Pos().Column)
	}
	recv, ok := thisVal.(*value.ContainerInstance)
	if !ok {
		return nil, wflerr.New("'parent' used outside a container method", e.Pos().Line, e.Pos().Column)
	}
	args := make([]value.Value, 0, len(e.Args))
	for _, a := range e.Args {
		v, err := EvalExpr(i, env, a)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return i.Containers.CallParentMethod(recv, e.Method, args)
}

func evalStaticMemberAccess(i *Interp, env *value.Environment, e *ast.StaticMemberAccess) (value.Value, error) {
	defVal, err := env.Get(e.Container)
	if err != nil {
		return nil, wflerr.New("unknown container '"+e.Container+"'", e.Pos().Line, e.Pos().Column)
	}
	def, ok := defVal.(*value.ContainerDefinition)
	if !ok {
		return nil, wflerr.New("'"+e.Container+"' is not a container", e.Pos().Line, e.Pos().Column)
	}
	if !e.IsCall {
		v, ok := def.StaticProperties[e.Member]
		if !ok {
			return nil, wflerr.New("no such static property '"+e.Member+"'", e.Pos().Line, e.Pos().Column)
		}
		return v, nil
	}
	args := make([]value.Value, 0, len(e.Args))
	for _, a := range e.Args {
		v, err := EvalExpr(i, env, a)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return i.Containers.CallStaticMethod(def, e.Member, args)
}

func evalAwait(i *Interp, env *value.Environment, e *ast.AwaitExpr) (value.Value, error) {
	// The cooperative-async model maps 1:1 onto synchronous Go calls
	// here: every suspension point (I/O, subprocess, HTTP) already
	// blocks the calling goroutine rather than yielding to a runtime
	// scheduler, so awaiting its result is simply evaluating it.
	return EvalExpr(i, env, e.Operand)
}
