package evaluator

import (
	"fmt"

	"github.com/wfl-lang/wflcore/core/ast"
	"github.com/wfl-lang/wflcore/core/controlflow"
	"github.com/wfl-lang/wflcore/core/value"
	"github.com/wfl-lang/wflcore/core/wflerr"
)

// ExecStmt executes one statement against env, returning its result
// value and any control-flow signal (spec §4.4). This is the
// StatementExecutor half of the mutually recursive evaluator.
func ExecStmt(i *Interp, env *value.Environment, stmt ast.Statement) (value.Value, controlflow.ControlFlow, error) {
	pos := stmt.Pos()
	if err := i.CheckTimeout(pos.Line, pos.Column); err != nil {
		return nil, controlflow.NoneFlow, err
	}

	switch s := stmt.(type) {
	case *ast.VarDecl:
		return execVarDecl(i, env, s)
	case *ast.Assignment:
		return execAssignment(i, env, s)
	case *ast.ExprStatement:
		v, err := EvalExpr(i, env, s.Expr)
		return v, controlflow.NoneFlow, err
	case *ast.DisplayStatement:
		return execDisplay(i, env, s)
	case *ast.IfStatement:
		return execIf(i, env, s)
	case *ast.SingleLineIf:
		return execSingleLineIf(i, env, s)
	case *ast.CountLoop:
		return execCountLoop(i, env, s)
	case *ast.ForEachLoop:
		return execForEachLoop(i, env, s)
	case *ast.WhileLoop:
		return execWhileLoop(i, env, s)
	case *ast.RepeatUntilLoop:
		return execRepeatUntilLoop(i, env, s)
	case *ast.RepeatWhileLoop:
		return execRepeatWhileLoop(i, env, s)
	case *ast.ForeverLoop:
		return execForeverLoop(i, env, s)
	case *ast.MainLoop:
		return execMainLoop(i, env, s)
	case *ast.BreakStatement:
		return value.Null, controlflow.BreakFlow, nil
	case *ast.ContinueStatement:
		return value.Null, controlflow.ContinueFlow, nil
	case *ast.ExitStatement:
		return value.Null, controlflow.ExitFlow, nil
	case *ast.ReturnStatement:
		return execReturn(i, env, s)
	case *ast.TryStatement:
		return execTry(i, env, s)
	case *ast.ActionDecl:
		return execActionDecl(i, env, s)
	case *ast.ContainerDecl:
		return execContainerDecl(i, env, s)
	case *ast.InterfaceDecl:
		return execInterfaceDecl(i, env, s)
	case *ast.CreateInstance:
		return execCreateInstance(i, env, s)
	case *ast.EventDecl:
		return execEventDecl(i, env, s)
	case *ast.OnEventHandler:
		return execOnEventHandler(i, env, s)
	case *ast.TriggerEvent:
		return execTriggerEvent(i, env, s)
	case *ast.CreateList:
		return execCreateList(i, env, s)
	case *ast.CreateMap:
		return execCreateMap(i, env, s)
	case *ast.CreateDate:
		return execCreateDate(i, env, s)
	case *ast.CreateTime:
		return execCreateTime(i, env, s)
	case *ast.PushStatement:
		return execPush(i, env, s)
	case *ast.AddToStatement:
		return execAddTo(i, env, s)
	case *ast.RemoveFromList:
		return execRemoveFromList(i, env, s)
	case *ast.ClearList:
		return execClearList(i, env, s)
	case *ast.OpenFileStatement:
		return execOpenFile(i, env, s)
	case *ast.ReadFileStatement:
		return execReadFile(i, env, s)
	case *ast.WriteFileStatement:
		return execWriteFile(i, env, s)
	case *ast.CloseFileStatement:
		return execCloseFile(i, env, s)
	case *ast.CreateDirectory:
		return execCreateDirectory(i, env, s)
	case *ast.CreateFile:
		return execCreateFile(i, env, s)
	case *ast.DeleteFile:
		return execDeleteFile(i, env, s)
	case *ast.DeleteDirectory:
		return execDeleteDirectory(i, env, s)
	case *ast.ExecuteCommand:
		return execExecuteCommand(i, env, s)
	case *ast.SpawnCommand:
		return execSpawnCommand(i, env, s)
	case *ast.KillProcess:
		return execKillProcess(i, env, s)
	case *ast.WaitForProcess:
		return execWaitForProcess(i, env, s)
	case *ast.ReadProcessOutput:
		return execReadProcessOutput(i, env, s)
	case *ast.HTTPGet:
		return execHTTPGet(i, env, s)
	case *ast.HTTPPost:
		return execHTTPPost(i, env, s)
	case *ast.ListenStatement:
		return execListen(i, env, s)
	case *ast.WaitForRequest:
		return execWaitForRequest(i, env, s)
	case *ast.RespondStatement:
		return execRespond(i, env, s)
	case *ast.CloseServerStatement:
		return execCloseServer(i, env, s)
	case *ast.WaitForStatement:
		return execWaitFor(i, env, s)
	case *ast.BlockStatement:
		return ExecBlock(i, value.NewChild(env), s.Body)
	default:
		return nil, controlflow.NoneFlow, wflerr.New(fmt.Sprintf("unhandled statement type %T", stmt), pos.Line, pos.Column)
	}
}

// ExecBlock executes a sequence of statements, stopping as soon as any
// one yields a non-None ControlFlow (spec §4.1).
func ExecBlock(i *Interp, env *value.Environment, stmts []ast.Statement) (value.Value, controlflow.ControlFlow, error) {
	var result value.Value = value.Null
	for _, stmt := range stmts {
		v, flow, err := ExecStmt(i, env, stmt)
		if err != nil {
			return nil, controlflow.NoneFlow, err
		}
		result = v
		if !flow.IsNone() {
			return result, flow, nil
		}
	}
	return result, controlflow.NoneFlow, nil
}

func execVarDecl(i *Interp, env *value.Environment, s *ast.VarDecl) (value.Value, controlflow.ControlFlow, error) {
	v, err := EvalExpr(i, env, s.Value)
	if err != nil {
		return nil, controlflow.NoneFlow, err
	}
	// Special literal form (spec §4.4.1): a declared value that is the
	// text "[]" is re-interpreted as an empty List.
	if t, ok := v.(value.Text); ok && string(t) == "[]" {
		v = value.NewList()
	}
	if s.Constant {
		if err := env.DefineConstant(s.Name, v); err != nil {
			return nil, controlflow.NoneFlow, repositioned(err, s.Pos())
		}
		return v, controlflow.NoneFlow, nil
	}
	// §4.2: declaring an already-current-scope-bound name assigns
	// rather than shadows, so `store x as ...` inside a container
	// method can write back to a shadowed `this.x` local.
	if err := env.DeclareOrAssign(s.Name, v); err != nil {
		return nil, controlflow.NoneFlow, repositioned(err, s.Pos())
	}
	return v, controlflow.NoneFlow, nil
}

func execAssignment(i *Interp, env *value.Environment, s *ast.Assignment) (value.Value, controlflow.ControlFlow, error) {
	v, err := EvalExpr(i, env, s.Value)
	if err != nil {
		return nil, controlflow.NoneFlow, err
	}
	if err := env.Assign(s.Name, v); err != nil {
		return nil, controlflow.NoneFlow, repositioned(err, s.Pos())
	}
	return v, controlflow.NoneFlow, nil
}

func execDisplay(i *Interp, env *value.Environment, s *ast.DisplayStatement) (value.Value, controlflow.ControlFlow, error) {
	v, err := EvalExpr(i, env, s.Value)
	if err != nil {
		return nil, controlflow.NoneFlow, err
	}
	fmt.Println(v.Display())
	return v, controlflow.NoneFlow, nil
}

func execIf(i *Interp, env *value.Environment, s *ast.IfStatement) (value.Value, controlflow.ControlFlow, error) {
	cond, err := EvalExpr(i, env, s.Cond)
	if err != nil {
		return nil, controlflow.NoneFlow, err
	}
	if cond.Truthy() {
		return ExecBlock(i, value.NewChild(env), s.Then)
	}
	if s.Else != nil {
		return ExecBlock(i, value.NewChild(env), s.Else)
	}
	return value.Null, controlflow.NoneFlow, nil
}

func execSingleLineIf(i *Interp, env *value.Environment, s *ast.SingleLineIf) (value.Value, controlflow.ControlFlow, error) {
	cond, err := EvalExpr(i, env, s.Cond)
	if err != nil {
		return nil, controlflow.NoneFlow, err
	}
	if cond.Truthy() {
		return ExecStmt(i, env, s.Then)
	}
	if s.Else != nil {
		return ExecStmt(i, env, s.Else)
	}
	return value.Null, controlflow.NoneFlow, nil
}

func execReturn(i *Interp, env *value.Environment, s *ast.ReturnStatement) (value.Value, controlflow.ControlFlow, error) {
	if s.Value == nil {
		return value.Null, controlflow.ReturnFlow(value.Null), nil
	}
	v, err := EvalExpr(i, env, s.Value)
	if err != nil {
		return nil, controlflow.NoneFlow, err
	}
	return v, controlflow.ReturnFlow(v), nil
}

func execTry(i *Interp, env *value.Environment, s *ast.TryStatement) (value.Value, controlflow.ControlFlow, error) {
	bodyEnv := value.NewChild(env)
	result, flow, err := ExecBlock(i, bodyEnv, s.Body)
	if err == nil {
		return result, flow, nil
	}
	re, ok := err.(*wflerr.RuntimeError)
	if !ok {
		return nil, controlflow.NoneFlow, err
	}
	for _, when := range s.When {
		if !errorKindMatches(when.ErrKind, re.Kind) {
			continue
		}
		whenEnv := value.NewChild(env)
		if when.Name != "" {
			if defErr := whenEnv.Define(when.Name, value.Text(re.Message)); defErr != nil {
				return nil, controlflow.NoneFlow, defErr
			}
		}
		return ExecBlock(i, whenEnv, when.Body)
	}
	if s.Otherwise != nil {
		return ExecBlock(i, value.NewChild(env), s.Otherwise)
	}
	return nil, controlflow.NoneFlow, err
}

// errorKindMatches implements spec §4.4.4: General matches every kind.
func errorKindMatches(clauseKind ast.ErrorType, errKind wflerr.Kind) bool {
	if clauseKind == ast.ErrTypeGeneral {
		return true
	}
	switch clauseKind {
	case ast.ErrTypeFileNotFound:
		return errKind == wflerr.FileNotFound
	case ast.ErrTypePermissionDenied:
		return errKind == wflerr.PermissionDenied
	}
	return false
}

func execActionDecl(i *Interp, env *value.Environment, s *ast.ActionDecl) (value.Value, controlflow.ControlFlow, error) {
	fn := &value.Function{Name: s.Name, Params: s.Params, Body: s.Body, Env: value.Weak(env), Line: s.Line, Column: s.Column}
	if err := env.Define(s.Name, fn); err != nil {
		return nil, controlflow.NoneFlow, repositioned(err, s.Pos())
	}
	return fn, controlflow.NoneFlow, nil
}

func execWaitFor(i *Interp, env *value.Environment, s *ast.WaitForStatement) (value.Value, controlflow.ControlFlow, error) {
	if s.Inner != nil {
		return ExecStmt(i, env, s.Inner)
	}
	// Spin-poll every 10ms up to 1000 iterations for the variable to
	// become non-Null (spec §4.4.12).
	for attempt := 0; attempt < 1000; attempt++ {
		v, err := env.Get(s.VarName)
		if err != nil {
			return nil, controlflow.NoneFlow, repositioned(err, s.Pos())
		}
		if !value.IsNull(v) {
			return v, controlflow.NoneFlow, nil
		}
		sleep10ms()
	}
	return nil, controlflow.NoneFlow, wflerr.New("timed out waiting for '"+s.VarName+"'", s.Pos().Line, s.Pos().Column)
}

// repositioned rewrites a position-less (0,0) RuntimeError (as
// produced by core/value, which has no access to source spans) with
// the statement's actual position.
func repositioned(err error, pos ast.Position) error {
	return attachPos(err, pos)
}
