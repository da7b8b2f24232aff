package evaluator

import (
	"github.com/wfl-lang/wflcore/core/ast"
	"github.com/wfl-lang/wflcore/core/controlflow"
	"github.com/wfl-lang/wflcore/core/value"
	"github.com/wfl-lang/wflcore/core/wflerr"
)

func asText(v value.Value, pos ast.Position) (string, error) {
	t, ok := v.(value.Text)
	if !ok {
		return "", wflerr.New("expected text, got "+v.TypeName(), pos.Line, pos.Column)
	}
	return string(t), nil
}

func evalPathExpr(i *Interp, env *value.Environment, expr ast.Expression) (string, error) {
	v, err := EvalExpr(i, env, expr)
	if err != nil {
		return "", err
	}
	return asText(v, expr.Pos())
}

func execOpenFile(i *Interp, env *value.Environment, s *ast.OpenFileStatement) (value.Value, controlflow.ControlFlow, error) {
	path, err := evalPathExpr(i, env, s.Path)
	if err != nil {
		return nil, controlflow.NoneFlow, err
	}
	handle, err := i.Host.OpenFile(path, s.Mode)
	if err != nil {
		return nil, controlflow.NoneFlow, attachPos(err, s.Pos())
	}
	hv := value.Text(handle)
	if err := env.DeclareOrAssign(s.AsName, hv); err != nil {
		return nil, controlflow.NoneFlow, repositioned(err, s.Pos())
	}
	return hv, controlflow.NoneFlow, nil
}

// execReadFile implements `read file PATH-OR-HANDLE into var` (spec
// §4.4.8): a string-literal path is a one-shot whole-file read, while
// any other expression is treated as an already-open handle.
func execReadFile(i *Interp, env *value.Environment, s *ast.ReadFileStatement) (value.Value, controlflow.ControlFlow, error) {
	var content string
	if lit, ok := s.PathOrHandle.(*ast.Literal); ok && lit.Kind == ast.LitString {
		c, err := i.Host.ReadPathOneShot(lit.Str)
		if err != nil {
			return nil, controlflow.NoneFlow, attachPos(err, s.Pos())
		}
		content = c
	} else {
		handleVal, err := EvalExpr(i, env, s.PathOrHandle)
		if err != nil {
			return nil, controlflow.NoneFlow, err
		}
		handle, err := asText(handleVal, s.Pos())
		if err != nil {
			return nil, controlflow.NoneFlow, err
		}
		c, err := i.Host.ReadAll(handle)
		if err != nil {
			return nil, controlflow.NoneFlow, attachPos(err, s.Pos())
		}
		content = c
	}
	v := value.Text(content)
	if err := env.DeclareOrAssign(s.AsName, v); err != nil {
		return nil, controlflow.NoneFlow, repositioned(err, s.Pos())
	}
	return v, controlflow.NoneFlow, nil
}

func execWriteFile(i *Interp, env *value.Environment, s *ast.WriteFileStatement) (value.Value, controlflow.ControlFlow, error) {
	handleVal, err := EvalExpr(i, env, s.Handle)
	if err != nil {
		return nil, controlflow.NoneFlow, err
	}
	handle, err := asText(handleVal, s.Pos())
	if err != nil {
		return nil, controlflow.NoneFlow, err
	}
	contentVal, err := EvalExpr(i, env, s.Content)
	if err != nil {
		return nil, controlflow.NoneFlow, err
	}
	if err := i.Host.WriteFile(handle, contentVal.Display(), s.Mode); err != nil {
		return nil, controlflow.NoneFlow, attachPos(err, s.Pos())
	}
	return value.Null, controlflow.NoneFlow, nil
}

func execCloseFile(i *Interp, env *value.Environment, s *ast.CloseFileStatement) (value.Value, controlflow.ControlFlow, error) {
	handleVal, err := EvalExpr(i, env, s.Handle)
	if err != nil {
		return nil, controlflow.NoneFlow, err
	}
	handle, err := asText(handleVal, s.Pos())
	if err != nil {
		return nil, controlflow.NoneFlow, err
	}
	if err := i.Host.CloseFile(handle); err != nil {
		return nil, controlflow.NoneFlow, attachPos(err, s.Pos())
	}
	return value.Null, controlflow.NoneFlow, nil
}

func execCreateDirectory(i *Interp, env *value.Environment, s *ast.CreateDirectory) (value.Value, controlflow.ControlFlow, error) {
	path, err := evalPathExpr(i, env, s.Path)
	if err != nil {
		return nil, controlflow.NoneFlow, err
	}
	if err := i.Host.CreateDirectory(path); err != nil {
		return nil, controlflow.NoneFlow, attachPos(err, s.Pos())
	}
	return value.Null, controlflow.NoneFlow, nil
}

func execCreateFile(i *Interp, env *value.Environment, s *ast.CreateFile) (value.Value, controlflow.ControlFlow, error) {
	path, err := evalPathExpr(i, env, s.Path)
	if err != nil {
		return nil, controlflow.NoneFlow, err
	}
	if err := i.Host.CreateFile(path); err != nil {
		return nil, controlflow.NoneFlow, attachPos(err, s.Pos())
	}
	return value.Null, controlflow.NoneFlow, nil
}

func execDeleteFile(i *Interp, env *value.Environment, s *ast.DeleteFile) (value.Value, controlflow.ControlFlow, error) {
	path, err := evalPathExpr(i, env, s.Path)
	if err != nil {
		return nil, controlflow.NoneFlow, err
	}
	if err := i.Host.DeleteFile(path); err != nil {
		return nil, controlflow.NoneFlow, attachPos(err, s.Pos())
	}
	return value.Null, controlflow.NoneFlow, nil
}

func execDeleteDirectory(i *Interp, env *value.Environment, s *ast.DeleteDirectory) (value.Value, controlflow.ControlFlow, error) {
	path, err := evalPathExpr(i, env, s.Path)
	if err != nil {
		return nil, controlflow.NoneFlow, err
	}
	if err := i.Host.DeleteDirectory(path); err != nil {
		return nil, controlflow.NoneFlow, attachPos(err, s.Pos())
	}
	return value.Null, controlflow.NoneFlow, nil
}

// ---- Subprocess statements (spec §4.4.9) ----

func evalArgs(i *Interp, env *value.Environment, exprs []ast.Expression) ([]string, error) {
	args := make([]string, 0, len(exprs))
	for _, e := range exprs {
		v, err := EvalExpr(i, env, e)
		if err != nil {
			return nil, err
		}
		args = append(args, v.Display())
	}
	return args, nil
}

func execExecuteCommand(i *Interp, env *value.Environment, s *ast.ExecuteCommand) (value.Value, controlflow.ControlFlow, error) {
	command, err := evalPathExpr(i, env, s.Command)
	if err != nil {
		return nil, controlflow.NoneFlow, err
	}
	args, err := evalArgs(i, env, s.Args)
	if err != nil {
		return nil, controlflow.NoneFlow, err
	}
	handle, err := i.Host.ExecuteCommand(command, args)
	if err != nil {
		return nil, controlflow.NoneFlow, attachPos(err, s.Pos())
	}
	hv := value.Text(handle)
	if err := env.DeclareOrAssign(s.AsName, hv); err != nil {
		return nil, controlflow.NoneFlow, repositioned(err, s.Pos())
	}
	return hv, controlflow.NoneFlow, nil
}

func execSpawnCommand(i *Interp, env *value.Environment, s *ast.SpawnCommand) (value.Value, controlflow.ControlFlow, error) {
	command, err := evalPathExpr(i, env, s.Command)
	if err != nil {
		return nil, controlflow.NoneFlow, err
	}
	args, err := evalArgs(i, env, s.Args)
	if err != nil {
		return nil, controlflow.NoneFlow, err
	}
	handle, err := i.Host.SpawnCommand(command, args)
	if err != nil {
		return nil, controlflow.NoneFlow, attachPos(err, s.Pos())
	}
	hv := value.Text(handle)
	if err := env.DeclareOrAssign(s.AsName, hv); err != nil {
		return nil, controlflow.NoneFlow, repositioned(err, s.Pos())
	}
	return hv, controlflow.NoneFlow, nil
}

func execKillProcess(i *Interp, env *value.Environment, s *ast.KillProcess) (value.Value, controlflow.ControlFlow, error) {
	handle, err := evalPathExpr(i, env, s.ProcessID)
	if err != nil {
		return nil, controlflow.NoneFlow, err
	}
	if err := i.Host.KillProcess(handle); err != nil {
		return nil, controlflow.NoneFlow, attachPos(err, s.Pos())
	}
	return value.Null, controlflow.NoneFlow, nil
}

func execWaitForProcess(i *Interp, env *value.Environment, s *ast.WaitForProcess) (value.Value, controlflow.ControlFlow, error) {
	handle, err := evalPathExpr(i, env, s.ProcessID)
	if err != nil {
		return nil, controlflow.NoneFlow, err
	}
	code, err := i.Host.WaitForProcess(handle, i.remainingTimeout())
	if err != nil {
		return nil, controlflow.NoneFlow, attachPos(err, s.Pos())
	}
	v := value.Number(code)
	if err := env.DeclareOrAssign(s.AsName, v); err != nil {
		return nil, controlflow.NoneFlow, repositioned(err, s.Pos())
	}
	return v, controlflow.NoneFlow, nil
}

func execReadProcessOutput(i *Interp, env *value.Environment, s *ast.ReadProcessOutput) (value.Value, controlflow.ControlFlow, error) {
	handle, err := evalPathExpr(i, env, s.ProcessID)
	if err != nil {
		return nil, controlflow.NoneFlow, err
	}
	stdout, stderr, _, _, err := i.Host.ReadProcessOutput(handle)
	if err != nil {
		return nil, controlflow.NoneFlow, attachPos(err, s.Pos())
	}
	out := value.NewObject()
	out.Set("stdout", value.Text(stdout))
	out.Set("stderr", value.Text(stderr))
	if err := env.DeclareOrAssign(s.AsName, out); err != nil {
		return nil, controlflow.NoneFlow, repositioned(err, s.Pos())
	}
	return out, controlflow.NoneFlow, nil
}

// ---- HTTP statements (spec §4.4.10) ----

func execHTTPGet(i *Interp, env *value.Environment, s *ast.HTTPGet) (value.Value, controlflow.ControlFlow, error) {
	url, err := evalPathExpr(i, env, s.URL)
	if err != nil {
		return nil, controlflow.NoneFlow, err
	}
	body, err := i.Host.Get(url)
	if err != nil {
		return nil, controlflow.NoneFlow, attachPos(err, s.Pos())
	}
	v := value.Text(body)
	if err := env.DeclareOrAssign(s.AsName, v); err != nil {
		return nil, controlflow.NoneFlow, repositioned(err, s.Pos())
	}
	return v, controlflow.NoneFlow, nil
}

func execHTTPPost(i *Interp, env *value.Environment, s *ast.HTTPPost) (value.Value, controlflow.ControlFlow, error) {
	url, err := evalPathExpr(i, env, s.URL)
	if err != nil {
		return nil, controlflow.NoneFlow, err
	}
	dataVal, err := EvalExpr(i, env, s.Data)
	if err != nil {
		return nil, controlflow.NoneFlow, err
	}
	requestBody := dataVal.Display()
	switch dataVal.(type) {
	case *value.Object, *value.List:
		// Structured bodies go out as real JSON rather than WFL's
		// Display() text (spec's HTTP expansion).
		if encoded, jerr := value.ToJSON(dataVal); jerr == nil {
			requestBody = encoded
		}
	}
	body, err := i.Host.Post(url, requestBody)
	if err != nil {
		return nil, controlflow.NoneFlow, attachPos(err, s.Pos())
	}
	v := value.Text(body)
	if err := env.DeclareOrAssign(s.AsName, v); err != nil {
		return nil, controlflow.NoneFlow, repositioned(err, s.Pos())
	}
	return v, controlflow.NoneFlow, nil
}
