package evaluator

import (
	"github.com/wfl-lang/wflcore/core/ast"
	"github.com/wfl-lang/wflcore/core/value"
	"github.com/wfl-lang/wflcore/core/wflerr"
)

// evalIOExpr evaluates path arguments then issues the corresponding
// IoHost operation (spec §4.3).
func evalIOExpr(i *Interp, env *value.Environment, e *ast.IOExpr) (value.Value, error) {
	pos := e.Pos()
	switch e.Kind {
	case ast.IOFileExists:
		path, err := evalTextSubject(i, env, e.Path)
		if err != nil {
			return nil, err
		}
		return value.Bool(i.Host.FileExists(path)), nil
	case ast.IODirectoryExists:
		path, err := evalTextSubject(i, env, e.Path)
		if err != nil {
			return nil, err
		}
		return value.Bool(i.Host.DirectoryExists(path)), nil
	case ast.IOListFiles:
		path, err := evalTextSubject(i, env, e.Path)
		if err != nil {
			return nil, err
		}
		names, err := i.Host.ListFiles(path)
		if err != nil {
			return nil, attachPos(err, pos)
		}
		return textList(names), nil
	case ast.IOListFilesRecursive:
		path, err := evalTextSubject(i, env, e.Path)
		if err != nil {
			return nil, err
		}
		names, err := i.Host.ListFilesRecursive(path)
		if err != nil {
			return nil, attachPos(err, pos)
		}
		return textList(names), nil
	case ast.IOListFilesFiltered:
		path, err := evalTextSubject(i, env, e.Path)
		if err != nil {
			return nil, err
		}
		ext, err := evalTextSubject(i, env, e.Extension)
		if err != nil {
			return nil, err
		}
		names, err := i.Host.ListFilesFiltered(path, ext)
		if err != nil {
			return nil, attachPos(err, pos)
		}
		return textList(names), nil
	case ast.IOReadContent:
		path, err := evalTextSubject(i, env, e.Path)
		if err != nil {
			return nil, err
		}
		content, err := i.Host.ReadPathOneShot(path)
		if err != nil {
			return nil, attachPos(err, pos)
		}
		return value.Text(content), nil
	case ast.IOProcessRunning:
		id, err := evalTextSubject(i, env, e.ProcessID)
		if err != nil {
			return nil, err
		}
		return value.Bool(i.Host.ProcessRunning(id)), nil
	default:
		return nil, wflerr.New("unknown I/O expression kind", pos.Line, pos.Column)
	}
}

func textList(ss []string) *value.List {
	elems := make([]value.Value, len(ss))
	for idx, s := range ss {
		elems[idx] = value.Text(s)
	}
	return value.NewList(elems...)
}

// attachPos rewrites a RuntimeError's position to pos if it was
// created without one (line/column both zero) -- host-layer errors
// are built with position (0,0) since they don't see source spans.
func attachPos(err error, pos ast.Position) error {
	re, ok := err.(*wflerr.RuntimeError)
	if !ok {
		return err
	}
	if re.Line == 0 && re.Column == 0 {
		return wflerr.WithKind(re.Message, pos.Line, pos.Column, re.Kind)
	}
	return re
}
