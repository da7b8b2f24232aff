package evaluator

import (
	"time"

	"github.com/wfl-lang/wflcore/core/ast"
	"github.com/wfl-lang/wflcore/core/controlflow"
	"github.com/wfl-lang/wflcore/core/value"
	"github.com/wfl-lang/wflcore/core/wflerr"
)

// execListen implements `listen on PORT as NAME` (spec §4.4.11): NAME
// is both the script-level variable bound to the "WebServer::{ip}:{port}"
// text (spec §6.3) and the registry key every later server statement
// refers back to.
func execListen(i *Interp, env *value.Environment, s *ast.ListenStatement) (value.Value, controlflow.ControlFlow, error) {
	port, err := evalNumber(i, env, s.Port)
	if err != nil {
		return nil, controlflow.NoneFlow, err
	}
	addr, err := i.WebServers.Listen(s.AsName, i.BindAddress, int(port))
	if err != nil {
		return nil, controlflow.NoneFlow, repositioned(err, s.Pos())
	}
	v := value.Text("WebServer::" + addr)
	if err := env.DeclareOrAssign(s.AsName, v); err != nil {
		return nil, controlflow.NoneFlow, repositioned(err, s.Pos())
	}
	return v, controlflow.NoneFlow, nil
}

// serverName resolves the server identifier a statement refers to:
// almost always a bare identifier naming the `listen ... as NAME`
// binding itself, resolved directly by name rather than by evaluating
// its bound address text (which carries no registry key).
func serverName(env *value.Environment, expr ast.Expression) (string, error) {
	if id, ok := expr.(*ast.Identifier); ok {
		return id.Name, nil
	}
	return "", wflerr.New("expected a server name", expr.Pos().Line, expr.Pos().Column)
}

// execWaitForRequest implements `wait for request on SERVER as NAME`
// (spec §4.4.11): binds an Object exposing method/path/client_ip/body/
// headers plus the bookkeeping respond() needs later.
func execWaitForRequest(i *Interp, env *value.Environment, s *ast.WaitForRequest) (value.Value, controlflow.ControlFlow, error) {
	timeout := i.remainingTimeout()
	if s.TimeoutMS != nil {
		ms, err := evalNumber(i, env, s.TimeoutMS)
		if err != nil {
			return nil, controlflow.NoneFlow, err
		}
		timeout = time.Duration(ms) * time.Millisecond
	}
	req, err := i.WebServers.WaitForRequest(s.Server, timeout)
	if err != nil {
		return nil, controlflow.NoneFlow, repositioned(err, s.Pos())
	}

	obj := value.NewObject()
	obj.Set("method", value.Text(req.Method))
	obj.Set("path", value.Text(req.Path))
	obj.Set("client_ip", value.Text(req.ClientIP))
	obj.Set("body", value.Text(req.Body))
	headers := value.NewObject()
	for k, v := range req.Headers {
		headers.Set(k, value.Text(v))
	}
	obj.Set("headers", headers)
	// the opaque UUID respond() looks the one-shot sender up by (spec
	// §4.4.11); callers never need the server name alongside it.
	obj.Set("_response_sender", value.Text(req.ID))

	if err := env.DeclareOrAssign(s.AsName, obj); err != nil {
		return nil, controlflow.NoneFlow, repositioned(err, s.Pos())
	}
	return obj, controlflow.NoneFlow, nil
}

// execRespond implements `respond to REQ with CONTENT [status S]
// [content-type T]` (spec §4.4.11), defaulting status to 200 and
// content-type to "text/plain".
func execRespond(i *Interp, env *value.Environment, s *ast.RespondStatement) (value.Value, controlflow.ControlFlow, error) {
	reqVal, err := EvalExpr(i, env, s.Request)
	if err != nil {
		return nil, controlflow.NoneFlow, err
	}
	reqObj, ok := reqVal.(*value.Object)
	if !ok {
		return nil, controlflow.NoneFlow, wflerr.New("expected a request object, got "+reqVal.TypeName(), s.Pos().Line, s.Pos().Column)
	}
	senderVal, _ := reqObj.Get("_response_sender")
	requestID, _ := asText(senderVal, s.Pos())

	contentVal, err := EvalExpr(i, env, s.Content)
	if err != nil {
		return nil, controlflow.NoneFlow, err
	}

	status := 200
	if s.Status != nil {
		n, err := evalNumber(i, env, s.Status)
		if err != nil {
			return nil, controlflow.NoneFlow, err
		}
		status = int(n)
	}
	contentType := "text/plain"
	if s.ContentType != nil {
		ct, err := EvalExpr(i, env, s.ContentType)
		if err != nil {
			return nil, controlflow.NoneFlow, err
		}
		contentType = ct.Display()
	}

	if err := i.WebServers.RespondByID(requestID, contentVal.Display(), status, contentType); err != nil {
		return nil, controlflow.NoneFlow, repositioned(err, s.Pos())
	}
	return value.Null, controlflow.NoneFlow, nil
}

func execCloseServer(i *Interp, env *value.Environment, s *ast.CloseServerStatement) (value.Value, controlflow.ControlFlow, error) {
	name, err := serverName(env, s.Server)
	if err != nil {
		return nil, controlflow.NoneFlow, err
	}
	if err := i.WebServers.Close(name); err != nil {
		return nil, controlflow.NoneFlow, repositioned(err, s.Pos())
	}
	return value.Null, controlflow.NoneFlow, nil
}
