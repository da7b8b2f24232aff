// Package webserver implements WebServerRuntime (spec §3.5, §4.4.11,
// §4.6): one HTTP listener per `listen` statement, a single catch-all
// handler that enforces the 1 MiB body cap and forwards requests onto
// a channel buffered to 4096 requests (when it is full the handler
// waits for room or for the server to close), and a one-shot response
// table keyed by a fresh UUID per request.
package webserver

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wfl-lang/wflcore/core/wflerr"
)

// MaxBodyBytes is the hard cap enforced inside the handler, before a
// request is ever enqueued (spec §4.6: "Body-size enforcement happens
// *inside* the handler ... so oversize rejections do not pollute the
// request queue").
const MaxBodyBytes = 1 << 20

// Request is one inbound HTTP request forwarded to script code.
type Request struct {
	ID       string
	Method   string
	Path     string
	ClientIP string
	Body     string
	Headers  map[string]string
}

// response is what a `respond` statement sends back through the
// one-shot channel.
type response struct {
	content     string
	status      int
	contentType string
}

// Server is one `listen PORT as NAME` instance.
type Server struct {
	Name    string
	Addr    string
	http    *http.Server
	queue   chan Request
	closeCh chan struct{}

	mu        sync.Mutex
	pending   map[string]chan response
	closed    bool
	stopAccept bool
}

// Runtime owns every server started during a script run, keyed by
// script-level name (spec §3.5).
type Runtime struct {
	mu      sync.Mutex
	servers map[string]*Server
}

// New creates an empty WebServerRuntime.
func New() *Runtime {
	return &Runtime{servers: make(map[string]*Server)}
}

// Listen binds bindAddress:port, routes every method/path through a
// single catch-all handler, and registers the server under name (spec
// §4.4.11). It returns the listener's "host:port" address; the
// evaluator binds it to NAME with a "WebServer::" prefix.
func (rt *Runtime) Listen(name, bindAddress string, port int) (string, error) {
	addr := fmt.Sprintf("%s:%d", bindAddress, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", wflerr.New("listen "+addr+": "+err.Error(), 0, 0)
	}

	srv := &Server{
		Name:    name,
		Addr:    ln.Addr().String(),
		queue:   make(chan Request, 4096),
		closeCh: make(chan struct{}),
		pending: make(map[string]chan response),
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.NoRoute(srv.handle)
	engine.NoMethod(srv.handle)
	for _, m := range []string{"GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS"} {
		engine.Handle(m, "/*path", srv.handle)
	}

	srv.http = &http.Server{Handler: engine}
	go srv.http.Serve(ln)

	rt.mu.Lock()
	rt.servers[name] = srv
	rt.mu.Unlock()

	return srv.Addr, nil
}

func (s *Server) handle(c *gin.Context) {
	s.mu.Lock()
	stopped := s.stopAccept
	s.mu.Unlock()
	if stopped {
		c.Status(http.StatusServiceUnavailable)
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, MaxBodyBytes+1))
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	if len(body) > MaxBodyBytes {
		c.Status(http.StatusRequestEntityTooLarge)
		return
	}

	headers := make(map[string]string, len(c.Request.Header))
	for k := range c.Request.Header {
		headers[k] = c.Request.Header.Get(k)
	}

	req := Request{
		ID:       uuid.NewString(),
		Method:   c.Request.Method,
		Path:     c.Request.URL.Path,
		ClientIP: c.ClientIP(),
		Body:     string(body),
		Headers:  headers,
	}

	respCh := make(chan response, 1)
	s.mu.Lock()
	s.pending[req.ID] = respCh
	s.mu.Unlock()

	select {
	case s.queue <- req:
	case <-s.closeCh:
		c.Status(http.StatusServiceUnavailable)
		return
	}

	select {
	case resp := <-respCh:
		if resp.contentType != "" {
			c.Header("Content-Type", resp.contentType)
		} else {
			c.Header("Content-Type", "text/plain")
		}
		status := resp.status
		if status == 0 {
			status = http.StatusOK
		}
		c.Data(status, "", []byte(resp.content))
	case <-s.closeCh:
		c.Status(http.StatusServiceUnavailable)
	}
}

// WaitForRequest dequeues the next request from name's queue, per spec
// §4.4.11. The request's one-shot sender was already registered by the
// handler before it was enqueued.
func (rt *Runtime) WaitForRequest(name string, timeout time.Duration) (Request, error) {
	srv, ok := rt.lookup(name)
	if !ok {
		return Request{}, wflerr.New("unknown web server '"+name+"'", 0, 0)
	}
	if timeout <= 0 {
		select {
		case req := <-srv.queue:
			return req, nil
		case <-srv.closeCh:
			return Request{}, wflerr.New("web server '"+name+"' is closed", 0, 0)
		}
	}
	select {
	case req := <-srv.queue:
		return req, nil
	case <-time.After(timeout):
		return Request{}, wflerr.WithKind("timed out waiting for request", 0, 0, wflerr.Timeout)
	case <-srv.closeCh:
		return Request{}, wflerr.New("web server '"+name+"' is closed", 0, 0)
	}
}

// RespondByID sends content back through the one-shot channel
// identified by the opaque UUID exposed on REQ under `_response_sender`
// (spec §4.4.11: "look up the one-shot by UUID"): defaults status=200,
// content_type="text/plain". Responding twice to the same request is
// an error. The UUID alone is enough to find the right server, since
// every server's pending table is keyed by the same globally-unique
// identifier the request was assigned.
func (rt *Runtime) RespondByID(requestID, content string, status int, contentType string) error {
	srv, ch := rt.takePending(requestID)
	if srv == nil {
		return wflerr.New("response already sent", 0, 0)
	}
	select {
	case ch <- response{content: content, status: status, contentType: contentType}:
		return nil
	default:
		return wflerr.New("response already sent", 0, 0)
	}
}

// takePending finds and removes requestID's one-shot channel,
// searching every open server since the caller no longer carries a
// server name alongside the UUID.
func (rt *Runtime) takePending(requestID string) (*Server, chan response) {
	rt.mu.Lock()
	servers := make([]*Server, 0, len(rt.servers))
	for _, s := range rt.servers {
		servers = append(servers, s)
	}
	rt.mu.Unlock()

	for _, srv := range servers {
		srv.mu.Lock()
		ch, ok := srv.pending[requestID]
		if ok {
			delete(srv.pending, requestID)
		}
		srv.mu.Unlock()
		if ok {
			return srv, ch
		}
	}
	return nil, nil
}

// StopAccepting sets the advisory "stop accepting connections" flag
// without tearing the listener down (spec §4.4.11).
func (rt *Runtime) StopAccepting(name string) error {
	srv, ok := rt.lookup(name)
	if !ok {
		return wflerr.New("unknown web server '"+name+"'", 0, 0)
	}
	srv.mu.Lock()
	srv.stopAccept = true
	srv.mu.Unlock()
	return nil
}

// Close implements `close server SRV` (spec §4.4.11): sleeps 50ms to
// let in-flight responses flush, then aborts the server task.
func (rt *Runtime) Close(name string) error {
	srv, ok := rt.lookup(name)
	if !ok {
		return wflerr.New("unknown web server '"+name+"'", 0, 0)
	}
	time.Sleep(50 * time.Millisecond)

	srv.mu.Lock()
	if srv.closed {
		srv.mu.Unlock()
		return nil
	}
	srv.closed = true
	srv.mu.Unlock()
	close(srv.closeCh)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return srv.http.Shutdown(ctx)
}

func (rt *Runtime) lookup(name string) (*Server, bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	s, ok := rt.servers[name]
	return s, ok
}
