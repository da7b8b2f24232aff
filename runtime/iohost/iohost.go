// Package iohost implements the process-wide I/O substrate described in
// spec §3.4/§3.5: file handle registry, subprocess lifecycle, bounded
// output buffers, and a pooled HTTP client, all guarded by per-resource
// mutexes held only across the map operation (spec §5).
package iohost

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/go-resty/resty/v2"

	"github.com/wfl-lang/wflcore/core/ast"
	"github.com/wfl-lang/wflcore/core/wflerr"
)

// ShellExecutionMode is the shell sanitizer policy knob (spec §6.4).
type ShellExecutionMode int

const (
	ShellDisabled ShellExecutionMode = iota
	ShellSanitized
	ShellUnrestricted
)

// Config holds the host-level knobs consumed from spec §6.4.
type Config struct {
	MaxConcurrentProcesses int
	MaxBufferSizeBytes     int
	ShellExecutionMode     ShellExecutionMode
	WarnOnShellExecution   bool
	WarnOnOrphan           bool
	KillOnShutdown         bool
}

// DefaultConfig matches the original interpreter's conservative
// defaults: a handful of concurrent processes, a modest per-stream
// buffer, and sanitized shell execution.
func DefaultConfig() Config {
	return Config{
		MaxConcurrentProcesses: 8,
		MaxBufferSizeBytes:     1 << 20, // 1 MiB
		ShellExecutionMode:     ShellSanitized,
		WarnOnShellExecution:   true,
		WarnOnOrphan:           true,
		KillOnShutdown:         false,
	}
}

// Logger is the minimal warning sink used for advisory conditions
// (orphaned processes, close-on-drop failures, shell-execution
// warnings, the Windows sync quirk). BoundedBuffer overflow is not
// logged; it is only counted, and read back through Dropped. The
// teacher's own executor logs with plain fmt.Fprintf(os.Stderr, ...)
// rather than a structured logging library, so IoHost follows suit.
type Logger interface {
	Warnf(format string, args ...any)
}

type stderrLogger struct{}

func (stderrLogger) Warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
}

// openFile pairs a registry handle with its underlying *os.File and
// the path it was opened against.
type openFile struct {
	path string
	mode ast.FileOpenMode
	f    *os.File
}

// IoHost owns every host-resident resource a running script can touch.
type IoHost struct {
	cfg    Config
	log    Logger
	client *resty.Client

	filesMu  sync.Mutex
	files    map[string]*openFile
	fileSeq  atomic.Uint64

	procsMu sync.Mutex
	procs   map[string]*ProcessHandle
	procSeq atomic.Uint64
	running atomic.Int64
}

// New creates an IoHost with the given configuration and a
// connection-pooling resty client (spec §3.4).
func New(cfg Config, log Logger) *IoHost {
	if log == nil {
		log = stderrLogger{}
	}
	return &IoHost{
		cfg:    cfg,
		log:    log,
		client: resty.New(),
		files:  make(map[string]*openFile),
		procs:  make(map[string]*ProcessHandle),
	}
}

// Close releases every file handle and, if cfg.KillOnShutdown is set,
// kills every still-running process (warning on each orphan otherwise)
// -- spec §3.4 lifecycle.
func (h *IoHost) Close() {
	h.filesMu.Lock()
	for id, of := range h.files {
		if err := syncAndClose(of.f); err != nil {
			h.log.Warnf("close on drop failed for %s (%s): %v", id, of.path, err)
		}
	}
	h.files = make(map[string]*openFile)
	h.filesMu.Unlock()

	h.procsMu.Lock()
	for id, p := range h.procs {
		if p.ExitCode == nil {
			if h.cfg.KillOnShutdown {
				_ = p.kill()
			} else if h.cfg.WarnOnOrphan {
				h.log.Warnf("process %s (%s) still running at shutdown", id, p.Command)
			}
		}
	}
	h.procsMu.Unlock()
}

// ---- File registry ----

func (h *IoHost) nextFileID() string {
	return fmt.Sprintf("file%d", h.fileSeq.Add(1))
}

// OpenFile opens path in the given mode and registers a new handle
// (spec §4.4.8). Write truncates; Append seeks to end; Read fails if
// the file is missing with ErrorKind FileNotFound.
func (h *IoHost) OpenFile(path string, mode ast.FileOpenMode) (string, error) {
	var f *os.File
	var err error
	switch mode {
	case ast.FileRead:
		f, err = os.Open(path)
	case ast.FileWrite:
		f, err = os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	case ast.FileAppend:
		f, err = os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	}
	if err != nil {
		return "", classifyFileError(err, path)
	}

	h.filesMu.Lock()
	id := h.nextFileID()
	h.files[id] = &openFile{path: path, mode: mode, f: f}
	h.filesMu.Unlock()
	return id, nil
}

func (h *IoHost) lookupFile(handle string) (*openFile, bool) {
	h.filesMu.Lock()
	defer h.filesMu.Unlock()
	of, ok := h.files[handle]
	return of, ok
}

// ReadAll reads the full contents of an open handle.
func (h *IoHost) ReadAll(handle string) (string, error) {
	of, ok := h.lookupFile(handle)
	if !ok {
		return "", wflerr.New("unknown file handle '"+handle+"'", 0, 0)
	}
	if _, err := of.f.Seek(0, 0); err != nil {
		return "", wflerr.New(err.Error(), 0, 0)
	}
	data, err := readAllFrom(of.f)
	if err != nil {
		return "", wflerr.New(err.Error(), 0, 0)
	}
	return string(data), nil
}

// ReadPathOneShot opens path read-only, reads it fully, and closes it
// -- used when "read file" is given a string literal path rather than
// a handle (spec §4.4.8).
func (h *IoHost) ReadPathOneShot(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", classifyFileError(err, path)
	}
	defer f.Close()
	data, err := readAllFrom(f)
	if err != nil {
		return "", wflerr.New(err.Error(), 0, 0)
	}
	return string(data), nil
}

// WriteFile writes content to handle per the given WriteMode, then
// flushes and attempts a durable sync (spec §4.4.8). On Windows, a
// PermissionDenied from sync is downgraded to a warning.
func (h *IoHost) WriteFile(handle, content string, mode ast.WriteMode) error {
	of, ok := h.lookupFile(handle)
	if !ok {
		return wflerr.New("unknown file handle '"+handle+"'", 0, 0)
	}
	if mode == ast.WriteAppend {
		if _, err := of.f.Seek(0, 2); err != nil {
			return wflerr.New(err.Error(), 0, 0)
		}
	} else {
		if err := of.f.Truncate(0); err != nil {
			return wflerr.New(err.Error(), 0, 0)
		}
		if _, err := of.f.Seek(0, 0); err != nil {
			return wflerr.New(err.Error(), 0, 0)
		}
	}
	if _, err := of.f.WriteString(content); err != nil {
		return wflerr.New(err.Error(), 0, 0)
	}
	if err := of.f.Sync(); err != nil {
		return h.handleSyncError(err, of.path)
	}
	return nil
}

// CloseFile flushes, syncs (same Windows caveat) and drops the handle.
// Closing an unknown handle is a no-op (spec §4.4.8).
func (h *IoHost) CloseFile(handle string) error {
	h.filesMu.Lock()
	of, ok := h.files[handle]
	if ok {
		delete(h.files, handle)
	}
	h.filesMu.Unlock()
	if !ok {
		return nil
	}
	if err := of.f.Sync(); err != nil {
		if werr := h.handleSyncError(err, of.path); werr != nil {
			of.f.Close()
			return werr
		}
	}
	return of.f.Close()
}

// handleSyncError implements the Windows sync quirk (spec §9): a
// PermissionDenied from sync_all on Windows is a spurious OS behavior
// and is downgraded to a warning; every other failure, on every
// platform, propagates.
func (h *IoHost) handleSyncError(err error, path string) error {
	if runtime.GOOS == "windows" && os.IsPermission(err) {
		h.log.Warnf("sync reported permission denied for %s (ignored on windows)", path)
		return nil
	}
	return wflerr.New(err.Error(), 0, 0)
}

func syncAndClose(f *os.File) error {
	err := f.Sync()
	closeErr := f.Close()
	if err != nil {
		return err
	}
	return closeErr
}

// ---- Filesystem statements (spec §4.4.8) ----

func (h *IoHost) FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (h *IoHost) DirectoryExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (h *IoHost) CreateDirectory(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return classifyFileError(err, path)
	}
	return nil
}

func (h *IoHost) CreateFile(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return classifyFileError(err, path)
	}
	return f.Close()
}

func (h *IoHost) DeleteFile(path string) error {
	if err := os.Remove(path); err != nil {
		return classifyFileError(err, path)
	}
	return nil
}

func (h *IoHost) DeleteDirectory(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return classifyFileError(err, path)
	}
	return nil
}

// ListFiles lists entries in path (shallow), sorted lexicographically.
func (h *IoHost) ListFiles(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, classifyFileError(err, path)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// ListFilesFiltered lists entries in path (shallow) whose name has the
// given extension.
func (h *IoHost) ListFilesFiltered(path, ext string) ([]string, error) {
	all, err := h.ListFiles(path)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(all))
	for _, n := range all {
		if filepath.Ext(n) == ext {
			out = append(out, n)
		}
	}
	return out, nil
}

// ListFilesRecursive walks path depth-first via an explicit work stack
// (spec §4.4.8), preferring relative paths and falling back to the
// absolute path if Rel fails. Unlike ListFiles, the result is left in
// stack order rather than sorted: the lexicographic-sort rule (spec
// §4.4.8) applies only to shallow listings.
func (h *IoHost) ListFilesRecursive(path string) ([]string, error) {
	if !h.DirectoryExists(path) {
		return nil, wflerr.WithKind("directory not found: "+path, 0, 0, wflerr.FileNotFound)
	}
	var out []string
	stack := []string{path}
	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, classifyFileError(err, dir)
		}
		for _, e := range entries {
			full := filepath.Join(dir, e.Name())
			if e.IsDir() {
				stack = append(stack, full)
				continue
			}
			rel, err := filepath.Rel(path, full)
			if err != nil {
				out = append(out, full)
			} else {
				out = append(out, rel)
			}
		}
	}
	return out, nil
}

func readAllFrom(f *os.File) ([]byte, error) {
	data, err := io.ReadAll(f)
	if err != nil {
		return data, err
	}
	return data, nil
}

// classifyFileError maps an *os.PathError onto the FileNotFound /
// PermissionDenied / General taxonomy (spec §7): "an operation may
// classify the same underlying OS error as FileNotFound or
// PermissionDenied only when that classification is clearly
// attributable; otherwise General."
func classifyFileError(err error, path string) error {
	switch {
	case os.IsNotExist(err):
		return wflerr.WithKind(err.Error(), 0, 0, wflerr.FileNotFound)
	case os.IsPermission(err):
		return wflerr.WithKind(err.Error(), 0, 0, wflerr.PermissionDenied)
	default:
		return wflerr.New(err.Error(), 0, 0)
	}
}

// HTTPClient exposes the pooled resty client to the evaluator's
// http-get/http-post statement handlers (spec §4.4.10).
func (h *IoHost) HTTPClient() *resty.Client { return h.client }
