package iohost

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/wfl-lang/wflcore/core/wflerr"
)

// ShellVerdict is the outcome of sanitizeCommand (spec §4.4.9: "the
// shell sanitizer classifies a command as Safe, RequiresShell (with
// warnings), or Blocked (with a reason) before any process is
// spawned").
type ShellVerdict struct {
	Blocked  bool
	Reason   string
	Shell    bool // RequiresShell
	Warnings []string
}

// shellMetacharacters are the characters that force a command through
// a shell (and, in Sanitized mode, earn a warning) rather than being
// exec'd directly.
const shellMetacharacters = "|&;<>$`\\\"'*?[]{}~#\n"

// sanitizeCommand classifies command per the host's ShellExecutionMode
// knob. ShellDisabled blocks anything containing a metacharacter;
// ShellSanitized allows it through a shell but warns; ShellUnrestricted
// allows it silently.
func sanitizeCommand(mode ShellExecutionMode, command string) ShellVerdict {
	needsShell := strings.ContainsAny(command, shellMetacharacters)
	if !needsShell {
		return ShellVerdict{}
	}
	switch mode {
	case ShellDisabled:
		return ShellVerdict{Blocked: true, Reason: "command requires shell interpretation, which is disabled"}
	case ShellUnrestricted:
		return ShellVerdict{Shell: true}
	default: // ShellSanitized
		return ShellVerdict{Shell: true, Warnings: []string{
			fmt.Sprintf("command %q contains shell metacharacters and will be interpreted by a shell", command),
		}}
	}
}

// ProcessHandle tracks one spawned child process and its captured
// output (spec §4.4.9).
type ProcessHandle struct {
	mu          sync.Mutex
	child       *exec.Cmd
	Command     string
	Args        []string
	StartedAt   time.Time
	CompletedAt *time.Time
	ExitCode    *int
	Stdout      *BoundedBuffer
	Stderr      *BoundedBuffer
	done        chan struct{}
}

func (p *ProcessHandle) running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ExitCode == nil
}

func (p *ProcessHandle) kill() error {
	p.mu.Lock()
	child := p.child
	p.mu.Unlock()
	if child == nil || child.Process == nil {
		return nil
	}
	if err := killGroup(child.Process.Pid); err != nil {
		// Fall back to killing just the one process if the group is
		// already gone or group semantics aren't available.
		return child.Process.Kill()
	}
	return nil
}

func (h *IoHost) nextProcID() string {
	return fmt.Sprintf("proc%d", h.procSeq.Add(1))
}

func (h *IoHost) buildCmd(command string, args []string) (*exec.Cmd, ShellVerdict, error) {
	verdict := sanitizeCommand(h.cfg.ShellExecutionMode, command)
	if verdict.Blocked {
		return nil, verdict, wflerr.New("shell execution blocked: "+verdict.Reason, 0, 0)
	}
	if h.cfg.WarnOnShellExecution {
		for _, w := range verdict.Warnings {
			h.log.Warnf("%s", w)
		}
	}
	var cmd *exec.Cmd
	if verdict.Shell {
		shell := "/bin/sh"
		flag := "-c"
		full := command
		if len(args) > 0 {
			full = command + " " + strings.Join(args, " ")
		}
		if runtime.GOOS == "windows" {
			shell, flag = "cmd", "/C"
		}
		cmd = exec.Command(shell, flag, full)
	} else {
		cmd = exec.Command(command, args...)
	}
	setProcessGroup(cmd)
	return cmd, verdict, nil
}

// ExecuteCommand runs command synchronously, capturing stdout/stderr
// into bounded buffers, and returns the finished handle's id.
func (h *IoHost) ExecuteCommand(command string, args []string) (string, error) {
	if h.running.Load() >= int64(h.cfg.MaxConcurrentProcesses) {
		return "", wflerr.New("max_concurrent_processes exceeded", 0, 0)
	}
	cmd, _, err := h.buildCmd(command, args)
	if err != nil {
		return "", err
	}
	ph := &ProcessHandle{
		Command: command,
		Args:    args,
		Stdout:  NewBoundedBuffer(h.cfg.MaxBufferSizeBytes),
		Stderr:  NewBoundedBuffer(h.cfg.MaxBufferSizeBytes),
		done:    make(chan struct{}),
		child:   cmd,
	}
	cmd.Stdout, cmd.Stderr = ph.Stdout, ph.Stderr
	ph.StartedAt = nowFunc()
	h.running.Add(1)
	defer h.running.Add(-1)

	runErr := cmd.Run()
	h.finishHandle(ph, runErr)

	h.procsMu.Lock()
	id := h.nextProcID()
	h.procs[id] = ph
	h.procsMu.Unlock()
	return id, nil
}

// SpawnCommand starts command in the background and returns its
// handle immediately (spec §4.4.9).
func (h *IoHost) SpawnCommand(command string, args []string) (string, error) {
	if h.running.Load() >= int64(h.cfg.MaxConcurrentProcesses) {
		return "", wflerr.New("max_concurrent_processes exceeded", 0, 0)
	}
	cmd, _, err := h.buildCmd(command, args)
	if err != nil {
		return "", err
	}
	ph := &ProcessHandle{
		Command: command,
		Args:    args,
		Stdout:  NewBoundedBuffer(h.cfg.MaxBufferSizeBytes),
		Stderr:  NewBoundedBuffer(h.cfg.MaxBufferSizeBytes),
		done:    make(chan struct{}),
		child:   cmd,
	}
	cmd.Stdout, cmd.Stderr = ph.Stdout, ph.Stderr
	if err := cmd.Start(); err != nil {
		return "", wflerr.New(err.Error(), 0, 0)
	}
	ph.StartedAt = nowFunc()
	h.running.Add(1)

	h.procsMu.Lock()
	id := h.nextProcID()
	h.procs[id] = ph
	h.procsMu.Unlock()

	go func() {
		waitErr := cmd.Wait()
		h.running.Add(-1)
		h.finishHandle(ph, waitErr)
	}()
	return id, nil
}

func (h *IoHost) finishHandle(ph *ProcessHandle, runErr error) {
	ph.mu.Lock()
	defer ph.mu.Unlock()
	if ph.ExitCode != nil {
		return
	}
	code := 0
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			code = exitErr.ExitCode()
		} else {
			code = -1
		}
	}
	now := nowFunc()
	ph.CompletedAt = &now
	ph.ExitCode = &code
	close(ph.done)
}

func (h *IoHost) lookupProc(handle string) (*ProcessHandle, bool) {
	h.procsMu.Lock()
	defer h.procsMu.Unlock()
	p, ok := h.procs[handle]
	return p, ok
}

// KillProcess force-terminates a running process (spec §4.4.9).
// Killing an already-finished or unknown process is a no-op.
func (h *IoHost) KillProcess(handle string) error {
	p, ok := h.lookupProc(handle)
	if !ok || !p.running() {
		return nil
	}
	return p.kill()
}

// WaitForProcess blocks until the process completes (or the deadline
// elapses) and returns its exit code.
func (h *IoHost) WaitForProcess(handle string, timeout time.Duration) (int, error) {
	p, ok := h.lookupProc(handle)
	if !ok {
		return 0, wflerr.New("unknown process handle '"+handle+"'", 0, 0)
	}
	if timeout <= 0 {
		<-p.done
	} else {
		select {
		case <-p.done:
		case <-time.After(timeout):
			return 0, wflerr.WithKind("timed out waiting for process", 0, 0, wflerr.Timeout)
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return *p.ExitCode, nil
}

// ReadProcessOutput returns the captured stdout/stderr and the number
// of bytes dropped from each (spec §4.4.9).
func (h *IoHost) ReadProcessOutput(handle string) (stdout, stderr string, stdoutDropped, stderrDropped int64, err error) {
	p, ok := h.lookupProc(handle)
	if !ok {
		return "", "", 0, 0, wflerr.New("unknown process handle '"+handle+"'", 0, 0)
	}
	return p.Stdout.String(), p.Stderr.String(), p.Stdout.Dropped(), p.Stderr.Dropped(), nil
}

// ProcessRunning reports whether handle refers to a still-running
// process; an unknown handle is reported as not running.
func (h *IoHost) ProcessRunning(handle string) bool {
	p, ok := h.lookupProc(handle)
	return ok && p.running()
}

// nowFunc is a seam so tests can stub wall-clock time; production
// code always calls time.Now.
var nowFunc = time.Now
