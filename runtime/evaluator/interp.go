// Package evaluator implements ExpressionEvaluator and
// StatementExecutor (spec §4.3, §4.4): the mutually recursive walk
// over an *ast.Program against a *value.Environment, driven by an
// Interp that also carries the call stack, loop-global cells, and
// time-budget state InterpreterCore is responsible for (spec §4.7).
// Interp lives here rather than in a separate leaf package because
// nearly every statement form touches it (timeout checks, the
// current-count/in-count-loop cells, call-stack frames), the same way
// the teacher's executor keeps its ExecutionContext beside its
// dispatch loop instead of behind another import boundary.
package evaluator

import (
	"time"

	"github.com/wfl-lang/wflcore/core/value"
	"github.com/wfl-lang/wflcore/core/wflerr"
	"github.com/wfl-lang/wflcore/runtime/container"
	"github.com/wfl-lang/wflcore/runtime/iohost"
	"github.com/wfl-lang/wflcore/runtime/webserver"
)

// Frame is one call-stack entry (spec §3.3). LocalsSnapshot is a CBOR
// blob (see snapshot.go) rather than a live map, so a popped frame's
// debug report doesn't keep its Values (and whatever they reference)
// reachable after the call returns.
type Frame struct {
	FunctionName    string
	CallLine        int
	CallColumn      int
	LocalsSnapshot  []byte
}

// maxCallDepth is the hard recursion cap (spec §3.3: "~10 000 frames").
const maxCallDepth = 10000

// Interp is the shared, mutable core every evaluator function receives
// (spec §4.7 InterpreterCore, minus the top-level driving logic that
// internal/interpreter layers on top).
type Interp struct {
	Global     *value.Environment
	Host       *iohost.IoHost
	Containers *container.Runtime
	WebServers *webserver.Runtime

	BindAddress string

	callStack []Frame

	startTime       time.Time
	maxDuration     time.Duration
	timeoutDisabled bool

	inCountLoop  bool
	currentCount float64
	inMainLoop   bool

	StepMode bool
	TestMode bool
}

// New creates an Interp with the spec's default 300s timeout.
func New(host *iohost.IoHost, containers *container.Runtime, servers *webserver.Runtime) *Interp {
	return &Interp{
		Host:        host,
		Containers:  containers,
		WebServers:  servers,
		BindAddress: "127.0.0.1",
		startTime:   time.Now(),
		maxDuration: 300 * time.Second,
	}
}

// WithTimeout sets the timeout in seconds, clamped to 300 (spec §4.7);
// a seconds value of 0 disables the check entirely (spec's "u64::MAX
// means disabled").
func (i *Interp) WithTimeout(seconds int) {
	if seconds <= 0 {
		i.timeoutDisabled = true
		return
	}
	if seconds > 300 {
		seconds = 300
	}
	i.timeoutDisabled = false
	i.maxDuration = time.Duration(seconds) * time.Second
}

// ResetClock restarts the elapsed-time window; internal/interpreter
// calls this right before driving a script.
func (i *Interp) ResetClock() { i.startTime = time.Now() }

// CheckTimeout implements the global time-budget check (spec §4.4,
// §5): it is a no-op while InMainLoop is set, regardless of elapsed
// time.
func (i *Interp) CheckTimeout(line, column int) error {
	if i.timeoutDisabled || i.inMainLoop {
		return nil
	}
	if time.Since(i.startTime) > i.maxDuration {
		i.callStack = nil
		i.inCountLoop = false
		i.currentCount = 0
		i.inMainLoop = false
		return wflerr.WithKind("execution timed out", line, column, wflerr.Timeout)
	}
	return nil
}

// PushFrame enforces the recursion cap (spec §3.3) before pushing a
// new call-stack frame.
func (i *Interp) PushFrame(functionName string, line, column int) error {
	if len(i.callStack) >= maxCallDepth {
		return wflerr.New("maximum call stack depth exceeded", line, column)
	}
	i.callStack = append(i.callStack, Frame{FunctionName: functionName, CallLine: line, CallColumn: column})
	return nil
}

// PopFrame pops the most recent call-stack frame, optionally
// capturing locals for a debug report first (spec §4.4.5 step 7).
func (i *Interp) PopFrame(locals map[string]value.Value) {
	if len(i.callStack) == 0 {
		return
	}
	i.callStack[len(i.callStack)-1].LocalsSnapshot = encodeLocalsSnapshot(locals)
	i.callStack = i.callStack[:len(i.callStack)-1]
}

// CallDepth reports the current call-stack depth (spec §8 invariant 2:
// call-stack depth before and after a successful call must match).
func (i *Interp) CallDepth() int { return len(i.callStack) }

// EnterCountLoop saves and replaces the current_count/in_count_loop
// cells, returning a restore function that must run on every exit
// path (spec §4.4.3, §8 invariant 4).
func (i *Interp) EnterCountLoop() func() {
	prevIn, prevCount := i.inCountLoop, i.currentCount
	i.inCountLoop = true
	return func() {
		i.inCountLoop = prevIn
		i.currentCount = prevCount
	}
}

// SetCurrentCount mirrors the active count-loop iteration value so
// bare `count` expressions resolve in nested contexts (spec §4.3,
// §4.4.3).
func (i *Interp) SetCurrentCount(v float64) { i.currentCount = v }

// InCountLoop and CurrentCount expose the cells to the expression
// evaluator's Identifier handling.
func (i *Interp) InCountLoop() bool      { return i.inCountLoop }
func (i *Interp) CurrentCountValue() float64 { return i.currentCount }

// remainingTimeout reports how long a blocking host call (wait-for-process,
// the request spin-wait) may still run before the script's own time
// budget would expire; disabled timeouts get a generous ceiling instead
// of blocking forever.
func (i *Interp) remainingTimeout() time.Duration {
	if i.timeoutDisabled {
		return time.Hour
	}
	remaining := i.maxDuration - time.Since(i.startTime)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// EnterMainLoop sets in_main_loop for the duration of a main loop body
// (spec §4.4.3), returning a restore function for every exit path.
func (i *Interp) EnterMainLoop() func() {
	prev := i.inMainLoop
	i.inMainLoop = true
	return func() { i.inMainLoop = prev }
}
