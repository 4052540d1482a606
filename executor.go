// Package subproc executes child processes asynchronously with deadline
// enforcement, concurrent output capture, and guaranteed cleanup.
//
// The core guarantee is timeout-safe communication: a run that misses its
// deadline is forcibly killed, but any output the child produced before
// the kill is salvaged and carried on the resulting *TimeoutError rather
// than lost. Cleanup of the process handle runs on every exit path.
package subproc

import (
	"context"
	"errors"
	"log"
	"syscall"
	"time"

	"github.com/deixis/subproc/internal/redact"
)

// Defaults for the escalation sequence and shell invocation.
const (
	// DefaultGrace is how long the drainers get to flush buffered pipe
	// contents after a timeout kill.
	DefaultGrace = 500 * time.Millisecond

	// DefaultReap bounds the wait for a signalled process to be reaped.
	DefaultReap = time.Second

	// DefaultShell interprets Script requests.
	DefaultShell = "/bin/sh"
)

// Executor runs child processes. The zero value is ready to use; all
// fields are optional hooks and tunables.
type Executor struct {
	// PrepareEnv resolves the child's environment from the request's
	// overrides. Defaults to the inherited environment plus overrides.
	PrepareEnv func(overrides map[string]string) []string

	// Mask redacts a command line before it is logged. Defaults to
	// redact.Command. The command carried on errors is never masked.
	Mask func(command string) string

	// FilterAttr sanitizes caller-supplied platform options before they
	// reach the OS. Defaults to passing them through unchanged.
	FilterAttr func(attr *syscall.SysProcAttr) *syscall.SysProcAttr

	// Grace is the drain window after a timeout kill. Zero means
	// DefaultGrace.
	Grace time.Duration

	// Reap bounds the best-effort waits for a signalled process. Zero
	// means DefaultReap.
	Reap time.Duration

	// MaxOutput caps each captured stream in bytes. Zero means no cap.
	MaxOutput int

	// Shell overrides the shell binary for Script requests. Zero means
	// DefaultShell.
	Shell string

	// Logger receives trace/debug/error events. Nil disables logging.
	Logger *log.Logger
}

// defaultExecutor backs the package-level Run.
var defaultExecutor = &Executor{}

// Run executes req on a default Executor.
func Run(ctx context.Context, req Request) (*Result, error) {
	return defaultExecutor.Run(ctx, req)
}

// Run executes req and returns its Result.
//
// Error kinds: a malformed request fails with an error wrapping
// ErrInvalidRequest before anything is spawned; a missed deadline with a
// *TimeoutError carrying partial output; a non-zero exit under Check
// with an *ExitError; anything else with a *ExecError. Whatever happens
// after launch, the process handle is cleaned up before Run returns.
func (e *Executor) Run(ctx context.Context, req Request) (*Result, error) {
	command := req.commandString()
	e.logf("run: %s (dir=%q)", e.mask(command), req.Dir)

	if err := req.validate(); err != nil {
		return nil, err
	}

	env := e.prepareEnv(req.Env)

	p, err := e.launch(req, env)
	if err != nil {
		e.logf("run failed: %s: %v", e.mask(command), err)
		return nil, &ExecError{Command: command, Err: err}
	}
	defer e.cleanup(p)

	stdout, stderr, truncated, err := e.communicate(ctx, p, req)
	if err != nil {
		var te *TimeoutError
		if errors.As(err, &te) {
			e.logf("run timed out: %s after %s (stdout=%dB stderr=%dB)",
				e.mask(command), te.Timeout, len(te.Stdout), len(te.Stderr))
			return nil, err
		}
		e.logf("run failed: %s: %v", e.mask(command), err)
		return nil, &ExecError{Command: command, Err: err}
	}

	res := newResult(req, p, stdout, stderr, truncated)

	if req.Check && res.ExitCode != 0 {
		e.logf("run exited %d: %s: %s", res.ExitCode, e.mask(command), res.Stderr)
		return nil, &ExitError{
			Command:  command,
			ExitCode: res.ExitCode,
			Stdout:   res.Stdout,
			Stderr:   res.Stderr,
		}
	}

	e.logf("run ok: %s (exit=%d)", e.mask(command), res.ExitCode)
	return res, nil
}

func (e *Executor) prepareEnv(overrides map[string]string) []string {
	if e.PrepareEnv != nil {
		return e.PrepareEnv(overrides)
	}
	return mergeEnviron(overrides)
}

func (e *Executor) mask(command string) string {
	if e.Mask != nil {
		return e.Mask(command)
	}
	return redact.Command(command)
}

func (e *Executor) filterAttr(attr *syscall.SysProcAttr) *syscall.SysProcAttr {
	if e.FilterAttr != nil {
		return e.FilterAttr(attr)
	}
	return attr
}

func (e *Executor) grace() time.Duration {
	if e.Grace > 0 {
		return e.Grace
	}
	return DefaultGrace
}

func (e *Executor) reap() time.Duration {
	if e.Reap > 0 {
		return e.Reap
	}
	return DefaultReap
}

func (e *Executor) shell() string {
	if e.Shell != "" {
		return e.Shell
	}
	return DefaultShell
}

func (e *Executor) logf(format string, args ...any) {
	if e.Logger != nil {
		e.Logger.Printf(format, args...)
	}
}
