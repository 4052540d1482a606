package subproc

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
)

// Process is the handle to a running child process. It is owned
// exclusively by the execution flow that created it: streams are read
// and closed by the communicator and the final cleanup, never shared
// across runs.
type Process struct {
	cmd *exec.Cmd

	// Parent-side stream ends. stdin is nil unless a stdin payload was
	// supplied; stdout/stderr are nil unless capture was requested.
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser

	// done is closed once the process has been reaped.
	done chan struct{}

	// exitCode is -1 until the process exits.
	exitCode atomic.Int32

	mu        sync.Mutex
	waitErr   error
	waitOnce  sync.Once
	closeOnce sync.Once
}

// errNotStarted is returned when signalling a process that never started.
var errNotStarted = fmt.Errorf("process not started")

func newProcess(cmd *exec.Cmd) *Process {
	p := &Process{
		cmd:  cmd,
		done: make(chan struct{}),
	}
	p.exitCode.Store(-1)
	return p
}

// start launches the process and begins reaping it in the background.
func (p *Process) start() error {
	if err := p.cmd.Start(); err != nil {
		return err
	}
	go p.waitLoop()
	return nil
}

// waitLoop reaps the process exactly once and records its exit status.
func (p *Process) waitLoop() {
	p.waitOnce.Do(func() {
		err := p.cmd.Wait()

		p.mu.Lock()
		p.waitErr = err
		p.mu.Unlock()

		p.exitCode.Store(int32(exitCodeFor(err)))
		close(p.done)
	})
}

// exitCodeFor maps a Wait error to an exit code. Processes stopped by a
// signal report 128+signal so that exit-code policy still fires on kills.
func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		return -1
	}
	if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		return 128 + int(status.Signal())
	}
	return exitErr.ExitCode()
}

// Done returns a channel closed when the process has exited and been reaped.
func (p *Process) Done() <-chan struct{} { return p.done }

// Exited reports whether the process has exited and been reaped.
func (p *Process) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// ExitCode returns the recorded exit code, or -1 if the process has not
// exited.
func (p *Process) ExitCode() int {
	return int(p.exitCode.Load())
}

// WaitErr returns the error recorded by the reaper, if any.
func (p *Process) WaitErr() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.waitErr
}

// PID returns the OS process ID, or -1 if the process never started.
func (p *Process) PID() int {
	if p.cmd.Process == nil {
		return -1
	}
	return p.cmd.Process.Pid
}

// Signal sends sig to the process. Signalling an already-exited process
// is not an error worth surfacing; the OS reports it and callers ignore it.
func (p *Process) Signal(sig os.Signal) error {
	if p.cmd.Process == nil {
		return errNotStarted
	}
	return p.cmd.Process.Signal(sig)
}

// Terminate sends SIGTERM.
func (p *Process) Terminate() error { return p.Signal(syscall.SIGTERM) }

// Kill sends SIGKILL.
func (p *Process) Kill() error { return p.Signal(syscall.SIGKILL) }

// closeStreams releases the parent-side stream handles. Safe to call
// multiple times; close errors are deliberately dropped because the
// streams may already have reached EOF or been closed by a drain.
func (p *Process) closeStreams() {
	p.closeOnce.Do(func() {
		if p.stdin != nil {
			_ = p.stdin.Close()
		}
		if p.stdout != nil {
			_ = p.stdout.Close()
		}
		if p.stderr != nil {
			_ = p.stderr.Close()
		}
	})
}
