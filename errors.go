package subproc

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRequest is wrapped by all request-shape validation failures.
// These are raised before any process is spawned.
var ErrInvalidRequest = errors.New("invalid request")

// TimeoutError reports that the deadline elapsed and the process was
// forcibly killed. Stdout and Stderr hold whatever output was salvaged
// before the kill; partial output is never discarded.
type TimeoutError struct {
	Command string
	Timeout time.Duration
	Stdout  string
	Stderr  string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("command %q timed out after %s", e.Command, e.Timeout)
}

// ExitError reports a non-zero exit code from a run with Check enabled.
// Stdout and Stderr are populated when capture was requested.
type ExitError struct {
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command %q exited with code %d", e.Command, e.ExitCode)
}

// ExecError normalizes any unexpected failure during launch, communication,
// or assembly. Timeout, exit, and validation errors are passed through
// unchanged and never wrapped in an ExecError.
type ExecError struct {
	Command string
	Err     error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("executing %q: %v", e.Command, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }
