package subproc

import (
	"fmt"
	"strings"
	"syscall"
	"time"
)

// Request describes a single child-process execution. It is consumed once
// by Executor.Run and must not be mutated while the run is in flight.
type Request struct {
	// Argv is the command and its arguments for exec mode. The first
	// element is the binary name, resolved via PATH.
	Argv []string

	// Script is a command line handed to the shell for parsing. Only
	// valid together with Shell.
	Script string

	// Shell selects shell mode: Script is passed to `sh -c` instead of
	// being exec'd directly.
	Shell bool

	// Dir is the working directory. Empty means the calling process's
	// current directory.
	Dir string

	// Env holds environment overrides merged on top of the inherited
	// environment. The Result records these overrides, never the fully
	// merged environment.
	Env map[string]string

	// Capture pipes stdout and stderr and collects them into the Result.
	// When false the child's output is discarded.
	Capture bool

	// Check makes a non-zero exit code an *ExitError instead of a
	// normal Result.
	Check bool

	// Timeout is the wall-clock deadline for the whole run. Zero
	// disables the deadline.
	Timeout time.Duration

	// Stdin is written to the child's standard input, then the stream
	// is closed. Nil means no stdin pipe is created.
	Stdin []byte

	// SysProcAttr carries platform-specific process-creation options.
	// It is passed through the Executor's FilterAttr hook before use,
	// so caller-supplied options win over computed ones.
	SysProcAttr *syscall.SysProcAttr
}

// Command returns a Request that executes argv directly, with output
// capture and exit-code checking enabled.
func Command(argv ...string) Request {
	return Request{Argv: argv, Capture: true, Check: true}
}

// Script returns a Request that runs line through the shell, with output
// capture and exit-code checking enabled.
func Script(line string) Request {
	return Request{Script: line, Shell: true, Capture: true, Check: true}
}

// validate rejects malformed requests before any process is spawned.
func (r Request) validate() error {
	switch {
	case !r.Shell && r.Script != "":
		return fmt.Errorf("%w: script %q requires shell mode", ErrInvalidRequest, r.Script)
	case !r.Shell && len(r.Argv) == 0:
		return fmt.Errorf("%w: empty argv", ErrInvalidRequest)
	case r.Shell && r.Script == "":
		return fmt.Errorf("%w: shell mode requires a command line", ErrInvalidRequest)
	case r.Shell && len(r.Argv) > 0:
		return fmt.Errorf("%w: shell mode takes a script, not argv", ErrInvalidRequest)
	case r.Timeout < 0:
		return fmt.Errorf("%w: negative timeout %s", ErrInvalidRequest, r.Timeout)
	}
	return nil
}

// commandString renders the command for logs and error messages.
func (r Request) commandString() string {
	if r.Shell {
		return r.Script
	}
	return strings.Join(r.Argv, " ")
}
