package subproc

import (
	"strings"

	"github.com/google/uuid"
)

// Result is the immutable record of one completed execution.
type Result struct {
	// RunID uniquely identifies this execution.
	RunID string

	// Command is the command as given by the caller: the joined argv in
	// exec mode, the script line in shell mode.
	Command string

	// Args is the argv that was actually executed, including the shell
	// invocation in shell mode.
	Args []string

	// ExitCode is the process exit code. Always set: a process that
	// reported no status is recorded as 0, one stopped by a signal as
	// 128+signal.
	ExitCode int

	// Stdout and Stderr hold the captured output decoded as UTF-8, with
	// invalid sequences replaced rather than failing the run. Empty when
	// capture was not requested.
	Stdout string
	Stderr string

	// Dir is the working directory the command ran in.
	Dir string

	// Env holds the caller's environment overrides, not the merged
	// runtime environment.
	Env map[string]string

	// Truncated reports that at least one stream hit the Executor's
	// output cap and the overflow was discarded.
	Truncated bool
}

// newResult assembles the Result once the process has fully exited.
func newResult(req Request, p *Process, stdout, stderr []byte, truncated bool) *Result {
	code := p.ExitCode()
	if code < 0 {
		code = 0
	}
	return &Result{
		RunID:     uuid.New().String(),
		Command:   req.commandString(),
		Args:      p.cmd.Args,
		ExitCode:  code,
		Stdout:    decodeOutput(stdout),
		Stderr:    decodeOutput(stderr),
		Dir:       req.Dir,
		Env:       req.Env,
		Truncated: truncated,
	}
}

// decodeOutput converts raw bytes to text. Decoding never fails:
// invalid UTF-8 is replaced with U+FFFD.
func decodeOutput(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return strings.ToValidUTF8(string(b), "�")
}
