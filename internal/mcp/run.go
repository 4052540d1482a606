package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/subproc"
	"github.com/deixis/subproc/internal/report"
)

type runParams struct {
	Command []string          `json:"command,omitempty" jsonschema:"Command and arguments executed directly (no shell). Mutually exclusive with script."`
	Script  string            `json:"script,omitempty" jsonschema:"A command line run through the shell. Mutually exclusive with command."`
	Dir     string            `json:"dir,omitempty" jsonschema:"Working directory. Defaults to the server's working directory."`
	Env     map[string]string `json:"env,omitempty" jsonschema:"Environment overrides merged on top of the inherited environment."`
	Timeout string            `json:"timeout,omitempty" jsonschema:"Wall-clock deadline as a Go duration (e.g. 30s, 500ms). Empty uses the configured default; the process is killed on expiry but partial output is kept."`
	Stdin   string            `json:"stdin,omitempty" jsonschema:"Data written to the process's standard input before it is closed."`
	Capture *bool             `json:"capture,omitempty" jsonschema:"Capture stdout/stderr. Default: true."`
}

func (h *handler) runHandler(ctx context.Context, _ *mcp.CallToolRequest, params runParams) (*mcp.CallToolResult, any, error) {
	var req subproc.Request
	switch {
	case len(params.Command) > 0 && params.Script != "":
		return errorResult("pass either command or script, not both")
	case len(params.Command) > 0:
		req = subproc.Command(params.Command...)
	case params.Script != "":
		req = subproc.Script(params.Script)
	default:
		return errorResult("pass a command (argv) or a script (shell line)")
	}

	req.Check = false // the record carries the exit code; non-zero is not a tool error
	req.Dir = params.Dir
	if req.Dir == "" {
		req.Dir = h.dir
	}
	req.Env = mergeOverrides(h.cfg.Env, params.Env)
	if params.Stdin != "" {
		req.Stdin = []byte(params.Stdin)
	}
	if params.Capture != nil && !*params.Capture {
		req.Capture = false
	}

	req.Timeout = h.cfg.Timeout()
	if params.Timeout != "" {
		d, err := time.ParseDuration(params.Timeout)
		if err != nil {
			return errorResult(fmt.Sprintf("invalid timeout %q: %v", params.Timeout, err))
		}
		req.Timeout = d
	}

	started := time.Now()
	res, err := h.exec.Run(ctx, req)
	rec := buildRecord(req, res, err, started)

	_ = h.store.Save(rec)

	if err != nil && !rec.TimedOut {
		return errorResult(fmt.Sprintf("Run: %s\n\n%v", rec.ID, err))
	}
	return textResult(formatRecord(rec, false))
}

// mergeOverrides layers per-call overrides on top of configured defaults.
func mergeOverrides(base, extra map[string]string) map[string]string {
	if len(base) == 0 {
		return extra
	}
	merged := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}

// buildRecord maps a run outcome onto a storable record. Timeouts are
// recorded with the partial output they salvaged; other failures with
// their error text.
func buildRecord(req subproc.Request, res *subproc.Result, err error, started time.Time) *report.Record {
	rec := &report.Record{
		Dir:       req.Dir,
		StartedAt: started,
		Duration:  time.Since(started),
	}

	var te *subproc.TimeoutError
	switch {
	case err == nil:
		rec.ID = res.RunID
		rec.Command = res.Command
		rec.Args = res.Args
		rec.ExitCode = res.ExitCode
		rec.Stdout = res.Stdout
		rec.Stderr = res.Stderr
		rec.Truncated = res.Truncated
	case errors.As(err, &te):
		rec.ID = uuid.New().String()
		rec.Command = te.Command
		rec.TimedOut = true
		rec.Timeout = te.Timeout.String()
		rec.Stdout = te.Stdout
		rec.Stderr = te.Stderr
		rec.ExitCode = -1
	default:
		rec.ID = uuid.New().String()
		rec.Command = commandString(req)
		rec.Error = err.Error()
		rec.ExitCode = -1
	}
	return rec
}

func commandString(req subproc.Request) string {
	if req.Shell {
		return req.Script
	}
	return strings.Join(req.Argv, " ")
}

// formatRecord renders a record for tool output. When full is false the
// output sections are elided if empty; proc_inspect uses full=true.
func formatRecord(rec *report.Record, full bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Run: %s\n", rec.ID)
	fmt.Fprintf(&b, "Command: %s\n", rec.Command)
	switch {
	case rec.TimedOut:
		fmt.Fprintf(&b, "Status: timed out after %s (process killed; output below is partial)\n", rec.Timeout)
	case rec.Error != "":
		fmt.Fprintf(&b, "Status: failed: %s\n", rec.Error)
	default:
		fmt.Fprintf(&b, "Exit: %d\n", rec.ExitCode)
	}
	fmt.Fprintf(&b, "Duration: %s\n", rec.Duration.Round(time.Millisecond))
	if rec.Truncated {
		fmt.Fprintln(&b, "Note: output truncated at the configured cap")
	}

	if rec.Stdout != "" || full {
		fmt.Fprintf(&b, "\nStdout:\n%s\n", rec.Stdout)
	}
	if rec.Stderr != "" || full {
		fmt.Fprintf(&b, "\nStderr:\n%s\n", rec.Stderr)
	}

	if !full {
		fmt.Fprintf(&b, "\nInspect with proc_inspect(run_id=%q).\n", rec.ID)
	}
	return b.String()
}
