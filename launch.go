package subproc

import (
	"os"
	"os/exec"
)

// launch builds the exec.Cmd for req and starts it. Pipes are created
// only where needed: stdout/stderr when capture is requested, stdin when
// a payload is present. The child-side pipe ends are closed in the
// parent after the start so that pipe EOF tracks process exit and the
// drainers observe termination without polling.
func (e *Executor) launch(req Request, env []string) (*Process, error) {
	var cmd *exec.Cmd
	if req.Shell {
		cmd = exec.Command(e.shell(), "-c", req.Script)
	} else {
		cmd = exec.Command(req.Argv[0], req.Argv[1:]...)
	}
	cmd.Dir = req.Dir
	cmd.Env = env
	// Caller-supplied platform options win; the filter hook strips
	// anything the runtime does not support.
	if attr := e.filterAttr(req.SysProcAttr); attr != nil {
		cmd.SysProcAttr = attr
	}

	p := newProcess(cmd)

	// childEnds are handed to the child and must be closed in the
	// parent after a successful start. allEnds unwinds on failure.
	var childEnds, allEnds []*os.File
	closeAll := func() {
		for _, f := range allEnds {
			_ = f.Close()
		}
	}

	if req.Capture {
		r, w, err := os.Pipe()
		if err != nil {
			return nil, err
		}
		cmd.Stdout = w
		p.stdout = r
		childEnds = append(childEnds, w)
		allEnds = append(allEnds, r, w)

		r, w, err = os.Pipe()
		if err != nil {
			closeAll()
			return nil, err
		}
		cmd.Stderr = w
		p.stderr = r
		childEnds = append(childEnds, w)
		allEnds = append(allEnds, r, w)
	}

	if req.Stdin != nil {
		r, w, err := os.Pipe()
		if err != nil {
			closeAll()
			return nil, err
		}
		cmd.Stdin = r
		p.stdin = w
		childEnds = append(childEnds, r)
		allEnds = append(allEnds, r, w)
	}

	if err := p.start(); err != nil {
		closeAll()
		return nil, err
	}

	for _, f := range childEnds {
		_ = f.Close()
	}
	return p, nil
}
