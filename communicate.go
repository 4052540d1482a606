package subproc

import (
	"context"
	"time"
)

// communicate drives a started process to completion: it drains both
// output streams concurrently, delivers the stdin payload, and waits for
// exit under the request's deadline. On deadline expiry it kills the
// process and salvages whatever output the drainers accumulated.
func (e *Executor) communicate(ctx context.Context, p *Process, req Request) (stdout, stderr []byte, truncated bool, err error) {
	out := newDrainer(p.stdout, e.MaxOutput)
	errs := newDrainer(p.stderr, e.MaxOutput)

	if p.stdin != nil {
		// Best effort: a child that exits before consuming its stdin
		// produces EPIPE, which must not mask the real outcome.
		_, _ = p.stdin.Write(req.Stdin)
		_ = p.stdin.Close()
	}

	if req.Timeout <= 0 {
		select {
		case <-p.Done():
		case <-ctx.Done():
			return nil, nil, false, ctx.Err()
		}
		<-out.done
		<-errs.done
		return out.bytes(), errs.bytes(), out.isTruncated() || errs.isTruncated(), nil
	}

	deadline := time.NewTimer(req.Timeout)
	defer deadline.Stop()

	select {
	case <-p.Done():
		<-out.done
		<-errs.done
		return out.bytes(), errs.bytes(), out.isTruncated() || errs.isTruncated(), nil
	case <-ctx.Done():
		return nil, nil, false, ctx.Err()
	case <-deadline.C:
	}

	// Deadline missed. Kill immediately, then give the drainers a short
	// grace window to flush what the OS pipes already hold.
	_ = p.Kill()

	graceExpired := make(chan struct{})
	grace := time.AfterFunc(e.grace(), func() { close(graceExpired) })
	defer grace.Stop()

	select {
	case <-out.done:
	case <-graceExpired:
	}
	select {
	case <-errs.done:
	case <-graceExpired:
	}

	// Best-effort reap of the killed process. Give up rather than hang;
	// cleanup takes the final shot.
	reap := time.NewTimer(e.reap())
	defer reap.Stop()
	select {
	case <-p.Done():
	case <-reap.C:
	}

	return nil, nil, false, &TimeoutError{
		Command: req.commandString(),
		Timeout: req.Timeout,
		Stdout:  decodeOutput(out.bytes()),
		Stderr:  decodeOutput(errs.bytes()),
	}
}
