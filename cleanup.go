package subproc

import "time"

// cleanup releases everything the run acquired. It runs unconditionally
// on every exit path and is safe to call more than once, and on a nil
// handle. If the process is still alive it is stopped by escalation:
// terminate, bounded wait, kill, unbounded wait. The final wait can be
// unbounded because a SIGKILLed child is reaped promptly.
func (e *Executor) cleanup(p *Process) {
	if p == nil {
		return
	}

	p.closeStreams()

	if p.Exited() {
		return
	}

	_ = p.Terminate()

	wait := time.NewTimer(e.reap())
	defer wait.Stop()
	select {
	case <-p.Done():
		return
	case <-wait.C:
	}

	_ = p.Kill()
	<-p.Done()
}
