package subproc

import (
	"bytes"
	"io"
	"sync"
)

// drainChunk bounds each read: large enough to amortize syscalls, small
// enough to keep the loop responsive while the accumulator is sampled.
const drainChunk = 8 * 1024

// drainer reads one stream to EOF into an accumulator that remains
// observable whether or not the reading goroutine has finished. Killing
// the process closes the pipe, the loop stops, and whatever was
// collected so far survives for the timeout salvage snapshot.
type drainer struct {
	mu        sync.Mutex
	buf       bytes.Buffer
	truncated bool
	limit     int

	// done is closed when the loop stops, for any reason.
	done chan struct{}
}

// newDrainer starts draining r in the background. A nil stream (capture
// not requested) yields an immediately-done, empty drainer. A limit > 0
// caps the accumulator; overflow is discarded and flagged.
func newDrainer(r io.Reader, limit int) *drainer {
	d := &drainer{limit: limit, done: make(chan struct{})}
	if r == nil {
		close(d.done)
		return d
	}
	go d.loop(r)
	return d
}

func (d *drainer) loop(r io.Reader) {
	defer close(d.done)
	chunk := make([]byte, drainChunk)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			d.append(chunk[:n])
		}
		if err != nil {
			// EOF, a closed pipe, or any other read fault ends the
			// drain without erasing the accumulator.
			return
		}
	}
}

func (d *drainer) append(p []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.limit > 0 {
		remaining := d.limit - d.buf.Len()
		if remaining <= 0 {
			d.truncated = true
			return
		}
		if len(p) > remaining {
			p = p[:remaining]
			d.truncated = true
		}
	}
	d.buf.Write(p)
}

// bytes snapshots the accumulator. Valid at any time, including while
// the loop is still running or after it was abandoned mid-drain.
func (d *drainer) bytes() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]byte, d.buf.Len())
	copy(out, d.buf.Bytes())
	return out
}

func (d *drainer) isTruncated() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.truncated
}
