package stream

import (
	"errors"
	"sync"
	"time"
)

// TestablePort implements Port with scripted, chunked delivery for testing.
// Data is queued as discrete chunks: each Read call returns at most one
// chunk, and explicit empty chunks simulate reads that time out with no
// data, so tests can reproduce a link that delivers a frame across several
// short reads with gaps.
type TestablePort struct {
	mu sync.Mutex

	chunks [][]byte

	// ReadError is returned by the next Read call if set.
	ReadError error

	// Closed indicates whether Close was called.
	Closed bool

	// ReadCalls records the number of Read calls.
	ReadCalls int

	// ResetCalls records the number of ResetInputBuffer calls.
	ResetCalls int

	// ReadTimeout is the current read timeout.
	ReadTimeout time.Duration
}

// NewTestablePort creates a new TestablePort with no queued data.
func NewTestablePort() *TestablePort {
	return &TestablePort{}
}

// QueueChunk schedules one chunk of bytes to be returned by a single Read
// call. Chunks larger than the caller's buffer are returned across
// consecutive reads.
func (t *TestablePort) QueueChunk(data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.chunks = append(t.chunks, append([]byte(nil), data...))
}

// QueueGap schedules n empty reads, simulating timed-out polls of an idle
// link.
func (t *TestablePort) QueueGap(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := 0; i < n; i++ {
		t.chunks = append(t.chunks, nil)
	}
}

// Read pops the next scheduled chunk. With nothing queued it behaves like a
// timed-out read, returning (0, nil).
func (t *TestablePort) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ReadCalls++

	if t.Closed {
		return 0, errors.New("serial port closed")
	}
	if t.ReadError != nil {
		err := t.ReadError
		t.ReadError = nil
		return 0, err
	}
	if len(t.chunks) == 0 {
		return 0, nil
	}

	chunk := t.chunks[0]
	if chunk == nil {
		t.chunks = t.chunks[1:]
		return 0, nil
	}

	n := copy(p, chunk)
	if n < len(chunk) {
		t.chunks[0] = chunk[n:]
	} else {
		t.chunks = t.chunks[1:]
	}
	return n, nil
}

// ResetInputBuffer discards all queued chunks.
func (t *TestablePort) ResetInputBuffer() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ResetCalls++
	t.chunks = nil
	return nil
}

// SetReadTimeout records the requested timeout.
func (t *TestablePort) SetReadTimeout(d time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ReadTimeout = d
	return nil
}

// Close marks the port as closed. Subsequent reads fail.
func (t *TestablePort) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Closed = true
	return nil
}

// Pending returns the number of scheduled chunks not yet consumed.
func (t *TestablePort) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.chunks)
}
