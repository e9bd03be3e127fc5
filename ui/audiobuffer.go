package ui

import (
	"io"
	"sync"
)

// AudioRingBuffer is a byte FIFO between the emulation goroutine and
// oto's pull reader. Read blocks while empty. Write never blocks; on
// overflow the oldest bytes are discarded and counted.
type AudioRingBuffer struct {
	mu      sync.Mutex
	cond    *sync.Cond
	buf     []byte
	mask    int
	head    int // next byte to read
	size    int
	dropped int
	closed  bool
}

// NewAudioRingBuffer creates a ring buffer holding at least capacity
// bytes. The capacity is rounded up to a power of two.
func NewAudioRingBuffer(capacity int) *AudioRingBuffer {
	n := 1
	for n < capacity {
		n <<= 1
	}
	rb := &AudioRingBuffer{buf: make([]byte, n), mask: n - 1}
	rb.cond = sync.NewCond(&rb.mu)
	return rb
}

// Write queues p, dropping the oldest data if it does not fit.
func (rb *AudioRingBuffer) Write(p []byte) {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	if rb.closed || len(p) == 0 {
		return
	}

	if len(p) > len(rb.buf) {
		rb.dropped += len(p) - len(rb.buf)
		p = p[len(p)-len(rb.buf):]
	}
	if over := rb.size + len(p) - len(rb.buf); over > 0 {
		rb.head = (rb.head + over) & rb.mask
		rb.size -= over
		rb.dropped += over
	}

	tail := (rb.head + rb.size) & rb.mask
	n := copy(rb.buf[tail:], p)
	copy(rb.buf, p[n:])
	rb.size += len(p)
	rb.cond.Signal()
}

// Read implements io.Reader. It returns io.EOF once closed and drained.
func (rb *AudioRingBuffer) Read(p []byte) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	for rb.size == 0 {
		if rb.closed {
			return 0, io.EOF
		}
		rb.cond.Wait()
	}

	want := len(p)
	if want > rb.size {
		want = rb.size
	}
	n := copy(p[:want], rb.buf[rb.head:])
	if n < want {
		n += copy(p[n:want], rb.buf)
	}
	rb.head = (rb.head + n) & rb.mask
	rb.size -= n
	return n, nil
}

// Buffered returns the number of bytes waiting to be read.
func (rb *AudioRingBuffer) Buffered() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.size
}

// Dropped returns the number of bytes discarded on overflow so far.
func (rb *AudioRingBuffer) Dropped() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.dropped
}

// Clear discards everything queued.
func (rb *AudioRingBuffer) Clear() {
	rb.mu.Lock()
	rb.head, rb.size = 0, 0
	rb.mu.Unlock()
}

// Close wakes any blocked reader. Queued data can still be drained.
func (rb *AudioRingBuffer) Close() {
	rb.mu.Lock()
	rb.closed = true
	rb.cond.Broadcast()
	rb.mu.Unlock()
}
