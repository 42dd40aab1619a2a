// ABOUTME: Thread-safe byte ring buffer between device callbacks and blocking I/O
// ABOUTME: Used by the malgo capture and playback backends
package audio

import (
	"errors"
	"sync"
)

// ErrRingClosed is returned by blocking operations after Close
var ErrRingClosed = errors.New("ring buffer closed")

// RingBuffer provides a thread-safe circular buffer for raw PCM bytes
type RingBuffer struct {
	buffer   []byte
	readPos  int
	writePos int
	count    int
	closed   bool
	mu       sync.Mutex
	cond     *sync.Cond
}

// NewRingBuffer creates a ring buffer with given capacity (in bytes)
func NewRingBuffer(capacity int) *RingBuffer {
	rb := &RingBuffer{buffer: make([]byte, capacity)}
	rb.cond = sync.NewCond(&rb.mu)
	return rb
}

// Write copies as much of p as fits and returns the number of bytes stored.
// It never blocks; bytes that do not fit are dropped.
func (rb *RingBuffer) Write(p []byte) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	n := rb.put(p)
	if n > 0 {
		rb.cond.Broadcast()
	}
	return n
}

// Read fills p from the buffer and returns the number of bytes read. The
// remainder of p is filled with silence. It never blocks.
func (rb *RingBuffer) Read(p []byte, silence byte) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	n := rb.take(p)
	for i := n; i < len(p); i++ {
		p[i] = silence
	}
	if n > 0 {
		rb.cond.Broadcast()
	}
	return n
}

// WriteBlocking waits until at least one byte is free, then stores as much
// of p as fits. It returns the number of bytes stored.
func (rb *RingBuffer) WriteBlocking(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	rb.mu.Lock()
	defer rb.mu.Unlock()

	for rb.count == len(rb.buffer) && !rb.closed {
		rb.cond.Wait()
	}
	if rb.closed {
		return 0, ErrRingClosed
	}

	n := rb.put(p)
	rb.cond.Broadcast()
	return n, nil
}

// ReadFull waits until len(p) bytes are buffered and copies them into p
func (rb *RingBuffer) ReadFull(p []byte) error {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	for rb.count < len(p) && !rb.closed {
		rb.cond.Wait()
	}
	if rb.closed {
		return ErrRingClosed
	}

	rb.take(p)
	rb.cond.Broadcast()
	return nil
}

// Available returns the number of bytes available to read
func (rb *RingBuffer) Available() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count
}

// Free returns the number of free bytes in the buffer
func (rb *RingBuffer) Free() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return len(rb.buffer) - rb.count
}

// Close wakes up blocked readers and writers
func (rb *RingBuffer) Close() {
	rb.mu.Lock()
	rb.closed = true
	rb.mu.Unlock()
	rb.cond.Broadcast()
}

// put stores bytes (must hold rb.mu)
func (rb *RingBuffer) put(p []byte) int {
	size := len(rb.buffer)
	written := 0
	for written < len(p) && rb.count < size {
		chunk := size - rb.writePos
		if free := size - rb.count; chunk > free {
			chunk = free
		}
		if rest := len(p) - written; chunk > rest {
			chunk = rest
		}
		copy(rb.buffer[rb.writePos:rb.writePos+chunk], p[written:written+chunk])
		rb.writePos = (rb.writePos + chunk) % size
		rb.count += chunk
		written += chunk
	}
	return written
}

// take removes bytes (must hold rb.mu)
func (rb *RingBuffer) take(p []byte) int {
	size := len(rb.buffer)
	read := 0
	for read < len(p) && rb.count > 0 {
		chunk := size - rb.readPos
		if chunk > rb.count {
			chunk = rb.count
		}
		if rest := len(p) - read; chunk > rest {
			chunk = rest
		}
		copy(p[read:read+chunk], rb.buffer[rb.readPos:rb.readPos+chunk])
		rb.readPos = (rb.readPos + chunk) % size
		rb.count -= chunk
		read += chunk
	}
	return read
}
