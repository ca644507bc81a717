// ABOUTME: Growable ring buffer of decoded PCM samples
// ABOUTME: FIFO between the decode step and the device fill step
package playout

import "sync"

const minRingCapacity = 4096

// RingBuffer is a thread-safe FIFO of samples. It grows instead of refusing
// writes; Engine decides whether depth is capped.
type RingBuffer struct {
	buffer   []float32
	readPos  int
	writePos int
	count    int
	mu       sync.Mutex
}

// NewRingBuffer creates a ring buffer with the given initial capacity
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity < minRingCapacity {
		capacity = minRingCapacity
	}
	return &RingBuffer{
		buffer: make([]float32, capacity),
	}
}

// Write appends all samples, growing the buffer if needed
func (rb *RingBuffer) Write(samples []float32) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.count+len(samples) > len(rb.buffer) {
		rb.grow(rb.count + len(samples))
	}

	for _, s := range samples {
		rb.buffer[rb.writePos] = s
		rb.writePos = (rb.writePos + 1) % len(rb.buffer)
	}
	rb.count += len(samples)
}

// Read fills samples from the front of the buffer and zero-fills whatever
// is left over. It returns the number of real samples copied.
func (rb *RingBuffer) Read(samples []float32) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	read := 0
	for i := 0; i < len(samples) && rb.count > 0; i++ {
		samples[i] = rb.buffer[rb.readPos]
		rb.readPos = (rb.readPos + 1) % len(rb.buffer)
		rb.count--
		read++
	}

	// silence on underrun
	for i := read; i < len(samples); i++ {
		samples[i] = 0
	}

	return read
}

// Discard drops up to n of the oldest samples and returns how many went.
func (rb *RingBuffer) Discard(n int) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if n > rb.count {
		n = rb.count
	}
	rb.readPos = (rb.readPos + n) % len(rb.buffer)
	rb.count -= n
	return n
}

// Available returns the number of samples available to read
func (rb *RingBuffer) Available() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count
}

// grow reallocates to at least need samples, unwrapping the contents (must hold rb.mu)
func (rb *RingBuffer) grow(need int) {
	size := len(rb.buffer) * 2
	for size < need {
		size *= 2
	}

	buf := make([]float32, size)
	for i := 0; i < rb.count; i++ {
		buf[i] = rb.buffer[(rb.readPos+i)%len(rb.buffer)]
	}
	rb.buffer = buf
	rb.readPos = 0
	rb.writePos = rb.count
}
