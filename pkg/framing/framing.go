// ABOUTME: Packet framer and framed byte queue
// ABOUTME: Prepends u16 little-endian lengths and extracts whole frames
package framing

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// HeaderSize is the size of the length prefix.
	HeaderSize = 2

	// MaxPayload is the largest payload a u16 prefix can describe.
	MaxPayload = 0xFFFF
)

var (
	// ErrEmptyPayload is returned when framing a zero-length payload.
	ErrEmptyPayload = errors.New("framing: empty payload")

	// ErrPayloadTooLarge is returned when a payload does not fit a u16 prefix.
	ErrPayloadTooLarge = errors.New("framing: payload too large")
)

// Frame returns payload prefixed with its length.
func Frame(payload []byte) ([]byte, error) {
	if err := check(payload); err != nil {
		return nil, err
	}
	out := make([]byte, HeaderSize+len(payload))
	binary.LittleEndian.PutUint16(out, uint16(len(payload)))
	copy(out[HeaderSize:], payload)
	return out, nil
}

func check(payload []byte) error {
	if len(payload) == 0 {
		return ErrEmptyPayload
	}
	if len(payload) > MaxPayload {
		return fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}
	return nil
}

// Queue is the framed byte stream between the network receiver and the
// playout callback.
type Queue struct {
	buf  []byte
	head int
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push frames payload and appends it to the queue as one unit.
func (q *Queue) Push(payload []byte) error {
	if err := check(payload); err != nil {
		return err
	}
	var hdr [HeaderSize]byte
	binary.LittleEndian.PutUint16(hdr[:], uint16(len(payload)))
	q.compact()
	q.buf = append(q.buf, hdr[:]...)
	q.buf = append(q.buf, payload...)
	return nil
}

// Write appends already-framed bytes. Callers must only write whole units.
func (q *Queue) Write(framed []byte) (int, error) {
	q.compact()
	q.buf = append(q.buf, framed...)
	return len(framed), nil
}

// TryExtract removes and returns the next payload. It returns false, leaving
// the queue untouched, when no complete unit is buffered.
func (q *Queue) TryExtract() ([]byte, bool) {
	pending := q.buf[q.head:]
	if len(pending) < HeaderSize {
		return nil, false
	}
	n := int(binary.LittleEndian.Uint16(pending))
	if len(pending) < HeaderSize+n {
		return nil, false
	}

	payload := make([]byte, n)
	copy(payload, pending[HeaderSize:HeaderSize+n])
	q.head += HeaderSize + n
	if q.head == len(q.buf) {
		q.buf = q.buf[:0]
		q.head = 0
	}
	return payload, true
}

// Len returns the number of buffered bytes, prefixes included.
func (q *Queue) Len() int {
	return len(q.buf) - q.head
}

// Bytes returns a copy of the buffered bytes.
func (q *Queue) Bytes() []byte {
	out := make([]byte, q.Len())
	copy(out, q.buf[q.head:])
	return out
}

// compact reclaims the consumed prefix once it dominates the buffer.
func (q *Queue) compact() {
	if q.head == 0 || q.head < len(q.buf)/2 {
		return
	}
	n := copy(q.buf, q.buf[q.head:])
	q.buf = q.buf[:n]
	q.head = 0
}
