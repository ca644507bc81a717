// ABOUTME: Push-to-talk transmit gate
// ABOUTME: Shared on/off signal read by the capture callback
package capture

import "sync/atomic"

// Gate is the push-to-talk signal. The interface layer writes it; the
// capture callback only reads it. Changes apply on the next callback.
type Gate struct {
	open atomic.Bool
}

// NewGate creates a closed gate
func NewGate() *Gate {
	return &Gate{}
}

// Set opens or closes the gate
func (g *Gate) Set(open bool) {
	g.open.Store(open)
}

// Toggle flips the gate and returns the new state
func (g *Gate) Toggle() bool {
	for {
		cur := g.open.Load()
		if g.open.CompareAndSwap(cur, !cur) {
			return !cur
		}
	}
}

// IsOpen reports whether captured audio should be transmitted
func (g *Gate) IsOpen() bool {
	return g.open.Load()
}
