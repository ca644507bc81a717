// ABOUTME: Tests for the push-to-talk gate
// ABOUTME: Verifies set/toggle semantics
package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGate(t *testing.T) {
	g := NewGate()
	assert.False(t, g.IsOpen(), "gate starts closed")

	g.Set(true)
	assert.True(t, g.IsOpen())

	assert.False(t, g.Toggle())
	assert.False(t, g.IsOpen())

	assert.True(t, g.Toggle())
	assert.True(t, g.IsOpen())

	g.Set(false)
	assert.False(t, g.IsOpen())
}
