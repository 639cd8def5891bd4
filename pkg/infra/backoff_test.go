package infra

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffStaysInsideBounds(t *testing.T) {
	b := NewBackoff(100*time.Millisecond, time.Second, 2.0)
	for i := 0; i < 12; i++ {
		d := b.Next()
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.LessOrEqual(t, d, time.Second)
	}
	assert.Equal(t, 12, b.Attempts())
}

func TestBackoffReset(t *testing.T) {
	b := NewBackoff(100*time.Millisecond, time.Second, 2.0)
	for i := 0; i < 5; i++ {
		b.Next()
	}
	b.Reset()
	assert.Equal(t, 0, b.Attempts())

	// First delay after reset sits near the floor again, jitter included.
	assert.LessOrEqual(t, b.Next(), 120*time.Millisecond)
}
