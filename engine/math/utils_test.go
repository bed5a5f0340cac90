package math

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, Clamp(-3, 0, 10))
	assert.Equal(t, 10, Clamp(42, 0, 10))
	assert.Equal(t, 0.5, Clamp(0.5, 0.0, 1.0))
}

func TestAbs(t *testing.T) {
	assert.Equal(t, 2.5, Abs(-2.5))
	assert.Equal(t, int64(4), Abs(int64(4)))
}

func TestLerp(t *testing.T) {
	assert.InDelta(t, 5.0, Lerp(0.0, 10.0, 0.5), 1e-9)
	assert.InDelta(t, 10.0, Lerp(0.0, 10.0, 3.0), 1e-9)
	assert.InDelta(t, 0.0, Lerp(0.0, 10.0, -1.0), 1e-9)
}
