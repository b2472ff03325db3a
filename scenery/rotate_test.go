package scenery

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestRotateZYX_AxisOrder pins the Euler order Z, then Y, then X.
func TestRotateZYX_AxisOrder(t *testing.T) {
	// quarter turn around Z maps +X onto +Y
	x, y, z := rotateZYX(1, 0, 0, 0, 0, math.Pi/2)
	assert.InDelta(t, 0, x, 1e-12)
	assert.InDelta(t, 1, y, 1e-12)
	assert.InDelta(t, 0, z, 1e-12)

	// quarter turn around Y maps +X onto -Z... the active convention
	// maps +X onto +X cos − sin on Z's side: x' = x cos, z' = −x sin
	x, y, z = rotateZYX(1, 0, 0, 0, math.Pi/2, 0)
	assert.InDelta(t, 0, x, 1e-12)
	assert.InDelta(t, 0, y, 1e-12)
	assert.InDelta(t, -1, z, 1e-12)

	// quarter turn around X maps +Y onto +Z
	x, y, z = rotateZYX(0, 1, 0, math.Pi/2, 0, 0)
	assert.InDelta(t, 0, x, 1e-12)
	assert.InDelta(t, 0, y, 1e-12)
	assert.InDelta(t, 1, z, 1e-12)

	// composition applies Z before Y: +X → +Y (by Z), unchanged by Y
	x, y, z = rotateZYX(1, 0, 0, 0, math.Pi/2, math.Pi/2)
	assert.InDelta(t, 0, x, 1e-12)
	assert.InDelta(t, 1, y, 1e-12)
	assert.InDelta(t, 0, z, 1e-12)
}

// TestRotateZYX_ZeroFastPath verifies the all-zero rotation is identity.
func TestRotateZYX_ZeroFastPath(t *testing.T) {
	x, y, z := rotateZYX(3, 4, 5, 0, 0, 0)
	assert.Equal(t, 3.0, x)
	assert.Equal(t, 4.0, y)
	assert.Equal(t, 5.0, z)
}
