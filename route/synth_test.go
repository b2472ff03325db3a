package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestVsigColumn covers exact matches, the id disambiguation, the
// largest-below fallback, and the 0 / -1 special cases.
func TestVsigColumn(t *testing.T) {
	sig := func(speeds ...int) *Signal { return &Signal{VsigSpeeds: speeds} }

	tests := []struct {
		name   string
		vsig   *Signal
		v, id  int
		expect int
	}{
		{"exact first", sig(60, 80), 60, 0, 0},
		{"exact second occurrence", sig(60, 60), 60, 1, 1},
		{"exact id beyond occurrences falls back", sig(60, 80), 60, 1, 0},
		{"largest below", sig(40, 80), 60, 0, 0},
		{"unrestricted takes the largest finite", sig(40, 80), -1, 0, 1},
		{"zero never approximates", sig(40, 80), 0, 0, 0},
		{"zero column never approximates", sig(0, 40), 60, 0, 1},
		{"unrestricted column not below finite", sig(-1, 60), 100, 0, 1},
		{"default", sig(80, 100), 60, 0, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, vsigColumn(tc.vsig, tc.v, tc.id))
		})
	}
}

// TestVLess pins the speed order with -1 as "unrestricted".
func TestVLess(t *testing.T) {
	assert.True(t, vLess(60, 80))
	assert.False(t, vLess(80, 60))
	assert.True(t, vLess(80, -1))  // any finite speed is below unrestricted
	assert.False(t, vLess(-1, 80)) // unrestricted is above everything
	assert.True(t, vLess(0, -1))
	assert.False(t, vLess(60, 60))
}

// TestStopRow verifies main-signal detection and the default row.
func TestStopRow(t *testing.T) {
	s := &Signal{Matrix: []*MatrixRow{{VMax: 60}, {VMax: 0}}}
	row, ok := s.stopRow()
	assert.True(t, ok)
	assert.Equal(t, 1, row)
	assert.True(t, s.hasStopRow())

	s = &Signal{Matrix: []*MatrixRow{{VMax: 60}}}
	row, ok = s.stopRow()
	assert.False(t, ok)
	assert.Zero(t, row)
	assert.False(t, s.hasStopRow())
}

// TestRefNr pins the reference numbering scheme.
func TestRefNr(t *testing.T) {
	assert.Equal(t, 13, refNr(1, RefSwitch))
	assert.Equal(t, 34, refNr(3, RefSignal))
	assert.Equal(t, 75, refNr(7, RefRelease))
	assert.Equal(t, 128, refNr(12, RefSignalReverse))
}
