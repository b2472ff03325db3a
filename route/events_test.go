package route

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestClassifyEvent pins the code ranges onto their variants.
func TestClassifyEvent(t *testing.T) {
	tests := []struct {
		code int
		kind EventKind
	}{
		{0, EventNone},
		{1, EventDerail},
		{499, EventDerail},
		{500, EventMagnet500},
		{1000, EventMagnet1000},
		{1001, EventMagnet1000Above},
		{1500, EventMagnet1000Above},
		{2000, EventMagnet2000},
		{2500, EventMagnet2000Above},
		{3002, EventRelease},
		{3004, EventForcedStop},
		{3001, EventOpaque},
		{3040, EventOpaque},
		{4500, EventOpaque},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.kind, ClassifyEvent(tc.code).Kind, "code %d", tc.code)
	}
}

// TestEventEmit verifies which events materialize and with what values.
func TestEventEmit(t *testing.T) {
	emitted := func(code int) *etree.Element {
		parent := etree.NewElement("x")
		ClassifyEvent(code).emit(parent)

		return parent.FindElement("Ereignis")
	}

	n := emitted(90) // conditional derailment above 90 km/h
	require.NotNil(t, n)
	assert.Equal(t, "1", n.SelectAttrValue("Er", ""))
	assert.Equal(t, "25", n.SelectAttrValue("Wert", "")) // 90 / 3.6

	n = emitted(500)
	require.NotNil(t, n)
	assert.Equal(t, "500", n.SelectAttrValue("Er", ""))
	assert.Nil(t, n.SelectAttr("Wert"))

	n = emitted(1105) // 1000 Hz magnet above 105 km/h
	require.NotNil(t, n)
	assert.Equal(t, "1000", n.SelectAttrValue("Er", ""))
	assert.Equal(t, "105", n.SelectAttrValue("Wert", ""))

	n = emitted(2300)
	require.NotNil(t, n)
	assert.Equal(t, "2000", n.SelectAttrValue("Er", ""))
	assert.Equal(t, "300", n.SelectAttrValue("Wert", ""))

	// the structured but silent variants
	assert.Nil(t, emitted(0))
	assert.Nil(t, emitted(3002))
	assert.Nil(t, emitted(3004))
	assert.Nil(t, emitted(3011))
}
