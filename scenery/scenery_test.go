package scenery_test

import (
	"math"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zusikit/zusi2to3/paths"
	"github.com/zusikit/zusi2to3/scenery"
)

// childLS is a scenery with one triangle spanning x ∈ [0,2], y ∈ [−1,1]:
// its local origin is (1, 0) and its content bounding radius √2.
const childLS = `2.3
1
#
3
skip
0
-1
0
2
-1
0
1
1
0
16711680
0
0
skip
1
skip
skip
`

// parentLS links the child at (10, 10, 0) rotated a quarter turn
// around Z.
const parentLS = `2.3
0
b.ls
10
10
0
0
0
1,5707963267948966
#
`

func newConverter(t *testing.T) (*scenery.Converter, *paths.Mapper) {
	t.Helper()
	m := paths.New(t.TempDir(), t.TempDir())

	return scenery.NewConverter(m, zap.NewNop()), m
}

func writeV2(t *testing.T, m *paths.Mapper, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(m.V2Abs(name), []byte(content), 0o644))
}

// TestConvert_RotatesAndRecenters is the linked-child scenario: the
// child's origin (1,0,0) rotated by rz=π/2 inside a link at (10,10,0)
// lands at (10,11,0), which becomes the parent's own origin.
func TestConvert_RotatesAndRecenters(t *testing.T) {
	c, m := newConverter(t)
	writeV2(t, m, "b.ls", childLS)
	writeV2(t, m, "a.ls", parentLS)

	lk, err := c.Convert("a.ls", false)
	require.NoError(t, err)

	assert.Equal(t, `Temp\_z2conv\a.ls3`, lk.File)
	assert.InDelta(t, 10, lk.X, 1e-9)
	assert.InDelta(t, 11, lk.Y, 1e-9)
	// the child encloses within radius 2, so the parent's rectangle
	// approximation gives hypot(2, 2)
	assert.InDelta(t, 2*math.Sqrt2, lk.BoundingR, 1e-9)

	// the emitted link sits at the parent origin with the raw rotation
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromFile(m.V3Abs(lk.File)))
	links := doc.FindElements("//Landschaft/Verknuepfte")
	require.Len(t, links, 1)
	assert.Equal(t, "3000", links[0].SelectAttrValue("SichtbarBis", ""))
	assert.InDelta(t, 2, attrF(t, links[0], "BoundingR"), 1e-9)
	assert.Equal(t, `Temp\_z2conv\b.ls3`,
		links[0].FindElement("Datei").SelectAttrValue("Dateiname", ""))
	p := links[0].FindElement("p")
	assert.InDelta(t, 0, attrF(t, p, "X"), 1e-9)
	assert.InDelta(t, 0, attrF(t, p, "Y"), 1e-9)
	phi := links[0].FindElement("phi")
	assert.InDelta(t, math.Pi/2, attrF(t, phi, "Z"), 1e-9)
}

// TestConvert_ElementsFile verifies the drawable elements are split off
// re-centered, in the v2 text form.
func TestConvert_ElementsFile(t *testing.T) {
	c, m := newConverter(t)
	writeV2(t, m, "b.ls", childLS)

	lk, err := c.Convert("b.ls", false)
	require.NoError(t, err)
	assert.Equal(t, `Temp\_z2conv\b.ls3`, lk.File)
	assert.InDelta(t, 1, lk.X, 1e-9) // the triangle's box midpoint
	assert.InDelta(t, 0, lk.Y, 1e-9)

	raw, err := os.ReadFile(m.V3Abs(`Temp\_z2conv\b.ls`))
	require.NoError(t, err)
	lines := strings.Split(string(raw), "\r\n")
	require.Greater(t, len(lines), 5)
	assert.Equal(t, "2.3", lines[0])
	assert.Equal(t, "1", lines[1])
	assert.Equal(t, "#", lines[2])
	assert.Equal(t, "3", lines[3])
	// first vertex (0,−1) relative to origin (1,0): decimal comma form
	assert.Equal(t, "-1", lines[5])
	assert.Equal(t, "-1", lines[6])
}

// TestConvert_NoDisplacementCache verifies the .nd output is written
// once and a later conversion only recovers the largest child radius
// from it.
func TestConvert_NoDisplacementCache(t *testing.T) {
	c, m := newConverter(t)
	writeV2(t, m, "b.ls", childLS)

	lk, err := c.Convert("b.ls", true)
	require.NoError(t, err)
	assert.Equal(t, `Temp\_z2conv\b.nd.ls3`, lk.File)
	assert.Zero(t, lk.X)
	assert.Zero(t, lk.Y)

	// a fresh converter finds the output and reads the child radius back
	c2 := scenery.NewConverter(m, zap.NewNop())
	lk2, err := c2.Convert("b.ls", true)
	require.NoError(t, err)
	assert.Equal(t, lk.File, lk2.File)
	assert.Zero(t, lk2.X)
	assert.InDelta(t, math.Sqrt2, lk2.BoundingR, 1e-9)
}

// TestConvert_Idempotent re-runs a no-displacement conversion of an
// empty scenery and gets the same tuple back.
func TestConvert_Idempotent(t *testing.T) {
	c, m := newConverter(t)
	writeV2(t, m, "c.ls", "2.3\n0\n#\n")

	lk, err := c.Convert("c.ls", true)
	require.NoError(t, err)

	c2 := scenery.NewConverter(m, zap.NewNop())
	lk2, err := c2.Convert("c.ls", true)
	require.NoError(t, err)
	assert.Equal(t, lk, lk2)
}

// TestConvert_CycleDetected rejects a scenery linking itself.
func TestConvert_CycleDetected(t *testing.T) {
	c, m := newConverter(t)
	writeV2(t, m, "d.ls", "2.3\n0\nd.ls\n0\n0\n0\n0\n0\n0\n#\n")

	_, err := c.Convert("d.ls", false)
	assert.ErrorIs(t, err, scenery.ErrCycle)
}

// TestConvert_Memoized verifies a file is converted once per converter.
func TestConvert_Memoized(t *testing.T) {
	c, m := newConverter(t)
	writeV2(t, m, "c.ls", "2.3\n0\n#\n")

	lk, err := c.Convert("c.ls", false)
	require.NoError(t, err)

	// removing the input does not disturb the second call
	require.NoError(t, os.Remove(m.V2Abs("c.ls")))
	lk2, err := c.Convert("c.ls", false)
	require.NoError(t, err)
	assert.Equal(t, lk, lk2)
}

func attrF(t *testing.T, n *etree.Element, key string) float64 {
	t.Helper()
	v, err := strconv.ParseFloat(n.SelectAttrValue(key, ""), 64)
	require.NoError(t, err)

	return v
}
