package scenery

import (
	"errors"
	"strconv"

	"go.uber.org/zap"

	"github.com/zusikit/zusi2to3/paths"
)

// ErrCycle indicates a scenery file that, directly or through its
// children, links back into a conversion still in progress.
var ErrCycle = errors.New("scenery: link cycle")

// Link describes a converted scenery as seen by its parent: the
// v3-relative file name, the displacement of the converted origin,
// the rotation to apply, and the enclosing bounding radius.
type Link struct {
	// File is the v3-relative name of the converted output.
	File string

	// X, Y, Z displace the converted origin inside the parent.
	X, Y, Z float64

	// RX, RY, RZ rotate the child inside the parent (radians).
	RX, RY, RZ float64

	// BoundingR is the radius of the circle enclosing the child.
	BoundingR float64
}

// Converter converts v2 scenery files below one pair of dataset roots.
// It memoizes by output path, so each (file, no-displacement) pair is
// converted at most once. A Converter is owned by a single conversion
// pass and is not safe for concurrent use.
type Converter struct {
	paths *paths.Mapper
	log   *zap.Logger

	done   map[string]Link // completed conversions, keyed by output name
	active map[string]bool // conversions in progress, for cycle detection
}

// NewConverter returns a Converter over the given roots.
func NewConverter(m *paths.Mapper, log *zap.Logger) *Converter {
	if log == nil {
		log = zap.NewNop()
	}

	return &Converter{
		paths:  m,
		log:    log,
		done:   make(map[string]Link),
		active: make(map[string]bool),
	}
}

// fmtFloat renders a float the way all emitted attributes expect it.
func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
