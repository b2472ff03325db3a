package route

import (
	"errors"
	"strconv"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/zusikit/zusi2to3/paths"
	"github.com/zusikit/zusi2to3/scenery"
)

var (
	// ErrVersionMismatch indicates the route file is not version 2.3.
	ErrVersionMismatch = errors.New("route: unsupported file version")

	// ErrDuplicateDestination indicates a signal matrix with two rows
	// naming the same non-empty (block, track) destination.
	ErrDuplicateDestination = errors.New("route: duplicate destination row")
)

// RefType identifies what a reference point marks on its element.
type RefType int

// Reference point types. The reverse-direction variants share the
// emitted RefTyp of their forward counterpart but omit StrNorm.
const (
	RefStaging       RefType = 0 // staging point (Aufgleispunkt)
	RefRegister      RefType = 2
	RefSwitch        RefType = 3
	RefSignal        RefType = 4
	RefRelease       RefType = 5 // release point (Aufloesepunkt)
	RefSignalReverse RefType = 8 // emitted as type 4, reverse direction
	RefSwitchReverse RefType = 9 // emitted as type 3, reverse direction
)

// refNr derives the stable reference number of a typed point on an
// element. Uniqueness follows from one-point-per-type-per-element.
func refNr(elemNr int, t RefType) int {
	return 10*elemNr + int(t)
}

// MatrixEntry is one cell of a signal matrix: the signal image shown
// and the speed signaled when its row and column are selected.
type MatrixEntry struct {
	Image  int
	VMax   int // km/h; -1 = unrestricted
	ID     int // identification key for pre-signal column selection
	Event1 int
	Event2 int
}

// MatrixRow is one destination row of a signal matrix.
type MatrixRow struct {
	Block   string
	Track   string
	VMax    int // km/h; 0 = stop
	Columns []MatrixEntry
}

// Signal is the lifted form of a v2 combination signal.
type Signal struct {
	ElementNr  int
	Block      string
	Track      string
	Matrix     []*MatrixRow
	VsigSpeeds []int // expected pre-signal speeds per column; -1 = no expectation
	Vsigs      []int // upstream pre-signal element numbers
	FrameCount int
}

// hasStopRow reports whether the signal can show a stop aspect, which
// is what makes it a main signal.
func (s *Signal) hasStopRow() bool {
	for _, row := range s.Matrix {
		if row.VMax == 0 {
			return true
		}
	}

	return false
}

// stopRow returns the index of the first stop row, and whether one exists.
func (s *Signal) stopRow() (int, bool) {
	for i, row := range s.Matrix {
		if row.VMax == 0 {
			return i, true
		}
	}

	return 0, false
}

// element is the fixed per-element record the graph passes work with.
type element struct {
	nr           int
	succ         []int
	pred         []int
	register     int
	releasePoint bool
}

// Options configure a route conversion.
type Options struct {
	// ReverseBlockMarkers emits the "no auto-route" event markers
	// (21, 22, 45) on every element's reverse direction. The
	// synthesizer produces the routes itself, so this is off by
	// default and exists for editors that expect the markers.
	ReverseBlockMarkers bool
}

// Option mutates Options.
type Option func(*Options)

// WithReverseBlockMarkers enables the reverse-direction
// "no auto-route" markers.
func WithReverseBlockMarkers() Option {
	return func(o *Options) { o.ReverseBlockMarkers = true }
}

// Result reports the outcome of a route conversion to the driver.
type Result struct {
	// OutName is the v3-relative name of the written route file, as
	// timetables must reference it.
	OutName string

	// RecursionDepth is passed through to converted timetables.
	RecursionDepth int
}

// Converter converts one v2 route file. It owns all intermediate state
// of the conversion and is not reusable.
type Converter struct {
	paths   *paths.Mapper
	scenery *scenery.Converter
	log     *zap.Logger
	opts    Options

	doc     *etree.Document
	strecke *etree.Element
	outRel  string

	elements map[int]*element
	order    []int // element numbers in file order
	nodes    map[int]*etree.Element

	signals      map[int]*Signal // signals with both block and track names
	signalOrder  []int
	anonSignals  map[int]*Signal // unnamed signals, pre-signal lookup only
	routeSignals map[int]bool    // elements carrying an auxiliary route signal
	staging      []int           // staging point element numbers in file order

	nextRegister int // synthesized register counter
}

// NewConverter returns a Converter over the given collaborators.
func NewConverter(m *paths.Mapper, sc *scenery.Converter, log *zap.Logger, opts ...Option) *Converter {
	if log == nil {
		log = zap.NewNop()
	}

	c := &Converter{
		paths:        m,
		scenery:      sc,
		log:          log,
		elements:     make(map[int]*element),
		nodes:        make(map[int]*etree.Element),
		signals:      make(map[int]*Signal),
		anonSignals:  make(map[int]*Signal),
		routeSignals: make(map[int]bool),
		nextRegister: 20000,
	}
	for _, fn := range opts {
		fn(&c.opts)
	}

	return c
}

// allocateRef emits the ReferenzElemente node for a typed point.
func (c *Converter) allocateRef(elemNr int, t RefType) *etree.Element {
	n := c.strecke.CreateElement("ReferenzElemente")
	n.CreateAttr("ReferenzNr", strconv.Itoa(refNr(elemNr, t)))
	n.CreateAttr("StrElement", strconv.Itoa(elemNr))
	switch t {
	case RefSignalReverse:
		n.CreateAttr("RefTyp", "4")
	case RefSwitchReverse:
		n.CreateAttr("RefTyp", "3")
	default:
		n.CreateAttr("RefTyp", strconv.Itoa(int(t)))
		n.CreateAttr("StrNorm", "1")
	}

	return n
}

// fmtFloat renders a float the way emitted attributes expect it.
func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
