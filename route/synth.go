package route

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"
)

// synthesize enumerates the interlocking routes: one walk from every
// main signal (a signal with a stop row) and one from every staging
// point, each ending at the next signal that can show stop.
func (c *Converter) synthesize() {
	for _, nr := range c.signalOrder {
		sig := c.signals[nr]
		if !sig.hasStopRow() {
			continue
		}
		c.log.Debug("routes from signal",
			zap.String("block", sig.Block), zap.String("track", sig.Track))
		fs := etree.NewElement("Fahrstrasse")
		c.bind(fs, "FahrstrStart", "Ref", strconv.Itoa(refNr(nr, RefSignal)))
		c.walk([]int{nr}, nr, fs)
	}

	for _, nr := range c.staging {
		c.log.Debug("routes from staging point", zap.Int("element", nr))
		fs := etree.NewElement("Fahrstrasse")
		c.bind(fs, "FahrstrStart", "Ref", strconv.Itoa(refNr(nr, RefStaging)))
		c.walk([]int{nr}, nr, fs)
	}
}

// walk advances one partial route along the track graph, collecting
// register, release-point, and signal bindings, forking a deep copy of
// the partial route at every switch. startNrs carries the start element
// plus any signals already walked through; its last entry is the
// element whose own bindings must not be re-collected.
func (c *Converter) walk(startNrs []int, elemNr int, fs *etree.Element) {
	for {
		el, ok := c.elements[elemNr]
		if !ok {
			c.log.Warn("route walk reached unknown element", zap.Int("element", elemNr))

			return
		}

		if elemNr != startNrs[len(startNrs)-1] {
			if el.register != 0 {
				c.bind(fs, "FahrstrRegister",
					"Ref", strconv.Itoa(refNr(elemNr, RefRegister)))
			}
			if el.releasePoint {
				c.bind(fs, "FahrstrTeilaufloesung",
					"Ref", strconv.Itoa(refNr(elemNr, RefRelease)))
			}
			if c.routeSignals[elemNr] {
				c.bind(fs, "FahrstrSignal",
					"FahrstrSignalZeile", "1",
					"Ref", strconv.Itoa(refNr(elemNr, RefSignalReverse)))
			}
			if sig, isTarget := c.signals[elemNr]; isTarget {
				c.finishAtTarget(startNrs, elemNr, sig, fs)

				return
			}
		}

		switch len(el.succ) {
		case 0:
			return
		case 1:
			s := el.succ[0]
			c.bindReverseSwitch(fs, elemNr, s)
			elemNr = s
		default:
			for idx, s := range el.succ {
				branch := fs.Copy()
				c.bindReverseSwitch(branch, elemNr, s)
				c.bind(branch, "FahrstrWeiche",
					"FahrstrWeichenlage", strconv.Itoa(idx+1),
					"Ref", strconv.Itoa(refNr(elemNr, RefSwitch)))
				c.walk(startNrs, s, branch)
			}

			return
		}
	}
}

// bindReverseSwitch emits the incoming-branch switch lay when the
// successor has several predecessors.
func (c *Converter) bindReverseSwitch(fs *etree.Element, from, succ int) {
	el, ok := c.elements[succ]
	if !ok || len(el.pred) <= 1 {
		return
	}
	c.bind(fs, "FahrstrWeiche",
		"FahrstrWeichenlage", strconv.Itoa(indexOf(el.pred, from)+1),
		"Ref", strconv.Itoa(refNr(succ, RefSwitchReverse)))
}

// finishAtTarget handles arrival at a named signal: bind its stop row,
// bind the start signal's destination row and its pre-signal columns,
// then either publish the finished route or - when the selected row
// signals stop - treat the signal as a follow-through section and keep
// walking past it.
func (c *Converter) finishAtTarget(startNrs []int, elemNr int, sig *Signal, fs *etree.Element) {
	start := startNrs[len(startNrs)-1]
	startSig := c.signals[start] // nil when starting from a staging point

	stopRow, ok := sig.stopRow()
	if !ok {
		c.log.Warn("target signal has no stop row",
			zap.String("block", sig.Block), zap.String("track", sig.Track))
	}
	c.bind(fs, "FahrstrSignal",
		"FahrstrSignalZeile", strconv.Itoa(stopRow),
		"Ref", strconv.Itoa(refNr(elemNr, RefSignal)))

	if startSig != nil {
		matched := false
		for idx, row := range startSig.Matrix {
			if row.Block != sig.Block || row.Track != sig.Track {
				continue
			}
			matched = true

			c.bind(fs, "FahrstrSignal",
				"FahrstrSignalZeile", strconv.Itoa(idx),
				"Ref", strconv.Itoa(refNr(start, RefSignal)))

			// The speed actually signaled for this destination: the
			// entry in the column expecting speed 0, falling back to
			// the first column.
			col := 0
			for j, g := range startSig.VsigSpeeds {
				if g == 0 {
					col = j
					break
				}
			}
			entry := row.Columns[col]
			hsigSpeed, id := entry.VMax, entry.ID

			for _, vnr := range startSig.Vsigs {
				vsig := c.signals[vnr]
				if vsig == nil {
					vsig = c.anonSignals[vnr]
				}
				if vsig == nil {
					c.log.Warn("no pre-signal at element", zap.Int("element", vnr))
					continue
				}
				c.bind(fs, "FahrstrVSignal",
					"FahrstrSignalSpalte", strconv.Itoa(vsigColumn(vsig, hsigSpeed, id)),
					"Ref", strconv.Itoa(refNr(vnr, RefSignal)))
			}

			if hsigSpeed == 0 {
				c.log.Debug("signaled speed 0, walking through",
					zap.String("block", sig.Block), zap.String("track", sig.Track))
				next := make([]int, len(startNrs), len(startNrs)+1)
				copy(next, startNrs)
				c.walk(append(next, elemNr), elemNr, fs)

				return
			}

			break
		}
		if !matched {
			c.log.Warn("no destination row for path",
				zap.Int("start", start), zap.Int("target", elemNr),
				zap.String("block", sig.Block), zap.String("track", sig.Track))

			return
		}
	}

	c.bind(fs, "FahrstrZiel", "Ref", strconv.Itoa(refNr(elemNr, RefSignal)))

	var name strings.Builder
	for _, nr := range startNrs {
		if s, ok := c.signals[nr]; ok {
			name.WriteString(s.Block + " " + s.Track + " -> ")
		} else {
			name.WriteString("Aufgleispunkt -> ")
		}
	}
	name.WriteString(sig.Block + " " + sig.Track)
	fs.CreateAttr("FahrstrName", name.String())

	c.scanRelease(elemNr, elemNr, fs)

	fs.CreateAttr("FahrstrTyp", "TypZug")
	c.strecke.AddChild(fs)
	c.log.Info("route", zap.String("name", name.String()))
}

// scanRelease walks forward from the target looking for the first
// release point of each branch; a branch that meets another stopping
// signal first releases nothing.
func (c *Converter) scanRelease(elemNr, startNr int, fs *etree.Element) {
	for {
		el, ok := c.elements[elemNr]
		if !ok {
			return
		}
		if elemNr != startNr {
			if el.releasePoint {
				c.bind(fs, "FahrstrAufloesung",
					"Ref", strconv.Itoa(refNr(elemNr, RefRelease)))

				return
			}
			if sig, ok := c.signals[elemNr]; ok && sig.hasStopRow() {
				return
			}
		}
		if len(el.succ) == 0 {
			return
		}
		for _, s := range el.succ[1:] {
			c.scanRelease(s, startNr, fs)
		}
		elemNr = el.succ[0]
	}
}

// vsigColumn selects the pre-signal column for a signaled speed v and
// identification key id: the id-th column expecting exactly v, else the
// column with the largest expected speed strictly below v, where -1
// counts as above every finite speed and 0 never matches approximately.
func vsigColumn(vsig *Signal, v, id int) int {
	count := 0
	for idx, g := range vsig.VsigSpeeds {
		if g == v {
			if count == id {
				return idx
			}
			count++
		}
	}

	col, colSpeed := 0, -1
	for idx, g := range vsig.VsigSpeeds {
		if v != 0 && g != 0 && vLess(g, v) && g > colSpeed {
			col, colSpeed = idx, g
		}
	}

	return col
}

// vLess orders speeds with -1 as "unrestricted", above every finite value.
func vLess(v1, v2 int) bool {
	if v2 == -1 {
		return true
	}
	if v1 == -1 {
		return false
	}

	return v1 < v2
}

// bind appends a route binding node carrying the given attributes and
// the back-reference to the route file itself.
func (c *Converter) bind(fs *etree.Element, tag string, attrs ...string) *etree.Element {
	n := fs.CreateElement(tag)
	for i := 0; i+1 < len(attrs); i += 2 {
		n.CreateAttr(attrs[i], attrs[i+1])
	}
	d := n.CreateElement("Datei")
	d.CreateAttr("Dateiname", c.outRel)
	d.CreateAttr("NurInfo", "1")

	return n
}

// indexOf returns the first index of val in s, or -1 if not found.
func indexOf(s []int, val int) int {
	for i, x := range s {
		if x == val {
			return i
		}
	}

	return -1
}
