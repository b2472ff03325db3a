package route

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/zusikit/zusi2to3/scan"
)

// liftSignal reads a v2 combination signal and emits its explicit v3
// form: one HsigBegriff per destination row, one VsigBegriff per
// expected pre-signal speed, and one MatrixEintrag per cell. The parsed
// Signal is kept for route synthesis, indexed by element number in the
// named map when it carries both a block and a track name, in the
// anonymous map otherwise.
func (c *Converter) liftSignal(r *scan.Reader, elemNr int, norm *etree.Element, x1 float64) error {
	sig := &Signal{ElementNr: elemNr}
	n := norm.CreateElement("Signal")
	var boundingR float64

	// 1. Two candidate mount points with their rotations.
	y1, err := requireFloat(r)
	if err != nil {
		return err
	}
	z1, err := requireFloat(r)
	if err != nil {
		return err
	}
	var rot1 [3]string
	for i := range rot1 {
		if rot1[i], err = requireFloatString(r); err != nil {
			return err
		}
	}
	var p2 [3]float64
	for i := range p2 {
		if p2[i], err = requireFloat(r); err != nil {
			return err
		}
	}
	var rot2 [3]string
	for i := range rot2 {
		if rot2[i], err = requireFloatString(r); err != nil {
			return err
		}
	}

	// 2. The effective origin: midpoint when both mount points are set,
	// otherwise whichever is.
	var origin [3]float64
	switch {
	case x1 == 0 && y1 == 0 && z1 == 0:
		origin = p2
	case p2[0] == 0 && p2[1] == 0 && p2[2] == 0:
		origin = [3]float64{x1, y1, z1}
	default:
		origin = [3]float64{(x1 + p2[0]) / 2, (y1 + p2[1]) / 2, (z1 + p2[2]) / 2}
	}
	p := n.CreateElement("p")
	p.CreateAttr("X", fmtFloat(origin[0]))
	p.CreateAttr("Y", fmtFloat(origin[1]))
	p.CreateAttr("Z", fmtFloat(origin[2]))

	// 3. Signal frames; the mount-point tag selects the pose.
	var frames []*etree.Element
	for {
		name, err := r.ReadLine()
		if err != nil {
			return scanErr(err)
		}
		if strings.HasPrefix(name, "#") {
			break
		}
		sig.FrameCount++

		fr := etree.NewElement("SignalFrame")
		frames = append(frames, fr)
		lk, err := c.scenery.Convert(name, true)
		if err != nil {
			return err
		}
		fr.CreateElement("Datei").CreateAttr("Dateiname", lk.File)
		boundingR = math.Max(boundingR, lk.BoundingR)

		mount, err := r.ReadLine()
		if err != nil {
			return scanErr(err)
		}
		fp := fr.CreateElement("p")
		fphi := fr.CreateElement("phi")
		if strings.HasPrefix(mount, "2") {
			fp.CreateAttr("X", fmtFloat(p2[0]-origin[0]))
			fp.CreateAttr("Y", fmtFloat(p2[1]-origin[1]))
			fp.CreateAttr("Z", fmtFloat(p2[2]-origin[2]))
			fphi.CreateAttr("X", rot2[0])
			fphi.CreateAttr("Y", rot2[1])
			fphi.CreateAttr("Z", rot2[2])
		} else {
			fp.CreateAttr("X", fmtFloat(x1-origin[0]))
			fp.CreateAttr("Y", fmtFloat(y1-origin[1]))
			fp.CreateAttr("Z", fmtFloat(z1-origin[2]))
			fphi.CreateAttr("X", rot1[0])
			fphi.CreateAttr("Y", rot1[1])
			fphi.CreateAttr("Z", rot1[2])
		}
	}

	// 4. Destination rows. The v2 file stores counts minus one.
	if sig.Block, err = r.ReadLine(); err != nil {
		return scanErr(err)
	}
	if sig.Track, err = r.ReadLine(); err != nil {
		return scanErr(err)
	}
	numRows, err := r.ReadInt()
	if err != nil {
		return err
	}
	numRows++
	numCols, err := r.ReadInt()
	if err != nil {
		return err
	}
	numCols++

	seen := make(map[string]bool, numRows)
	for i := 0; i < numRows; i++ {
		row := &MatrixRow{}
		if row.Block, err = r.ReadLine(); err != nil {
			return scanErr(err)
		}
		if row.Track, err = r.ReadLine(); err != nil {
			return scanErr(err)
		}
		if row.Block != "" || row.Track != "" {
			key := row.Block + " " + row.Track
			if seen[key] {
				return fmt.Errorf("element %d destination %q: %w",
					elemNr, key, ErrDuplicateDestination)
			}
			seen[key] = true
		}
		if row.VMax, err = r.ReadInt(); err != nil {
			return err
		}
		sig.Matrix = append(sig.Matrix, row)
		if err = r.Skip(2); err != nil {
			return err
		}

		h := n.CreateElement("HsigBegriff")
		h.CreateAttr("FahrstrTyp", "6")
		if row.VMax == 0 {
			h.CreateAttr("HsigGeschw", "0")
		} else {
			h.CreateAttr("HsigGeschw", fmtFloat(float64(row.VMax)/3.6))
		}
	}

	// 5. Expected pre-signal speeds per column; -1 is kept literally.
	for j := 0; j < numCols; j++ {
		v, err := r.ReadInt()
		if err != nil {
			return err
		}
		sig.VsigSpeeds = append(sig.VsigSpeeds, v)
		vb := n.CreateElement("VsigBegriff")
		if v == -1 {
			vb.CreateAttr("VsigGeschw", "-1")
		} else {
			vb.CreateAttr("VsigGeschw", fmtFloat(float64(v)/3.6))
		}
	}

	if err = r.Skip(1); err != nil { // "off at Hp0"
		return err
	}

	// 6. Matrix cells, row-major.
	for i := 0; i < numRows; i++ {
		for j := 0; j < numCols; j++ {
			var me MatrixEntry
			if me.Image, err = r.ReadInt(); err != nil {
				return err
			}
			if me.VMax, err = r.ReadInt(); err != nil {
				return err
			}
			if me.VMax == 0 && sig.Matrix[i].VMax != 0 {
				c.log.Warn("matrix entry signals stop on a proceed row",
					zap.Int("element", elemNr), zap.Int("row", i), zap.Int("column", j))
			}
			if me.ID, err = r.ReadInt(); err != nil {
				return err
			}
			if me.Event1, err = r.ReadInt(); err != nil {
				return err
			}
			if me.Event2, err = r.ReadInt(); err != nil {
				return err
			}
			if err = r.Skip(1); err != nil {
				return err
			}
			sig.Matrix[i].Columns = append(sig.Matrix[i].Columns, me)

			mn := n.CreateElement("MatrixEintrag")
			if me.VMax == -1 {
				mn.CreateAttr("MatrixGeschw", "-1")
			} else {
				mn.CreateAttr("MatrixGeschw", fmtFloat(float64(me.VMax)/3.6))
			}
			mn.CreateAttr("Signalbild", strconv.Itoa(me.Image))
		}
	}

	// 7. Substitute-signal block: five values, a reserved line, and the
	// probable-substitute line, all consumed unused.
	if err = r.Skip(7); err != nil {
		return err
	}

	// 8. Upstream pre-signal elements.
	for {
		line, err := r.ReadLine()
		if err != nil {
			return scanErr(err)
		}
		if strings.HasPrefix(line, "#") {
			break
		}
		nr, perr := strconv.Atoi(line)
		if perr != nil {
			return fmt.Errorf("pre-signal %q: %w", line, scan.ErrMalformedNumber)
		}
		sig.Vsigs = append(sig.Vsigs, nr)
	}
	if err = r.Skip(1); err != nil { // reserved
		return err
	}

	// 9. Index: named signals participate in route synthesis as
	// start/target candidates, anonymous ones only as pre-signals.
	if sig.Block != "" && sig.Track != "" {
		n.CreateAttr("NameBetriebsstelle", sig.Block)
		n.CreateAttr("Stellwerk", sig.Block)
		n.CreateAttr("Signalname", sig.Track)
		c.signals[elemNr] = sig
		c.signalOrder = append(c.signalOrder, elemNr)
	} else {
		n.CreateAttr("Signalname", "Element "+strconv.Itoa(elemNr))
		c.anonSignals[elemNr] = sig
	}

	for _, fr := range frames {
		n.AddChild(fr)
	}
	n.CreateAttr("BoundingR", strconv.Itoa(int(math.Ceil(boundingR))))

	c.allocateRef(elemNr, RefSignal)

	return nil
}
