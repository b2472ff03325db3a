package route

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/zusikit/zusi2to3/scan"
)

// Convert converts the v2 route file at the given absolute path,
// writing the v3 route below the target root. The returned Result
// carries what the timetable conversions need.
func (c *Converter) Convert(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("route: %w", err)
	}
	defer f.Close()
	r := scan.New(f)

	// 1. Output naming: the v2 name with its trailing extension byte
	// bumped to the v3 form, relocated below the conversion root.
	inRel, err := c.paths.RelV2(path[:len(path)-1] + "3")
	if err != nil {
		return Result{}, fmt.Errorf("route: %w", err)
	}
	c.outRel = c.paths.V3Rel(inRel)
	c.doc = etree.NewDocument()
	c.strecke = c.doc.CreateElement("Zusi").CreateElement("Strecke")

	// 2. Header.
	version, err := r.ReadLine()
	if err != nil {
		return Result{}, fmt.Errorf("route: %w", scanErr(err))
	}
	if version != "2.3" {
		return Result{}, fmt.Errorf("route: version %q: %w", version, ErrVersionMismatch)
	}
	if err = r.Skip(2); err != nil {
		return Result{}, fmt.Errorf("route: %w", err)
	}
	depth, err := r.ReadInt()
	if err != nil {
		return Result{}, fmt.Errorf("route: recursion depth: %w", err)
	}
	for i := 0; i < 2; i++ {
		if err = r.SkipSection(); err != nil {
			return Result{}, fmt.Errorf("route: %w", err)
		}
	}
	if err = r.Skip(1); err != nil {
		return Result{}, fmt.Errorf("route: %w", err)
	}

	// 3. The route's scenery, converted without displacement.
	lsName, err := r.ReadLine()
	if err != nil {
		return Result{}, fmt.Errorf("route: %w", scanErr(err))
	}
	lk, err := c.scenery.Convert(lsName, true)
	if err != nil {
		return Result{}, fmt.Errorf("route: %w", err)
	}
	c.strecke.CreateElement("Datei").CreateAttr("Dateiname", lk.File)

	// 4. Staging points.
	if err = c.parseStaging(r); err != nil {
		return Result{}, fmt.Errorf("route: staging points: %w", err)
	}
	if err = r.SkipSection(); err != nil {
		return Result{}, fmt.Errorf("route: %w", err)
	}

	// 5. Track elements until end of file.
	for {
		line, err := r.ReadLine()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("route: %w", err)
		}
		elemNr, perr := strconv.Atoi(line)
		if perr != nil {
			return Result{}, fmt.Errorf("route: element number %q: %w", line, scan.ErrMalformedNumber)
		}
		if err = c.parseElement(r, elemNr); err != nil {
			return Result{}, fmt.Errorf("route: element %d: %w", elemNr, err)
		}
	}

	// 6. Derive predecessors, then synthesize the interlocking routes.
	c.invert()
	c.synthesize()

	// 7. Write.
	outAbs := c.paths.V3Abs(c.outRel)
	if err = os.MkdirAll(filepath.Dir(outAbs), 0o755); err != nil {
		return Result{}, fmt.Errorf("route: %w", err)
	}
	c.log.Info("writing route", zap.String("out", outAbs))
	if err = c.doc.WriteToFile(outAbs); err != nil {
		return Result{}, fmt.Errorf("route: %w", err)
	}

	return Result{OutName: c.outRel, RecursionDepth: depth}, nil
}

// parseStaging reads the staging point triples up to the '#' sentinel.
func (c *Converter) parseStaging(r *scan.Reader) error {
	for {
		line, err := r.ReadLine()
		if err != nil {
			return scanErr(err)
		}
		if strings.HasPrefix(line, "#") {
			return nil
		}

		elemNr, err := r.ReadInt()
		if err != nil {
			return err
		}
		info, err := r.ReadLine()
		if err != nil {
			return scanErr(err)
		}

		c.staging = append(c.staging, elemNr)
		c.allocateRef(elemNr, RefStaging).CreateAttr("Info", info)
	}
}

// parseElement reads one track element record, including its optional
// auxiliary route signal and combination signal.
func (c *Converter) parseElement(r *scan.Reader, elemNr int) error {
	n := c.strecke.CreateElement("StrElement")
	c.nodes[elemNr] = n
	n.CreateAttr("Nr", strconv.Itoa(elemNr))
	n.CreateAttr("Anschluss", "65280")

	if c.opts.ReverseBlockMarkers {
		gegen := n.CreateElement("InfoGegenRichtung")
		for _, er := range []string{"21", "22", "45"} {
			gegen.CreateElement("Ereignis").CreateAttr("Er", er)
		}
	}

	norm := n.CreateElement("InfoNormRichtung")

	// Kilometration arrives in meters, the output wants kilometers.
	km, err := requireFloat(r)
	if err != nil {
		return err
	}
	norm.CreateAttr("km", fmtFloat(km/1000))
	dir, err := r.ReadLine()
	if err != nil {
		return scanErr(err)
	}
	if dir == "+" {
		norm.CreateAttr("pos", "1")
	}

	if err = r.Skip(1); err != nil { // scenery label
		return err
	}
	evCode, err := r.ReadInt()
	if err != nil {
		return err
	}
	ev := ClassifyEvent(evCode)
	ev.emit(norm)

	for _, tag := range []string{"g", "b"} {
		vec := n.CreateElement(tag)
		for _, axis := range []string{"X", "Y", "Z"} {
			s, err := requireFloatString(r)
			if err != nil {
				return err
			}
			vec.CreateAttr(axis, s)
		}
	}

	ueberh, err := requireFloatString(r)
	if err != nil {
		return err
	}
	n.CreateAttr("Ueberh", ueberh)

	var succ []int
	for i := 0; i < 3; i++ {
		s, err := r.ReadInt()
		if err != nil {
			return err
		}
		if s != 0 {
			succ = append(succ, s)
		}
	}
	for _, s := range succ {
		n.CreateElement("NachNorm").CreateAttr("Nr", strconv.Itoa(s))
	}
	if len(succ) > 1 {
		c.allocateRef(elemNr, RefSwitch)
	}

	vmax, err := requireFloat(r)
	if err != nil {
		return err
	}
	norm.CreateAttr("vMax", fmtFloat(vmax/3.6))
	if err = r.Skip(4); err != nil {
		return err
	}

	// Optional auxiliary route signal, then optional combination signal.
	if x, ok, err := r.ReadFloatString(); err != nil {
		return err
	} else if ok {
		if err = c.parseRouteSignal(r, elemNr, n, x); err != nil {
			return err
		}
	}
	if x1, ok, err := r.ReadFloat(); err != nil {
		return err
	} else if ok {
		if err = c.liftSignal(r, elemNr, norm, x1); err != nil {
			return err
		}
	}

	register, err := r.ReadInt()
	if err != nil {
		return err
	}
	if ev.Kind == EventRelease {
		c.allocateRef(elemNr, RefRelease)
		if register == 0 {
			register = c.nextRegister
			c.nextRegister++
			c.log.Warn("release point without register, inventing one",
				zap.Int("element", elemNr), zap.Int("register", register))
		}
	}
	if register != 0 {
		norm.CreateAttr("Reg", strconv.Itoa(register))
		c.allocateRef(elemNr, RefRegister)
	}

	c.elements[elemNr] = &element{
		nr:           elemNr,
		succ:         succ,
		register:     register,
		releasePoint: ev.Kind == EventRelease,
	}
	c.order = append(c.order, elemNr)

	return nil
}

// parseRouteSignal reads an auxiliary route signal. It is mounted on
// the element's reverse direction so it cannot collide with a
// combination signal, valid for both travel directions with the
// level-crossing control bit set (v2 route signals always carried one).
func (c *Converter) parseRouteSignal(r *scan.Reader, elemNr int, n *etree.Element, x string) error {
	c.routeSignals[elemNr] = true
	sig := n.CreateElement("InfoGegenRichtung").CreateElement("Signal")
	sig.CreateAttr("SignalFlags", "9")
	c.allocateRef(elemNr, RefSignalReverse)
	var boundingR float64

	p := sig.CreateElement("p")
	p.CreateAttr("X", x)
	for _, axis := range []string{"Y", "Z"} {
		s, err := requireFloatString(r)
		if err != nil {
			return err
		}
		p.CreateAttr(axis, s)
	}

	phi := sig.CreateElement("phi")
	rx, err := requireFloatString(r)
	if err != nil {
		return err
	}
	phi.CreateAttr("X", rx)
	ry, err := requireFloat(r)
	if err != nil {
		return err
	}
	phi.CreateAttr("Y", fmtFloat(-ry)) // sign flip inherited from the v2 editor
	rz, err := requireFloatString(r)
	if err != nil {
		return err
	}
	phi.CreateAttr("Z", rz)

	if err = r.Skip(6); err != nil {
		return err
	}

	static, err := r.ReadLine()
	if err != nil {
		return scanErr(err)
	}
	if err = c.addFrame(sig, static, &boundingR); err != nil {
		return err
	}
	if err = r.Skip(1); err != nil {
		return err
	}

	notSet, err := r.ReadLine()
	if err != nil {
		return scanErr(err)
	}
	if !strings.HasPrefix(notSet, "#") {
		if err = c.addFrame(sig, notSet, &boundingR); err != nil {
			return err
		}
		if err = r.Skip(1); err != nil {
			return err
		}

		set, err := r.ReadLine()
		if err != nil {
			return scanErr(err)
		}
		if err = c.addFrame(sig, set, &boundingR); err != nil {
			return err
		}
		if err = r.Skip(2); err != nil { // filler plus frame end marker
			return err
		}
	}

	evCode, err := r.ReadInt()
	if err != nil {
		return err
	}

	// Two placeholder concepts and two matrix entries carrying the
	// signal's event make the lifted signal well-formed.
	sig.CreateElement("HsigBegriff").CreateAttr("FahrstrTyp", "1")
	h := sig.CreateElement("HsigBegriff")
	h.CreateAttr("HsigGeschw", "-1")
	h.CreateAttr("FahrstrTyp", "1")
	sig.CreateElement("VsigBegriff").CreateAttr("VsigGeschw", "-1")
	for _, image := range []string{"3", "5"} {
		me := sig.CreateElement("MatrixEintrag")
		me.CreateAttr("MatrixGeschw", "-1")
		me.CreateAttr("Signalbild", image)
		ClassifyEvent(evCode).emit(me)
	}

	sig.CreateAttr("BoundingR", strconv.Itoa(int(math.Ceil(boundingR))))

	if err = r.Skip(1); err != nil { // announced speed
		return err
	}
	coupled, err := r.ReadInt()
	if err != nil {
		return err
	}
	if coupled != 0 {
		ks := sig.CreateElement("KoppelSignal")
		ks.CreateAttr("ReferenzNr", strconv.Itoa(refNr(coupled, RefSignalReverse)))
		d := ks.CreateElement("Datei")
		d.CreateAttr("Dateiname", c.outRel)
		d.CreateAttr("NurInfo", "1")
	}

	return nil
}

// addFrame converts one signal frame scenery and links it under sig,
// widening the accumulated bounding radius.
func (c *Converter) addFrame(sig *etree.Element, name string, boundingR *float64) error {
	fr := sig.CreateElement("SignalFrame")
	lk, err := c.scenery.Convert(name, true)
	if err != nil {
		return err
	}
	fr.CreateElement("Datei").CreateAttr("Dateiname", lk.File)
	*boundingR = math.Max(*boundingR, lk.BoundingR)

	return nil
}

// invert derives predecessor lists from the successor lists and emits
// the reverse adjacency. The second predecessor of an element turns it
// into a reverse-direction switch.
func (c *Converter) invert() {
	for _, nr := range c.order {
		for _, s := range c.elements[nr].succ {
			succNode, ok := c.nodes[s]
			if !ok {
				c.log.Warn("successor refers to unknown element",
					zap.Int("element", nr), zap.Int("successor", s))
				continue
			}
			succNode.CreateElement("NachGegen").CreateAttr("Nr", strconv.Itoa(nr))

			succEl := c.elements[s]
			if succEl.pred == nil {
				succEl.pred = []int{nr}
				continue
			}
			if len(succEl.pred) == 1 {
				c.allocateRef(s, RefSwitchReverse)
			}
			succEl.pred = append(succEl.pred, nr)
		}
	}
}

// requireFloat reads a float that must be present.
func requireFloat(r *scan.Reader) (float64, error) {
	v, ok, err := r.ReadFloat()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, scan.ErrMalformedNumber
	}

	return v, nil
}

// requireFloatString reads a normalized numeric line that must be present.
func requireFloatString(r *scan.Reader) (string, error) {
	s, ok, err := r.ReadFloatString()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", scan.ErrMalformedNumber
	}

	return s, nil
}

// scanErr maps a bare io.EOF onto the scan sentinel.
func scanErr(err error) error {
	if errors.Is(err, io.EOF) {
		return scan.ErrUnexpectedEOF
	}

	return err
}
