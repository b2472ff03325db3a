package scenery

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/zusikit/zusi2to3/scan"
)

// Convert converts the v2 scenery file with the given v2-relative name
// and everything it links, writing the v3 output below the target root.
// With noDisplacement set the composition keeps its authored origin and
// an existing output is reused instead of reconverting (signal frames
// are converted this way, once per file).
func (c *Converter) Convert(name string, noDisplacement bool) (Link, error) {
	// 1. Resolve the output path; it doubles as the memo key.
	outRel := c.outputName(name, noDisplacement)
	if lk, ok := c.done[outRel]; ok {
		return lk, nil
	}
	if c.active[outRel] {
		return Link{}, fmt.Errorf("%s: %w", name, ErrCycle)
	}
	outAbs := c.paths.V3Abs(outRel)

	// 2. No-displacement cache: reuse an output written by an earlier run.
	if noDisplacement {
		if lk, ok, err := c.fromCache(outRel, outAbs); err != nil {
			return Link{}, err
		} else if ok {
			c.done[outRel] = lk

			return lk, nil
		}
	}

	c.log.Debug("converting scenery",
		zap.String("in", name), zap.String("out", outAbs))

	c.active[outRel] = true
	defer delete(c.active, outRel)

	// 3. Read the children and this file's own drawable elements.
	links, err := c.readLinks(name)
	if err != nil {
		return Link{}, fmt.Errorf("scenery %s: %w", name, err)
	}

	// 4. Re-center on the midpoint of the children's outer envelopes.
	var cx, cy float64
	if len(links) > 0 && !noDisplacement {
		minX, maxX := math.Inf(1), math.Inf(-1)
		minY, maxY := math.Inf(1), math.Inf(-1)
		for _, l := range links {
			minX = math.Min(minX, l.X-l.BoundingR)
			maxX = math.Max(maxX, l.X+l.BoundingR)
			minY = math.Min(minY, l.Y-l.BoundingR)
			maxY = math.Max(maxY, l.Y+l.BoundingR)
		}
		cx = (maxX + minX) / 2
		cy = (maxY + minY) / 2
	}

	// 5. Enclosing radius over the re-centered envelope.
	// TODO bounding computation approximates a rectangle, not a circle;
	// kept for compatibility with existing datasets.
	var boundingR float64
	if len(links) > 0 {
		var exX, exY float64
		for _, l := range links {
			exX = math.Max(exX, math.Max(
				math.Abs(l.X-cx+l.BoundingR), math.Abs(l.X-cx-l.BoundingR)))
			exY = math.Max(exY, math.Max(
				math.Abs(l.Y-cy+l.BoundingR), math.Abs(l.Y-cy-l.BoundingR)))
		}
		boundingR = math.Hypot(exX, exY)
	}

	// 6. Emit.
	doc := etree.NewDocument()
	land := doc.CreateElement("Zusi").CreateElement("Landschaft")
	for _, l := range links {
		n := land.CreateElement("Verknuepfte")
		n.CreateAttr("SichtbarBis", "3000")
		n.CreateAttr("BoundingR", fmtFloat(l.BoundingR))
		n.CreateElement("Datei").CreateAttr("Dateiname", l.File)
		p := n.CreateElement("p")
		p.CreateAttr("X", fmtFloat(l.X-cx))
		p.CreateAttr("Y", fmtFloat(l.Y-cy))
		p.CreateAttr("Z", fmtFloat(l.Z))
		phi := n.CreateElement("phi")
		phi.CreateAttr("X", fmtFloat(l.RX))
		phi.CreateAttr("Y", fmtFloat(l.RY))
		phi.CreateAttr("Z", fmtFloat(l.RZ))
	}

	if err := os.MkdirAll(filepath.Dir(outAbs), 0o755); err != nil {
		return Link{}, fmt.Errorf("scenery %s: %w", name, err)
	}
	if err := doc.WriteToFile(outAbs); err != nil {
		return Link{}, fmt.Errorf("scenery %s: %w", name, err)
	}

	lk := Link{File: outRel, X: cx, Y: cy, BoundingR: boundingR}
	c.done[outRel] = lk

	return lk, nil
}

// outputName derives the v3-relative output name: the v2 extension is
// dropped, a no-displacement conversion gains an ".nd" cache segment,
// and the v3 extension is ".ls3".
func (c *Converter) outputName(name string, noDisplacement bool) string {
	base := c.paths.V3Rel(name)
	if len(base) > 3 {
		base = base[:len(base)-3]
	}
	if noDisplacement {
		base += ".nd"
	}

	return base + ".ls3"
}

// fromCache recovers the Link of an already-written no-displacement
// output by re-reading the largest child bounding radius.
func (c *Converter) fromCache(outRel, outAbs string) (Link, bool, error) {
	if _, err := os.Stat(outAbs); err != nil {
		return Link{}, false, nil
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromFile(outAbs); err != nil {
		return Link{}, false, fmt.Errorf("scenery cache %s: %w", outAbs, err)
	}

	var r float64
	for _, n := range doc.FindElements("//Landschaft/Verknuepfte") {
		if v, ok, _ := attrFloat(n, "BoundingR"); ok {
			r = math.Max(r, v)
		}
	}

	return Link{File: outRel, BoundingR: r}, true, nil
}

// readLinks parses one v2 scenery file: the linked children (each
// recursively converted and reframed) followed by the drawable elements,
// which join the result as one final link.
func (c *Converter) readLinks(name string) ([]Link, error) {
	in, err := os.Open(c.paths.V2Abs(name))
	if err != nil {
		return nil, err
	}
	defer in.Close()

	r := scan.New(in)
	if _, err = r.ReadLine(); err != nil { // version tag
		return nil, scanEOF(err)
	}
	numElements, err := r.ReadInt()
	if err != nil {
		return nil, err
	}

	var links []Link
	for {
		line, err := r.ReadLine()
		if err != nil {
			return nil, scanEOF(err)
		}
		if strings.HasPrefix(line, "#") {
			break
		}

		child, err := c.Convert(line, false)
		if err != nil {
			return nil, err
		}

		var t [6]float64 // x, y, z, rx, ry, rz
		for i := range t {
			if t[i], err = requireFloat(r); err != nil {
				return nil, err
			}
		}

		// Reframe: rotate the child displacement into the parent frame,
		// then translate.
		rx, ry, rz := t[3], t[4], t[5]
		x, y, z := rotateZYX(child.X, child.Y, child.Z, rx, ry, rz)
		links = append(links, Link{
			File:      child.File,
			X:         x + t[0],
			Y:         y + t[1],
			Z:         z + t[2],
			RX:        rx,
			RY:        ry,
			RZ:        rz,
			BoundingR: child.BoundingR,
		})
	}

	if numElements != 0 {
		el, err := c.convertElements(r, numElements, name)
		if err != nil {
			return nil, err
		}
		links = append(links, el)
	}

	return links, nil
}

// rotateZYX applies the active Euler rotation Z, then Y, then X:
//
//	Z: |cos −sin 0; sin cos 0; 0 0 1|
//	Y: |cos 0 sin; 0 1 0; −sin 0 cos|
//	X: |1 0 0; 0 cos −sin; 0 sin cos|
//
// The order is load-bearing for scenery alignment.
func rotateZYX(x, y, z, rx, ry, rz float64) (float64, float64, float64) {
	if rx == 0 && ry == 0 && rz == 0 {
		return x, y, z
	}

	x2 := x*math.Cos(rz) - y*math.Sin(rz)
	y2 := x*math.Sin(rz) + y*math.Cos(rz)
	z2 := z

	x3 := x2*math.Cos(ry) + z2*math.Sin(ry)
	y3 := y2
	z3 := -x2*math.Sin(ry) + z2*math.Cos(ry)

	y4 := y3*math.Cos(rx) - z3*math.Sin(rx)
	z4 := y3*math.Sin(rx) + z3*math.Cos(rx)

	return x3, y4, z4
}
