package scenery

import (
	"bytes"
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

// polygon is one drawable record of a v2 scenery file: its vertices
// plus the material attributes re-emitted verbatim.
type polygon struct {
	color      int
	nightColor int
	blink      string
	typ        int
	vertices   [][3]float64
}

// convertElements splits the drawable elements of a scenery file into a
// companion elements file, re-centered on the midpoint of their 2D
// bounding box, and returns the link placing it inside the composition.
// The companion keeps the v2 text format (CRLF, decimal comma) and the
// unmodified converted name.
func (c *Converter) convertElements(r *scan.Reader, n int, name string) (Link, error) {
	outRel := c.paths.V3Rel(name)
	outAbs := c.paths.V3Abs(outRel)

	// 1. Read all records, tracking the 2D bounding box of the vertices.
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	polys := make([]polygon, 0, n)
	for i := 0; i < n; i++ {
		typ, err := r.ReadInt()
		if err != nil {
			return Link{}, err
		}
		if typ == 0 {
			// light source: fixed 11-line record, nothing to emit
			if err = r.Skip(11); err != nil {
				return Link{}, err
			}
			continue
		}

		if err = r.Skip(1); err != nil {
			return Link{}, err
		}
		p := polygon{vertices: make([][3]float64, 0, typ)}
		for v := 0; v < typ; v++ {
			var x, y, z float64
			if x, err = requireFloat(r); err != nil {
				return Link{}, err
			}
			if y, err = requireFloat(r); err != nil {
				return Link{}, err
			}
			if z, err = requireFloat(r); err != nil {
				return Link{}, err
			}
			minX, maxX = math.Min(minX, x), math.Max(maxX, x)
			minY, maxY = math.Min(minY, y), math.Max(maxY, y)
			p.vertices = append(p.vertices, [3]float64{x, y, z})
		}
		if p.color, err = r.ReadInt(); err != nil {
			return Link{}, err
		}
		if p.nightColor, err = r.ReadInt(); err != nil {
			return Link{}, err
		}
		var ok bool
		if p.blink, ok, err = r.ReadFloatString(); err != nil || !ok {
			return Link{}, missing(err)
		}
		if err = r.Skip(1); err != nil {
			return Link{}, err
		}
		if p.typ, err = r.ReadInt(); err != nil {
			return Link{}, err
		}
		if err = r.Skip(2); err != nil {
			return Link{}, err
		}
		polys = append(polys, p)
	}

	var cx, cy float64
	if maxX >= minX {
		cx = (maxX + minX) / 2
		cy = (maxY + minY) / 2
	}

	// 2. Re-emit relative to the local origin.
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "2.3\r\n%d\r\n#\r\n", n)
	var boundingSq float64
	for _, p := range polys {
		fmt.Fprintf(&buf, "%d\r\n#\r\n", len(p.vertices))
		for _, v := range p.vertices {
			lx, ly := v[0]-cx, v[1]-cy
			boundingSq = math.Max(boundingSq, lx*lx+ly*ly)
			buf.WriteString(commaFloat(lx))
			buf.WriteString("\r\n")
			buf.WriteString(commaFloat(ly))
			buf.WriteString("\r\n")
			buf.WriteString(commaFloat(v[2]))
			buf.WriteString("\r\n")
		}
		fmt.Fprintf(&buf, "%d\r\n%d\r\n%s\r\n0\r\n%d\r\n#\r\n#\r\n",
			p.color, p.nightColor, p.blink, p.typ)
	}

	if err := os.MkdirAll(filepath.Dir(outAbs), 0o755); err != nil {
		return Link{}, err
	}
	if err := os.WriteFile(outAbs, buf.Bytes(), 0o644); err != nil {
		return Link{}, err
	}

	boundingR := math.Sqrt(boundingSq)
	c.log.Debug("converted scenery elements",
		zap.String("file", outRel),
		zap.Int("polygons", len(polys)),
		zap.Float64("boundingR", boundingR))

	return Link{File: outRel, X: cx, Y: cy, BoundingR: boundingR}, nil
}

// commaFloat renders a float in the v2 text form (decimal comma).
func commaFloat(v float64) string {
	return strings.ReplaceAll(strconv.FormatFloat(v, 'g', -1, 64), ".", ",")
}

// requireFloat reads a float that must be present; a section sentinel
// in its place is a malformed record.
func requireFloat(r *scan.Reader) (float64, error) {
	v, ok, err := r.ReadFloat()
	if err != nil || !ok {
		return 0, missing(err)
	}

	return v, nil
}

// missing normalizes "value absent" conditions onto scan sentinels.
func missing(err error) error {
	if err == nil {
		return scan.ErrMalformedNumber
	}

	return err
}

// scanEOF maps a bare io.EOF from ReadLine onto the scan sentinel.
func scanEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return scan.ErrUnexpectedEOF
	}

	return err
}

// attrFloat parses a float attribute of an etree element.
func attrFloat(n *etree.Element, key string) (float64, bool, error) {
	a := n.SelectAttr(key)
	if a == nil {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(a.Value, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%s=%q: %w", key, a.Value, scan.ErrMalformedNumber)
	}

	return v, true, nil
}
