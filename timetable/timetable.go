package timetable

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/zusikit/zusi2to3/paths"
	"github.com/zusikit/zusi2to3/scan"
)

// defaultStock is the rolling stock every converted train starts with.
const defaultStock = `rollingstock\Deutschland\Epoche5\Dieseltriebwagen\RegioShuttle\RS1.rv.fzg`

// Converter converts v2 timetables below one pair of dataset roots.
type Converter struct {
	paths *paths.Mapper
	log   *zap.Logger
}

// NewConverter returns a Converter over the given roots.
func NewConverter(m *paths.Mapper, log *zap.Logger) *Converter {
	if log == nil {
		log = zap.NewNop()
	}

	return &Converter{paths: m, log: log}
}

// Convert converts the v2 timetable at the given absolute path. The
// emitted timetable references the converted route by its v3-relative
// name and stamps every train with the route's recursion depth.
func (c *Converter) Convert(path, routeName string, recursionDepth int) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("timetable: %w", err)
	}
	defer f.Close()
	r := scan.New(f)

	inRel, err := c.paths.RelV2(path)
	if err != nil {
		return fmt.Errorf("timetable: %w", err)
	}
	outRel := c.paths.V3Rel(inRel[:len(inRel)-1] + "n")
	outAbs := c.paths.V3Abs(outRel)
	c.log.Info("writing timetable", zap.String("in", path), zap.String("out", outAbs))

	if _, err = r.ReadLine(); err != nil { // header
		return fmt.Errorf("timetable: %w", err)
	}
	start, err := r.ReadLine()
	if err != nil {
		return fmt.Errorf("timetable: %w", err)
	}

	doc := etree.NewDocument()
	plan := doc.CreateElement("Zusi").CreateElement("Fahrplan")
	plan.CreateAttr("AnfangsZeit", start)
	plan.CreateElement("StrModul").CreateElement("Datei").CreateAttr("Dateiname", routeName)

	seen := make(map[string]bool)
	for {
		name, err := r.ReadLine()
		if err != nil {
			break // end of train list
		}
		if name == "" {
			continue
		}
		trainPath := filepath.Join(filepath.Dir(path),
			strings.ReplaceAll(name, `\`, string(filepath.Separator)))
		if err = c.convertTrain(plan, trainPath, seen, recursionDepth); err != nil {
			return fmt.Errorf("timetable: train %s: %w", name, err)
		}
	}

	if err = os.MkdirAll(filepath.Dir(outAbs), 0o755); err != nil {
		return fmt.Errorf("timetable: %w", err)
	}
	if err = doc.WriteToFile(outAbs); err != nil {
		return fmt.Errorf("timetable: %w", err)
	}

	return nil
}

// convertTrain reads one v2 train file and appends its trn node.
func (c *Converter) convertTrain(plan *etree.Element, path string, seen map[string]bool, recursionDepth int) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	r := scan.New(f)

	trn := plan.CreateElement("trn")
	trn.CreateAttr("Rekursionstiefe", strconv.Itoa(recursionDepth))

	if err = r.Skip(1); err != nil {
		return err
	}
	origNr, err := r.ReadLine()
	if err != nil {
		return err
	}

	// Serial-disambiguate colliding train numbers within the timetable.
	nr := origNr
	for i := 1; seen[nr]; i++ {
		nr = fmt.Sprintf("%s_%d", origNr, i)
	}
	seen[nr] = true
	trn.CreateAttr("Nummer", nr)

	class, err := r.ReadLine()
	if err != nil {
		return err
	}
	trn.CreateAttr("Gattung", class)

	if err = r.Skip(1); err != nil { // TODO Bremsstellung
		return err
	}
	extraVehicles, err := r.ReadInt()
	if err != nil {
		return err
	}
	if _, err = r.ReadLine(); err != nil { // reversed-locomotive flag, unused
		return err
	}
	if err = r.Skip(1); err != nil {
		return err
	}
	topSpeed, ok, err := r.ReadFloat()
	if err != nil || !ok {
		return fmt.Errorf("top speed: %w", scan.ErrMalformedNumber)
	}
	trn.CreateAttr("spZugNiedriger", strconv.FormatFloat(topSpeed/3.6, 'g', -1, 64))
	if err = r.Skip(2); err != nil { // blank, locomotive
		return err
	}
	for { // PZB mode block
		line, err := r.ReadLine()
		if err != nil {
			return err
		}
		if line == "#IF" {
			break
		}
	}
	prio, err := r.ReadLine()
	if err != nil {
		return err
	}
	trn.CreateAttr("Prio", prio)
	// deployment reference, fuel, two reserved, train type
	if err = r.Skip(5); err != nil {
		return err
	}
	circulation, err := r.ReadLine()
	if err != nil {
		return err
	}
	trn.CreateAttr("Zuglauf", circulation)
	if err = r.Skip(7); err != nil { // door system plus six reserved
		return err
	}

	firstEntry := true
	turnaround := false
	for {
		locus, err := r.ReadLine()
		if err != nil {
			return err
		}
		if locus == "#IF" {
			break
		}

		entry := trn.CreateElement("FahrplanEintrag")
		entry.CreateAttr("Betrst", locus)
		arrival, err := r.ReadLine()
		if err != nil {
			return err
		}
		entry.CreateAttr("Ank", arrival)
		departure, err := r.ReadLine()
		if err != nil {
			return err
		}
		entry.CreateAttr("Abf", departure)

		for {
			track, err := r.ReadLine()
			if err != nil {
				return err
			}
			if track == "#" {
				break
			}
			entry.CreateElement("FahrplanSignalEintrag").CreateAttr("FahrplanSignal", track)
			if firstEntry {
				firstEntry = false
				trn.CreateAttr("FahrstrName", "Aufgleispunkt -> "+locus+" "+track)
			}
		}

		if turnaround {
			// TODO model turnarounds instead of dropping the entry
			trn.RemoveChild(entry)
		}

		for {
			action, err := r.ReadLine()
			if err != nil {
				return err
			}
			if action == "#" {
				break
			}
			if action == "1" || action == "2" {
				c.log.Warn("turnaround detected, dropping all following schedule entries",
					zap.String("class", class), zap.String("number", nr),
					zap.String("locus", locus))
				turnaround = true
			}
			if err = r.Skip(2); err != nil {
				return err
			}
		}
		if err = r.Skip(1); err != nil {
			return err
		}
	}

	// Trailing vehicle triples beyond the leading one.
	if err = r.Skip(3 * extraVehicles); err != nil {
		return err
	}

	stock := trn.CreateElement("FahrzeugVarianten")
	stock.CreateAttr("Bezeichnung", "default")
	stock.CreateAttr("ZufallsWert", "1")
	info := stock.CreateElement("FahrzeugInfo")
	info.CreateAttr("IDHaupt", "1")
	info.CreateAttr("IDNeben", "1")
	info.CreateElement("Datei").CreateAttr("Dateiname", defaultStock)

	return nil
}
