package route

import (
	"strconv"

	"github.com/beevik/etree"
)

// EventKind classifies a v2 event code into what the conversion does
// with it. Only a small subset is materialized as structured entries;
// the remaining documented codes are consumed without emission.
type EventKind int

const (
	// EventNone is code 0, no event.
	EventNone EventKind = iota

	// EventDerail is 1..499: conditional derailment above the coded
	// speed in km/h.
	EventDerail

	// EventMagnet500 is 500: a 500 Hz inductive magnet.
	EventMagnet500

	// EventMagnet1000 is 1000: a 1000 Hz inductive magnet.
	EventMagnet1000

	// EventMagnet1000Above is 1001..1500: a 1000 Hz magnet active above
	// (code − 1000) km/h.
	EventMagnet1000Above

	// EventMagnet2000 is 2000: a 2000 Hz inductive magnet.
	EventMagnet2000

	// EventMagnet2000Above is 2001..2500: a 2000 Hz magnet active above
	// (code − 2000) km/h.
	EventMagnet2000Above

	// EventRelease is 3002: the passing train releases the route; the
	// element becomes a release point.
	EventRelease

	// EventForcedStop is 3004: an unconditional stop marker.
	EventForcedStop

	// EventOpaque covers every other documented code. The table spans
	// 3001 (request route), 3003 (remove train), 3005..3013 (slow-speed
	// sections, operating points, platform markers, LZB entry/exit),
	// 3021..3041 (route holds, train-operated signals, whistle and
	// written-order markers, region sounds, abrupt halt), and
	// 4000..4500 (tilting-train speed profiles). All are accepted and
	// consumed; none has a v3 rendition here.
	EventOpaque
)

// Event is a classified v2 event code.
type Event struct {
	Code int
	Kind EventKind
}

// ClassifyEvent maps a raw v2 event code onto its variant.
func ClassifyEvent(code int) Event {
	var k EventKind
	switch {
	case code == 0:
		k = EventNone
	case code >= 1 && code <= 499:
		k = EventDerail
	case code == 500:
		k = EventMagnet500
	case code == 1000:
		k = EventMagnet1000
	case code >= 1001 && code <= 1500:
		k = EventMagnet1000Above
	case code == 2000:
		k = EventMagnet2000
	case code >= 2001 && code <= 2500:
		k = EventMagnet2000Above
	case code == 3002:
		k = EventRelease
	case code == 3004:
		k = EventForcedStop
	default:
		k = EventOpaque
	}

	return Event{Code: code, Kind: k}
}

// emit appends the v3 Ereignis node for the event, if it has one.
func (e Event) emit(parent *etree.Element) {
	add := func(er string, wert string) {
		n := parent.CreateElement("Ereignis")
		n.CreateAttr("Er", er)
		if wert != "" {
			n.CreateAttr("Wert", wert)
		}
	}

	switch e.Kind {
	case EventDerail:
		add("1", fmtFloat(float64(e.Code)/3.6))
	case EventMagnet500:
		add("500", "")
	case EventMagnet1000:
		add("1000", "")
	case EventMagnet1000Above:
		add("1000", strconv.Itoa(e.Code-1000))
	case EventMagnet2000:
		add("2000", "")
	case EventMagnet2000Above:
		add("2000", strconv.Itoa(e.Code-2000))
	}
}
