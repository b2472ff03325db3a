// Package zusi2to3 converts legacy v2 railway simulation datasets -
// a route, its scenery tree, and train timetables - into the v3 XML
// format, synthesizing the interlocking routes the v3 format expects.
//
// Everything is organized under five subpackages plus the CLI:
//
//	scan/      - line reader for the legacy text corpus (ISO-8859-1,
//	             decimal comma, '#' section sentinels)
//	paths/     - dataset roots and v2/v3/absolute path translation
//	scenery/   - recursive scenery conversion with Euler reframing,
//	             re-centering, and bounding radii
//	route/     - track-graph ingestion, signal lifting, reference
//	             points, and interlocking route synthesis
//	timetable/ - per-train timetable skeletons
//	cmd/       - the zusi2to3 command-line driver
//
// Set ZUSI2_DATAPATH and ZUSI3_DATAPATH, then:
//
//	zusi2to3 <route.str> <timetable.fpl>...
//
// Converted files land below Temp\_z2conv of the target root.
package zusi2to3
