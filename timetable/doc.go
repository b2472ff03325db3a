// Package timetable converts v2 timetable files into the v3 XML
// skeleton: the start time, a module reference to the converted route,
// and one train node per referenced train file with its schedule
// entries and a default rolling-stock assignment.
//
// Train numbers colliding within one timetable are disambiguated with
// a numeric suffix. Once a turnaround is detected, every later schedule
// entry of that train is dropped; the turnaround is logged for human
// review. The correct modeling of turnarounds is unresolved.
package timetable
