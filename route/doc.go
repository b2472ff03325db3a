// Package route converts a v2 route description into the v3 XML form
// and synthesizes the interlocking routes the v3 format expects.
//
// Conversion is three passes over one in-memory track graph:
//
//  1. Parse - a single pass over the v2 file materializes every track
//     element (kilometration, control vectors, successors, speed,
//     events, register) together with its signals. Combination signals
//     are lifted from the v2 matrix-of-aspects model into explicit
//     HsigBegriff / VsigBegriff / MatrixEintrag entries; auxiliary
//     route signals are mounted on the reverse direction. Semantically
//     important points (switches, signals, registers, release points,
//     staging points) receive stable reference numbers.
//  2. Invert - predecessors are derived from the successor lists;
//     elements with several predecessors become reverse-direction
//     switches.
//  3. Synthesize - a depth-first walk from every main signal (one with
//     a stop row) and every staging point enumerates the admissible
//     paths to the next stopping signal, emitting one Fahrstrasse per
//     path with all switch, register, release-point, and signal
//     bindings, including the pre-signal column selection on the start
//     signal's distant signals.
//
// Errors:
//
//   - ErrVersionMismatch - the input is not a v2.3 route file (fatal).
//   - ErrDuplicateDestination - a signal matrix names the same
//     non-empty destination twice (fatal).
//   - scan.ErrMalformedNumber / scan.ErrUnexpectedEOF - malformed
//     input (fatal).
//
// Dangling references (a pre-signal list naming an element without a
// signal) and matrix anomalies are logged and recovered from, never
// returned.
package route
