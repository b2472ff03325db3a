// Package scan reads the legacy line-oriented v2 text files.
//
// The legacy corpus is ISO-8859-1 encoded, tolerates both CRLF and LF
// newlines, writes decimal numbers with a comma as the decimal point,
// and terminates variable-length sections with a line starting in '#'.
// Reader wraps all four quirks behind a handful of primitives:
//
//   - ReadLine    - next trimmed line, io.EOF at end of input
//   - ReadFloat   - next line as float64; section sentinel reports absence
//   - ReadFloatString - same, but preserving the textual form with the
//     comma normalized to a point (for bit-equal XML re-emission)
//   - ReadInt     - next line as int
//   - Skip, SkipSection - positioning helpers
//
// Errors:
//
//   - ErrMalformedNumber - a numeric line failed to parse.
//   - ErrUnexpectedEOF   - input ended inside a record.
package scan
