package scan

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

var (
	// ErrMalformedNumber indicates a line that should hold a number
	// failed to parse after comma normalization.
	ErrMalformedNumber = errors.New("scan: malformed number")

	// ErrUnexpectedEOF indicates the input ended in the middle of a record.
	ErrUnexpectedEOF = errors.New("scan: unexpected end of file")
)

// Reader reads a v2 text file line by line, decoding ISO-8859-1.
type Reader struct {
	br *bufio.Reader
}

// New wraps r in a decoding line reader.
func New(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReader(charmap.ISO8859_1.NewDecoder().Reader(r))}
}

// ReadLine returns the next line with surrounding whitespace trimmed.
// At end of input it returns io.EOF.
func (r *Reader) ReadLine() (string, error) {
	line, err := r.br.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			// final line without trailing newline
			return strings.TrimSpace(line), nil
		}

		return "", err
	}

	return strings.TrimSpace(line), nil
}

// ReadFloat parses the next line as a float64. A '#' sentinel line is
// consumed and reported as absent (ok = false).
func (r *Reader) ReadFloat() (v float64, ok bool, err error) {
	line, err := r.ReadLine()
	if err != nil {
		return 0, false, eof(err)
	}
	if strings.HasPrefix(line, "#") {
		return 0, false, nil
	}

	v, perr := strconv.ParseFloat(normalize(line), 64)
	if perr != nil {
		return 0, false, fmt.Errorf("%q: %w", line, ErrMalformedNumber)
	}

	return v, true, nil
}

// ReadFloatString returns the next line with the decimal comma replaced
// by a point, preserving the textual form otherwise. A '#' sentinel line
// is consumed and reported as absent (ok = false).
func (r *Reader) ReadFloatString() (s string, ok bool, err error) {
	line, err := r.ReadLine()
	if err != nil {
		return "", false, eof(err)
	}
	if strings.HasPrefix(line, "#") {
		return "", false, nil
	}

	return normalize(line), true, nil
}

// ReadInt parses the next line as an int.
func (r *Reader) ReadInt() (int, error) {
	line, err := r.ReadLine()
	if err != nil {
		return 0, eof(err)
	}

	v, perr := strconv.Atoi(line)
	if perr != nil {
		return 0, fmt.Errorf("%q: %w", line, ErrMalformedNumber)
	}

	return v, nil
}

// Skip consumes and discards n lines.
func (r *Reader) Skip(n int) error {
	for i := 0; i < n; i++ {
		if _, err := r.ReadLine(); err != nil {
			return eof(err)
		}
	}

	return nil
}

// SkipSection consumes lines up to and including the next '#' sentinel.
func (r *Reader) SkipSection() error {
	for {
		line, err := r.ReadLine()
		if err != nil {
			return eof(err)
		}
		if strings.HasPrefix(line, "#") {
			return nil
		}
	}
}

// normalize rewrites the legacy decimal comma to a point.
func normalize(line string) string {
	return strings.ReplaceAll(line, ",", ".")
}

// eof maps io.EOF onto the package sentinel; other errors pass through.
func eof(err error) error {
	if errors.Is(err, io.EOF) {
		return ErrUnexpectedEOF
	}

	return err
}
