package scan_test

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zusikit/zusi2to3/scan"
)

// TestReadLine_TrimsAndTolerantNewlines verifies CRLF and LF lines both
// come back trimmed.
func TestReadLine_TrimsAndTolerantNewlines(t *testing.T) {
	r := scan.New(strings.NewReader("first\r\n  second  \nthird"))

	line, err := r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "first", line)

	line, err = r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "second", line)

	// final line without a trailing newline is still delivered
	line, err = r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "third", line)

	_, err = r.ReadLine()
	assert.ErrorIs(t, err, io.EOF)
}

// TestReadLine_DecodesLatin1 verifies the legacy 8-bit decoding.
func TestReadLine_DecodesLatin1(t *testing.T) {
	// "Brücke" in ISO-8859-1: 0xFC for ü
	r := scan.New(strings.NewReader("Br\xfccke\n"))

	line, err := r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "Brücke", line)
}

// TestReadFloat_CommaDecimal verifies the locale comma is accepted.
func TestReadFloat_CommaDecimal(t *testing.T) {
	r := scan.New(strings.NewReader("32945,2\n-0,0231\n12\n"))

	v, ok, err := r.ReadFloat()
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 32945.2, v, 1e-9)

	v, ok, err = r.ReadFloat()
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, -0.0231, v, 1e-9)

	v, ok, err = r.ReadFloat()
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 12.0, v, 1e-9)
}

// TestReadFloat_SentinelReportsAbsent verifies a '#' line is consumed
// and reported as absence, not an error.
func TestReadFloat_SentinelReportsAbsent(t *testing.T) {
	r := scan.New(strings.NewReader("#\n42\n"))

	_, ok, err := r.ReadFloat()
	require.NoError(t, err)
	assert.False(t, ok)

	// the sentinel was consumed, the next value is readable
	v, ok, err := r.ReadFloat()
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 42.0, v, 1e-9)
}

// TestReadFloat_Malformed verifies the parse failure sentinel.
func TestReadFloat_Malformed(t *testing.T) {
	r := scan.New(strings.NewReader("zwölf\n"))

	_, _, err := r.ReadFloat()
	assert.ErrorIs(t, err, scan.ErrMalformedNumber)
}

// TestReadFloat_EOF verifies running off the end inside a record.
func TestReadFloat_EOF(t *testing.T) {
	r := scan.New(strings.NewReader(""))

	_, _, err := r.ReadFloat()
	assert.ErrorIs(t, err, scan.ErrUnexpectedEOF)
}

// TestReadFloatString_PreservesText verifies the textual form survives
// with only the comma normalized.
func TestReadFloatString_PreservesText(t *testing.T) {
	r := scan.New(strings.NewReader("3214,451\n0,000\n#\n"))

	s, ok, err := r.ReadFloatString()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "3214.451", s)

	s, ok, err = r.ReadFloatString()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "0.000", s) // trailing zeros kept

	_, ok, err = r.ReadFloatString()
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestReadInt covers plain and malformed integers.
func TestReadInt(t *testing.T) {
	r := scan.New(strings.NewReader("3002\n-1\noops\n"))

	v, err := r.ReadInt()
	require.NoError(t, err)
	assert.Equal(t, 3002, v)

	v, err = r.ReadInt()
	require.NoError(t, err)
	assert.Equal(t, -1, v)

	_, err = r.ReadInt()
	assert.ErrorIs(t, err, scan.ErrMalformedNumber)
}

// TestSkipSection consumes through the next sentinel, including
// sentinel lines carrying trailing text.
func TestSkipSection(t *testing.T) {
	r := scan.New(strings.NewReader("a\nb\n#end\nnext\n"))

	require.NoError(t, r.SkipSection())

	line, err := r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "next", line)
}

// TestSkip_EOF verifies Skip surfaces truncation.
func TestSkip_EOF(t *testing.T) {
	r := scan.New(strings.NewReader("only\n"))

	assert.ErrorIs(t, r.Skip(2), scan.ErrUnexpectedEOF)
}
