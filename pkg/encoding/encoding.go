// Package encoding provides text helpers for game data files: fixed-width
// null-padded names and Windows-1252 decoding of text sources.
package encoding

import (
	"bytes"
	"io"
	"strings"

	xencoding "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Windows1252ToUTF8 converts Windows-1252 bytes to a UTF-8 string.
// Returns the input unchanged if conversion fails.
func Windows1252ToUTF8(data []byte) string {
	result, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	if err != nil {
		return string(data)
	}
	return string(result)
}

// UTF8ToWindows1252 converts a UTF-8 string to Windows-1252 bytes.
// Characters without a mapping are replaced by the encoder's substitute.
func UTF8ToWindows1252(s string) []byte {
	enc := xencoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())
	result, _, err := transform.Bytes(enc, []byte(s))
	if err != nil {
		return []byte(s)
	}
	return result
}

// NewTextReader wraps r so that Windows-1252 text is read as UTF-8.
func NewTextReader(r io.Reader) io.Reader {
	return transform.NewReader(r, charmap.Windows1252.NewDecoder())
}

// FixedString returns the Windows-1252 text of a fixed-size, null-padded
// field. Anything after the first null is ignored.
func FixedString(data []byte) string {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	return Windows1252ToUTF8(data)
}

// PutFixedString returns s encoded as Windows-1252 in a null-padded field of
// the given size, truncated so at least one null remains.
func PutFixedString(s string, size int) []byte {
	out := make([]byte, size)
	b := UTF8ToWindows1252(s)
	if len(b) >= size {
		b = b[:size-1]
	}
	copy(out, b)
	return out
}

// NormalizePath converts backslashes to slashes and lowercases the result for
// case-insensitive comparisons.
func NormalizePath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	return strings.ToLower(path)
}
