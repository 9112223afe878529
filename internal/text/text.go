// Package text decodes tag strings from the encodings audio containers
// declare (or assume).
package text

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Encoding identifies a text encoding used for tag strings.
type Encoding struct {
	name string
	enc  encoding.Encoding
}

// Name returns the encoding's canonical name.
func (e Encoding) Name() string {
	return e.name
}

// IsZero reports whether the encoding is unset.
func (e Encoding) IsZero() bool {
	return e.enc == nil
}

var (
	// Latin1 is ISO 8859-1, the default for ID3 text without an encoding
	// indicator.
	Latin1 = Encoding{"ISO-8859-1", charmap.ISO8859_1}

	// Windows1252 is the superset of Latin-1 many taggers actually write.
	Windows1252 = Encoding{"windows-1252", charmap.Windows1252}

	// UTF8 passes valid UTF-8 through and replaces invalid sequences.
	UTF8 = Encoding{"UTF-8", unicode.UTF8}

	// UTF16 honors a byte order mark, defaulting to little-endian without
	// one (the common case in ID3v2.3 files).
	UTF16 = Encoding{"UTF-16", unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)}

	// UTF16BE is byte-order-mark-free big-endian UTF-16 (ID3v2.4 type 2).
	UTF16BE = Encoding{"UTF-16BE", unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)}

	// UTF16LE is byte-order-mark-free little-endian UTF-16.
	UTF16LE = Encoding{"UTF-16LE", unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)}
)

var byName = map[string]Encoding{
	"iso-8859-1":   Latin1,
	"latin-1":      Latin1,
	"latin1":       Latin1,
	"windows-1252": Windows1252,
	"cp1252":       Windows1252,
	"utf-8":        UTF8,
	"utf8":         UTF8,
	"utf-16":       UTF16,
	"utf-16be":     UTF16BE,
	"utf-16le":     UTF16LE,
}

// ByName resolves an encoding by (case-insensitive) name.
func ByName(name string) (Encoding, error) {
	e, ok := byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Encoding{}, fmt.Errorf("unknown text encoding %q", name)
	}
	return e, nil
}

// Decode converts raw bytes in the given encoding to a UTF-8 string,
// trimming trailing NUL terminators.
func (e Encoding) Decode(b []byte) (string, error) {
	if e.enc == nil {
		e = UTF8
	}
	out, err := e.enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("decoding %s text: %w", e.name, err)
	}
	return strings.TrimRight(string(out), "\x00"), nil
}

// TerminatorSize returns the width of a NUL terminator in this encoding
// (2 for UTF-16 variants, 1 otherwise).
func (e Encoding) TerminatorSize() int {
	if strings.HasPrefix(e.name, "UTF-16") {
		return 2
	}
	return 1
}

// SplitTerminated splits b at the first NUL terminator of the encoding's
// width, returning the part before it and the remainder after it. When no
// terminator exists, rest is nil and all bytes belong to the head.
func (e Encoding) SplitTerminated(b []byte) (head, rest []byte) {
	width := e.TerminatorSize()
	for i := 0; i+width <= len(b); i += width {
		if b[i] == 0 && (width == 1 || b[i+1] == 0) {
			return b[:i], b[i+width:]
		}
	}
	return b, nil
}
