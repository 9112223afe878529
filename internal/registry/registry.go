// Package registry manages format-specific parsers for audio file types.
package registry

import (
	"io"

	"github.com/simonhull/audioprobe/internal/text"
	"github.com/simonhull/audioprobe/internal/types"
)

// Options carries the parse-time knobs format parsers honor.
type Options struct {
	// ReadTags enables textual metadata extraction. When false, parsers
	// only collect technical properties.
	ReadTags bool

	// LoadImages enables buffering of embedded pictures.
	LoadImages bool

	// Encoding overrides the assumed encoding for strings that carry no
	// per-string encoding indicator (ID3 Latin-1 slots, ID3v1, RIFF INFO).
	// Zero value means the format default.
	Encoding text.Encoding
}

// Default returns the standard parse configuration.
func Default() Options {
	return Options{ReadTags: true}
}

// FormatParser is the interface all format parsers implement.
type FormatParser interface {
	// Parse extracts metadata from an audio file into a File. The caller
	// fills in Path, Format and Size afterwards.
	Parse(r io.ReaderAt, size int64, path string, opts Options) (*types.File, error)
}

// parsers maps formats to their parsers.
var parsers = make(map[types.Format]FormatParser)

// Register registers a parser for a format.
// Called by format packages during initialization (init functions).
func Register(format types.Format, parser FormatParser) {
	parsers[format] = parser
}

// Get returns the parser for a given format, or nil if none is registered.
func Get(format types.Format) FormatParser {
	return parsers[format]
}
