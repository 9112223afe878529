package audioprobe

import (
	"io"

	"github.com/simonhull/audioprobe/internal/types"
)

// Format represents the detected audio container format.
type Format = types.Format

// Supported formats.
const (
	FormatUnknown = types.FormatUnknown
	FormatMP3     = types.FormatMP3
	FormatMP4     = types.FormatMP4
	FormatOgg     = types.FormatOgg
	FormatWAV     = types.FormatWAV
	FormatFLAC    = types.FormatFLAC
	FormatWMA     = types.FormatWMA
	FormatAIFF    = types.FormatAIFF
)

// DetectFormat determines the audio file format by examining magic
// bytes, falling back to the filename extension when the prefix is
// ambiguous.
//
// Detection inspects at most the first 16 bytes and does not validate
// the rest of the file structure.
func DetectFormat(r io.ReaderAt, size int64, path string) (Format, error) {
	return types.DetectFormat(r, size, path)
}
