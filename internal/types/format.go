package types

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"

	"github.com/simonhull/audioprobe/internal/binary"
)

// Format represents the detected audio container format.
type Format int

const (
	// FormatUnknown represents an unknown or unsupported format.
	FormatUnknown Format = iota
	// FormatMP3 represents MP1/MP2/MP3 files carrying ID3 tags.
	FormatMP3
	// FormatMP4 represents MP4/M4A/M4B files.
	FormatMP4
	// FormatOgg represents Ogg containers (Vorbis, Opus, Speex, FLAC-in-Ogg).
	FormatOgg
	// FormatWAV represents RIFF/WAVE files.
	FormatWAV
	// FormatFLAC represents native FLAC files.
	FormatFLAC
	// FormatWMA represents WMA/ASF files.
	FormatWMA
	// FormatAIFF represents AIFF and AIFF-C files.
	FormatAIFF
)

// String returns the conventional name of the format.
func (f Format) String() string {
	switch f {
	case FormatMP3:
		return "MP3"
	case FormatMP4:
		return "MP4"
	case FormatOgg:
		return "Ogg"
	case FormatWAV:
		return "WAV"
	case FormatFLAC:
		return "FLAC"
	case FormatWMA:
		return "WMA"
	case FormatAIFF:
		return "AIFF"
	default:
		return "Unknown"
	}
}

// Extensions returns common file extensions for this format.
func (f Format) Extensions() []string {
	switch f {
	case FormatMP3:
		return []string{".mp3", ".mp2", ".mp1"}
	case FormatMP4:
		return []string{".m4a", ".m4b", ".m4r", ".m4v", ".mp4", ".aax", ".aaxc"}
	case FormatOgg:
		return []string{".ogg", ".oga", ".opus", ".spx"}
	case FormatWAV:
		return []string{".wav"}
	case FormatFLAC:
		return []string{".flac"}
	case FormatWMA:
		return []string{".wma"}
	case FormatAIFF:
		return []string{".aiff", ".aifc", ".aif", ".afc"}
	default:
		return nil
	}
}

// asfHeaderGUID identifies the mandatory ASF header object.
var asfHeaderGUID = []byte{
	0x30, 0x26, 0xB2, 0x75, 0x8E, 0x66, 0xCF, 0x11,
	0xA6, 0xD9, 0x00, 0xAA, 0x00, 0x62, 0xCE, 0x6C,
}

// extensionFormats is consulted only when magic bytes are ambiguous,
// e.g. an MP3 whose first frame sync sits beyond the sniffed prefix.
var extensionFormats = map[string]Format{
	".mp1": FormatMP3, ".mp2": FormatMP3, ".mp3": FormatMP3,
	".oga": FormatOgg, ".ogg": FormatOgg, ".opus": FormatOgg, ".spx": FormatOgg,
	".wav": FormatWAV, ".flac": FormatFLAC, ".wma": FormatWMA,
	".m4a": FormatMP4, ".m4b": FormatMP4, ".m4r": FormatMP4, ".m4v": FormatMP4,
	".mp4": FormatMP4, ".aax": FormatMP4, ".aaxc": FormatMP4,
	".aiff": FormatAIFF, ".aifc": FormatAIFF, ".aif": FormatAIFF, ".afc": FormatAIFF,
}

// DetectFormat determines the audio file format by examining magic bytes,
// falling back to the filename extension when the prefix is ambiguous.
//
// Detection inspects at most the first 16 bytes and does not validate the
// rest of the file structure.
func DetectFormat(r io.ReaderAt, size int64, path string) (Format, error) {
	if size < 4 {
		return FormatUnknown, &UnsupportedFormatError{Path: path, Reason: "file too small"}
	}

	sr := binary.NewSafeReader(r, size, path)

	prefix := make([]byte, 16)
	if size < int64(len(prefix)) {
		prefix = prefix[:size]
	}
	if err := sr.ReadAt(prefix, 0, "file magic bytes"); err != nil {
		return FormatUnknown, &UnsupportedFormatError{Path: path, Reason: "failed to read file header"}
	}

	switch {
	case bytes.HasPrefix(prefix, []byte("fLaC")):
		return FormatFLAC, nil
	case bytes.HasPrefix(prefix, []byte("ID3")):
		return FormatMP3, nil
	case prefix[0] == 0xFF && prefix[1]&0xE0 == 0xE0 && prefix[1] != 0xF1:
		// MPEG audio frame sync with no tag in front.
		return FormatMP3, nil
	case bytes.HasPrefix(prefix, []byte("OggS")):
		return FormatOgg, nil
	case bytes.HasPrefix(prefix, []byte("RIFF")) && size >= 12:
		tag := make([]byte, 4)
		if err := sr.ReadAt(tag, 8, "RIFF form type"); err == nil && string(tag) == "WAVE" {
			return FormatWAV, nil
		}
	case bytes.HasPrefix(prefix, []byte("FORM")) && size >= 12:
		tag := make([]byte, 4)
		if err := sr.ReadAt(tag, 8, "IFF form type"); err == nil {
			if string(tag) == "AIFF" || string(tag) == "AIFC" {
				return FormatAIFF, nil
			}
		}
	case bytes.HasPrefix(prefix, asfHeaderGUID):
		return FormatWMA, nil
	case len(prefix) >= 12 && string(prefix[4:8]) == "ftyp":
		return FormatMP4, nil
	}

	// ADTS AAC streams start with 0xFFF1; treat them as MP4-family audio.
	if prefix[0] == 0xFF && prefix[1] == 0xF1 {
		return FormatMP4, nil
	}

	if ext := strings.ToLower(filepath.Ext(path)); ext != "" {
		if format, ok := extensionFormats[ext]; ok {
			return format, nil
		}
	}

	return FormatUnknown, &UnsupportedFormatError{Path: path, Reason: "unrecognized file signature"}
}
