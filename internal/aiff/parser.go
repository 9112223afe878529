// Package aiff parses AIFF and AIFF-C files. Stream properties come
// from the COMM chunk, tags from the IFF text chunks and the embedded
// ID3 chunk most tools write instead.
package aiff

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	probebin "github.com/simonhull/audioprobe/internal/binary"
	"github.com/simonhull/audioprobe/internal/id3"
	"github.com/simonhull/audioprobe/internal/registry"
	"github.com/simonhull/audioprobe/internal/text"
	"github.com/simonhull/audioprobe/internal/types"
)

// textChunks maps IFF text chunk IDs to canonical field names. The
// "(c) " ID is the copyright chunk.
var textChunks = map[string]string{
	"NAME": "title",
	"AUTH": "artist",
	"ANNO": "comment",
	"(c) ": "other.copyright",
}

// Parser handles AIFF/AIFC files.
type Parser struct{}

func init() {
	registry.Register(types.FormatAIFF, &Parser{})
}

// Parse implements registry.FormatParser.
func (p *Parser) Parse(r io.ReaderAt, size int64, path string, opts registry.Options) (*types.File, error) {
	sr := probebin.NewSafeReader(r, size, path)
	file := &types.File{}

	header := make([]byte, 12)
	if err := sr.ReadAt(header, 0, "FORM header"); err != nil ||
		string(header[:4]) != "FORM" ||
		(string(header[8:12]) != "AIFF" && string(header[8:12]) != "AIFC") {
		return nil, &types.ParseError{Path: path, Reason: "missing FORM AIFF header"}
	}

	offset := int64(12)
	chunkHeader := make([]byte, 8)
	for offset+8 <= size {
		if err := sr.ReadAt(chunkHeader, offset, "chunk header"); err != nil {
			break
		}
		chunkID := string(chunkHeader[:4])
		chunkSize := int64(binary.BigEndian.Uint32(chunkHeader[4:8]))
		chunkSize += chunkSize % 2 // IFF chunks are padded to even sizes

		dataOffset := offset + 8
		if dataOffset+chunkSize > size {
			file.Warn("metadata", fmt.Sprintf("chunk %q exceeds file, clamping", chunkID), offset)
			chunkSize = size - dataOffset
		}

		switch {
		case chunkID == "COMM":
			parseCommonChunk(sr, dataOffset, chunkSize, file)
		case textChunks[chunkID] != "" && opts.ReadTags:
			parseTextChunk(sr, dataOffset, chunkSize, textChunks[chunkID], file, opts)
		case (chunkID == "id3 " || chunkID == "ID3 ") && (opts.ReadTags || opts.LoadImages):
			parseID3Chunk(sr, dataOffset, chunkSize, path, file, opts)
		}

		offset = dataOffset + chunkSize
	}

	return file, nil
}

// parseCommonChunk decodes channels, frame count, bit depth and the
// sample rate, an 80-bit extended precision float.
func parseCommonChunk(sr *probebin.SafeReader, offset, size int64, file *types.File) {
	if size < 18 {
		file.Warn("technical", "COMM chunk too short", offset)
		return
	}
	buf := make([]byte, 18)
	if err := sr.ReadAt(buf, offset, "COMM chunk"); err != nil {
		return
	}

	channels := int(int16(binary.BigEndian.Uint16(buf[0:2])))
	numFrames := binary.BigEndian.Uint32(buf[2:6])
	bitdepth := int(int16(binary.BigEndian.Uint16(buf[6:8])))

	file.Audio.Channels = channels
	file.Audio.BitDepth = bitdepth

	exponent := int(binary.BigEndian.Uint16(buf[8:10]))
	mantissa := binary.BigEndian.Uint64(buf[10:18])
	samplerate := math.Ldexp(float64(mantissa), exponent-0x3FFF-63)
	if math.IsInf(samplerate, 0) || samplerate <= 0 {
		file.Warn("technical", "invalid sample rate in COMM chunk", offset)
		return
	}

	file.Audio.SampleRate = int(samplerate)
	file.Audio.Duration = float64(numFrames) / samplerate
	file.Audio.Bitrate = samplerate * float64(channels) * float64(bitdepth) / 1000
}

// parseTextChunk reads one IFF text chunk. The strings are not
// supposed to be NUL-terminated but sometimes are.
func parseTextChunk(sr *probebin.SafeReader, offset, size int64, field string, file *types.File, opts registry.Options) {
	buf := make([]byte, size)
	if err := sr.ReadAt(buf, offset, "text chunk"); err != nil {
		return
	}
	enc := text.UTF8
	if !opts.Encoding.IsZero() {
		enc = opts.Encoding
	}
	value, err := enc.Decode(buf)
	if err != nil || value == "" {
		return
	}
	file.Tags.Add(field, value)
}

// parseID3Chunk delegates an embedded ID3v2 tag to the id3 package.
// Values already set by IFF text chunks keep priority.
func parseID3Chunk(sr *probebin.SafeReader, offset, size int64, path string, file *types.File, opts registry.Options) {
	chunk := make([]byte, size)
	if err := sr.ReadAt(chunk, offset, "id3 chunk"); err != nil {
		file.Warn("metadata", "unreadable id3 chunk", offset)
		return
	}
	res := id3.ParseV2Bytes(chunk, path, opts)
	file.MergeTags(&res.Tags)
	file.Images.Merge(&res.Images)
	file.Warnings = append(file.Warnings, res.Warnings...)
}
