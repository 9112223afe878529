// Package wave parses RIFF/WAVE files: fmt and data chunks for stream
// properties, LIST/INFO and embedded ID3 chunks for tags.
package wave

import (
	"bytes"
	"fmt"
	"io"

	probebin "github.com/simonhull/audioprobe/internal/binary"
	"github.com/simonhull/audioprobe/internal/id3"
	"github.com/simonhull/audioprobe/internal/registry"
	"github.com/simonhull/audioprobe/internal/text"
	"github.com/simonhull/audioprobe/internal/types"
)

// infoFields maps RIFF INFO chunk IDs to canonical field names.
// https://exiftool.org/TagNames/RIFF.html
var infoFields = map[string]string{
	"INAM": "title",
	"TITL": "title",
	"IPRD": "album",
	"IART": "artist",
	"IBPM": "other.bpm",
	"ICMT": "comment",
	"IMUS": "composer",
	"ICOP": "other.copyright",
	"ICRD": "year",
	"IGNR": "genre",
	"ILNG": "other.language",
	"ISRC": "other.isrc",
	"IPUB": "other.publisher",
	"IPRT": "track",
	"ITRK": "track",
	"TRCK": "track",
	"IBSU": "other.url",
	"YEAR": "year",
	"IWRI": "other.lyricist",
	"IENC": "other.encoded_by",
	"IMED": "other.media",
}

// Parser handles RIFF/WAVE files.
type Parser struct{}

func init() {
	registry.Register(types.FormatWAV, &Parser{})
}

// Parse implements registry.FormatParser.
func (p *Parser) Parse(r io.ReaderAt, size int64, path string, opts registry.Options) (*types.File, error) {
	sr := probebin.NewSafeReader(r, size, path)
	file := &types.File{}

	header := make([]byte, 12)
	if err := sr.ReadAt(header, 0, "RIFF header"); err != nil ||
		string(header[:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return nil, &types.ParseError{Path: path, Reason: "missing RIFF/WAVE header"}
	}

	// Assume CD quality until the fmt chunk says otherwise. Some codecs
	// (GSM 6.10 for one) report a bit depth of zero.
	file.Audio.BitDepth = 16

	offset := int64(12)
	chunkHeader := make([]byte, 8)
	for offset+8 <= size {
		if err := sr.ReadAt(chunkHeader, offset, "chunk header"); err != nil {
			break
		}
		if chunkHeader[0] == 0 {
			// Stray padding between chunks, resynchronize.
			offset = skipZeroBytes(sr, offset)
			continue
		}

		chunkID := string(chunkHeader[:4])
		chunkSize := int64(uint32(chunkHeader[4]) | uint32(chunkHeader[5])<<8 |
			uint32(chunkHeader[6])<<16 | uint32(chunkHeader[7])<<24)
		paddedSize := chunkSize + chunkSize%2 // IFF chunks are padded to even sizes

		dataOffset := offset + 8
		if dataOffset+paddedSize > size {
			file.Warn("metadata", fmt.Sprintf("chunk %q exceeds file, clamping", chunkID), offset)
			paddedSize = size - dataOffset
			if chunkSize > paddedSize {
				chunkSize = paddedSize
			}
		}

		switch {
		case chunkID == "fmt ":
			parseFmtChunk(sr, dataOffset, chunkSize, file)
		case chunkID == "data":
			// The declared size, without the pad byte, is the audio data.
			if file.Audio.Channels > 0 && file.Audio.SampleRate > 0 {
				bytesPerSample := float64(file.Audio.BitDepth) / 8
				file.Audio.Duration = float64(chunkSize) /
					float64(file.Audio.Channels) / float64(file.Audio.SampleRate) / bytesPerSample
			}
		case chunkID == "LIST" && opts.ReadTags:
			parseListChunk(sr, dataOffset, chunkSize, file, opts)
		case (chunkID == "id3 " || chunkID == "ID3 ") && (opts.ReadTags || opts.LoadImages):
			parseID3Chunk(sr, dataOffset, chunkSize, path, file, opts)
		}

		offset = dataOffset + paddedSize
	}

	return file, nil
}

// skipZeroBytes advances past NUL padding to the next plausible chunk.
func skipZeroBytes(sr *probebin.SafeReader, offset int64) int64 {
	blockSize := int64(4096)
	if offset+blockSize > sr.Size() {
		blockSize = sr.Size() - offset
	}
	block := make([]byte, blockSize)
	if err := sr.ReadAt(block, offset, "chunk padding"); err != nil {
		return sr.Size()
	}
	for i, b := range block {
		if b != 0 {
			return offset + int64(i)
		}
	}
	return offset + blockSize
}

// parseFmtChunk decodes channel count, sample rate and bit depth.
func parseFmtChunk(sr *probebin.SafeReader, offset, size int64, file *types.File) {
	if size < 16 {
		file.Warn("technical", "fmt chunk too short", offset)
		return
	}
	buf := make([]byte, 16)
	if err := sr.ReadAt(buf, offset, "fmt chunk"); err != nil {
		return
	}

	channels := int(uint16(buf[2]) | uint16(buf[3])<<8)
	samplerate := int(uint32(buf[4]) | uint32(buf[5])<<8 | uint32(buf[6])<<16 | uint32(buf[7])<<24)
	bitdepth := int(uint16(buf[14]) | uint16(buf[15])<<8)
	if bitdepth == 0 {
		bitdepth = 1
	}

	file.Audio.Channels = channels
	file.Audio.SampleRate = samplerate
	file.Audio.BitDepth = bitdepth
	file.Audio.Bitrate = float64(samplerate) * float64(channels) * float64(bitdepth) / 1000
}

// parseListChunk walks the INFO sub-chunks of a LIST chunk.
func parseListChunk(sr *probebin.SafeReader, offset, size int64, file *types.File, opts registry.Options) {
	if size < 4 {
		return
	}
	listType := make([]byte, 4)
	if err := sr.ReadAt(listType, offset, "LIST type"); err != nil || string(listType) != "INFO" {
		return
	}

	body := make([]byte, size-4)
	if err := sr.ReadAt(body, offset+4, "INFO chunks"); err != nil {
		return
	}

	enc := text.UTF8
	if !opts.Encoding.IsZero() {
		enc = opts.Encoding
	}

	pos := 0
	for pos+8 <= len(body) {
		field := string(body[pos : pos+4])
		length := int(uint32(body[pos+4]) | uint32(body[pos+5])<<8 |
			uint32(body[pos+6])<<16 | uint32(body[pos+7])<<24)
		length += length % 2
		pos += 8
		if pos+length > len(body) {
			length = len(body) - pos
		}
		data := body[pos : pos+length]
		pos += length

		if canonical, ok := infoFields[field]; ok {
			// Values are NUL-terminated inside a padded field.
			raw := data
			if idx := bytes.IndexByte(raw, 0); idx >= 0 {
				raw = raw[:idx]
			}
			value, err := enc.Decode(raw)
			if err != nil || value == "" {
				continue
			}
			file.Tags.Add(canonical, value)
		}
	}
}

// parseID3Chunk delegates an embedded ID3v2 tag to the id3 package.
// Values already set by INFO chunks keep priority.
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
