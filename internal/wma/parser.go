// Package wma parses ASF containers (WMA): content description objects
// for tags, file and stream properties for duration and stream info.
//
// http://uguisu.skr.jp/Windows/format_asf.html
package wma

import (
	"bytes"
	"encoding/binary"
	"io"
	"strconv"
	"strings"

	probebin "github.com/simonhull/audioprobe/internal/binary"
	"github.com/simonhull/audioprobe/internal/registry"
	"github.com/simonhull/audioprobe/internal/text"
	"github.com/simonhull/audioprobe/internal/types"
)

var (
	headerObjectGUID        = []byte{0x30, 0x26, 0xB2, 0x75, 0x8E, 0x66, 0xCF, 0x11, 0xA6, 0xD9, 0x00, 0xAA, 0x00, 0x62, 0xCE, 0x6C}
	contentDescriptionGUID  = []byte{0x33, 0x26, 0xB2, 0x75, 0x8E, 0x66, 0xCF, 0x11, 0xA6, 0xD9, 0x00, 0xAA, 0x00, 0x62, 0xCE, 0x6C}
	extendedContentDescGUID = []byte{0x40, 0xA4, 0xD0, 0xD2, 0x07, 0xE3, 0xD2, 0x11, 0x97, 0xF0, 0x00, 0xA0, 0xC9, 0x5E, 0xA8, 0x50}
	filePropertiesGUID      = []byte{0xA1, 0xDC, 0xAB, 0x8C, 0x47, 0xA9, 0xCF, 0x11, 0x8E, 0xE4, 0x00, 0xC0, 0x0C, 0x20, 0x53, 0x65}
	streamPropertiesGUID    = []byte{0x91, 0x07, 0xDC, 0xB7, 0xB7, 0xA9, 0xCF, 0x11, 0x8E, 0xE6, 0x00, 0xC0, 0x0C, 0x20, 0x53, 0x65}
	audioMediaGUID          = []byte{0x40, 0x9E, 0x69, 0xF8, 0x4D, 0x5B, 0xCF, 0x11, 0xA8, 0xFD, 0x00, 0x80, 0x5F, 0x5C, 0x44, 0x2B}
)

// losslessCodecID is the WMA Lossless format tag. Bit depth is only
// meaningful for lossless streams.
const losslessCodecID = 355

// extendedFields maps extended content descriptor names to canonical
// field names.
var extendedFields = map[string]string{
	"WM/ARTISTS":             "artist",
	"WM/TrackNumber":         "track",
	"WM/PartOfSet":           "disc",
	"WM/Year":                "year",
	"WM/AlbumArtist":         "albumartist",
	"WM/Genre":               "genre",
	"WM/AlbumTitle":          "album",
	"WM/Composer":            "composer",
	"WM/Publisher":           "other.publisher",
	"WM/BeatsPerMinute":      "other.bpm",
	"WM/InitialKey":          "other.initial_key",
	"WM/Lyrics":              "other.lyrics",
	"WM/Language":            "other.language",
	"WM/Director":            "other.director",
	"WM/AuthorURL":           "other.url",
	"WM/ISRC":                "other.isrc",
	"WM/Conductor":           "other.conductor",
	"WM/Writer":              "other.lyricist",
	"WM/SetSubTitle":         "other.set_subtitle",
	"WM/EncodedBy":           "other.encoded_by",
	"WM/EncodingSettings":    "other.encoder_settings",
	"WM/Media":               "other.media",
	"WM/OriginalReleaseTime": "other.original_date",
	"WM/OriginalReleaseYear": "other.original_year",
	"WM/Barcode":             "other.barcode",
	"WM/CatalogNo":           "other.catalog_number",
}

// Parser handles ASF/WMA files.
type Parser struct{}

func init() {
	registry.Register(types.FormatWMA, &Parser{})
}

// Parse implements registry.FormatParser.
func (p *Parser) Parse(r io.ReaderAt, size int64, path string, opts registry.Options) (*types.File, error) {
	sr := probebin.NewSafeReader(r, size, path)
	file := &types.File{}

	header := make([]byte, 30)
	if err := sr.ReadAt(header, 0, "ASF header"); err != nil ||
		!bytes.Equal(header[:16], headerObjectGUID) || header[29] != 0x02 {
		return nil, &types.ParseError{Path: path, Reason: "missing ASF header object"}
	}

	offset := int64(30)
	objectHeader := make([]byte, 24)
	for offset+24 <= size {
		if err := sr.ReadAt(objectHeader, offset, "object header"); err != nil {
			break
		}
		guid := objectHeader[:16]
		objectSize := int64(binary.LittleEndian.Uint64(objectHeader[16:24]))
		if objectSize < 24 || offset+objectSize > size {
			if objectSize != 0 {
				file.Warn("metadata", "object with invalid size, stopping", offset)
			}
			break
		}

		switch {
		case bytes.Equal(guid, contentDescriptionGUID) && opts.ReadTags:
			parseContentDescription(sr, offset+24, objectSize-24, file)
		case bytes.Equal(guid, extendedContentDescGUID) && opts.ReadTags:
			parseExtendedContentDescription(sr, offset+24, objectSize-24, file)
		case bytes.Equal(guid, filePropertiesGUID):
			parseFileProperties(sr, offset+24, objectSize-24, file)
		case bytes.Equal(guid, streamPropertiesGUID):
			parseStreamProperties(sr, offset+24, objectSize-24, file)
		}

		offset += objectSize
	}

	return file, nil
}

func decodeUTF16(b []byte) string {
	s, err := text.UTF16LE.Decode(b)
	if err != nil {
		return ""
	}
	return s
}

// parseContentDescription reads the five fixed fields: title, author,
// copyright, description and rating. The rating is discarded.
func parseContentDescription(sr *probebin.SafeReader, offset, size int64, file *types.File) {
	body := make([]byte, size)
	if err := sr.ReadAt(body, offset, "content description"); err != nil || len(body) < 10 {
		return
	}

	fields := []string{
		types.FieldTitle,
		types.FieldArtist,
		"other.copyright",
		types.FieldComment,
		"", // rating
	}
	pos := 10
	for i, field := range fields {
		length := int(binary.LittleEndian.Uint16(body[i*2 : i*2+2]))
		if pos+length > len(body) {
			file.Warn("metadata", "truncated content description", offset)
			return
		}
		value := decodeUTF16(body[pos : pos+length])
		pos += length
		if field != "" && value != "" {
			file.Tags.Add(field, value)
		}
	}
}

// parseExtendedContentDescription reads the name/value descriptor list.
// Unknown names land in the Other map with the WM/ prefix stripped.
func parseExtendedContentDescription(sr *probebin.SafeReader, offset, size int64, file *types.File) {
	body := make([]byte, size)
	if err := sr.ReadAt(body, offset, "extended content description"); err != nil || len(body) < 2 {
		return
	}

	count := int(binary.LittleEndian.Uint16(body[:2]))
	pos := 2
	for i := 0; i < count; i++ {
		if pos+2 > len(body) {
			return
		}
		nameLen := int(binary.LittleEndian.Uint16(body[pos : pos+2]))
		pos += 2
		if pos+nameLen+4 > len(body) {
			return
		}
		name := decodeUTF16(body[pos : pos+nameLen])
		pos += nameLen
		valueType := binary.LittleEndian.Uint16(body[pos : pos+2])
		valueLen := int(binary.LittleEndian.Uint16(body[pos+2 : pos+4]))
		pos += 4
		if pos+valueLen > len(body) {
			return
		}
		value := body[pos : pos+valueLen]
		pos += valueLen

		if valueType == 1 { // raw bytes
			continue
		}
		field, ok := extendedFields[name]
		if !ok {
			field = types.OtherPrefix + strings.ToLower(strings.TrimPrefix(name, "WM/"))
		}
		decoded := decodeDescriptorValue(valueType, value)
		if decoded == "" {
			continue
		}
		if field == types.FieldTrack || field == types.FieldDisc {
			if _, err := strconv.Atoi(decoded); err != nil {
				continue
			}
		}
		file.Tags.Add(field, decoded)
	}
}

// decodeDescriptorValue converts a descriptor value to a string: type 0
// is a UTF-16 string, types 2 to 5 are little-endian integers sized by
// the value length.
func decodeDescriptorValue(valueType uint16, value []byte) string {
	if valueType == 0 {
		return decodeUTF16(value)
	}
	if valueType < 2 || valueType > 5 {
		return ""
	}
	switch len(value) {
	case 1:
		return strconv.FormatUint(uint64(value[0]), 10)
	case 2:
		return strconv.FormatUint(uint64(binary.LittleEndian.Uint16(value)), 10)
	case 4:
		return strconv.FormatUint(uint64(binary.LittleEndian.Uint32(value)), 10)
	case 8:
		return strconv.FormatUint(binary.LittleEndian.Uint64(value), 10)
	}
	return ""
}

// parseFileProperties derives the duration: the play duration in 100ns
// units minus the preroll buffer in milliseconds.
func parseFileProperties(sr *probebin.SafeReader, offset, size int64, file *types.File) {
	if size < 64 {
		return
	}
	body := make([]byte, 64)
	if err := sr.ReadAt(body, offset, "file properties"); err != nil {
		return
	}
	playDuration := float64(binary.LittleEndian.Uint64(body[40:48])) / 10000000
	preroll := float64(binary.LittleEndian.Uint64(body[56:64])) / 1000
	if duration := playDuration - preroll; duration > 0 {
		file.Audio.Duration = duration
	}
}

// parseStreamProperties reads the WAVEFORMATEX-style fields of an audio
// media stream.
func parseStreamProperties(sr *probebin.SafeReader, offset, size int64, file *types.File) {
	if size < 70 {
		return
	}
	body := make([]byte, 70)
	if err := sr.ReadAt(body, offset, "stream properties"); err != nil {
		return
	}
	if !bytes.Equal(body[:16], audioMediaGUID) {
		return
	}

	codecID := binary.LittleEndian.Uint16(body[54:56])
	file.Audio.Channels = int(binary.LittleEndian.Uint16(body[56:58]))
	file.Audio.SampleRate = int(binary.LittleEndian.Uint32(body[58:62]))
	avgBytesPerSecond := binary.LittleEndian.Uint32(body[62:66])
	file.Audio.Bitrate = float64(avgBytesPerSecond) * 8 / 1000
	if codecID == losslessCodecID {
		file.Audio.BitDepth = int(binary.LittleEndian.Uint16(body[68:70]))
	}
	file.Audio.Codec = "wma"
}
