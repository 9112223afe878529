// Package id3 parses ID3v1 and ID3v2 tags and MPEG audio frame headers.
// WAV, AIFF and FLAC files embed ID3 tags too, so the tag routines are
// exported for those parsers to delegate to.
package id3

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/simonhull/audioprobe/internal/binary"
	"github.com/simonhull/audioprobe/internal/registry"
	"github.com/simonhull/audioprobe/internal/text"
	"github.com/simonhull/audioprobe/internal/types"
)

// Result holds the outcome of parsing one ID3 tag.
type Result struct {
	Tags     types.Tags
	Images   types.Images
	Warnings []types.Warning

	// Size is the total byte length of the ID3v2 tag including its
	// header (0 when the file carries none).
	Size int64
}

func (r *Result) warn(message string, offset int64) {
	r.Warnings = append(r.Warnings, types.Warning{Stage: "metadata", Message: message, Offset: offset})
}

// DecodeSynchsafe decodes a 4-byte synchsafe integer (7 bits per byte).
func DecodeSynchsafe(b []byte) int {
	return int(b[0])<<21 | int(b[1])<<14 | int(b[2])<<7 | int(b[3])
}

// removeUnsync reverses ID3 unsynchronization: every 0xFF 0x00 pair
// collapses back to 0xFF.
func removeUnsync(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		out = append(out, b[i])
		if b[i] == 0xFF && i+1 < len(b) && b[i+1] == 0x00 {
			i++
		}
	}
	return out
}

// ParseV2 parses an ID3v2 tag starting at offset. A missing or
// unreadable tag yields an empty Result with Size 0, never an error:
// tag damage must not prevent reading the audio stream.
func ParseV2(sr *binary.SafeReader, offset int64, opts registry.Options) *Result {
	res := &Result{}

	header := make([]byte, 10)
	if err := sr.ReadAt(header, offset, "ID3v2 header"); err != nil {
		return res
	}
	if string(header[:3]) != "ID3" {
		return res
	}

	major := int(header[3])
	flags := header[5]
	size := DecodeSynchsafe(header[6:10])

	res.Size = 10 + int64(size)
	if flags&0x10 != 0 { // footer present
		res.Size += 10
	}

	bodySize := int64(size)
	if offset+10+bodySize > sr.Size() {
		bodySize = sr.Size() - offset - 10
		res.warn(fmt.Sprintf("ID3v2 tag declares %d bytes beyond end of file", size), offset)
	}
	if bodySize <= 0 {
		return res
	}

	body := make([]byte, bodySize)
	if err := sr.ReadAt(body, offset+10, "ID3v2 tag body"); err != nil {
		res.warn("unreadable ID3v2 tag body", offset)
		return res
	}

	if flags&0x80 != 0 { // tag-level unsynchronization
		body = removeUnsync(body)
	}

	pos := 0
	if flags&0x40 != 0 && len(body) >= 4 { // extended header
		pos = DecodeSynchsafe(body[:4])
		if pos < 4 || pos > len(body) {
			res.warn("invalid ID3v2 extended header size", offset)
			return res
		}
	}

	for pos < len(body) {
		consumed := parseFrame(body, pos, major, offset+10, res, opts)
		if consumed == 0 {
			break
		}
		pos += consumed
	}

	return res
}

// ParseV2Bytes parses an ID3v2 tag held in memory, as found inside WAV
// and AIFF chunks.
func ParseV2Bytes(data []byte, path string, opts registry.Options) *Result {
	sr := binary.NewSafeReader(bytes.NewReader(data), int64(len(data)), path)
	return ParseV2(sr, 0, opts)
}

func validFrameID(id string) bool {
	if id == "" {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

// parseFrame parses one frame at pos, returning the bytes consumed
// (0 ends the frame loop: padding or garbage reached).
func parseFrame(body []byte, pos, major int, bodyFileOffset int64, res *Result, opts registry.Options) int {
	headerSize, idSize := 10, 4
	if major == 2 {
		headerSize, idSize = 6, 3
	}
	if pos+headerSize > len(body) {
		return 0
	}
	header := body[pos : pos+headerSize]
	frameID := string(header[:idSize])
	if !validFrameID(frameID) {
		return 0
	}

	var frameSize int
	switch {
	case major == 2:
		frameSize = int(header[3])<<16 | int(header[4])<<8 | int(header[5])
	case major >= 4:
		frameSize = DecodeSynchsafe(header[4:8])
	default:
		frameSize = int(header[4])<<24 | int(header[5])<<16 | int(header[6])<<8 | int(header[7])
	}
	if frameSize == 0 {
		return 0
	}

	content := body[pos+headerSize:]
	if frameSize > len(content) {
		res.warn(fmt.Sprintf("frame %s declares %d bytes, only %d remain", frameID, frameSize, len(content)),
			bodyFileOffset+int64(pos))
		frameSize = len(content)
	}
	content = content[:frameSize]
	consumed := headerSize + frameSize

	if major >= 3 {
		formatFlags := header[9]
		if major >= 4 {
			if formatFlags&0x0C != 0 { // compressed or encrypted
				res.warn(fmt.Sprintf("skipping compressed/encrypted frame %s", frameID), bodyFileOffset+int64(pos))
				return consumed
			}
			if formatFlags&0x01 != 0 && len(content) >= 4 { // data length indicator
				content = content[4:]
			}
			if formatFlags&0x02 != 0 { // frame-level unsynchronization
				content = removeUnsync(content)
			}
		} else {
			if formatFlags&0xC0 != 0 { // compressed or encrypted
				res.warn(fmt.Sprintf("skipping compressed/encrypted frame %s", frameID), bodyFileOffset+int64(pos))
				return consumed
			}
			if formatFlags&0x20 != 0 && len(content) >= 1 { // grouping identity
				content = content[1:]
			}
		}
	}
	if len(content) == 0 {
		return consumed
	}

	switch field := frameFields[frameID]; {
	case field != "":
		if !opts.ReadTags {
			return consumed
		}
		language := field == "comment" || field == "other.lyrics"
		value := decodeText(content, language, opts.Encoding)
		if value == "" {
			return consumed
		}
		switch field {
		case "comment":
			// iTunes hides key\x00value pairs in comment frames.
			if parseCustomField(&res.Tags, value) {
				return consumed
			}
		case "genre":
			value = resolveGenre(value)
			if value == "" {
				return consumed
			}
		}
		res.Tags.Add(field, value)
	case frameID == "TXXX" || frameID == "TXX":
		if opts.ReadTags {
			if value := decodeText(content, false, opts.Encoding); value != "" {
				parseCustomField(&res.Tags, value)
			}
		}
	case frameID == "APIC" || frameID == "PIC":
		if opts.LoadImages {
			parseImageFrame(frameID, content, bodyFileOffset+int64(pos), res, opts)
		}
	case !disallowedFrames[frameID]:
		if opts.ReadTags {
			if value := decodeText(content, false, opts.Encoding); value != "" {
				res.Tags.Add("other."+strings.ToLower(frameID), value)
			}
		}
	}

	return consumed
}

// resolveGenre maps numeric TCON values ("13", "(13)") through the v1
// genre table; anything else passes through untouched.
func resolveGenre(value string) string {
	idx := -1
	if n, err := strconv.Atoi(value); err == nil {
		idx = n
	} else if strings.HasPrefix(value, "(") {
		if end := strings.IndexByte(value, ')'); end > 1 {
			if n, err := strconv.Atoi(value[1:end]); err == nil {
				idx = n
			}
		}
	}
	if idx < 0 {
		return value
	}
	return GenreByIndex(idx)
}

// parseCustomField splits "name\x00value" content into an Other entry,
// promoting well-known names to canonical fields. Reports whether the
// content had that shape.
func parseCustomField(tags *types.Tags, content string) bool {
	name, value, ok := strings.Cut(content, "\x00")
	if !ok {
		return false
	}
	name = strings.ToLower(name)
	value = strings.TrimPrefix(value, "\ufeff")
	if name == "" || value == "" {
		return false
	}
	field, known := customFields[name]
	if !known {
		field = "other." + name
	}
	tags.Add(field, value)
	return true
}

func parseImageFrame(frameID string, content []byte, fileOffset int64, res *Result, opts registry.Options) {
	if len(content) < 2 {
		return
	}
	encByte := content[0]

	var mimeType string
	var descStart int
	if frameID == "PIC" {
		if len(content) < 5 {
			return
		}
		mimeType = v22ImageFormats[strings.ToLower(string(content[1:4]))]
		descStart = 1 + 3 + 1
	} else {
		mimeEnd := bytes.IndexByte(content[1:], 0)
		if mimeEnd < 0 {
			res.warn("APIC frame without MIME terminator", fileOffset)
			return
		}
		mimeEnd++
		mimeType = strings.ToLower(string(content[1:mimeEnd]))
		if mapped, ok := v22ImageFormats[mimeType]; ok {
			mimeType = mapped
		}
		descStart = mimeEnd + 1 + 1
	}
	if descStart > len(content) {
		return
	}
	picType := int(content[descStart-1])

	// Description is NUL-terminated in the declared encoding.
	termSize := 1
	if encByte == 1 || encByte == 2 {
		termSize = 2
	}
	descLen := indexTerminator(content[descStart:], termSize)
	if descLen < 0 {
		res.warn("picture frame without description terminator", fileOffset)
		return
	}
	descEnd := descStart + descLen + termSize
	// The description reuses the frame's encoding byte.
	desc := make([]byte, 0, 1+descEnd-descStart)
	desc = append(desc, encByte)
	desc = append(desc, content[descStart:descEnd]...)
	description := decodeText(desc, false, opts.Encoding)

	data := content[descEnd:]
	if len(data) == 0 {
		return
	}
	res.Images.Add(ImageKind(picType), types.Image{
		Data:        append([]byte(nil), data...),
		MIMEType:    mimeType,
		Description: description,
	})
}

// indexTerminator finds the first aligned NUL terminator of the given
// width.
func indexTerminator(b []byte, width int) int {
	for i := 0; i+width <= len(b); i += width {
		if b[i] == 0 && (width == 1 || b[i+1] == 0) {
			return i
		}
	}
	return -1
}

var utf16BOMs = [][]byte{{0xFE, 0xFF}, {0xFF, 0xFE}}

func hasBOM(b []byte) bool {
	for _, bom := range utf16BOMs {
		if bytes.HasPrefix(b, bom) {
			return true
		}
	}
	return false
}

func isAlpha(b []byte) bool {
	for _, c := range b {
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return len(b) > 0
}

// decodeText decodes an ID3 text payload led by its encoding indicator
// byte. language strips the 3-character language code COMM and USLT
// frames carry.
func decodeText(b []byte, language bool, override text.Encoding) string {
	if len(b) == 0 {
		return ""
	}
	def := text.Latin1
	if !override.IsZero() {
		def = override
	}

	var enc text.Encoding
	switch b[0] {
	case 0: // ISO-8859-1
		b = b[1:]
		enc = def
	case 1: // UTF-16 with BOM
		b = b[1:]
		if language {
			if len(b) >= 5 && hasBOM(b[3:5]) {
				b = b[3:]
			}
			if len(b) >= 3 && isAlpha(b[:3]) {
				b = b[3:]
			}
			b = bytes.TrimLeft(b, "\x00")
		}
		enc = text.UTF16LE
		if bytes.HasPrefix(b, utf16BOMs[0]) {
			enc = text.UTF16BE
		}
		if hasBOM(b) {
			if len(b)%2 == 0 {
				b = b[2:]
			} else {
				b = b[2 : len(b)-1]
			}
		}
		// Some writers emit a second BOM.
		if bytes.HasPrefix(b, []byte{0x00, 0x00, 0xFF, 0xFE}) {
			b = b[4:]
		}
	case 2: // UTF-16LE without BOM
		if len(b)%2 == 0 {
			b = b[1 : len(b)-1]
		} else {
			b = b[1:]
		}
		enc = text.UTF16LE
	case 3: // UTF-8
		b = b[1:]
		enc = text.UTF8
	default: // no indicator byte at all
		enc = def
	}

	if language && enc.TerminatorSize() == 1 && len(b) >= 3 && isAlpha(b[:3]) {
		b = b[3:]
	}

	s, err := enc.Decode(b)
	if err != nil {
		return ""
	}
	return strings.Trim(s, "\x00 \t\r\n")
}
