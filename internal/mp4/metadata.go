package mp4

import (
	"encoding/binary"
	"strconv"
	"strings"

	probebin "github.com/simonhull/audioprobe/internal/binary"
	"github.com/simonhull/audioprobe/internal/id3"
	"github.com/simonhull/audioprobe/internal/registry"
	"github.com/simonhull/audioprobe/internal/text"
	"github.com/simonhull/audioprobe/internal/types"
)

// ilstFields maps ilst child atom types to canonical field names.
// The 0xA9 byte is the MacRoman copyright sign iTunes prefixes its
// atoms with.
var ilstFields = map[string]string{
	"\xa9ART": "artist",
	"\xa9alb": "album",
	"\xa9cmt": "comment",
	"\xa9con": "other.conductor",
	"\xa9day": "year",
	"\xa9des": "other.description",
	"\xa9dir": "other.director",
	"\xa9gen": "genre",
	"\xa9lyr": "other.lyrics",
	"\xa9mvn": "other.movement",
	"\xa9nam": "title",
	"\xa9pub": "other.publisher",
	"\xa9too": "other.encoded_by",
	"\xa9wrt": "composer",
	"aART":    "albumartist",
	"cprt":    "other.copyright",
	"tmpo":    "other.bpm",
}

// customILSTFields maps the name sub-atom of "----" freeform atoms to
// canonical fields.
var customILSTFields = map[string]string{
	"artists":       "artist",
	"conductor":     "other.conductor",
	"discsubtitle":  "other.set_subtitle",
	"initialkey":    "other.initial_key",
	"isrc":          "other.isrc",
	"language":      "other.language",
	"lyricist":      "other.lyricist",
	"media":         "other.media",
	"website":       "other.url",
	"originaldate":  "other.original_date",
	"originalyear":  "other.original_year",
	"license":       "other.license",
	"barcode":       "other.barcode",
	"catalognumber": "other.catalog_number",
}

// parseMetadata walks moov/udta/meta/ilst and applies every known tag
// atom to the file.
func parseMetadata(sr *probebin.SafeReader, moov *Atom, file *types.File, opts registry.Options) {
	ilst := findPath(sr, moov, "udta", "meta", "ilst")
	if ilst == nil {
		return
	}

	walkChildren(sr, childrenStart(ilst), ilst.End(), func(tagAtom *Atom) bool {
		payload := readDataAtomPayload(sr, tagAtom)

		switch tagAtom.Type {
		case "trkn":
			if opts.ReadTags {
				applyNumberPair(file, payload, types.FieldTrack, types.FieldTrackTotal)
			}
		case "disk":
			if opts.ReadTags {
				applyNumberPair(file, payload, types.FieldDisc, types.FieldDiscTotal)
			}
		case "gnre":
			// Genre index is 1-based, unlike ID3.
			if opts.ReadTags && len(payload) >= 10 {
				idx := int(binary.BigEndian.Uint16(payload[8:10])) - 1
				if genre := id3.GenreByIndex(idx); genre != "" {
					file.Tags.Add(types.FieldGenre, genre)
				}
			}
		case "covr":
			if opts.LoadImages {
				applyDataAtom(file, "images.front_cover", payload, opts)
			}
		case "----":
			parseFreeformAtom(sr, tagAtom, file, opts)
		default:
			field := ilstFields[tagAtom.Type]
			if field == "" || !opts.ReadTags {
				return true
			}
			applyDataAtom(file, field, payload, opts)
		}
		return true
	})
}

// readDataAtomPayload returns the payload of the data atom nested in a
// tag atom (nil when absent or unreadable).
func readDataAtomPayload(sr *probebin.SafeReader, tagAtom *Atom) []byte {
	dataAtom := findAtom(sr, tagAtom.DataOffset(), tagAtom.End(), "data")
	if dataAtom == nil || dataAtom.DataSize() <= 0 {
		return nil
	}
	payload := make([]byte, dataAtom.DataSize())
	if err := sr.ReadAt(payload, dataAtom.DataOffset(), "data atom payload"); err != nil {
		return nil
	}
	return payload
}

// applyDataAtom decodes a data atom payload by its type code and
// applies the value. The payload starts with a 4-byte type indicator
// and a 4-byte locale; the value follows.
// https://developer.apple.com/documentation/quicktime-file-format/metadata
func applyDataAtom(file *types.File, field string, payload []byte, opts registry.Options) {
	if len(payload) < 8 {
		return
	}
	dataType := binary.BigEndian.Uint32(payload[:4])
	value := payload[8:]

	switch dataType {
	case 1: // UTF-8
		file.Tags.Add(field, string(value))
	case 2: // UTF-16
		if s, err := text.UTF16.Decode(value); err == nil {
			file.Tags.Add(field, s)
		}
	case 13: // JPEG
		addCover(file, field, value, "image/jpeg")
	case 14: // PNG
		addCover(file, field, value, "image/png")
	case 21, 65, 66, 67, 74: // big-endian signed ints
		if s := decodeInt(value, true); s != "" {
			file.Tags.Add(field, s)
		}
	case 22, 75, 76, 77, 78: // big-endian unsigned ints
		if s := decodeInt(value, false); s != "" {
			file.Tags.Add(field, s)
		}
	}
}

func addCover(file *types.File, field string, data []byte, mimeType string) {
	kind := strings.TrimPrefix(field, "images.")
	if kind == field {
		kind = types.ImageFrontCover
	}
	file.Images.Add(kind, types.Image{
		Data:     append([]byte(nil), data...),
		MIMEType: mimeType,
	})
}

func decodeInt(value []byte, signed bool) string {
	var u uint64
	switch len(value) {
	case 1:
		u = uint64(value[0])
	case 2:
		u = uint64(binary.BigEndian.Uint16(value))
	case 4:
		u = uint64(binary.BigEndian.Uint32(value))
	case 8:
		u = binary.BigEndian.Uint64(value)
	default:
		return ""
	}
	if signed {
		switch len(value) {
		case 1:
			return strconv.FormatInt(int64(int8(u)), 10)
		case 2:
			return strconv.FormatInt(int64(int16(u)), 10)
		case 4:
			return strconv.FormatInt(int64(int32(u)), 10)
		case 8:
			return strconv.FormatInt(int64(u), 10)
		}
	}
	return strconv.FormatUint(u, 10)
}

// applyNumberPair decodes trkn/disk atoms: three big-endian uint16
// values of which the first is padding.
func applyNumberPair(file *types.File, payload []byte, field, totalField string) {
	if len(payload) < 14 {
		return
	}
	number := binary.BigEndian.Uint16(payload[10:12])
	total := binary.BigEndian.Uint16(payload[12:14])
	if number > 0 {
		file.Tags.Add(field, strconv.Itoa(int(number)))
	}
	if total > 0 {
		file.Tags.Add(totalField, strconv.Itoa(int(total)))
	}
}

// parseFreeformAtom handles "----" atoms: a mean/name pair naming the
// field and a data atom holding the value.
func parseFreeformAtom(sr *probebin.SafeReader, tagAtom *Atom, file *types.File, opts registry.Options) {
	if !opts.ReadTags {
		return
	}
	var field string
	var payload []byte
	walkChildren(sr, tagAtom.DataOffset(), tagAtom.End(), func(sub *Atom) bool {
		switch sub.Type {
		case "name":
			buf := make([]byte, sub.DataSize())
			if err := sr.ReadAt(buf, sub.DataOffset(), "freeform atom name"); err == nil && len(buf) > 4 {
				name := strings.ToLower(string(buf[4:]))
				if mapped, ok := customILSTFields[name]; ok {
					field = mapped
				} else {
					field = "other." + name
				}
			}
		case "data":
			payload = make([]byte, sub.DataSize())
			if err := sr.ReadAt(payload, sub.DataOffset(), "freeform atom data"); err != nil {
				payload = nil
			}
		}
		return true
	})
	if field == "" || len(payload) < 8 {
		return
	}
	applyDataAtom(file, field, payload, opts)
}
