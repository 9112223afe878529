// Package vorbis parses Vorbis comment blocks, the tag system shared by
// Ogg streams and native FLAC files.
package vorbis

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/simonhull/audioprobe/internal/id3"
	"github.com/simonhull/audioprobe/internal/registry"
	"github.com/simonhull/audioprobe/internal/types"
)

// commentFields maps lower-cased comment keys to canonical field names.
// See http://xiph.org/vorbis/doc/v-comment.html and the conventions that
// grew around it.
var commentFields = map[string]string{
	"album":           "album",
	"albumartist":     "albumartist",
	"title":           "title",
	"artist":          "artist",
	"artists":         "artist",
	"author":          "artist",
	"date":            "year",
	"tracknumber":     "track",
	"tracktotal":      "tracktotal",
	"totaltracks":     "tracktotal",
	"discnumber":      "disc",
	"disctotal":       "disctotal",
	"totaldiscs":      "disctotal",
	"genre":           "genre",
	"description":     "comment",
	"comment":         "comment",
	"comments":        "comment",
	"composer":        "composer",
	"bpm":             "other.bpm",
	"copyright":       "other.copyright",
	"isrc":            "other.isrc",
	"lyrics":          "other.lyrics",
	"publisher":       "other.publisher",
	"language":        "other.language",
	"director":        "other.director",
	"website":         "other.url",
	"conductor":       "other.conductor",
	"lyricist":        "other.lyricist",
	"discsubtitle":    "other.set_subtitle",
	"setsubtitle":     "other.set_subtitle",
	"initialkey":      "other.initial_key",
	"key":             "other.initial_key",
	"encodedby":       "other.encoded_by",
	"encodersettings": "other.encoder_settings",
	"media":           "other.media",
	"originaldate":    "other.original_date",
	"originalyear":    "other.original_year",
	"license":         "other.license",
	"barcode":         "other.barcode",
	"catalognumber":   "other.catalog_number",
}

// ParseComments parses a Vorbis comment block held in data and applies
// the fields to file. withVendor controls whether the block starts with
// the usual length-prefixed vendor string (Speex comment packets lack
// one). Returns the number of bytes consumed.
func ParseComments(data []byte, file *types.File, withVendor bool, opts registry.Options) int {
	pos := 0
	readU32 := func(what string) (uint32, bool) {
		if pos+4 > len(data) {
			file.Warn("metadata", fmt.Sprintf("vorbis comments truncated reading %s", what), 0)
			return 0, false
		}
		v := binary.LittleEndian.Uint32(data[pos : pos+4])
		pos += 4
		return v, true
	}

	if withVendor {
		vendorLen, ok := readU32("vendor length")
		if !ok {
			return pos
		}
		if pos+int(vendorLen) > len(data) {
			file.Warn("metadata", "vorbis vendor string exceeds block", 0)
			return pos
		}
		pos += int(vendorLen)
	}

	count, ok := readU32("comment count")
	if !ok {
		return pos
	}

	for i := uint32(0); i < count; i++ {
		length, ok := readU32("comment length")
		if !ok {
			return pos
		}
		if pos+int(length) > len(data) {
			file.Warn("metadata", "vorbis comment exceeds block", 0)
			return pos
		}
		pair := string(data[pos : pos+int(length)])
		pos += int(length)

		key, value, found := strings.Cut(pair, "=")
		if !found {
			continue
		}
		key = strings.ToLower(key)

		if key == "metadata_block_picture" {
			if opts.LoadImages {
				parseEmbeddedPicture(value, file)
			}
			continue
		}
		if !opts.ReadTags || value == "" {
			continue
		}
		field, known := commentFields[key]
		if !known {
			field = "other." + key
		}
		file.Tags.Add(field, value)
	}

	return pos
}

func parseEmbeddedPicture(b64 string, file *types.File) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		file.Warn("artwork", "undecodable METADATA_BLOCK_PICTURE field", 0)
		return
	}
	kind, img, err := ParsePicture(raw)
	if err != nil {
		file.Warn("artwork", err.Error(), 0)
		return
	}
	file.Images.Add(kind, img)
}

// ParsePicture decodes a FLAC picture block (also used inside Vorbis
// comments), returning the image kind and the image.
func ParsePicture(data []byte) (string, types.Image, error) {
	pos := 0
	readU32 := func() (int, bool) {
		if pos+4 > len(data) {
			return 0, false
		}
		v := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		pos += 4
		return v, true
	}
	readBytes := func(n int) ([]byte, bool) {
		if n < 0 || pos+n > len(data) {
			return nil, false
		}
		b := data[pos : pos+n]
		pos += n
		return b, true
	}

	picType, ok1 := readU32()
	mimeLen, ok2 := readU32()
	if !ok1 || !ok2 {
		return "", types.Image{}, fmt.Errorf("truncated picture block header")
	}
	mime, ok := readBytes(mimeLen)
	if !ok {
		return "", types.Image{}, fmt.Errorf("truncated picture MIME type")
	}
	descLen, ok := readU32()
	if !ok {
		return "", types.Image{}, fmt.Errorf("truncated picture block")
	}
	desc, ok := readBytes(descLen)
	if !ok {
		return "", types.Image{}, fmt.Errorf("truncated picture description")
	}
	// Skip width, height, depth and color count.
	pos += 16
	picLen, ok := readU32()
	if !ok {
		return "", types.Image{}, fmt.Errorf("truncated picture block")
	}
	payload, ok := readBytes(picLen)
	if !ok {
		return "", types.Image{}, fmt.Errorf("picture payload exceeds block")
	}

	return id3.ImageKind(picType), types.Image{
		Data:        append([]byte(nil), payload...),
		MIMEType:    string(mime),
		Description: string(desc),
	}, nil
}
